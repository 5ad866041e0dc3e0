package linkqueue

import (
	"errors"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/utils"
)

var errDuplicatedSeq = errors.New("response seq is duplicated")

/*
reorderBuffer 缓存乱序到达的响应，按 seq 从 0 开始连续地写出，使分布式标注的输出顺序与单机一致。
*/
type reorderBuffer struct {
	next    int64
	pending map[int64]*LinkResponseSchema
	writer  *record.JSONLWriter

	ambiguous int64
	unlinked  int64
}

func newReorderBuffer(writer *record.JSONLWriter) *reorderBuffer {
	return &reorderBuffer{
		pending: make(map[int64]*LinkResponseSchema),
		writer:  writer,
	}
}

func (b *reorderBuffer) Push(resp *LinkResponseSchema) error {
	if resp.Seq < b.next {
		return utils.WrapErrorf(errDuplicatedSeq, "push response seq [%d] fail: already written", resp.Seq)
	}
	if _, ok := b.pending[resp.Seq]; ok {
		return utils.WrapErrorf(errDuplicatedSeq, "push response seq [%d] fail: already pending", resp.Seq)
	}
	b.pending[resp.Seq] = resp

	for {
		ready, ok := b.pending[b.next]
		if !ok {
			return nil
		}
		delete(b.pending, b.next)
		b.next++

		b.ambiguous += ready.Ambiguous
		b.unlinked += ready.Unlinked
		for i := range ready.Records {
			if err := b.writer.Write(&ready.Records[i]); err != nil {
				return utils.WrapErrorf(err, "write records of seq [%d] fail", ready.Seq)
			}
		}
	}
}

// Written returns the number of batches flushed so far.
func (b *reorderBuffer) Written() int64 {
	return b.next
}

func (b *reorderBuffer) Pending() int {
	return len(b.pending)
}
