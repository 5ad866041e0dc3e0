package tagger

import (
	"errors"
	"sync"

	"github.com/yanyiwu/gojieba"

	"autograph-ds-builder/utils"
)

var ErrUnknownBoundary = errors.New("unknown boundary policy")

type Boundary string

const (
	// BoundaryWord matches must be whole words.
	BoundaryWord Boundary = "word"

	// BoundaryJieba match ends must fall on jieba token boundaries.
	BoundaryJieba Boundary = "jieba"

	BoundaryNone Boundary = "none"
)

func ParseBoundary(s string) (Boundary, error) {
	switch Boundary(s) {
	case "", BoundaryWord:
		return BoundaryWord, nil
	case BoundaryJieba:
		return BoundaryJieba, nil
	case BoundaryNone:
		return BoundaryNone, nil
	}
	return "", utils.WrapErrorf(ErrUnknownBoundary, "parse boundary [%s] fail", s)
}

/*
jiebaBoundary 用 jieba 分词结果过滤匹配，只保留首尾都落在词边界上的匹配，适用于没有空白分隔的中文语料。
所有表面形式都会作为用户词加入词典。
*/
type jiebaBoundary struct {
	lock  sync.Mutex
	jieba *gojieba.Jieba
}

func newJiebaBoundary(words []string) *jiebaBoundary {
	ret := jiebaBoundary{
		jieba: gojieba.NewJieba(),
	}
	for _, word := range words {
		ret.jieba.AddWord(word)
	}
	return &ret
}

// edges returns the byte offsets at which a token starts or ends.
func (j *jiebaBoundary) edges(text string) map[int]struct{} {
	j.lock.Lock()
	words := j.jieba.Tokenize(text, gojieba.DefaultMode, true)
	j.lock.Unlock()

	ret := make(map[int]struct{}, len(words)+1)
	for _, word := range words {
		ret[word.Start] = struct{}{}
		ret[word.End] = struct{}{}
	}
	return ret
}

func (j *jiebaBoundary) filter(text string, entities []EntityInfo) []EntityInfo {
	if len(entities) == 0 {
		return entities
	}

	edges := j.edges(text)
	ret := entities[:0]
	for _, entity := range entities {
		_, beginOK := edges[entity.Begin]
		_, endOK := edges[entity.End]
		if beginOK && endOK {
			ret = append(ret, entity)
		}
	}
	return ret
}

func (j *jiebaBoundary) free() {
	j.lock.Lock()
	defer j.lock.Unlock()

	if j.jieba != nil {
		j.jieba.Free()
		j.jieba = nil
	}
}
