package record

import (
	"autograph-ds-builder/utils"
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

var ErrMalformedRecord = errors.New("malformed record")

const maxLineBytes = 64 * 1024 * 1024

/*
ReadJSONL 逐行解析 r 中的 JSON 记录并回调 fn，空行跳过。
任何一行解析失败都会终止读取并返回 ErrMalformedRecord（带行号）。
*/
func ReadJSONL[T any](r io.Reader, fn func(line int, rec *T) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++

		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		var rec T
		if err := json.Unmarshal(data, &rec); err != nil {
			return utils.WrapErrorf(errors.Join(ErrMalformedRecord, err), "parse jsonl line [%d] fail", line)
		}

		if err := fn(line, &rec); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return utils.WrapError(err, "scan jsonl fail")
	}
	return nil
}

type JSONLWriter struct {
	buf *bufio.Writer
	enc *json.Encoder
	cnt int
}

func NewJSONLWriter(w io.Writer) *JSONLWriter {
	buf := bufio.NewWriterSize(w, 1<<20)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	return &JSONLWriter{
		buf: buf,
		enc: enc,
	}
}

func (w *JSONLWriter) Write(rec interface{}) error {
	if err := w.enc.Encode(rec); err != nil {
		return utils.WrapError(err, "encode jsonl record fail")
	}
	w.cnt++
	return nil
}

func (w *JSONLWriter) Count() int {
	return w.cnt
}

func (w *JSONLWriter) Flush() error {
	return utils.WrapError(w.buf.Flush(), "flush jsonl writer fail")
}
