package record

import (
	"autograph-ds-builder/utils"
	"bufio"
	"fmt"
	"io"
	"strings"
)

/*
ReadTriples 读取 "src\trelation\ttgt" 格式的三元组文件，字段数不为 3 的行视为损坏输入。
*/
func ReadTriples(r io.Reader) ([]Triple, error) {
	var ret []Triple

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if len(text) == 0 {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) != 3 {
			return nil, utils.WrapErrorf(ErrMalformedRecord, "triple line [%d] has %d fields", line, len(fields))
		}

		ret = append(ret, Triple{Src: fields[0], Relation: fields[1], Tgt: fields[2]})
	}

	if err := scanner.Err(); err != nil {
		return nil, utils.WrapError(err, "scan triples fail")
	}
	return ret, nil
}

func WriteTriples(w io.Writer, triples []Triple) error {
	buf := bufio.NewWriter(w)
	for _, t := range triples {
		if _, err := fmt.Fprintf(buf, "%s\t%s\t%s\n", t.Src, t.Relation, t.Tgt); err != nil {
			return utils.WrapError(err, "write triple fail")
		}
	}
	return utils.WrapError(buf.Flush(), "flush triples fail")
}

/*
WriteLines 写出词表文件，每行一个条目，行号即下游特征编码使用的整数 id。
*/
func WriteLines(w io.Writer, lines []string) error {
	buf := bufio.NewWriter(w)
	for _, l := range lines {
		if strings.ContainsAny(l, "\n") {
			return utils.WrapErrorf(ErrMalformedRecord, "vocabulary entry %#v contains a newline", l)
		}
		if _, err := buf.WriteString(l + "\n"); err != nil {
			return utils.WrapError(err, "write line fail")
		}
	}
	return utils.WrapError(buf.Flush(), "flush lines fail")
}

/*
ReadIndex 读取词表文件，返回 条目 -> id。
*/
func ReadIndex(r io.Reader) (map[string]int, error) {
	ret := make(map[string]int)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		entry := strings.TrimSpace(scanner.Text())
		if len(entry) == 0 {
			continue
		}
		if _, ok := ret[entry]; ok {
			continue
		}
		ret[entry] = len(ret)
	}

	if err := scanner.Err(); err != nil {
		return nil, utils.WrapError(err, "scan index fail")
	}
	return ret, nil
}

const (
	ForwardSuffix  = "(e1,e2)"
	BackwardSuffix = "(e2,e1)"
)

/*
ReadRelationIndex 读取关系词表。withDir 为 true 时每个非 NA 关系展开为
"rel(e1,e2)" 与 "rel(e2,e1)" 两个 id。
*/
func ReadRelationIndex(r io.Reader, withDir bool) (map[string]int, error) {
	base, err := ReadIndex(r)
	if err != nil {
		return nil, err
	}
	if !withDir {
		return base, nil
	}

	ordered := make([]string, len(base))
	for relation, id := range base {
		ordered[id] = relation
	}

	ret := make(map[string]int, 2*len(base))
	for _, relation := range ordered {
		if relation == NARelation {
			ret[relation] = len(ret)
			continue
		}
		ret[relation+ForwardSuffix] = len(ret)
		ret[relation+BackwardSuffix] = len(ret)
	}
	return ret, nil
}
