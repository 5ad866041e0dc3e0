package evidence

import (
	"strings"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/utils"
)

const (
	// MarkerE1 wraps the source entity (or the first one when tagging by position).
	MarkerE1 = "$"

	// MarkerE2 wraps the target entity (or the second one when tagging by position).
	MarkerE2 = "^"
)

const (
	DirForward  = 1
	DirBackward = -1
	DirNone     = 0
)

func isMarker(r rune) bool {
	return r == '$' || r == '^'
}

// StripMarkers removes every marker character from sent.
func StripMarkers(sent string) string {
	return strings.Map(func(r rune) rune {
		if isMarker(r) {
			return -1
		}
		return r
	}, sent)
}

/*
stripWithRemap 去掉句中已有的标记字符，remap[i] 为原句第 i 个 rune 之前保留下来的 rune 数，
可用于把原句上的区间换算到清理后的句子上。
*/
func stripWithRemap(sent string) (clean []rune, remap []int) {
	runes := []rune(sent)
	clean = make([]rune, 0, len(runes))
	remap = make([]int, len(runes)+1)
	for i, r := range runes {
		remap[i] = len(clean)
		if !isMarker(r) {
			clean = append(clean, r)
		}
	}
	remap[len(runes)] = len(clean)
	return clean, remap
}

type mention struct {
	text string
	span record.Span
}

func (m *mention) remap(clean []rune, remap []int) error {
	if m.span.Begin < 0 || m.span.End > len(remap)-1 || m.span.Begin > m.span.End {
		return utils.WrapErrorf(record.ErrMalformedRecord, "span [%d, %d] of [%s] out of sentence", m.span.Begin, m.span.End, m.text)
	}
	m.span = record.Span{Begin: remap[m.span.Begin], End: remap[m.span.End]}
	if string(clean[m.span.Begin:m.span.End]) != m.text {
		return utils.WrapErrorf(record.ErrMalformedRecord, "span [%d, %d] does not cover [%s]", m.span.Begin, m.span.End, m.text)
	}
	return nil
}

func wrap(b *strings.Builder, marker, text string) {
	b.WriteString(marker)
	b.WriteString(text)
	b.WriteString(marker)
}

/*
Tag 在句子中用标记包围 src 与 tgt 两个实体，返回标注后的句子与方向：src 在前为 1，tgt 在前为 -1。

kTag 为 true 时 src 总是用 MarkerE1、tgt 总是用 MarkerE2；否则按出现位置，先出现的用 MarkerE1。
两个实体的区间相交或相接、或实体文本本身含有标记字符时 ok 为 false，该句应被跳过。
*/
func Tag(sent string, matches map[string]record.Span, src, tgt string, kTag bool) (tagged string, dir int, ok bool, err error) {
	srcSpan, srcOK := matches[src]
	tgtSpan, tgtOK := matches[tgt]
	if !srcOK || !tgtOK {
		return "", DirNone, false, utils.WrapErrorf(record.ErrMalformedRecord, "group [%s, %s] not in matches", src, tgt)
	}
	if strings.ContainsAny(src, MarkerE1+MarkerE2) || strings.ContainsAny(tgt, MarkerE1+MarkerE2) {
		return "", DirNone, false, nil
	}

	s := mention{text: src, span: srcSpan}
	t := mention{text: tgt, span: tgtSpan}

	clean, remap := stripWithRemap(sent)
	if err := s.remap(clean, remap); err != nil {
		return "", DirNone, false, err
	}
	if err := t.remap(clean, remap); err != nil {
		return "", DirNone, false, err
	}

	var first, second mention
	var firstMarker, secondMarker string
	switch {
	case s.span.End < t.span.Begin:
		dir = DirForward
		first, second = s, t
		firstMarker, secondMarker = MarkerE1, MarkerE2
	case s.span.Begin > t.span.End:
		dir = DirBackward
		first, second = t, s
		firstMarker, secondMarker = MarkerE2, MarkerE1
		if !kTag {
			firstMarker, secondMarker = MarkerE1, MarkerE2
		}
	default:
		return "", DirNone, false, nil
	}

	b := strings.Builder{}
	b.Grow(len(sent) + 4)
	b.WriteString(string(clean[:first.span.Begin]))
	wrap(&b, firstMarker, first.text)
	b.WriteString(string(clean[first.span.End:second.span.Begin]))
	wrap(&b, secondMarker, second.text)
	b.WriteString(string(clean[second.span.End:]))

	return b.String(), dir, true, nil
}
