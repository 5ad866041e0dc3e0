package tagger

import (
	"errors"
	"sort"
	"unicode/utf8"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"autograph-ds-builder/domain/record"
	"autograph-ds-builder/utils"
)

var ErrEmptyIndex = errors.New("entity index has no pattern")

// Range byte offsets of a mention, End exclusive.
type Range struct {
	Begin int
	End   int
}

type EntityInfo struct {
	Range
	Name string
}

/*
EntityIndex 以 Aho-Corasick 自动机匹配所有实体表面形式。构建之后不可修改，Find 与 Link 可以并发调用。
*/
type EntityIndex struct {
	matcher  ahocorasick.AhoCorasick
	patterns []string
	jieba    *jiebaBoundary
}

func newEntityIndex(setting *IndexSetting, surfaceForms []string) (*EntityIndex, error) {
	builder := indexBuilder{
		caseSensitive: setting.CaseSensitive,
		surfaceForms:  surfaceForms,
	}
	if err := builder.Build(); err != nil {
		return nil, utils.WrapError(err, "build entity index fail")
	}

	boundary := setting.Boundary
	if boundary == "" {
		boundary = BoundaryWord
	}

	matcher := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: !setting.CaseSensitive,
		MatchOnlyWholeWords:  boundary == BoundaryWord,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
		DFA:                  setting.DFA,
	}).Build(builder.patterns)

	ret := EntityIndex{
		matcher:  matcher,
		patterns: builder.patterns,
	}
	if boundary == BoundaryJieba {
		ret.jieba = newJiebaBoundary(builder.patterns)
	}

	if setting.Logger != nil {
		setting.Logger.Infof("entity index built with %d patterns (%d skipped), boundary=%s, caseSensitive=%v",
			len(builder.patterns), builder.skipped, boundary, setting.CaseSensitive)
	}

	return &ret, nil
}

/*
NewEntityIndex 以给定的表面形式构建 EntityIndex。
*/
func NewEntityIndex(setting *IndexSetting, surfaceForms []string) (*EntityIndex, error) {
	return newEntityIndex(setting, surfaceForms)
}

func (idx *EntityIndex) Size() int {
	return len(idx.patterns)
}

/*
Find 返回 text 中所有匹配，Range 以 byte 为单位，按起始位置升序排列。
*/
func (idx *EntityIndex) Find(text string) []EntityInfo {
	matches := idx.matcher.FindAll(text)

	ret := make([]EntityInfo, 0, len(matches))
	for _, match := range matches {
		ret = append(ret, EntityInfo{
			Range: Range{
				Begin: match.Start(),
				End:   match.End(),
			},
			Name: text[match.Start():match.End()],
		})
	}

	if idx.jieba != nil {
		ret = idx.jieba.filter(text, ret)
	}

	sort.SliceStable(ret, func(i, j int) bool {
		if ret[i].Begin != ret[j].Begin {
			return ret[i].Begin < ret[j].Begin
		}
		return ret[i].End > ret[j].End
	})
	return ret
}

/*
retainSpans 从按起始位置排好序的匹配中去掉重叠的部分：从第二个匹配开始，只有起始位置不小于此前所有匹配的结束位置时才保留。
第一个匹配总是被丢弃。
*/
func retainSpans(entities []EntityInfo) []EntityInfo {
	if len(entities) < 2 {
		return nil
	}

	ret := make([]EntityInfo, 0, len(entities)-1)
	maxEnd := entities[0].End
	for i := 1; i < len(entities); i++ {
		if entities[i].Begin >= maxEnd {
			ret = append(ret, entities[i])
		}
		if entities[i].End > maxEnd {
			maxEnd = entities[i].End
		}
	}
	return ret
}

// runeOffsets returns the code point spans of entities, whose offsets are in bytes.
func runeOffsets(text string, entities []EntityInfo) []record.Span {
	ret := make([]record.Span, len(entities))
	if len(text) == utf8.RuneCountInString(text) {
		for i, entity := range entities {
			ret[i] = record.Span{Begin: entity.Begin, End: entity.End}
		}
		return ret
	}

	toRune := func(b int) int {
		return utf8.RuneCountInString(text[:b])
	}
	for i, entity := range entities {
		ret[i] = record.Span{Begin: toRune(entity.Begin), End: toRune(entity.End)}
	}
	return ret
}

/*
Link 标注句子中的实体提及，返回 表面形式 -> 字符区间（以 unicode 码点为单位）。

若保留下来的匹配中有相同的文本出现多次，整个句子被视为有歧义，返回 nil, false。
没有保留任何匹配时返回空 map 与 true。
*/
func (idx *EntityIndex) Link(sentence string) (map[string]record.Span, bool) {
	retained := retainSpans(idx.Find(sentence))

	ret := make(map[string]record.Span, len(retained))
	spans := runeOffsets(sentence, retained)
	for i, entity := range retained {
		if _, dup := ret[entity.Name]; dup {
			return nil, false
		}
		ret[entity.Name] = spans[i]
	}
	return ret, true
}

func (idx *EntityIndex) Close() {
	if idx.jieba != nil {
		idx.jieba.free()
	}
}
