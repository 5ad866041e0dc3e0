package tagger

import (
	"sort"
	"strings"

	"autograph-ds-builder/domain/vocab"
	"autograph-ds-builder/utils"
)

type indexBuilder struct {
	// inputs
	caseSensitive bool
	surfaceForms  []string

	// outputs
	patterns []string
	skipped  int
}

/*
Build 对表面形式去重并排序，得到用于构建自动机的模式列表。大小写不敏感时（仅 ASCII 字母），仅大小写不同的表面形式只保留字典序最小的一个。
*/
func (b *indexBuilder) Build() error {
	seen := make(map[string]struct{}, len(b.surfaceForms))
	b.patterns = make([]string, 0, len(b.surfaceForms))
	b.skipped = 0

	sorted := append([]string(nil), b.surfaceForms...)
	sort.Strings(sorted)

	for _, form := range sorted {
		if len(form) == 0 {
			b.skipped++
			continue
		}

		key := form
		if !b.caseSensitive {
			key = asciiLower(form)
		}
		if _, ok := seen[key]; ok {
			b.skipped++
			continue
		}
		seen[key] = struct{}{}
		b.patterns = append(b.patterns, form)
	}

	if len(b.patterns) == 0 {
		return utils.WrapError(ErrEmptyIndex, "build patterns fail")
	}
	return nil
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

func newEntityIndexFromGraph(setting *IndexSetting, graph *vocab.Graph) (*EntityIndex, error) {
	ret, err := newEntityIndex(setting, graph.SurfaceForms())
	if err != nil {
		return nil, utils.WrapError(err, "build entity index from vocabulary fail")
	}
	return ret, nil
}
