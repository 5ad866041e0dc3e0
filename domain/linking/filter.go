package linking

import (
	"strings"
	"unicode/utf8"

	"autograph-ds-builder/utils"
)

/*
SentenceFilter 将语料中的一行整理为待标注的句子：去掉首尾空白，可选地把超长行切分成多句，
再按字符数过滤到 [MinLen, MaxLen]。SentenceFilter 不是并发安全的。
*/
type SentenceFilter struct {
	MinLen   int
	MaxLen   int
	splitter *utils.SentenceSplitter
}

func NewSentenceFilter(minLen, maxLen int, separators []rune) *SentenceFilter {
	ret := SentenceFilter{
		MinLen: minLen,
		MaxLen: maxLen,
	}
	if len(separators) != 0 && maxLen > 0 {
		ret.splitter = utils.NewSentenceSplitter(separators, minLen, maxLen)
	}
	return &ret
}

// Sentences returns the kept sentences of line and how many candidates were dropped by length.
func (f *SentenceFilter) Sentences(line string) (kept []string, dropped int) {
	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return nil, 0
	}

	candidates := []string{line}
	if f.splitter != nil {
		candidates = f.splitter.SplitText(line)
	}

	for _, sent := range candidates {
		sent = strings.TrimSpace(sent)
		if len(sent) == 0 {
			continue
		}
		n := utf8.RuneCountInString(sent)
		if n < f.MinLen || (f.MaxLen > 0 && n > f.MaxLen) {
			dropped++
			continue
		}
		kept = append(kept, sent)
	}
	return kept, dropped
}
