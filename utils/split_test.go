package utils

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitter_SplitTextReusable(t *testing.T) {
	s := NewSentenceSplitter([]rune{'.', ';', ','}, 5, 20)
	text := "Aspirin is used widely. It reduces pain; it also thins the blood, sometimes too much."

	first := s.SplitText(text)
	second := s.SplitText(text)
	require.Equal(t, first, second)
	require.True(t, len(first) > 1)
	require.Equal(t, text, strings.Join(first, ""))

	for _, piece := range first {
		assert.LessOrEqual(t, utf8.RuneCountInString(piece), 20)
	}
}

func TestSplitter_SplitTextShort(t *testing.T) {
	s := NewSentenceSplitter([]rune{'.'}, 5, 20)
	require.Equal(t, []string{"short."}, s.SplitText("short."))
}

func assertSplitterResultValid(t *testing.T, s *SentenceSplitter, text string) {
	chars := []rune(text)
	cntToStr := func(beg, end int) string {
		b := strings.Builder{}
		for i := beg; i < end; i++ {
			b.WriteRune(chars[i])
		}
		return b.String()
	}

	cntStr := cntToStr(0, s.splitCnt[0])
	t.Log(cntStr)
	require.Equal(t, cntStr, text[0:s.splitIndex[0]])

	for i := 1; i < len(s.splitIndex); i++ {
		cntStr = cntToStr(s.splitCnt[i-1], s.splitCnt[i])
		t.Log(cntStr)
		require.Equal(t, cntStr, text[s.splitIndex[i-1]:s.splitIndex[i]])
	}

	cntStr = cntToStr(s.splitCnt[len(s.splitCnt)-1], utf8.RuneCountInString(text))
	t.Log(cntStr)
	require.Equal(t, cntStr, text[s.splitIndex[len(s.splitIndex)-1]:])
}

func TestSplitter_SplitWithNoSepText(t *testing.T) {
	s := SentenceSplitter{
		separators: []rune{'。', '，', '；', ',', '.'},
		maxLen:     2,
		minLen:     1,
	}
	s.init()
	text := "abcd一二三四五"
	s.split(text)

	assertSplitterResultValid(t, &s, text)

	require.Equal(t, []int{2, 4, 6, 8}, s.splitCnt)
}

func TestSplitter_SplitWithFullSepText(t *testing.T) {
	s := SentenceSplitter{
		separators: []rune{'。', '，', '；', ',', '.'},
		maxLen:     2,
		minLen:     1,
	}
	s.init()
	text := ",,,,。。，，；"
	s.split(text)

	assertSplitterResultValid(t, &s, text)

	require.Equal(t, []int{2, 4, 6, 8}, s.splitCnt)
}

func TestSplitter_SplitSepPriority(t *testing.T) {
	s := SentenceSplitter{
		separators: []rune{'。', '，', '；', ',', '.'},
		maxLen:     8,
		minLen:     4,
	}
	s.init()
	text := "。。。。，；,.ooo。o"
	s.split(text)

	assertSplitterResultValid(t, &s, text)

	require.Equal(t, []int{4, 12}, s.splitCnt)
}
