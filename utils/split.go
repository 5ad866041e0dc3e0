package utils

import "unicode/utf8"

/*
SentenceSplitter 将超长的语料行切分为若干句子，每个句子的长度（按 rune 计）在 [minLen, maxLen] 区间内，
切分点尽量落在分隔符之后；对于一组分隔符，优先使用靠前的分隔符。

SentenceSplitter 不是并发安全的，每个 goroutine 应持有自己的实例。
*/
type SentenceSplitter struct {
	// 输入
	separators []rune // 分隔符，按优先级降序排列
	maxLen     int    // 句子最大长度（rune）
	minLen     int    // 句子最小长度（rune）

	priority map[rune]int // separators[i] -> i
	marks    []sepMark    // marks[i] 记录 separators[i] 最后一次出现的位置

	// 输出，index 以 byte 计，cnt 以 rune 计
	splitIndex []int
	splitCnt   []int
}

// sepMark 是某个分隔符最后一次出现的位置，cnt 为 -1 表示尚未出现。
type sepMark struct {
	index int
	cnt   int
	width int
}

// end 返回紧跟在分隔符之后的切分点。
func (m sepMark) end() (index, cnt int) {
	return m.index + m.width, m.cnt + 1
}

func (s *SentenceSplitter) init() {
	s.priority = make(map[rune]int, len(s.separators))
	s.marks = make([]sepMark, len(s.separators))
	for i, sep := range s.separators {
		s.priority[sep] = i
		s.marks[i].width = utf8.RuneLen(sep)
	}
}

func (s *SentenceSplitter) reset() {
	for i := range s.marks {
		s.marks[i].index, s.marks[i].cnt = -1, -1
	}
	s.splitIndex = nil
	s.splitCnt = nil
}

func (s *SentenceSplitter) lastCut() int {
	if len(s.splitCnt) == 0 {
		return 0
	}
	return s.splitCnt[len(s.splitCnt)-1]
}

// cut 在 (index, cnt) 处句子达到 maxLen 时选择切分点：
// 按优先级取第一个能保证当前句子不短于 minLen 的分隔符，否则硬切。
func (s *SentenceSplitter) cut(index, cnt int) {
	from := s.lastCut()
	for _, m := range s.marks {
		sepIndex, sepCnt := m.end()
		if sepCnt >= from+s.minLen {
			index, cnt = sepIndex, sepCnt
			break
		}
	}
	s.splitIndex = append(s.splitIndex, index)
	s.splitCnt = append(s.splitCnt, cnt)
}

func (s *SentenceSplitter) split(text string) {
	s.reset()

	cnt := 0
	for index, ch := range text {
		if cnt >= s.lastCut()+s.maxLen {
			s.cut(index, cnt)
		}
		if i, ok := s.priority[ch]; ok {
			s.marks[i].index, s.marks[i].cnt = index, cnt
		}
		cnt++
	}
}

/*
Split 返回切分点。

返回值：
	splitIndexOnByte: 作为utf8编码时，分割点的下标（不包括0和len(text)），对应 text[splitIndexOnByte[i] : splitIndexOnByte[i+1]]
	splitIndexOnRune: 作为unicode时，分割点的下标（不包括0和len([]rune(text))），对应 []rune(text)[splitIndexOnRune[i] : splitIndexOnRune[i+1]]
*/
func (s *SentenceSplitter) Split(text string) (splitIndexOnByte, splitIndexOnRune []int) {
	s.split(text)
	return s.splitIndex, s.splitCnt
}

/*
SplitText 按 Split 的切分点返回切分后的句子，长度不超过 maxLen 的文本原样返回。
*/
func (s *SentenceSplitter) SplitText(text string) []string {
	if utf8.RuneCountInString(text) <= s.maxLen {
		return []string{text}
	}

	indexes, _ := s.Split(text)

	ret := make([]string, 0, len(indexes)+1)
	last := 0
	for _, index := range indexes {
		ret = append(ret, text[last:index])
		last = index
	}
	ret = append(ret, text[last:])

	return ret
}

/*
NewSentenceSplitter 构建一个SentenceSplitter。
*/
func NewSentenceSplitter(separators []rune, minLen, maxLen int) *SentenceSplitter {
	ret := SentenceSplitter{
		separators: separators,
		maxLen:     maxLen,
		minLen:     minLen,
	}
	ret.init()
	return &ret
}
