package record

import (
	"encoding/json"

	"autograph-ds-builder/utils"
)

// NARelation is the synthetic label of sampled negative groups.
const NARelation = "NA"

/*
Span 为实体在句子中的位置 [Begin, End)，以 rune 为单位，JSON 编码为 [begin, end]。
*/
type Span struct {
	Begin int
	End   int
}

func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{s.Begin, s.End})
}

func (s *Span) UnmarshalJSON(data []byte) error {
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return utils.WrapErrorf(ErrMalformedRecord, "span must have 2 elements, got %d", len(raw))
	}

	s.Begin, s.End = raw[0], raw[1]
	return nil
}

type LinkedSentence struct {
	Sent    string          `json:"sent"`
	Matches map[string]Span `json:"matches"`
}

type Groups struct {
	P []string `json:"p"`
	N []string `json:"n"`
}

type GroupLinkedSentence struct {
	Sent    string          `json:"sent"`
	Matches map[string]Span `json:"matches"`
	Groups  Groups          `json:"groups"`
}

/*
EvidenceLine 为最终 train/dev/test 文件中的一行。E1/E2 仅在区分方向时非空。
*/
type EvidenceLine struct {
	Group     [2]string `json:"group"`
	Relation  string    `json:"relation"`
	Sentences []string  `json:"sentences"`
	E1        *string   `json:"e1"`
	E2        *string   `json:"e2"`
	RelDir    int       `json:"reldir"`
}

type Triple struct {
	Src      string
	Relation string
	Tgt      string
}

func (t Triple) Group() string {
	return JoinGroup(t.Src, t.Tgt)
}

func (t Triple) Less(o Triple) bool {
	if t.Src != o.Src {
		return t.Src < o.Src
	}
	if t.Relation != o.Relation {
		return t.Relation < o.Relation
	}
	return t.Tgt < o.Tgt
}
