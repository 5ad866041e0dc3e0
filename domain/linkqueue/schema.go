package linkqueue

import "autograph-ds-builder/domain/record"

type LinkRequestSchema struct {
	RunID     string   `json:"run_id"`
	Seq       int64    `json:"seq"`
	Sentences []string `json:"sentences"`
}

type LinkResponseSchema struct {
	RunID     string                  `json:"run_id"`
	Seq       int64                   `json:"seq"`
	Records   []record.LinkedSentence `json:"records"`
	Ambiguous int64                   `json:"ambiguous"`
	Unlinked  int64                   `json:"unlinked"`
}
