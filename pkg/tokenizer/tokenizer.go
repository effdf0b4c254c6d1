// Package tokenizer counts model tokens for budget calculations. Token and
// character counts diverge enough that character-based budgets overflow
// model input limits, so budgeted callers must measure with the model's own
// encoding.
package tokenizer

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter reports how many tokens a text occupies.
type Counter interface {
	Count(text string) int
}

type bpeCounter struct {
	enc *tiktoken.Tiktoken
}

// ForModel returns a Counter using the model's BPE encoding, falling back to
// a word-based estimate when the encoding is unknown.
func ForModel(model string) Counter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return EstimateCounter{}
	}
	return &bpeCounter{enc: enc}
}

func (c *bpeCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateCounter approximates token counts at ~4/3 tokens per word.
type EstimateCounter struct{}

func (EstimateCounter) Count(text string) int {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	return max(len(words)*4/3, 1)
}
