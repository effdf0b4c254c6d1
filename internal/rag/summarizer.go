package rag

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/adityaverma/docuchat/internal/llm"
	"github.com/adityaverma/docuchat/pkg/tokenizer"
)

// Summarizer produces a token-budgeted abstractive summary of a whole
// document. Input is split into token-bounded pieces measured with the
// model's own encoding, each piece is summarized independently, and the
// per-piece summaries are joined in order. One failed piece aborts the whole
// summary.
type Summarizer struct {
	gateway   llm.Gateway
	model     string
	counter   tokenizer.Counter
	maxTokens int // model input ceiling
	minTokens int // pieces below this are skipped
	reserve   int // output buffer carved out of the ceiling
}

func NewSummarizer(gw llm.Gateway, model string, counter tokenizer.Counter, maxTokens, minTokens, reserve int) *Summarizer {
	if counter == nil {
		counter = tokenizer.ForModel(model)
	}
	return &Summarizer{
		gateway:   gw,
		model:     model,
		counter:   counter,
		maxTokens: maxTokens,
		minTokens: minTokens,
		reserve:   reserve,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	budget := s.maxTokens - s.reserve
	if budget <= 0 {
		return "", fmt.Errorf("summary token budget %d leaves no room for input after reserving %d", s.maxTokens, s.reserve)
	}

	pieces := s.splitByBudget(text, budget)

	var summaries []string
	for i, piece := range pieces {
		if s.counter.Count(piece) < s.minTokens {
			continue
		}
		summary, err := s.summarizePiece(ctx, piece)
		if err != nil {
			return "", fmt.Errorf("summarize piece %d of %d: %w", i+1, len(pieces), err)
		}
		summaries = append(summaries, summary)
	}

	return strings.Join(summaries, " "), nil
}

func (s *Summarizer) summarizePiece(ctx context.Context, piece string) (string, error) {
	resp, err := s.gateway.Chat(ctx, llm.ChatRequest{
		Model: s.model,
		Messages: []llm.Message{
			{Role: "system", Content: "Summarize the following document excerpt into a short, factual paragraph. Keep names, numbers, and conclusions."},
			{Role: "user", Content: piece},
		},
		Temperature: 0,
		MaxTokens:   s.reserve,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

var summarySentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+[\s]*|[^.!?]+$`)

// splitByBudget packs whole sentences into pieces whose measured token count
// stays within the budget. A single over-budget sentence becomes its own
// piece; the backend truncates rather than this code splitting mid-sentence.
func (s *Summarizer) splitByBudget(text string, budget int) []string {
	sentences := summarySentenceRe.FindAllString(text, -1)

	var pieces []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range sentences {
		sent = strings.TrimSpace(sent)
		if sent == "" {
			continue
		}
		tokens := s.counter.Count(sent)

		if current.Len() > 0 && currentTokens+tokens > budget {
			pieces = append(pieces, current.String())
			current.Reset()
			currentTokens = 0
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += tokens
	}

	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}
