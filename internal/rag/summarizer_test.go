package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/adityaverma/docuchat/internal/llm"
)

// wordCounter measures tokens as whitespace-separated words, which keeps the
// budget arithmetic in these tests exact.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

func TestSummarizeJoinsPieceSummaries(t *testing.T) {
	var calls int
	gw := &fakeGateway{
		chatFn: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			calls++
			return &llm.ChatResponse{Content: "summary"}, nil
		},
	}
	// Budget of 8 input tokens: two 6-word sentences cannot share a piece.
	s := NewSummarizer(gw, "test-model", wordCounter{}, 10, 3, 2)

	text := "One two three four five six. Seven eight nine ten eleven twelve."
	got, err := s.Summarize(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("gateway called %d times, want one call per piece (2)", calls)
	}
	if got != "summary summary" {
		t.Fatalf("summary = %q", got)
	}
}

func TestSummarizeSkipsShortPieces(t *testing.T) {
	var calls int
	gw := &fakeGateway{
		chatFn: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			calls++
			return &llm.ChatResponse{Content: "summary"}, nil
		},
	}
	s := NewSummarizer(gw, "test-model", wordCounter{}, 10, 5, 2)

	// Each sentence forms its own piece; only the second meets the minimum.
	text := "Too short. Seven whole words are plenty right here."
	got, err := s.Summarize(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("gateway called %d times, want 1 (short piece skipped)", calls)
	}
	if got != "summary" {
		t.Fatalf("summary = %q", got)
	}
}

func TestSummarizeAllPiecesTooShort(t *testing.T) {
	gw := &fakeGateway{
		chatFn: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			t.Fatal("gateway must not be called when every piece is skipped")
			return nil, nil
		},
	}
	s := NewSummarizer(gw, "test-model", wordCounter{}, 10, 50, 2)

	got, err := s.Summarize(context.Background(), "Tiny. Also tiny.")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Fatalf("summary = %q, want empty", got)
	}
}

func TestSummarizeReportsFailingPiece(t *testing.T) {
	var calls int
	gw := &fakeGateway{
		chatFn: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			calls++
			if calls == 2 {
				return nil, errors.New("rate limited")
			}
			return &llm.ChatResponse{Content: "summary"}, nil
		},
	}
	s := NewSummarizer(gw, "test-model", wordCounter{}, 10, 3, 2)

	text := "One two three four five six. Seven eight nine ten eleven twelve."
	_, err := s.Summarize(context.Background(), text)
	if err == nil {
		t.Fatal("expected failure from second piece")
	}
	if !strings.Contains(err.Error(), "piece 2 of 2") {
		t.Fatalf("err = %v, want failing piece identified", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("err = %v, want cause preserved", err)
	}
}

func TestSummarizeRejectsExhaustedBudget(t *testing.T) {
	s := NewSummarizer(&fakeGateway{}, "test-model", wordCounter{}, 4, 1, 4)
	if _, err := s.Summarize(context.Background(), "Anything at all."); err == nil {
		t.Fatal("expected error when the reserve consumes the whole ceiling")
	}
}
