package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/adityaverma/docuchat/internal/llm"
)

func TestGenerativeAnswererStripsPromptEcho(t *testing.T) {
	gw := &fakeGateway{
		chatFn: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			// Completion-style backends return prompt + continuation.
			return &llm.ChatResponse{Content: req.Messages[0].Content + " The period is two years."}, nil
		},
	}
	a := &GenerativeAnswerer{gateway: gw, model: "test-model"}

	answer, err := a.Answer(context.Background(), "How long is the warranty?", "The warranty covers two years.")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "The period is two years." {
		t.Fatalf("answer = %q, prompt echo not stripped", answer)
	}
}

func TestGenerativeAnswererTrimsToSentence(t *testing.T) {
	gw := &fakeGateway{
		chatFn: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{Content: "The period is two years. It also cov"}, nil
		},
	}
	a := &GenerativeAnswerer{gateway: gw, model: "test-model", trimToSentence: true}

	answer, err := a.Answer(context.Background(), "How long?", "ctx")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "The period is two years." {
		t.Fatalf("answer = %q, trailing fragment not trimmed", answer)
	}
}

func TestGenerativeAnswererKeepsSentencelessReply(t *testing.T) {
	gw := &fakeGateway{
		chatFn: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{Content: "two years"}, nil
		},
	}
	a := &GenerativeAnswerer{gateway: gw, model: "test-model", trimToSentence: true}

	answer, err := a.Answer(context.Background(), "How long?", "ctx")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "two years" {
		t.Fatalf("answer = %q, reply without a period must survive trimming", answer)
	}
}

func TestGenerativeAnswererPassesSamplingParams(t *testing.T) {
	var got llm.ChatRequest
	gw := &fakeGateway{
		chatFn: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			got = req
			return &llm.ChatResponse{Content: "ok"}, nil
		},
	}
	a := &GenerativeAnswerer{gateway: gw, model: "test-model", temperature: 0.7, topP: 0.9}

	if _, err := a.Answer(context.Background(), "q", "c"); err != nil {
		t.Fatal(err)
	}
	if got.Temperature != 0.7 || got.TopP != 0.9 || got.Model != "test-model" {
		t.Fatalf("sampling params not forwarded: %+v", got)
	}
	if !strings.Contains(got.Messages[0].Content, "Context:\nc") {
		t.Fatalf("prompt missing context block: %q", got.Messages[0].Content)
	}
}

func TestExtractiveAnswererTrimsSpan(t *testing.T) {
	gw := &fakeGateway{
		chatFn: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			if req.Messages[0].Role != "system" {
				t.Fatalf("first message role = %q, want system", req.Messages[0].Role)
			}
			return &llm.ChatResponse{Content: "  two years  "}, nil
		},
	}
	a := &ExtractiveAnswerer{gateway: gw, model: "test-model"}

	answer, err := a.Answer(context.Background(), "How long?", "The warranty covers two years.")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "two years" {
		t.Fatalf("answer = %q", answer)
	}
}

func TestExtractiveAnswererPropagatesFailure(t *testing.T) {
	gw := &fakeGateway{
		chatFn: func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			return nil, errors.New("model overloaded")
		},
	}
	a := &ExtractiveAnswerer{gateway: gw, model: "test-model"}

	_, err := a.Answer(context.Background(), "q", "c")
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("err = %v, want provider failure surfaced", err)
	}
}
