package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/adityaverma/docuchat/internal/config"
	"github.com/adityaverma/docuchat/internal/llm"
)

// Answerer turns a question plus retrieved context into a final answer.
// Implementations are interchangeable; the mode is fixed at startup.
type Answerer interface {
	Answer(ctx context.Context, question, contextText string) (string, error)
}

// NewAnswerer selects the configured answering strategy.
func NewAnswerer(gw llm.Gateway, cfg config.RAGConfig, model string) Answerer {
	if cfg.AnswerMode == "extractive" {
		return &ExtractiveAnswerer{gateway: gw, model: model}
	}
	return &GenerativeAnswerer{
		gateway:        gw,
		model:          model,
		temperature:    cfg.Temperature,
		topP:           cfg.TopP,
		trimToSentence: cfg.TrimToSentence,
	}
}

// GenerativeAnswerer produces free text by sampling, conditioned on the
// retrieved context.
type GenerativeAnswerer struct {
	gateway        llm.Gateway
	model          string
	temperature    float64
	topP           float64
	trimToSentence bool
}

func (g *GenerativeAnswerer) Answer(ctx context.Context, question, contextText string) (string, error) {
	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s\nAnswer:", contextText, question)

	resp, err := g.gateway.Chat(ctx, llm.ChatRequest{
		Model:       g.model,
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: g.temperature,
		TopP:        g.topP,
		MaxTokens:   300,
	})
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	// Completion-style backends echo the prompt before the continuation.
	answer := strings.TrimSpace(strings.TrimPrefix(resp.Content, prompt))

	if g.trimToSentence {
		if i := strings.LastIndex(answer, "."); i >= 0 {
			answer = answer[:i+1]
		}
	}
	return answer, nil
}

// ExtractiveAnswerer returns the literal span of the context that answers
// the question. A model failure propagates as-is; there is no retry.
type ExtractiveAnswerer struct {
	gateway llm.Gateway
	model   string
}

const extractiveSystemPrompt = `You are an extractive question-answering engine.
Answer with the shortest contiguous span copied verbatim from the context that answers the question.
Do not paraphrase, explain, or add words that are not in the context.`

func (e *ExtractiveAnswerer) Answer(ctx context.Context, question, contextText string) (string, error) {
	resp, err := e.gateway.Chat(ctx, llm.ChatRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: "system", Content: extractiveSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)},
		},
		MaxTokens: 150,
	})
	if err != nil {
		return "", fmt.Errorf("extract answer: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
