package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adityaverma/docuchat/internal/corpus"
	"github.com/adityaverma/docuchat/internal/document"
	"github.com/adityaverma/docuchat/internal/embedding"
	"github.com/adityaverma/docuchat/internal/telemetry"
	"github.com/adityaverma/docuchat/pkg/chunker"
)

var (
	// ErrNotTrained means the shared store is still empty; the caller should
	// upload a PDF before asking questions.
	ErrNotTrained = errors.New("chatbot is not trained yet, please upload a PDF to train")
	// ErrNoRelevantChunks means retrieval over a non-empty store produced no
	// usable context for this question.
	ErrNoRelevantChunks = errors.New("no relevant information found")
	// ErrNoText means the PDF parsed cleanly but contained no extractable text.
	ErrNoText = errors.New("no text extracted from PDF")
	// ErrNoChunks means extracted text produced zero chunks.
	ErrNoChunks = errors.New("no chunks produced from extracted text")
)

// Pipeline drives both sides of the RAG flow: PDF ingestion into the shared
// corpus store and question answering over it. The store is the only
// coupling between the two paths.
type Pipeline struct {
	store      *corpus.Store
	embedder   *embedding.Service
	splitter   chunker.Splitter
	answerer   Answerer
	summarizer *Summarizer // nil disables ingestion-time summaries
	topK       int
	metrics    *telemetry.Metrics
	extract    func(data []byte) (string, error)
}

func NewPipeline(store *corpus.Store, embedder *embedding.Service, splitter chunker.Splitter, answerer Answerer, summarizer *Summarizer, topK int, metrics *telemetry.Metrics) *Pipeline {
	if topK <= 0 {
		topK = 5
	}
	return &Pipeline{
		store:      store,
		embedder:   embedder,
		splitter:   splitter,
		answerer:   answerer,
		summarizer: summarizer,
		topK:       topK,
		metrics:    metrics,
		extract:    document.ExtractPDF,
	}
}

// CorpusSize reports how many chunks the shared store currently holds.
func (p *Pipeline) CorpusSize() int {
	return p.store.Len()
}

type IngestRequest struct {
	Filename string
	Data     []byte
}

type IngestResult struct {
	Chunks  int    `json:"chunks"`
	Summary string `json:"summary,omitempty"`
}

// Ingest runs extract -> chunk -> embed -> append+persist for one upload.
// The whole batch of new chunks becomes durable or none of it does.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	start := time.Now()
	result, err := p.ingest(ctx, req)
	if p.metrics != nil {
		p.metrics.IngestDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			p.metrics.IngestsTotal.WithLabelValues("error").Inc()
		} else {
			p.metrics.IngestsTotal.WithLabelValues("ok").Inc()
			p.metrics.ChunksIndexed.Add(float64(result.Chunks))
		}
	}
	return result, err
}

func (p *Pipeline) ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	text, err := p.extract(req.Data)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	pieces := p.splitter.Split(text)
	if len(pieces) == 0 {
		return nil, ErrNoChunks
	}

	// Summarize before touching the store so a summarizer failure leaves no
	// partial state behind.
	var summary string
	if p.summarizer != nil {
		summary, err = p.summarizer.Summarize(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("summarization failed: %w", err)
		}
	}

	vectors, err := p.embedder.Embed(ctx, pieces)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}

	chunks := make([]corpus.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = corpus.Chunk{
			ID:     uuid.NewString(),
			Text:   piece,
			Source: req.Filename,
		}
	}

	if err := p.store.Append(vectors, chunks); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	return &IngestResult{Chunks: len(chunks), Summary: summary}, nil
}

// Query embeds the question, retrieves the nearest chunks, and answers
// conditioned on them.
func (p *Pipeline) Query(ctx context.Context, question string) (string, error) {
	start := time.Now()
	answer, err := p.query(ctx, question)
	if p.metrics != nil {
		p.metrics.QueryDuration.Observe(time.Since(start).Seconds())
		switch {
		case err == nil:
			p.metrics.QueriesTotal.WithLabelValues("answered").Inc()
		case errors.Is(err, ErrNotTrained):
			p.metrics.QueriesTotal.WithLabelValues("not_trained").Inc()
		case errors.Is(err, ErrNoRelevantChunks):
			p.metrics.QueriesTotal.WithLabelValues("no_match").Inc()
		default:
			p.metrics.QueriesTotal.WithLabelValues("error").Inc()
		}
	}
	return answer, err
}

func (p *Pipeline) query(ctx context.Context, question string) (string, error) {
	if p.store.Len() == 0 {
		return "", ErrNotTrained
	}

	queryVec, err := p.embedder.EmbedSingle(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	hits, err := p.store.Search(queryVec, p.topK)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	if len(hits) == 0 {
		return "", ErrNoRelevantChunks
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}
	contextText := strings.Join(texts, "\n\n")

	answer, err := p.answerer.Answer(ctx, question, contextText)
	if err != nil {
		return "", err
	}
	return answer, nil
}
