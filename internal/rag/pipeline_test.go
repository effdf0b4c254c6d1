package rag

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adityaverma/docuchat/internal/corpus"
	"github.com/adityaverma/docuchat/internal/embedding"
	"github.com/adityaverma/docuchat/internal/llm"
	"github.com/adityaverma/docuchat/pkg/chunker"
)

// fakeGateway satisfies llm.Gateway with deterministic, injectable behavior.
type fakeGateway struct {
	chatFn  func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
	embedFn func(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error)
}

func (f *fakeGateway) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if f.chatFn == nil {
		return &llm.ChatResponse{Content: "stub reply"}, nil
	}
	return f.chatFn(ctx, req)
}

func (f *fakeGateway) Embed(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
	if f.embedFn == nil {
		vectors := make([][]float32, len(req.Input))
		for i, text := range req.Input {
			vectors[i] = []float32{float32(len(text) % 7), float32(len(text) % 3), 1}
		}
		return &llm.EmbeddingResponse{Embeddings: vectors}, nil
	}
	return f.embedFn(ctx, req)
}

func (f *fakeGateway) Provider(name string) (llm.Provider, error) {
	return nil, errors.New("no providers in fake gateway")
}

type answererFunc func(ctx context.Context, question, contextText string) (string, error)

func (f answererFunc) Answer(ctx context.Context, question, contextText string) (string, error) {
	return f(ctx, question, contextText)
}

func newTestPipeline(t *testing.T, gw llm.Gateway, answerer Answerer) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	store, err := corpus.Open(filepath.Join(dir, "index.bin"), filepath.Join(dir, "chunks.json"), 3)
	if err != nil {
		t.Fatal(err)
	}
	embedder := embedding.NewService(gw, "test-embedding")
	splitter := chunker.New(chunker.Options{ChunkSize: 80, ChunkOverlap: 0, Strategy: "length"})
	return NewPipeline(store, embedder, splitter, answerer, nil, 5, nil)
}

func TestIngestIndexesExtractedText(t *testing.T) {
	gw := &fakeGateway{}
	p := newTestPipeline(t, gw, nil)
	p.extract = func(data []byte) (string, error) {
		return "The warranty covers two years.\nClaims must be filed in writing.\nShipping is paid by the seller.", nil
	}

	result, err := p.Ingest(context.Background(), IngestRequest{Filename: "policy.pdf", Data: []byte("%PDF")})
	if err != nil {
		t.Fatal(err)
	}
	if result.Chunks == 0 {
		t.Fatal("expected at least one indexed chunk")
	}
	if got := p.store.Len(); got != result.Chunks {
		t.Fatalf("store holds %d chunks, result reports %d", got, result.Chunks)
	}
}

func TestIngestRejectsEmptyExtraction(t *testing.T) {
	p := newTestPipeline(t, &fakeGateway{}, nil)
	p.extract = func(data []byte) (string, error) { return "  \n\t ", nil }

	_, err := p.Ingest(context.Background(), IngestRequest{Filename: "blank.pdf", Data: []byte("%PDF")})
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("err = %v, want ErrNoText", err)
	}
	if p.store.Len() != 0 {
		t.Fatal("failed ingest must not touch the store")
	}
}

func TestIngestWrapsExtractorError(t *testing.T) {
	p := newTestPipeline(t, &fakeGateway{}, nil)
	p.extract = func(data []byte) (string, error) { return "", errors.New("corrupt xref table") }

	_, err := p.Ingest(context.Background(), IngestRequest{Filename: "bad.pdf", Data: []byte("junk")})
	if err == nil || !strings.Contains(err.Error(), "extraction failed") {
		t.Fatalf("err = %v, want wrapped extraction failure", err)
	}
}

func TestIngestEmbeddingFailureLeavesStoreUntouched(t *testing.T) {
	gw := &fakeGateway{
		embedFn: func(ctx context.Context, req llm.EmbeddingRequest) (*llm.EmbeddingResponse, error) {
			return nil, errors.New("provider unavailable")
		},
	}
	p := newTestPipeline(t, gw, nil)
	p.extract = func(data []byte) (string, error) { return "Some extractable content here.", nil }

	_, err := p.Ingest(context.Background(), IngestRequest{Filename: "doc.pdf", Data: []byte("%PDF")})
	if err == nil || !strings.Contains(err.Error(), "embedding failed") {
		t.Fatalf("err = %v, want wrapped embedding failure", err)
	}
	if p.store.Len() != 0 {
		t.Fatal("failed embedding must not touch the store")
	}
}

func TestQueryBeforeAnyIngest(t *testing.T) {
	p := newTestPipeline(t, &fakeGateway{}, nil)

	_, err := p.Query(context.Background(), "what is the warranty period?")
	if !errors.Is(err, ErrNotTrained) {
		t.Fatalf("err = %v, want ErrNotTrained", err)
	}
}

func TestQueryAnswersFromRetrievedContext(t *testing.T) {
	gw := &fakeGateway{}
	var seenContext string
	answerer := answererFunc(func(ctx context.Context, question, contextText string) (string, error) {
		seenContext = contextText
		return "Two years.", nil
	})
	p := newTestPipeline(t, gw, answerer)
	p.extract = func(data []byte) (string, error) {
		return "The warranty covers two years.\nClaims must be filed in writing.", nil
	}

	if _, err := p.Ingest(context.Background(), IngestRequest{Filename: "policy.pdf", Data: []byte("%PDF")}); err != nil {
		t.Fatal(err)
	}

	answer, err := p.Query(context.Background(), "what is the warranty period?")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Two years." {
		t.Fatalf("answer = %q", answer)
	}
	if !strings.Contains(seenContext, "warranty covers two years") {
		t.Fatalf("retrieved context missing indexed text: %q", seenContext)
	}
}

func TestQueryPropagatesAnswererFailure(t *testing.T) {
	answerer := answererFunc(func(ctx context.Context, question, contextText string) (string, error) {
		return "", errors.New("model timed out")
	})
	p := newTestPipeline(t, &fakeGateway{}, answerer)
	p.extract = func(data []byte) (string, error) { return "Indexed content for retrieval.", nil }
	if _, err := p.Ingest(context.Background(), IngestRequest{Filename: "doc.pdf", Data: []byte("%PDF")}); err != nil {
		t.Fatal(err)
	}

	_, err := p.Query(context.Background(), "anything")
	if err == nil || !strings.Contains(err.Error(), "model timed out") {
		t.Fatalf("err = %v, want answerer failure", err)
	}
}

func TestQueryAcrossMultipleUploads(t *testing.T) {
	// Uploads from different sources pool into one searchable corpus.
	answerer := answererFunc(func(ctx context.Context, question, contextText string) (string, error) {
		return contextText, nil
	})
	p := newTestPipeline(t, &fakeGateway{}, answerer)

	docs := []string{
		"Alpha release shipped in March.",
		"Beta testing starts in June.",
	}
	for i, text := range docs {
		text := text
		p.extract = func(data []byte) (string, error) { return text, nil }
		req := IngestRequest{Filename: fmt.Sprintf("doc%d.pdf", i), Data: []byte("%PDF")}
		if _, err := p.Ingest(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}

	contextText, err := p.Query(context.Background(), "when did alpha ship?")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(contextText, "Alpha") || !strings.Contains(contextText, "Beta") {
		t.Fatalf("expected pooled context across uploads, got %q", contextText)
	}
}
