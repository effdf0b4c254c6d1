package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adityaverma/docuchat/internal/vectorindex"
)

// Chunk is the unit of retrieval: a bounded segment of one uploaded
// document's text. Its position in the store equals its row position in the
// vector index; the ID exists so a record stays addressable even if the
// positional pairing is ever rebuilt.
type Chunk struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// Hit is a retrieved chunk with its index position and distance.
type Hit struct {
	Chunk
	Position int
	Distance float32
}

// Store owns the shared (vector index, chunk list) pair. Every
// load-modify-save runs under one writer lock, so concurrent uploads
// serialize instead of overwriting each other's appends. Both artifacts are
// written through temp files and renamed, index first, chunks last.
type Store struct {
	mu         sync.RWMutex
	indexPath  string
	chunksPath string
	index      *vectorindex.Flat
	chunks     []Chunk
}

// Open loads both artifacts, bootstrapping empty ones when absent, and
// verifies that they are aligned and dimension-compatible.
func Open(indexPath, chunksPath string, dim int) (*Store, error) {
	index, err := vectorindex.LoadFile(indexPath, dim)
	if err != nil {
		return nil, err
	}
	if index.Dim() != dim {
		return nil, fmt.Errorf("index %s has dimension %d, config expects %d", indexPath, index.Dim(), dim)
	}

	chunks, err := loadChunks(chunksPath)
	if err != nil {
		return nil, err
	}

	if index.Len() != len(chunks) {
		return nil, fmt.Errorf("misaligned store: index has %d rows, chunk list has %d records", index.Len(), len(chunks))
	}

	return &Store{
		indexPath:  indexPath,
		chunksPath: chunksPath,
		index:      index,
		chunks:     chunks,
	}, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Append adds aligned vector/chunk rows and persists both artifacts before
// returning. Either the whole batch becomes durable or the in-memory state
// is rolled back.
func (s *Store) Append(vectors [][]float32, chunks []Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("append: %d vectors for %d chunks", len(vectors), len(chunks))
	}
	if len(vectors) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevRows := s.index.Len()
	if err := s.index.Add(vectors); err != nil {
		return err
	}
	s.chunks = append(s.chunks, chunks...)

	if err := s.saveLocked(); err != nil {
		// Roll both sides back so memory stays aligned even if one artifact
		// landed on disk; the next successful save rewrites both wholesale.
		s.index.Truncate(prevRows)
		s.chunks = s.chunks[:prevRows]
		return fmt.Errorf("persist store: %w", err)
	}
	return nil
}

// Search returns up to k nearest chunks in ascending distance order. Hits
// whose position falls outside the chunk list (possible only under artifact
// corruption) are skipped.
func (s *Store) Search(query []float32, k int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := s.index.Search(query, k)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		if m.Index < 0 || m.Index >= len(s.chunks) {
			continue
		}
		hits = append(hits, Hit{
			Chunk:    s.chunks[m.Index],
			Position: m.Index,
			Distance: m.Distance,
		})
	}
	return hits, nil
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.indexPath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if err := writeAtomic(s.indexPath, func(f *os.File) error {
		_, err := s.index.WriteTo(f)
		return err
	}); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	if err := writeAtomic(s.chunksPath, func(f *os.File) error {
		return json.NewEncoder(f).Encode(s.chunks)
	}); err != nil {
		return fmt.Errorf("write chunks: %w", err)
	}
	return nil
}

func loadChunks(path string) ([]Chunk, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open chunks %s: %w", path, err)
	}
	defer f.Close()

	var chunks []Chunk
	if err := json.NewDecoder(f).Decode(&chunks); err != nil {
		return nil, fmt.Errorf("decode chunks %s: %w", path, err)
	}
	return chunks, nil
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
