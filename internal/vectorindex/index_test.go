package vectorindex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"
)

func TestSearchFindsStoredVector(t *testing.T) {
	f, err := New(3)
	if err != nil {
		t.Fatal(err)
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{1, 1, 0},
	}
	if err := f.Add(vectors); err != nil {
		t.Fatal(err)
	}

	matches, err := f.Search([]float32{0, 1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Index != 1 {
		t.Fatalf("nearest row = %d, want 1", matches[0].Index)
	}
	if matches[0].Distance != 0 {
		t.Fatalf("distance to stored vector = %v, want 0", matches[0].Distance)
	}
	if matches[1].Distance < matches[0].Distance {
		t.Fatal("matches not in ascending distance order")
	}
}

func TestSearchTiesBreakOnPosition(t *testing.T) {
	f, _ := New(2)
	if err := f.Add([][]float32{{1, 0}, {0, 1}, {1, 0}}); err != nil {
		t.Fatal(err)
	}
	matches, err := f.Search([]float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if matches[0].Index != 0 || matches[1].Index != 2 {
		t.Fatalf("equidistant rows not ordered by position: %+v", matches)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	f, _ := New(4)
	matches, err := f.Search([]float32{1, 2, 3, 4}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Fatalf("got %d matches from empty index, want 0", len(matches))
	}
}

func TestSearchKLargerThanRowCount(t *testing.T) {
	f, _ := New(2)
	if err := f.Add([][]float32{{1, 0}, {0, 1}}); err != nil {
		t.Fatal(err)
	}
	matches, err := f.Search([]float32{0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want all 2 rows", len(matches))
	}
}

func TestAddRejectsMismatchedDimension(t *testing.T) {
	f, _ := New(3)
	err := f.Add([][]float32{{1, 2, 3}, {1, 2}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
	if f.Len() != 0 {
		t.Fatalf("partial append after rejected batch: Len() = %d", f.Len())
	}
}

func TestSearchRejectsMismatchedQuery(t *testing.T) {
	f, _ := New(3)
	if _, err := f.Search([]float32{1, 2}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	f, _ := New(2)
	vectors := [][]float32{{1.5, -2.25}, {0, 0.125}, {3, 4}}
	if err := f.Add(vectors); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Dim() != 2 || got.Len() != 3 {
		t.Fatalf("round trip: dim=%d len=%d, want 2/3", got.Dim(), got.Len())
	}
	for i, want := range vectors {
		matches, err := got.Search(want, 1)
		if err != nil {
			t.Fatal(err)
		}
		if matches[0].Index != i || matches[0].Distance != 0 {
			t.Fatalf("row %d not preserved: %+v", i, matches[0])
		}
	}
}

func corruptHeader(t *testing.T, dim, count uint64) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	buf.Write([]byte("DCV1"))
	if err := binary.Write(&buf, binary.LittleEndian, dim); err != nil {
		t.Fatal(err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, count); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestReadRejectsImplausibleRowCount(t *testing.T) {
	// The declared count must fail validation before it drives an allocation.
	if _, err := Read(corruptHeader(t, 3, 1<<40)); err == nil {
		t.Fatal("expected error for absurd row count")
	}
}

func TestReadRejectsImplausibleDimension(t *testing.T) {
	if _, err := Read(corruptHeader(t, 1<<32, 1)); err == nil {
		t.Fatal("expected error for absurd dimension")
	}
	if _, err := Read(corruptHeader(t, 0, 1)); err == nil {
		t.Fatal("expected error for zero dimension")
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteToReportsAccumulatedCount(t *testing.T) {
	f, _ := New(4)
	// Enough rows to overflow the internal buffer so the sink's failure
	// surfaces mid-stream rather than at the final flush.
	rows := make([][]float32, 2048)
	for i := range rows {
		rows[i] = []float32{1, 2, 3, 4}
	}
	if err := f.Add(rows); err != nil {
		t.Fatal(err)
	}

	n, err := f.WriteTo(failingWriter{})
	if err == nil {
		t.Fatal("expected error from failing sink")
	}
	if n < 0 || n > int64(4+16+len(rows)*4*4) {
		t.Fatalf("reported %d bytes written, outside the plausible range", n)
	}
}

func TestReadRejectsForeignFile(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("%PDF-1.4 not an index"))); err == nil {
		t.Fatal("expected error for non-index bytes")
	}
}

func TestLoadFileAbsent(t *testing.T) {
	f, err := LoadFile(filepath.Join(t.TempDir(), "missing.bin"), 8)
	if err != nil {
		t.Fatal(err)
	}
	if f.Dim() != 8 || f.Len() != 0 {
		t.Fatalf("expected fresh empty index, got dim=%d len=%d", f.Dim(), f.Len())
	}
}
