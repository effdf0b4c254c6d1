package vectorindex

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// Flat is an exact nearest-neighbor index over fixed-dimension float32
// vectors. Rows are append-only; a row's position is its identity.
// Search ranks by squared Euclidean distance.
type Flat struct {
	dim  int
	data []float32 // row-major, len == dim * Len()
}

// Match is one search hit: the stored row's position and its distance
// to the query.
type Match struct {
	Index    int
	Distance float32
}

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

func New(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	return &Flat{dim: dim}, nil
}

func (f *Flat) Dim() int { return f.dim }

func (f *Flat) Len() int { return len(f.data) / f.dim }

// Add appends rows in order. All vectors must match the bound dimension;
// nothing is appended if any does not.
func (f *Flat) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != f.dim {
			return fmt.Errorf("vector %d has dimension %d, index is bound to %d: %w",
				i, len(v), f.dim, ErrDimensionMismatch)
		}
	}
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	return nil
}

// Truncate discards all rows past the first n. A bound at or beyond the
// current row count is a no-op.
func (f *Flat) Truncate(n int) {
	if n < 0 || n >= f.Len() {
		return
	}
	f.data = f.data[:n*f.dim]
}

// Search returns the k nearest rows in ascending distance order. An empty
// index yields an empty result; k larger than the row count yields all rows.
func (f *Flat) Search(query []float32, k int) ([]Match, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("query has dimension %d, index is bound to %d: %w",
			len(query), f.dim, ErrDimensionMismatch)
	}
	n := f.Len()
	if n == 0 || k <= 0 {
		return nil, nil
	}

	matches := make([]Match, n)
	for i := 0; i < n; i++ {
		row := f.data[i*f.dim : (i+1)*f.dim]
		var dist float32
		for j, q := range query {
			d := row[j] - q
			dist += d * d
		}
		matches[i] = Match{Index: i, Distance: dist}
	}

	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Distance != matches[b].Distance {
			return matches[a].Distance < matches[b].Distance
		}
		return matches[a].Index < matches[b].Index
	})

	if k > n {
		k = n
	}
	return matches[:k], nil
}

// Serialization format: magic, dimension, row count, then row-major
// little-endian float32 data.

var magic = [4]byte{'D', 'C', 'V', '1'}

// Header bounds: a corrupted file must fail validation before its declared
// row count drives an allocation.
const (
	maxDim      = 1 << 16
	maxElements = 1 << 28 // 1 GiB of float32 row data
)

func (f *Flat) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64

	n, err := bw.Write(magic[:])
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("write magic: %w", err)
	}

	header := []uint64{uint64(f.dim), uint64(f.Len())}
	for _, h := range header {
		if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
			return written, fmt.Errorf("write header: %w", err)
		}
		written += 8
	}

	if err := binary.Write(bw, binary.LittleEndian, f.data); err != nil {
		return written, fmt.Errorf("write rows: %w", err)
	}
	written += int64(len(f.data) * 4)

	return written, bw.Flush()
}

func Read(r io.Reader) (*Flat, error) {
	br := bufio.NewReader(r)

	var m [4]byte
	if _, err := io.ReadFull(br, m[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if m != magic {
		return nil, errors.New("not a vector index file")
	}

	var dim, count uint64
	if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimension: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read row count: %w", err)
	}

	if dim == 0 || dim > maxDim {
		return nil, fmt.Errorf("implausible dimension %d in index header", dim)
	}
	if count > maxElements/dim {
		return nil, fmt.Errorf("implausible row count %d in index header", count)
	}

	f, err := New(int(dim))
	if err != nil {
		return nil, err
	}
	f.data = make([]float32, int(dim)*int(count))
	if err := binary.Read(br, binary.LittleEndian, f.data); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return f, nil
}

// LoadFile reads a persisted index, or returns a fresh empty index bound to
// dim when the file does not exist yet.
func LoadFile(path string, dim int) (*Flat, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(dim)
	}
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	defer file.Close()

	f, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", path, err)
	}
	return f, nil
}
