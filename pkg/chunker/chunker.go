// Package chunker splits document text into bounded segments suitable for
// embedding and for use as generation context.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Splitter turns a text into ordered, non-empty chunks. Concatenating the
// chunks (ignoring injected overlap) preserves the source ordering.
type Splitter interface {
	Split(text string) []string
}

type Options struct {
	ChunkSize    int    // max chunk size in characters
	ChunkOverlap int    // overlap carried between consecutive chunks ("length" only)
	Separator    string // split unit boundary for the "length" strategy
	Strategy     string // "length" or "sentence"
}

func DefaultOptions() Options {
	return Options{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		Separator:    "\n",
		Strategy:     "length",
	}
}

func New(opts Options) Splitter {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = 0
	}
	if opts.Separator == "" {
		opts.Separator = "\n"
	}

	if opts.Strategy == "sentence" {
		return &sentenceSplitter{maxLen: opts.ChunkSize}
	}
	return &lengthSplitter{
		maxLen:    opts.ChunkSize,
		overlap:   opts.ChunkOverlap,
		separator: opts.Separator,
	}
}

// lengthSplitter splits on a separator and greedily packs consecutive units
// up to the size bound, carrying a character overlap from the tail of each
// chunk into the start of the next.
type lengthSplitter struct {
	maxLen    int
	overlap   int
	separator string
}

func (s *lengthSplitter) Split(text string) []string {
	units := strings.Split(text, s.separator)

	var chunks []string
	var current strings.Builder
	carried := 0 // length of the overlap prefix in current

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		tail := tailRunes(current.String(), s.overlap)
		current.Reset()
		current.WriteString(tail)
		carried = len(tail)
	}

	for _, unit := range units {
		unit = strings.TrimSpace(unit)
		if unit == "" {
			continue
		}

		if current.Len() > carried &&
			utf8.RuneCountInString(current.String())+utf8.RuneCountInString(s.separator+unit) > s.maxLen {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(s.separator)
		}
		current.WriteString(unit)
	}

	if chunk := strings.TrimSpace(current.String()); chunk != "" && current.Len() > carried {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// sentenceSplitter accumulates whole sentences until adding the next one
// would exceed the size bound; sentences are never split mid-way, so a
// single oversize sentence becomes its own chunk.
type sentenceSplitter struct {
	maxLen int
}

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+[\s]*|[^.!?]+$`)

func (s *sentenceSplitter) Split(text string) []string {
	sentences := sentenceRe.FindAllString(text, -1)

	var chunks []string
	var current strings.Builder

	for _, sent := range sentences {
		sent = strings.TrimSpace(sent)
		if sent == "" {
			continue
		}

		if current.Len() > 0 &&
			utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(sent) > s.maxLen {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
