// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor splits abstract text into fixed-size chunks measured in runes.
// When a window ends mid-word the cut moves back to the last whitespace in
// the final fifth of the window.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the abstract text into chunks.
// Input chunks are ignored; this processor creates new chunks from the text.
func (p *Processor) Process(ctx context.Context, abstract *domain.Abstract, _ []domain.Chunk) ([]domain.Chunk, error) {
	text := []rune(strings.TrimSpace(abstract.Text))
	if len(text) == 0 {
		// Empty content produces no chunks
		return nil, nil
	}

	step := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, len(text)/step+1)

	position := 0
	start := 0
	for start < len(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + p.chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = p.snapToSpace(text, start, end)
		}

		content := strings.TrimSpace(string(text[start:end]))
		if content != "" {
			chunks = append(chunks, domain.Chunk{
				ID:       uuid.New().String(),
				PMID:     abstract.PMID,
				Content:  content,
				Position: position,
			})
			position++
		}

		if end == len(text) {
			break
		}
		next := end - p.overlap
		if next <= start {
			next = start + step
		}
		start = next
	}

	return chunks, nil
}

// snapToSpace moves end back to just after the last whitespace within the
// final fifth of the window, if there is one.
func (p *Processor) snapToSpace(text []rune, start, end int) int {
	limit := end - p.chunkSize/5
	if limit <= start {
		return end
	}
	for i := end; i > limit; i-- {
		if unicode.IsSpace(text[i-1]) {
			return i
		}
	}
	return end
}
