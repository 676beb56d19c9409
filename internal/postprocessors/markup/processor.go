// Package markup provides a post-processor that strips inline markup from
// chunk text.
//
// PubMed abstracts carry JATS inline elements such as <i>, <sup> and <sub>,
// and CSV exports often hold HTML entities. Both are noise for embeddings and
// for the passages quoted back to users.
package markup

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Name is the registry name of this processor.
const Name = "markup"

var (
	commentTag  = regexp.MustCompile(`(?s)<!--.*?-->`)
	mathTag     = regexp.MustCompile(`(?is)<(mml:)?math[^>]*>.*?</(mml:)?math>`)
	breakTag    = regexp.MustCompile(`(?i)<(br|hr)\s*/?>|</?(p|div|li|sec|title|label)[^>]*>`)
	allTags     = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9:_-]*(\s[^<>]*)?/?>`)
	multiSpaces = regexp.MustCompile(`\s+`)
)

// Processor strips tags and decodes entities in chunk content. Chunks left
// empty are dropped and positions renumbered.
type Processor struct {
	keepMath bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithKeepMath keeps the text inside MathML elements instead of dropping it.
func WithKeepMath(keep bool) Option {
	return func(p *Processor) {
		p.keepMath = keep
	}
}

// New creates a markup processor.
func New(opts ...Option) *Processor {
	p := &Processor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process cleans the content of each chunk.
func (p *Processor) Process(ctx context.Context, _ *domain.Abstract, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return chunks, nil
	}

	out := chunks[:0]
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.Content = p.Clean(c.Content)
		if c.Content == "" {
			continue
		}
		c.Position = len(out)
		out = append(out, c)
	}
	return out, nil
}

// Clean returns s with markup removed, entities decoded and whitespace
// collapsed.
func (p *Processor) Clean(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(multiSpaces.ReplaceAllString(s, " "))
	}

	s = commentTag.ReplaceAllString(s, "")
	if !p.keepMath {
		s = mathTag.ReplaceAllString(s, "")
	}
	s = breakTag.ReplaceAllString(s, " ")
	s = allTags.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = multiSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
