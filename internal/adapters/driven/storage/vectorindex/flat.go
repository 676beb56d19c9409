// Package vectorindex provides an exact in-memory cosine similarity index.
//
// The corpus is a few thousand abstract chunks, so a linear scan over
// unit-normalised vectors answers a query in well under a millisecond and
// returns the true k nearest neighbours.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

// Ensure FlatIndex implements the interface.
var _ driven.VectorIndex = (*FlatIndex)(nil)

// ErrDimensionMismatch indicates a vector whose size differs from the index.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// FlatIndex stores unit-normalised vectors contiguously and scans them all
// on every search. Adds are expected before serving starts; Search is safe
// for concurrent use.
type FlatIndex struct {
	mu      sync.RWMutex
	dims    int
	ids     []string
	vectors []float32 // len(ids) * dims, row-major
	pos     map[string]int
}

// NewFlatIndex creates an empty index. dims of 0 adopts the size of the
// first vector added.
func NewFlatIndex(dims int) *FlatIndex {
	return &FlatIndex{
		dims: dims,
		pos:  make(map[string]int),
	}
}

// Add inserts a vector for chunkID. Re-adding an ID replaces its vector in
// place and keeps its original insertion position.
func (f *FlatIndex) Add(_ context.Context, chunkID string, embedding []float32) error {
	if len(embedding) == 0 {
		return fmt.Errorf("%w: empty embedding for %s", domain.ErrInvalidInput, chunkID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dims == 0 {
		f.dims = len(embedding)
	}
	if len(embedding) != f.dims {
		return fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(embedding), f.dims)
	}

	unit := normalise(embedding)
	if i, ok := f.pos[chunkID]; ok {
		copy(f.vectors[i*f.dims:(i+1)*f.dims], unit)
		return nil
	}
	f.pos[chunkID] = len(f.ids)
	f.ids = append(f.ids, chunkID)
	f.vectors = append(f.vectors, unit...)
	return nil
}

// Search returns the k most similar vectors by cosine similarity, highest
// first. Equal scores keep insertion order.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.ids) == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != f.dims {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), f.dims)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := normalise(query)
	hits := make([]driven.VectorHit, len(f.ids))
	for i, id := range f.ids {
		row := f.vectors[i*f.dims : (i+1)*f.dims]
		var dot float64
		for j, v := range row {
			dot += float64(v) * float64(q[j])
		}
		hits[i] = driven.VectorHit{ChunkID: id, Similarity: dot}
	}

	// Stable sort keeps insertion order among equal similarities.
	slices.SortStableFunc(hits, func(a, b driven.VectorHit) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return 0
		}
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (f *FlatIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

// Dimensions returns the vector size, or 0 when nothing has been added
// to an index created without a fixed size.
func (f *FlatIndex) Dimensions() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dims
}

// Close releases the stored vectors.
func (f *FlatIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = nil
	f.vectors = nil
	f.pos = make(map[string]int)
	return nil
}

// normalise returns v scaled to unit length. A zero vector stays zero and
// therefore scores 0 against everything.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
