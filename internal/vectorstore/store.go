// Package vectorstore holds indexed chunk embeddings and answers
// nearest-neighbour queries over them.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDimensionMismatch is returned when a vector does not match the
// dimension already stored.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Match is one query hit. Distance is cosine distance, so lower is closer.
type Match struct {
	ID       string
	Text     string
	Distance float64
}

// Store is the contract the ingestion and query stages share.
type Store interface {
	Upsert(ctx context.Context, id string, vector []float32, text string) error
	// Query returns at most k matches ordered by ascending distance.
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// WithDimension rejects vectors whose length is not dim before they reach s.
// A dim of zero or less leaves s unchecked.
func WithDimension(s Store, dim int) Store {
	if dim <= 0 {
		return s
	}
	return &dimensioned{Store: s, dim: dim}
}

type dimensioned struct {
	Store
	dim int
}

func (d *dimensioned) Upsert(ctx context.Context, id string, vector []float32, text string) error {
	if len(vector) != d.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), d.dim)
	}
	return d.Store.Upsert(ctx, id, vector, text)
}

func (d *dimensioned) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) != d.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), d.dim)
	}
	return d.Store.Query(ctx, vector, k)
}

// CosineDistance is 1 - cosine similarity. Zero vectors are maximally far.
func CosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

type candidate struct {
	id     string
	text   string
	vector []float32
}

// rankByDistance scores candidates against the query and keeps the k
// closest. Ties keep candidate order.
func rankByDistance(query []float32, cands []candidate, k int) []Match {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	matches := make([]Match, len(cands))
	for i, c := range cands {
		matches[i] = Match{ID: c.id, Text: c.text, Distance: CosineDistance(query, c.vector)}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}
