package query

import (
	"context"
	"fmt"
	"strings"

	"erp-helpdesk-assistant/internal/vectorstore"
)

const (
	DefaultTopK       = 1
	DefaultCharBudget = 1200
	contextSeparator  = "\n\n"
)

// Embedder maps text to a vector with the model used at indexing time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the read side of the vector store.
type Searcher interface {
	Query(ctx context.Context, vector []float32, k int) ([]vectorstore.Match, error)
	Count(ctx context.Context) (int, error)
}

// Retrieved is the context assembled for one question.
type Retrieved struct {
	Context   string
	Matches   []vectorstore.Match
	Truncated bool
}

type Retriever struct {
	Embedder   Embedder
	Store      Searcher
	TopK       int
	CharBudget int
}

// Retrieve embeds the normalized query and joins the closest chunks,
// most similar first. When the joined text exceeds the budget only its
// last CharBudget characters are kept: recovered image text sits at the
// end of a chunk and is the part worth keeping for screenshot-only
// records. A nil result with no error means nothing matched.
func (r *Retriever) Retrieve(ctx context.Context, normalized string) (*Retrieved, error) {
	vec, err := r.Embedder.Embed(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	k := r.TopK
	if k <= 0 {
		k = DefaultTopK
	}
	matches, err := r.Store.Query(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("querying store: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	budget := r.CharBudget
	if budget <= 0 {
		budget = DefaultCharBudget
	}
	ctxText, truncated := TailWindow(strings.Join(texts, contextSeparator), budget)
	return &Retrieved{Context: ctxText, Matches: matches, Truncated: truncated}, nil
}

// TailWindow keeps the last n characters of s.
func TailWindow(s string, n int) (string, bool) {
	runes := []rune(s)
	if len(runes) <= n {
		return s, false
	}
	return string(runes[len(runes)-n:]), true
}
