package vectorstore

import (
	"context"
	"testing"

	"erp-helpdesk-assistant/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0.0, CosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 1.0, CosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, 2.0, CosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 1.0, CosineDistance([]float32{0, 0}, []float32{1, 0}))
}

// storeContract runs the behaviour every Store implementation must share.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		s := newStore(t)
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		matches, err := s.Query(ctx, []float32{1, 0, 0}, 2)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("ordered by ascending distance", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, "doc_0", []float32{0, 1, 0}, "payroll"))
		require.NoError(t, s.Upsert(ctx, "doc_1", []float32{1, 0, 0}, "leave"))
		require.NoError(t, s.Upsert(ctx, "doc_2", []float32{1, 1, 0}, "leave and payroll"))

		matches, err := s.Query(ctx, []float32{1, 0.1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "doc_1", matches[0].ID)
		assert.Equal(t, "leave", matches[0].Text)
		assert.Equal(t, "doc_2", matches[1].ID)
		assert.LessOrEqual(t, matches[0].Distance, matches[1].Distance)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("upsert replaces by id", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, "doc_0", []float32{1, 0}, "old"))
		require.NoError(t, s.Upsert(ctx, "doc_0", []float32{0, 1}, "new"))

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		matches, err := s.Query(ctx, []float32{0, 1}, 1)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "new", matches[0].Text)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Upsert(ctx, "doc_0", []float32{1, 0}, "a"))
		assert.ErrorIs(t, s.Upsert(ctx, "doc_1", []float32{1, 0, 0}, "b"), ErrDimensionMismatch)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return NewMemory() })
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s, err := NewSQLite(t.TempDir(), "erp_docs")
		require.NoError(t, err)
		t.Cleanup(func() { assert.NoError(t, s.Close()) })
		return s
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewSQLite(dir, "erp_docs")
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, "doc_0", []float32{0.5, 0.25}, "Module: Leave\nApply via the Leave tab."))
	require.NoError(t, s.Close())

	s, err = NewSQLite(dir, "erp_docs")
	require.NoError(t, err)
	defer s.Close()

	matches, err := s.Query(ctx, []float32{0.5, 0.25}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Module: Leave\nApply via the Leave tab.", matches[0].Text)
	assert.InDelta(t, 0.0, matches[0].Distance, 1e-6)
}

func TestSQLiteStore_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, err := NewSQLite(dir, "a")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewSQLite(dir, "b")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Upsert(ctx, "doc_0", []float32{1}, "only in a"))

	n, err := b.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWithDimension(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	assert.Same(t, Store(mem), WithDimension(mem, 0))

	s := WithDimension(mem, 3)
	assert.ErrorIs(t, s.Upsert(ctx, "doc_0", []float32{1, 0}, "short"), ErrDimensionMismatch)
	require.NoError(t, s.Upsert(ctx, "doc_0", []float32{1, 0, 0}, "leave"))

	_, err := s.Query(ctx, []float32{1, 0, 0, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "doc_0", matches[0].ID)
}

func TestOpen_AppliesConfiguredDimension(t *testing.T) {
	s, err := Open(&config.Config{VectorStore: "memory", VectorDimensions: 2})
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.Upsert(context.Background(), "doc_0", []float32{1, 0, 0}, "x"), ErrDimensionMismatch)
}
