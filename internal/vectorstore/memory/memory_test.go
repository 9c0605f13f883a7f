package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-docchat/internal/vectorstore"
)

func seed(t *testing.T, s *Store, name string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, name, 2))
	require.NoError(t, s.Upsert(ctx, name, []vectorstore.Point{
		{Index: 0, Text: "east", Vector: []float32{1, 0}},
		{Index: 1, Text: "north", Vector: []float32{0, 1}},
		{Index: 2, Text: "north-east", Vector: []float32{1, 1}},
	}))
}

func TestSearchOrdersByScore(t *testing.T) {
	s := NewStore()
	seed(t, s, "docs")

	hits, err := s.Search(context.Background(), "docs", []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "east", hits[0].Text)
	assert.Equal(t, "north-east", hits[1].Text)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestSearchReturnsMinOfKAndSize(t *testing.T) {
	s := NewStore()
	seed(t, s, "docs")

	hits, err := s.Search(context.Background(), "docs", []float32{0, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	s := NewStore()
	seed(t, s, "a")
	ctx := context.Background()
	require.NoError(t, s.CreateCollection(ctx, "b", 2))
	require.NoError(t, s.Upsert(ctx, "b", []vectorstore.Point{{Index: 0, Text: "only-b", Vector: []float32{1, 0}}}))

	hits, err := s.Search(ctx, "b", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "only-b", hits[0].Text)
}

func TestMissingCollection(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.Search(ctx, "nope", []float32{1}, 1)
	assert.True(t, errors.Is(err, vectorstore.ErrCollectionNotFound))
	assert.True(t, errors.Is(s.DeleteCollection(ctx, "nope"), vectorstore.ErrCollectionNotFound))
	assert.True(t, errors.Is(s.Upsert(ctx, "nope", nil), vectorstore.ErrCollectionNotFound))
}

func TestCreateTwiceAndDelete(t *testing.T) {
	s := NewStore()
	seed(t, s, "docs")
	ctx := context.Background()

	assert.True(t, errors.Is(s.CreateCollection(ctx, "docs", 2), vectorstore.ErrCollectionExists))

	names, err := s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, names)

	require.NoError(t, s.DeleteCollection(ctx, "docs"))
	names, err = s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDimensionMismatch(t *testing.T) {
	s := NewStore()
	seed(t, s, "docs")
	ctx := context.Background()

	err := s.Upsert(ctx, "docs", []vectorstore.Point{{Vector: []float32{1, 2, 3}}})
	assert.True(t, errors.Is(err, vectorstore.ErrDimensionMismatch))

	_, err = s.Search(ctx, "docs", []float32{1}, 1)
	assert.True(t, errors.Is(err, vectorstore.ErrDimensionMismatch))
}
