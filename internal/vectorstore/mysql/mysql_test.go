package mysql

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-docchat/internal/model"
	"gopherai-docchat/internal/vectorstore"
)

type fakeChunks struct {
	rows []model.DocumentChunk
}

func (f *fakeChunks) CreateBatch(_ context.Context, chunks []model.DocumentChunk) error {
	f.rows = append(f.rows, chunks...)
	return nil
}

func (f *fakeChunks) ListByCollection(_ context.Context, collection string) ([]model.DocumentChunk, error) {
	var out []model.DocumentChunk
	for _, r := range f.rows {
		if r.CollectionName == collection {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeChunks) CountByCollection(ctx context.Context, collection string) (int64, error) {
	rows, _ := f.ListByCollection(ctx, collection)
	return int64(len(rows)), nil
}

func (f *fakeChunks) ListCollections(context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, r := range f.rows {
		if !seen[r.CollectionName] {
			seen[r.CollectionName] = true
			out = append(out, r.CollectionName)
		}
	}
	return out, nil
}

func (f *fakeChunks) DeleteByCollection(_ context.Context, collection string) (int64, error) {
	kept := f.rows[:0]
	var n int64
	for _, r := range f.rows {
		if r.CollectionName == collection {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return n, nil
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(&fakeChunks{}, nil)

	require.NoError(t, s.CreateCollection(ctx, "doc_a", 2))
	require.NoError(t, s.Upsert(ctx, "doc_a", []vectorstore.Point{
		{Index: 0, Text: "alpha", Vector: []float32{1, 0}},
		{Index: 1, Text: "beta", Vector: []float32{0, 1}},
	}))

	hits, err := s.Search(ctx, "doc_a", []float32{0.1, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "beta", hits[0].Text)
	assert.Equal(t, 1, hits[0].Index)

	assert.True(t, errors.Is(s.CreateCollection(ctx, "doc_a", 2), vectorstore.ErrCollectionExists))

	names, err := s.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc_a"}, names)

	require.NoError(t, s.DeleteCollection(ctx, "doc_a"))
	_, err = s.Search(ctx, "doc_a", []float32{1, 0}, 1)
	assert.True(t, errors.Is(err, vectorstore.ErrCollectionNotFound))
	assert.True(t, errors.Is(s.DeleteCollection(ctx, "doc_a"), vectorstore.ErrCollectionNotFound))
	assert.NoError(t, s.Ping(ctx))
}
