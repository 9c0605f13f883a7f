package mysql

import (
	"context"
	"fmt"

	"gopherai-docchat/internal/model"
	"gopherai-docchat/internal/vectorstore"
)

type ChunkRepository interface {
	CreateBatch(ctx context.Context, chunks []model.DocumentChunk) error
	ListByCollection(ctx context.Context, collection string) ([]model.DocumentChunk, error)
	CountByCollection(ctx context.Context, collection string) (int64, error)
	ListCollections(ctx context.Context) ([]string, error)
	DeleteByCollection(ctx context.Context, collection string) (int64, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Store keeps chunks and their embeddings in a relational table and scores
// them in process. A collection exists once it has at least one chunk.
type Store struct {
	chunks ChunkRepository
	db     Pinger
}

func NewStore(chunks ChunkRepository, db Pinger) *Store {
	return &Store{chunks: chunks, db: db}
}

func (s *Store) CreateCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	count, err := s.chunks.CountByCollection(ctx, name)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", vectorstore.ErrCollectionExists, name)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, name string, points []vectorstore.Point) error {
	rows := make([]model.DocumentChunk, 0, len(points))
	for _, p := range points {
		row := model.DocumentChunk{
			CollectionName: name,
			ChunkIndex:     p.Index,
			Content:        p.Text,
		}
		row.SetEmbedding(p.Vector)
		rows = append(rows, row)
	}
	return s.chunks.CreateBatch(ctx, rows)
}

func (s *Store) Search(ctx context.Context, name string, vector []float32, k int) ([]vectorstore.Hit, error) {
	rows, err := s.chunks.ListByCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}

	hits := make([]vectorstore.Hit, 0, len(rows))
	for i := range rows {
		hits = append(hits, vectorstore.Hit{
			Index: rows[i].ChunkIndex,
			Text:  rows[i].Content,
			Score: vectorstore.CosineSimilarity(vector, rows[i].EmbeddingVector()),
		})
	}
	return vectorstore.TopK(hits, k), nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	n, err := s.chunks.DeleteByCollection(ctx, name)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	return nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	return s.chunks.ListCollections(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}
