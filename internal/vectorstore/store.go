package vectorstore

import (
	"context"
	"errors"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionExists   = errors.New("collection already exists")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
)

// Point is one chunk to be indexed.
type Point struct {
	Index  int
	Text   string
	Vector []float32
}

// Hit is a search result. Hits are returned in non-increasing Score order;
// the order among equal scores is whatever the backend produces.
type Hit struct {
	Index int
	Text  string
	Score float32
}

// Store is a nearest-neighbour index partitioned into named collections.
// A collection is written once at ingestion and only read afterwards.
type Store interface {
	CreateCollection(ctx context.Context, name string, dimension int) error
	Upsert(ctx context.Context, name string, points []Point) error
	Search(ctx context.Context, name string, vector []float32, k int) ([]Hit, error)
	DeleteCollection(ctx context.Context, name string) error
	ListCollections(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}
