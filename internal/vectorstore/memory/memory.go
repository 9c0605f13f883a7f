package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gopherai-docchat/internal/vectorstore"
)

type collection struct {
	dimension int
	points    []vectorstore.Point
}

// Store is an in-process index using brute-force cosine similarity.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) CreateCollection(_ context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return fmt.Errorf("%w: %s", vectorstore.ErrCollectionExists, name)
	}
	s.collections[name] = &collection{dimension: dimension}
	return nil
}

func (s *Store) Upsert(_ context.Context, name string, points []vectorstore.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	for _, p := range points {
		if len(p.Vector) != c.dimension {
			return vectorstore.ErrDimensionMismatch
		}
	}
	for _, p := range points {
		p.Vector = append([]float32(nil), p.Vector...)
		c.points = append(c.points, p)
	}
	return nil
}

func (s *Store) Search(_ context.Context, name string, vector []float32, k int) ([]vectorstore.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	if len(vector) != c.dimension {
		return nil, vectorstore.ErrDimensionMismatch
	}
	hits := make([]vectorstore.Hit, len(c.points))
	for i, p := range c.points {
		hits[i] = vectorstore.Hit{
			Index: p.Index,
			Text:  p.Text,
			Score: vectorstore.CosineSimilarity(vector, p.Vector),
		}
	}
	return vectorstore.TopK(hits, k), nil
}

func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	delete(s.collections, name)
	return nil
}

func (s *Store) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Ping(context.Context) error { return nil }
