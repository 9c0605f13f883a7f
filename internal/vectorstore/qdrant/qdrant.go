package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gopherai-docchat/internal/vectorstore"
)

const (
	payloadText  = "text"
	payloadIndex = "chunk_index"
	upsertBatch  = 64
)

// Store maps each collection name onto a qdrant collection with cosine
// distance. Point ids are the chunk indexes.
type Store struct {
	client *qdrant.Client
}

func NewStore(client *qdrant.Client) *Store {
	return &Store{client: client}
}

func (s *Store) CreateCollection(ctx context.Context, name string, dimension int) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check qdrant collection failed: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", vectorstore.ErrCollectionExists, name)
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create qdrant collection failed: %w", err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, name string, points []vectorstore.Point) error {
	wait := true
	for start := 0; start < len(points); start += upsertBatch {
		end := start + upsertBatch
		if end > len(points) {
			end = len(points)
		}

		batch := make([]*qdrant.PointStruct, 0, end-start)
		for _, p := range points[start:end] {
			batch = append(batch, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(p.Index)),
				Vectors: qdrant.NewVectors(p.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					payloadText:  p.Text,
					payloadIndex: int64(p.Index),
				}),
			})
		}

		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: name,
			Wait:           &wait,
			Points:         batch,
		})
		if err != nil {
			return mapErr(name, fmt.Errorf("upsert qdrant points failed: %w", err))
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, name string, vector []float32, k int) ([]vectorstore.Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	limit := uint64(k)
	query := make([]float32, len(vector))
	copy(query, vector)

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, mapErr(name, fmt.Errorf("query qdrant failed: %w", err))
	}

	hits := make([]vectorstore.Hit, 0, len(points))
	for _, point := range points {
		hit := vectorstore.Hit{Score: point.GetScore()}
		if val, ok := point.Payload[payloadText]; ok {
			hit.Text = val.GetStringValue()
		}
		if val, ok := point.Payload[payloadIndex]; ok {
			hit.Index = int(val.GetIntegerValue())
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check qdrant collection failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("delete qdrant collection failed: %w", err)
	}
	return nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list qdrant collections failed: %w", err)
	}
	return names, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

func mapErr(name string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s: %w", vectorstore.ErrCollectionNotFound, name, err)
	}
	return err
}
