package rag

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"gopherai-docchat/internal/vectorstore"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Index interface {
	Search(ctx context.Context, name string, vector []float32, k int) ([]vectorstore.Hit, error)
}

type Retriever struct {
	embedder Embedder
	index    Index
}

func NewRetriever(embedder Embedder, index Index) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

// Retrieve returns at most k chunk texts from one collection, most similar
// first. Chunks with equal scores come back in index order, which is not
// guaranteed to be stable between calls.
func (r *Retriever) Retrieve(ctx context.Context, collection, query string, k int) ([]string, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", ErrInvalidInput, k)
	}
	if collection == "" {
		return nil, fmt.Errorf("%w: empty collection name", ErrInvalidInput)
	}

	ctx, span := tracer.Start(ctx, "rag.retrieve")
	defer span.End()
	span.SetAttributes(attribute.String("collection", collection), attribute.Int("k", k))

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: embed query: %w", ErrRetrieval, err)
	}

	hits, err := r.index.Search(ctx, collection, vec, k)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: search %s: %w", ErrRetrieval, collection, err)
	}
	if len(hits) > k {
		hits = hits[:k]
	}

	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Text)
	}
	span.SetAttributes(attribute.Int("hits", len(texts)))
	return texts, nil
}
