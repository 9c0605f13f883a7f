package rag

import (
	"context"
	"errors"
	"strings"
	"sync"

	"gopherai-docchat/internal/model"
)

// keywordEmbedder maps text onto a fixed vocabulary so similarity is
// predictable in tests.
type keywordEmbedder struct {
	vocab []string
	err   error
	calls int
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.vocab)+1)
	for i, w := range e.vocab {
		vec[i] = float32(strings.Count(lower, w))
	}
	vec[len(e.vocab)] = 0.01
	return vec, nil
}

type fakeGenerator struct {
	mu          sync.Mutex
	reply       string
	err         error
	block       bool
	prompts     []string
	temperature float64
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.temperature = temperature
	g.mu.Unlock()
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type fakeDocs struct {
	docs map[uint]*model.Document
	err  error
}

func (f *fakeDocs) GetByID(_ context.Context, id uint) (*model.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.docs[id], nil
}

var errBoom = errors.New("boom")
