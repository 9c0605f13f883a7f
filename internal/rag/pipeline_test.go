package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-docchat/internal/model"
	"gopherai-docchat/internal/vectorstore/memory"
)

type pipelineFixture struct {
	pipeline *Pipeline
	gen      *fakeGenerator
	docs     *fakeDocs
}

func newPipelineFixture(t *testing.T, cfg Config) *pipelineFixture {
	t.Helper()
	emb := &keywordEmbedder{vocab: vocab}
	store := memory.NewStore()
	seedIndex(t, emb, store, "doc_pets", "cats purr", "dogs bark", "fish swim")

	gen := &fakeGenerator{reply: "  Cats purr.\n"}
	docs := &fakeDocs{docs: map[uint]*model.Document{
		1: {ID: 1, Filename: "pets.pdf", CollectionName: "doc_pets"},
	}}
	return &pipelineFixture{
		pipeline: NewPipeline(docs, NewRetriever(emb, store), gen, cfg),
		gen:      gen,
		docs:     docs,
	}
}

func TestAnswerComposesPrompt(t *testing.T) {
	f := newPipelineFixture(t, DefaultConfig())
	session := &model.ChatSession{ID: 7, DocumentID: 1, Messages: turns(8)}

	answer, err := f.pipeline.Answer(context.Background(), session, "what does the cat do?")
	require.NoError(t, err)
	assert.Equal(t, "  Cats purr.\n", answer, "completion is returned verbatim")

	require.Len(t, f.gen.prompts, 1)
	prompt := f.gen.prompts[0]
	assert.InDelta(t, 0.3, f.gen.temperature, 1e-9)
	assert.Contains(t, prompt, "Context from the document:\ncats purr\n\n")
	assert.Contains(t, prompt, "Chat History:\nuser: m3\n")
	assert.NotContains(t, prompt, "m2\n")
	assert.Contains(t, prompt, "Question: what does the cat do?")
	assert.Len(t, session.Messages, 8, "session is not mutated")
}

func TestAnswerUsesTopK(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TopK = 1
	f := newPipelineFixture(t, cfg)

	_, err := f.pipeline.Answer(context.Background(), &model.ChatSession{DocumentID: 1}, "dog")
	require.NoError(t, err)
	prompt := f.gen.prompts[0]
	assert.Contains(t, prompt, "Context from the document:\ndogs bark\n\nChat History:")
}

func TestAnswerFailures(t *testing.T) {
	t.Run("missing document", func(t *testing.T) {
		f := newPipelineFixture(t, DefaultConfig())
		_, err := f.pipeline.Answer(context.Background(), &model.ChatSession{DocumentID: 99}, "q")
		assert.True(t, errors.Is(err, ErrAnswerPipeline))
		assert.True(t, errors.Is(err, ErrMissingDocument))
		assert.Empty(t, f.gen.prompts)
	})

	t.Run("document lookup error", func(t *testing.T) {
		f := newPipelineFixture(t, DefaultConfig())
		f.docs.err = errBoom
		_, err := f.pipeline.Answer(context.Background(), &model.ChatSession{DocumentID: 1}, "q")
		assert.True(t, errors.Is(err, ErrAnswerPipeline))
		assert.True(t, errors.Is(err, errBoom))
	})

	t.Run("retrieval error", func(t *testing.T) {
		f := newPipelineFixture(t, DefaultConfig())
		f.docs.docs[2] = &model.Document{ID: 2, CollectionName: "doc_gone"}
		_, err := f.pipeline.Answer(context.Background(), &model.ChatSession{DocumentID: 2}, "q")
		assert.True(t, errors.Is(err, ErrAnswerPipeline))
		assert.True(t, errors.Is(err, ErrRetrieval))
		assert.Empty(t, f.gen.prompts)
	})

	t.Run("generator error", func(t *testing.T) {
		f := newPipelineFixture(t, DefaultConfig())
		f.gen.err = errBoom
		answer, err := f.pipeline.Answer(context.Background(), &model.ChatSession{DocumentID: 1}, "q")
		assert.Empty(t, answer)
		assert.True(t, errors.Is(err, ErrAnswerPipeline))
		assert.True(t, errors.Is(err, errBoom))
	})

	t.Run("generator timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.GenerateTimeout = 20 * time.Millisecond
		f := newPipelineFixture(t, cfg)
		f.gen.block = true
		_, err := f.pipeline.Answer(context.Background(), &model.ChatSession{DocumentID: 1}, "q")
		assert.True(t, errors.Is(err, ErrAnswerPipeline))
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("nil session", func(t *testing.T) {
		f := newPipelineFixture(t, DefaultConfig())
		_, err := f.pipeline.Answer(context.Background(), nil, "q")
		assert.True(t, errors.Is(err, ErrAnswerPipeline))
		assert.True(t, strings.Contains(err.Error(), "nil session"))
	})
}
