package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"gopherai-docchat/internal/model"
)

var tracer = otel.Tracer("gopherai-docchat/rag")

type DocumentLookup interface {
	GetByID(ctx context.Context, id uint) (*model.Document, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

type Config struct {
	TopK            int
	HistoryWindow   int
	Temperature     float64
	RetrieveTimeout time.Duration
	GenerateTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		TopK:            4,
		HistoryWindow:   6,
		Temperature:     0.3,
		RetrieveTimeout: 15 * time.Second,
		GenerateTimeout: 60 * time.Second,
	}
}

type Pipeline struct {
	docs      DocumentLookup
	retriever *Retriever
	generator Generator
	cfg       Config
}

func NewPipeline(docs DocumentLookup, retriever *Retriever, generator Generator, cfg Config) *Pipeline {
	return &Pipeline{
		docs:      docs,
		retriever: retriever,
		generator: generator,
		cfg:       cfg,
	}
}

// Answer produces a grounded reply to question using the session's document
// and its recent messages. It never mutates the session; every failure is
// wrapped in ErrAnswerPipeline.
func (p *Pipeline) Answer(ctx context.Context, session *model.ChatSession, question string) (string, error) {
	ctx, span := tracer.Start(ctx, "rag.answer")
	defer span.End()

	answer, err := p.answer(ctx, session, question)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: %w", ErrAnswerPipeline, err)
	}
	return answer, nil
}

func (p *Pipeline) answer(ctx context.Context, session *model.ChatSession, question string) (string, error) {
	if session == nil {
		return "", fmt.Errorf("%w: nil session", ErrInvalidInput)
	}

	doc, err := p.docs.GetByID(ctx, session.DocumentID)
	if err != nil {
		return "", fmt.Errorf("load document %d: %w", session.DocumentID, err)
	}
	if doc == nil {
		return "", fmt.Errorf("%w: id=%d", ErrMissingDocument, session.DocumentID)
	}

	chunks, err := p.retrieve(ctx, doc.CollectionName, question)
	if err != nil {
		return "", err
	}

	prompt := BuildPrompt(
		strings.Join(chunks, "\n\n"),
		FormatHistory(session.Messages, p.cfg.HistoryWindow),
		question,
	)
	return p.generate(ctx, prompt)
}

func (p *Pipeline) retrieve(ctx context.Context, collection, question string) ([]string, error) {
	if p.cfg.RetrieveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RetrieveTimeout)
		defer cancel()
	}
	chunks, err := p.retriever.Retrieve(ctx, collection, question, p.cfg.TopK)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("%w: %w", ctxErr, err)
		}
		return nil, err
	}
	return chunks, nil
}

func (p *Pipeline) generate(ctx context.Context, prompt string) (string, error) {
	if p.cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.GenerateTimeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "rag.generate")
	defer span.End()
	span.SetAttributes(attribute.Int("prompt_len", len(prompt)))

	text, err := p.generator.Generate(ctx, prompt, p.cfg.Temperature)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return "", fmt.Errorf("generate: %w: %w", ctxErr, err)
		}
		return "", fmt.Errorf("generate: %w", err)
	}
	return text, nil
}
