package app

import (
	"context"

	"gopherai-docchat/internal/model"
	"gopherai-docchat/internal/repository"
)

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, id uint) (*model.Document, error)
	GetByCollectionName(ctx context.Context, name string) (*model.Document, error)
	List(ctx context.Context) ([]model.Document, error)
	Delete(ctx context.Context, id uint) error
}

type SessionStore interface {
	Create(ctx context.Context, session *model.ChatSession) error
	GetByID(ctx context.Context, id uint) (*model.ChatSession, error)
	ListByDocumentID(ctx context.Context, documentID uint) ([]model.ChatSession, error)
	Delete(ctx context.Context, id uint) (bool, error)
}

type MessageStore interface {
	AppendTurn(ctx context.Context, sessionID uint, messages ...model.Message) (*repository.AppendResult, error)
	StatsBySessionIDs(ctx context.Context, sessionIDs []uint) (map[uint]repository.MessageStat, error)
}

// SessionCache stores session snapshots. Set must refuse to store a snapshot
// when Invalidate ran after the generation it was given was read.
type SessionCache interface {
	Get(ctx context.Context, sessionID uint) (*model.ChatSession, bool, error)
	Generation(ctx context.Context, sessionID uint) (int64, error)
	Set(ctx context.Context, session *model.ChatSession, generation int64) (bool, error)
	Invalidate(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// FileArchive stores the raw uploads. Optional.
type FileArchive interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Remove(ctx context.Context, key string) error
}

type CleanupQueue interface {
	Publish(ctx context.Context, event model.CollectionCleanupEvent) error
}

type AnswerPipeline interface {
	Answer(ctx context.Context, session *model.ChatSession, question string) (string, error)
}
