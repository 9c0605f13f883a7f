package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"gopherai-docchat/internal/model"
	"gopherai-docchat/internal/repository"
)

const (
	unknownDocumentName = "Unknown Document"
	noMessagesPreview   = "No messages yet"
	previewRunes        = 100
)

type SessionDetail struct {
	model.ChatSession
	DocumentName string `json:"document_name"`
}

type SessionSummary struct {
	ID                 uint      `json:"id"`
	DocumentID         uint      `json:"document_id"`
	DocumentName       string    `json:"document_name"`
	Title              string    `json:"title"`
	MessageCount       int       `json:"message_count"`
	LastMessagePreview string    `json:"last_message_preview"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type SessionService struct {
	sessions SessionStore
	messages MessageStore
	docs     DocumentStore
	cache    SessionCache
	log      *zap.Logger
}

func NewSessionService(sessions SessionStore, messages MessageStore, docs DocumentStore, cache SessionCache, log *zap.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		messages: messages,
		docs:     docs,
		cache:    cache,
		log:      log.Named("sessions"),
	}
}

func (s *SessionService) CreateSession(ctx context.Context, documentID uint, title string) (*model.ChatSession, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %d", ErrNotFound, documentID)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = "Chat with " + doc.Filename
	}
	session := &model.ChatSession{
		DocumentID: doc.ID,
		Title:      title,
		Messages:   []model.Message{},
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	return session, nil
}

func (s *SessionService) GetSession(ctx context.Context, id uint) (*SessionDetail, error) {
	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	name, err := s.documentName(ctx, session.DocumentID)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{ChatSession: *session, DocumentName: name}, nil
}

// ListSessions returns the document's sessions, most recently active first.
func (s *SessionService) ListSessions(ctx context.Context, documentID uint) ([]SessionSummary, error) {
	name, err := s.documentName(ctx, documentID)
	if err != nil {
		return nil, err
	}
	list, err := s.sessions.ListByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	stats, err := s.messages.StatsBySessionIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]SessionSummary, 0, len(list))
	for _, session := range list {
		stat := stats[session.ID]
		out = append(out, SessionSummary{
			ID:                 session.ID,
			DocumentID:         session.DocumentID,
			DocumentName:       name,
			Title:              session.Title,
			MessageCount:       stat.Count,
			LastMessagePreview: preview(stat.Last),
			CreatedAt:          session.CreatedAt,
			UpdatedAt:          session.UpdatedAt,
		})
	}
	return out, nil
}

func (s *SessionService) DeleteSession(ctx context.Context, id uint) error {
	s.invalidate(ctx, id)
	deleted, err := s.sessions.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	if !deleted {
		return fmt.Errorf("%w: session %d", ErrNotFound, id)
	}
	return nil
}

// AppendTurn stores a user question and its answer as two consecutive
// messages. Concurrent appends to one session serialize in the store.
func (s *SessionService) AppendTurn(ctx context.Context, sessionID uint, userText, assistantText string) (*repository.AppendResult, error) {
	s.invalidate(ctx, sessionID)
	res, err := s.messages.AppendTurn(ctx, sessionID,
		model.Message{Role: model.RoleUser, Content: userText, Timestamp: time.Now()},
		model.Message{Role: model.RoleAssistant, Content: assistantText, Timestamp: time.Now()},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}
	s.invalidate(ctx, sessionID)
	return res, nil
}

// loadSession serves from cache unless a write marked the session dirty. The
// generation is taken before the database read so a snapshot that raced an
// append is never stored.
func (s *SessionService) loadSession(ctx context.Context, id uint) (*model.ChatSession, error) {
	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		gen, err := s.cache.Generation(ctx, id)
		if err != nil {
			s.log.Warn("session cache generation read failed", zap.Uint("session_id", id), zap.Error(err))
		} else {
			generation, cacheable = gen, true
		}
	}
	if cacheable {
		if dirty, err := s.cache.IsDirty(ctx, id); err == nil && !dirty {
			cached, hit, err := s.cache.Get(ctx, id)
			if err != nil {
				s.log.Warn("session cache read failed", zap.Uint("session_id", id), zap.Error(err))
			} else if hit {
				return cached, nil
			}
		}
	}

	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %d", ErrNotFound, id)
	}
	if session.Messages == nil {
		session.Messages = []model.Message{}
	}

	if cacheable {
		if _, err := s.cache.Set(ctx, session, generation); err != nil {
			s.log.Warn("session cache write failed", zap.Uint("session_id", id), zap.Error(err))
		}
	}
	return session, nil
}

func (s *SessionService) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("session cache invalidate failed", zap.Uint("session_id", id), zap.Error(err))
	}
}

func (s *SessionService) documentName(ctx context.Context, documentID uint) (string, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return unknownDocumentName, nil
	}
	return doc.Filename, nil
}

func preview(last *model.Message) string {
	if last == nil {
		return noMessagesPreview
	}
	runes := []rune(last.Content)
	if len(runes) > previewRunes {
		runes = runes[:previewRunes]
	}
	return string(runes) + "..."
}
