package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type SendMessageResult struct {
	Response     string `json:"response"`
	MessageCount int    `json:"message_count"`
}

// ChatService answers a question inside a session and records the turn.
type ChatService struct {
	sessions *SessionService
	pipeline AnswerPipeline
	log      *zap.Logger
}

func NewChatService(sessions *SessionService, pipeline AnswerPipeline, log *zap.Logger) *ChatService {
	return &ChatService{
		sessions: sessions,
		pipeline: pipeline,
		log:      log.Named("chat"),
	}
}

// SendMessage leaves the session untouched when the pipeline fails.
func (s *ChatService) SendMessage(ctx context.Context, sessionID uint, question string) (*SendMessageResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", ErrInvalidInput)
	}

	session, err := s.sessions.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	answer, err := s.pipeline.Answer(ctx, session, question)
	if err != nil {
		s.log.Warn("answer pipeline failed", zap.Uint("session_id", sessionID), zap.Error(err))
		return nil, err
	}

	res, err := s.sessions.AppendTurn(ctx, sessionID, question, answer)
	if err != nil {
		return nil, err
	}
	return &SendMessageResult{Response: answer, MessageCount: res.MessageCount}, nil
}
