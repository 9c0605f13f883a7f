package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gopherai-docchat/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// AppendResult describes a session right after a successful append.
type AppendResult struct {
	MessageCount int
	UpdatedAt    time.Time
}

// MessageStat summarizes one session transcript for listings.
type MessageStat struct {
	Count int
	Last  *model.Message
}

// AppendTurn appends the given messages to the end of a session transcript
// and bumps the session's updated_at. The session row is locked for the
// duration of the transaction so concurrent appends serialize instead of
// racing for the same seq. Returns nil when the session does not exist.
func (r *MessageRepository) AppendTurn(ctx context.Context, sessionID uint, messages ...model.Message) (*AppendResult, error) {
	var result *AppendResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session model.ChatSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&session, sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		var lastSeq int
		if err := tx.Model(&model.Message{}).
			Where("session_id = ?", sessionID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&lastSeq).Error; err != nil {
			return err
		}

		rows := make([]model.Message, len(messages))
		for i, m := range messages {
			m.ID = 0
			m.SessionID = sessionID
			m.Seq = lastSeq + i + 1
			rows[i] = m
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		if now.Before(session.UpdatedAt) {
			now = session.UpdatedAt
		}
		if err := tx.Model(&model.ChatSession{}).Where("id = ?", sessionID).UpdateColumn("updated_at", now).Error; err != nil {
			return err
		}

		result = &AppendResult{MessageCount: lastSeq + len(rows), UpdatedAt: now}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("append turn failed: %w", err)
	}
	return result, nil
}

// StatsBySessionIDs returns message count and last message per session id.
// Sessions without messages are absent from the map.
func (r *MessageRepository) StatsBySessionIDs(ctx context.Context, sessionIDs []uint) (map[uint]MessageStat, error) {
	stats := make(map[uint]MessageStat, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return stats, nil
	}

	var counts []struct {
		SessionID uint
		Count     int
	}
	if err := r.db.WithContext(ctx).Model(&model.Message{}).
		Select("session_id, COUNT(*) AS count").
		Where("session_id IN ?", sessionIDs).
		Group("session_id").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("count messages failed: %w", err)
	}
	if len(counts) == 0 {
		return stats, nil
	}
	for _, row := range counts {
		stats[row.SessionID] = MessageStat{Count: row.Count}
	}

	latest := r.db.Model(&model.Message{}).
		Select("session_id, MAX(seq) AS seq").
		Where("session_id IN ?", sessionIDs).
		Group("session_id")

	var last []model.Message
	if err := r.db.WithContext(ctx).
		Select("messages.*").
		Joins("JOIN (?) AS latest ON latest.session_id = messages.session_id AND latest.seq = messages.seq", latest).
		Find(&last).Error; err != nil {
		return nil, fmt.Errorf("load last messages failed: %w", err)
	}
	for i := range last {
		stat := stats[last[i].SessionID]
		stat.Last = &last[i]
		stats[last[i].SessionID] = stat
	}
	return stats, nil
}
