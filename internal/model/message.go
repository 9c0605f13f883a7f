package model

import (
	"fmt"
	"time"
)

// Role is the author of a chat message. Only RoleUser and RoleAssistant exist.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser, RoleAssistant:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown message role %q", raw)
	}
}

// Message is one entry of a session transcript. Seq is its 1-based position;
// messages are never edited or reordered.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	SessionID uint      `gorm:"not null;uniqueIndex:idx_message_session_seq" json:"-"`
	Seq       int       `gorm:"not null;uniqueIndex:idx_message_session_seq" json:"seq"`
	Role      Role      `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}
