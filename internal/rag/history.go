package rag

import (
	"strings"

	"gopherai-docchat/internal/model"
)

// FormatHistory renders the last limit messages as "role: content" lines.
func FormatHistory(messages []model.Message, limit int) string {
	if limit <= 0 || len(messages) == 0 {
		return ""
	}
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
