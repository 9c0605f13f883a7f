package model

import (
	"encoding/json"
	"time"
)

// DocumentChunk backs the mysql vector backend. Embedding is stored as a JSON
// array of float32 for portability.
type DocumentChunk struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CollectionName string    `gorm:"size:64;not null;index" json:"collection_name"`
	ChunkIndex     int       `gorm:"not null" json:"chunk_index"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Embedding      string    `gorm:"type:mediumtext" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (c *DocumentChunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

func (c *DocumentChunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}
