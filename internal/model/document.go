package model

import "time"

// Document owns exactly one chunk collection in the vector index.
type Document struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Filename       string    `gorm:"size:255;not null" json:"filename"`
	CollectionName string    `gorm:"size:64;not null;uniqueIndex" json:"collection_name"`
	ChunkCount     int       `gorm:"not null" json:"chunk_count"`
	PageCount      int       `gorm:"not null" json:"page_count"`
	SizeBytes      int64     `gorm:"not null" json:"size_bytes"`
	UploadedAt     time.Time `gorm:"not null;index" json:"uploaded_at"`
}
