package model

import "time"

// ChatSession is bound to one document for its whole life. DocumentID is not
// a foreign key: sessions outlive their document.
type ChatSession struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	Title      string    `gorm:"size:256;not null" json:"title"`
	Messages   []Message `gorm:"foreignKey:SessionID" json:"messages"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `gorm:"index" json:"updated_at"`
}
