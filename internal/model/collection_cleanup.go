package model

import "time"

// CollectionCleanupEvent asks the cleanup worker to drop a chunk collection
// that may no longer be referenced by any Document.
type CollectionCleanupEvent struct {
	CollectionName string    `json:"collection_name"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}
