package sync

import "time"

const (
	EventBookCreated = "book.created"
	EventBookUpdated = "book.updated"
	EventBookDeleted = "book.deleted"
)

// CatalogEvent tells subscribers that the catalog changed and they should
// re-fetch what they display.
type CatalogEvent struct {
	Type   string    `json:"type"`
	BookID int64     `json:"book_id"`
	Title  string    `json:"title,omitempty"`
	At     time.Time `json:"at"`
}
