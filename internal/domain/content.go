package domain

import "time"

// ContentItem is a workspace item reference returned by the content store.
type ContentItem struct {
	ID         string
	Title      string
	LastEdited time.Time
}
