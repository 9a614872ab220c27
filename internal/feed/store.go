// Package feed persists the media feed and serves it newest-first
// with cursor pagination.
package feed

import (
	"context"
	"errors"

	"mediafeed/api/internal/models"
)

// ErrNotFound is the normal miss outcome of FindByID, distinct from
// storage faults.
var ErrNotFound = errors.New("media not found")

type ListQuery struct {
	Page     int
	PageSize int
	// Type filters by media type when set to a valid tag; the
	// handlers drop anything else before it reaches the store.
	Type string
}

// Page is one slice of the feed. NextPage is present only when more
// items remain past the slice end.
type Page struct {
	Data     []models.MediaItem `json:"data"`
	NextPage *int               `json:"nextPage,omitempty"`
}

type Store interface {
	// InsertAtHead prepends the record; the feed's natural order is
	// insertion order, newest first.
	InsertAtHead(ctx context.Context, item models.MediaItem) error
	ReadAll(ctx context.Context) ([]models.MediaItem, error)
	FindByID(ctx context.Context, id int64) (models.MediaItem, error)
	List(ctx context.Context, q ListQuery) (Page, error)
	// Trim drops everything past max items (0 keeps all) and reports
	// how many records were removed.
	Trim(ctx context.Context, max int) (int, error)
}

// paginate slices an already-filtered newest-first collection.
func paginate(items []models.MediaItem, page, pageSize int) Page {
	start := page * pageSize
	if start >= len(items) {
		return Page{Data: []models.MediaItem{}}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	out := Page{Data: items[start:end]}
	if end < len(items) {
		next := page + 1
		out.NextPage = &next
	}
	return out
}

func filterByType(items []models.MediaItem, mediaType string) []models.MediaItem {
	if mediaType == "" {
		return items
	}
	filtered := make([]models.MediaItem, 0, len(items))
	for _, item := range items {
		if string(item.Type) == mediaType {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
