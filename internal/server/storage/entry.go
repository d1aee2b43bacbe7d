package storage

import (
	"context"

	"github.com/iudanet/gratilog/internal/models"
)

// EntryStorage defines interface for feed entry persistence.
// Entries of all kinds (photos, comments, chat messages, reactions)
// share one table keyed by parent collection.
type EntryStorage interface {
	// CreateEntry persists a confirmed entry with server-assigned
	// id and created_at. The client_ref is stored as-is and echoed
	// back so clients can collapse their pending copies.
	CreateEntry(ctx context.Context, entry *models.Entry) error

	// GetEntry retrieves a single entry by ID
	// Returns ErrEntryNotFound if entry doesn't exist or is deleted
	GetEntry(ctx context.Context, id string) (*models.Entry, error)

	// GetEntryByClientRef retrieves an entry by the client correlation id.
	// Makes repeated POST of the same logical mutation idempotent.
	// Returns ErrEntryNotFound if no entry carries this client_ref.
	GetEntryByClientRef(ctx context.Context, clientRef string) (*models.Entry, error)

	// ListEntries retrieves all non-deleted entries of a collection
	// in chronological order
	ListEntries(ctx context.Context, parentID string) ([]*models.Entry, error)

	// DeleteEntry marks entry as deleted (soft delete)
	// Returns ErrEntryNotFound if entry doesn't exist or is already deleted
	DeleteEntry(ctx context.Context, id string) error
}
