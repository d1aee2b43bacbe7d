package storage

import (
	"context"

	"github.com/iudanet/gratilog/internal/models"
)

// FeedCache defines interface for the offline cache of feed collections.
// Кэш хранит последний подтвержденный снимок каждой коллекции, чтобы
// лента открывалась без сети. Pending записи в кэш не попадают.
type FeedCache interface {
	// SaveEntries replaces the cached snapshot of a collection
	SaveEntries(ctx context.Context, topic string, entries []*models.Entry) error

	// GetEntries retrieves the cached snapshot of a collection
	// Returns ErrCacheMiss if the collection was never cached
	GetEntries(ctx context.Context, topic string) ([]*models.Entry, error)

	// SaveSpaces replaces the cached list of user spaces
	SaveSpaces(ctx context.Context, spaces []*models.Space) error

	// GetSpaces retrieves the cached list of user spaces
	// Returns ErrCacheMiss if spaces were never cached
	GetSpaces(ctx context.Context) ([]*models.Space, error)
}
