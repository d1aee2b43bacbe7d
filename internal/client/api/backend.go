package api

import (
	"context"
	"fmt"

	"github.com/iudanet/gratilog/internal/models"
	"github.com/iudanet/gratilog/pkg/api"
)

// FeedBackend адаптирует API клиент к авторитетным операциям коллекции.
// Один адаптер обслуживает все коллекции: ключ передается в записи.
type FeedBackend struct {
	client *Client
}

// NewFeedBackend создает адаптер авторитетных операций
func NewFeedBackend(client *Client) *FeedBackend {
	return &FeedBackend{client: client}
}

// Create выполняет авторитетную запись на сервере
func (b *FeedBackend) Create(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	created, err := b.client.CreateEntry(ctx, api.CreateEntryRequest{
		ParentID:  entry.ParentID,
		Kind:      entry.Kind,
		Content:   entry.Content,
		MediaURL:  entry.MediaURL,
		ClientRef: entry.ClientRef,
	})
	if err != nil {
		return nil, fmt.Errorf("authoritative create failed: %w", err)
	}
	return EntryFromWire(created), nil
}

// Delete выполняет авторитетное удаление по серверному id
func (b *FeedBackend) Delete(ctx context.Context, id string) error {
	if err := b.client.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("authoritative delete failed: %w", err)
	}
	return nil
}

// List возвращает все подтвержденные записи коллекции
func (b *FeedBackend) List(ctx context.Context, parentID string) ([]*models.Entry, error) {
	resp, err := b.client.ListEntries(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("list failed: %w", err)
	}

	entries := make([]*models.Entry, 0, len(resp.Entries))
	for i := range resp.Entries {
		entries = append(entries, EntryFromWire(&resp.Entries[i]))
	}
	return entries, nil
}

// EntryFromWire конвертирует wire запись в модель.
// Все записи с сервера подтвержденные.
func EntryFromWire(entry *api.Entry) *models.Entry {
	return &models.Entry{
		CreatedAt:  entry.CreatedAt,
		ID:         entry.ID,
		ParentID:   entry.ParentID,
		Kind:       entry.Kind,
		AuthorID:   entry.AuthorID,
		AuthorName: entry.AuthorName,
		Content:    entry.Content,
		MediaURL:   entry.MediaURL,
		ClientRef:  entry.ClientRef,
		Status:     models.StatusConfirmed,
	}
}

// SpaceFromWire конвертирует wire пространство в модель
func SpaceFromWire(space *api.Space) *models.Space {
	return &models.Space{
		CreatedAt: space.CreatedAt,
		ID:        space.ID,
		Name:      space.Name,
		Kind:      space.Kind,
		OwnerID:   space.OwnerID,
	}
}
