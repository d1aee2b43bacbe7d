package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gratilog/internal/client/storage"
	"github.com/iudanet/gratilog/internal/models"
)

var spacesKey = []byte("all")

// SaveEntries replaces the cached snapshot of a collection
func (s *Storage) SaveEntries(ctx context.Context, topic string, entries []*models.Entry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketFeed)
		if bucket == nil {
			return fmt.Errorf("feed bucket not found")
		}

		data, err := json.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to marshal entries: %w", err)
		}

		if err := bucket.Put([]byte(topic), data); err != nil {
			return fmt.Errorf("failed to save entries: %w", err)
		}

		return nil
	})
}

// GetEntries retrieves the cached snapshot of a collection
func (s *Storage) GetEntries(ctx context.Context, topic string) ([]*models.Entry, error) {
	var entries []*models.Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketFeed)
		if bucket == nil {
			return fmt.Errorf("feed bucket not found")
		}

		data := bucket.Get([]byte(topic))
		if data == nil {
			return storage.ErrCacheMiss
		}

		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("failed to unmarshal entries: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return entries, nil
}

// SaveSpaces replaces the cached list of user spaces
func (s *Storage) SaveSpaces(ctx context.Context, spaces []*models.Space) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSpaces)
		if bucket == nil {
			return fmt.Errorf("spaces bucket not found")
		}

		data, err := json.Marshal(spaces)
		if err != nil {
			return fmt.Errorf("failed to marshal spaces: %w", err)
		}

		if err := bucket.Put(spacesKey, data); err != nil {
			return fmt.Errorf("failed to save spaces: %w", err)
		}

		return nil
	})
}

// GetSpaces retrieves the cached list of user spaces
func (s *Storage) GetSpaces(ctx context.Context) ([]*models.Space, error) {
	var spaces []*models.Space

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSpaces)
		if bucket == nil {
			return fmt.Errorf("spaces bucket not found")
		}

		data := bucket.Get(spacesKey)
		if data == nil {
			return storage.ErrCacheMiss
		}

		if err := json.Unmarshal(data, &spaces); err != nil {
			return fmt.Errorf("failed to unmarshal spaces: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return spaces, nil
}
