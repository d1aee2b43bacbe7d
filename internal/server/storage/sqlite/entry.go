package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/gratilog/internal/models"
	"github.com/iudanet/gratilog/internal/server/storage"
)

// author_name не хранится в entries: отображаемое имя автора
// подтягивается join-ом, чтобы переименование пользователя
// отражалось во всей ленте.
const entryColumns = `
	e.id, e.parent_id, e.kind, e.author_id,
	COALESCE(NULLIF(u.display_name, ''), u.username),
	e.content, e.media_url, e.client_ref, e.deleted, e.created_at
`

// CreateEntry persists a confirmed entry
func (s *Storage) CreateEntry(ctx context.Context, entry *models.Entry) error {
	query := `
		INSERT INTO entries (id, parent_id, kind, author_id, content, media_url, client_ref, deleted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.ParentID,
		entry.Kind,
		entry.AuthorID,
		entry.Content,
		entry.MediaURL,
		entry.ClientRef,
		entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	return nil
}

// GetEntry retrieves a single entry by ID
func (s *Storage) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries e
		JOIN users u ON u.id = e.author_id
		WHERE e.id = ? AND e.deleted = 0
	`

	entry, err := s.scanEntry(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return entry, nil
}

// GetEntryByClientRef retrieves an entry by the client correlation id
func (s *Storage) GetEntryByClientRef(ctx context.Context, clientRef string) (*models.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries e
		JOIN users u ON u.id = e.author_id
		WHERE e.client_ref = ? AND e.deleted = 0
	`

	entry, err := s.scanEntry(s.db.QueryRowContext(ctx, query, clientRef))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get entry by client_ref: %w", err)
	}

	return entry, nil
}

// ListEntries retrieves all non-deleted entries of a collection
// in chronological order
func (s *Storage) ListEntries(ctx context.Context, parentID string) ([]*models.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM entries e
		JOIN users u ON u.id = e.author_id
		WHERE e.parent_id = ? AND e.deleted = 0
		ORDER BY e.created_at ASC, e.id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []*models.Entry

	for rows.Next() {
		entry, err := s.scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}

// DeleteEntry marks entry as deleted (soft delete)
func (s *Storage) DeleteEntry(ctx context.Context, id string) error {
	query := `UPDATE entries SET deleted = 1 WHERE id = ? AND deleted = 0`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrEntryNotFound
	}

	return nil
}

// rowScanner объединяет sql.Row и sql.Rows для scanEntry
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry читает одну запись из строки результата
func (s *Storage) scanEntry(row rowScanner) (*models.Entry, error) {
	entry := &models.Entry{Status: models.StatusConfirmed}
	var deleted int

	err := row.Scan(
		&entry.ID,
		&entry.ParentID,
		&entry.Kind,
		&entry.AuthorID,
		&entry.AuthorName,
		&entry.Content,
		&entry.MediaURL,
		&entry.ClientRef,
		&deleted,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Deleted = deleted != 0
	return entry, nil
}
