package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/gratilog/internal/models"
	"github.com/iudanet/gratilog/internal/server/storage"
)

// CreateSpace creates a new space
func (s *Storage) CreateSpace(ctx context.Context, space *models.Space) error {
	query := `
		INSERT INTO spaces (id, name, kind, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		space.ID,
		space.Name,
		space.Kind,
		space.OwnerID,
		space.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert space: %w", err)
	}

	return nil
}

// GetSpace retrieves space by ID
func (s *Storage) GetSpace(ctx context.Context, spaceID string) (*models.Space, error) {
	query := `
		SELECT id, name, kind, owner_id, created_at
		FROM spaces
		WHERE id = ?
	`

	space := &models.Space{}

	err := s.db.QueryRowContext(ctx, query, spaceID).Scan(
		&space.ID,
		&space.Name,
		&space.Kind,
		&space.OwnerID,
		&space.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSpaceNotFound
		}
		return nil, fmt.Errorf("failed to get space: %w", err)
	}

	return space, nil
}

// ListUserSpaces retrieves all spaces the user is a member of
func (s *Storage) ListUserSpaces(ctx context.Context, userID string) ([]*models.Space, error) {
	query := `
		SELECT s.id, s.name, s.kind, s.owner_id, s.created_at
		FROM spaces s
		JOIN space_members m ON m.space_id = s.id
		WHERE m.user_id = ?
		ORDER BY s.created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user spaces: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var spaces []*models.Space

	for rows.Next() {
		space := &models.Space{}
		if err := rows.Scan(
			&space.ID,
			&space.Name,
			&space.Kind,
			&space.OwnerID,
			&space.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan space: %w", err)
		}
		spaces = append(spaces, space)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return spaces, nil
}

// AddMember adds a user to a space
func (s *Storage) AddMember(ctx context.Context, member *models.SpaceMember) error {
	query := `
		INSERT INTO space_members (space_id, user_id, joined_at)
		VALUES (?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		member.SpaceID,
		member.UserID,
		member.JoinedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrAlreadyMember
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return storage.ErrSpaceNotFound
		}
		return fmt.Errorf("failed to insert space member: %w", err)
	}

	return nil
}

// IsMember reports whether the user is a member of the space
func (s *Storage) IsMember(ctx context.Context, spaceID, userID string) (bool, error) {
	query := `SELECT 1 FROM space_members WHERE space_id = ? AND user_id = ?`

	var one int
	err := s.db.QueryRowContext(ctx, query, spaceID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return true, nil
}
