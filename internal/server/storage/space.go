package storage

import (
	"context"

	"github.com/iudanet/gratilog/internal/models"
)

// SpaceStorage defines interface for space and membership persistence
type SpaceStorage interface {
	// CreateSpace creates a new space
	CreateSpace(ctx context.Context, space *models.Space) error

	// GetSpace retrieves space by ID
	// Returns ErrSpaceNotFound if space doesn't exist
	GetSpace(ctx context.Context, spaceID string) (*models.Space, error)

	// ListUserSpaces retrieves all spaces the user is a member of
	ListUserSpaces(ctx context.Context, userID string) ([]*models.Space, error)

	// AddMember adds a user to a space
	// Returns ErrAlreadyMember if membership exists,
	// ErrSpaceNotFound if space doesn't exist
	AddMember(ctx context.Context, member *models.SpaceMember) error

	// IsMember reports whether the user is a member of the space
	IsMember(ctx context.Context, spaceID, userID string) (bool, error)
}
