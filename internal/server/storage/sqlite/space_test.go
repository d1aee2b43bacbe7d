package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gratilog/internal/models"
	"github.com/iudanet/gratilog/internal/server/storage"
)

func TestSpaceStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s, "owner")

	space := &models.Space{
		ID:        uuid.New().String(),
		Name:      "Семейный альбом",
		Kind:      models.SpaceShared,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.CreateSpace(ctx, space))

	retrieved, err := s.GetSpace(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, space.ID, retrieved.ID)
	assert.Equal(t, space.Name, retrieved.Name)
	assert.Equal(t, space.Kind, retrieved.Kind)
	assert.Equal(t, space.OwnerID, retrieved.OwnerID)
}

func TestSpaceStorage_GetSpace_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetSpace(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrSpaceNotFound)
}

func TestSpaceStorage_Membership(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	ownerID := createTestUser(t, ctx, s, "owner")
	memberID := createTestUser(t, ctx, s, "member")

	space := &models.Space{
		ID:        uuid.New().String(),
		Name:      "group",
		Kind:      models.SpaceShared,
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.CreateSpace(ctx, space))

	require.NoError(t, s.AddMember(ctx, &models.SpaceMember{
		SpaceID:  space.ID,
		UserID:   memberID,
		JoinedAt: time.Now(),
	}))

	ok, err := s.IsMember(ctx, space.ID, memberID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsMember(ctx, space.ID, ownerID)
	require.NoError(t, err)
	assert.False(t, ok, "владелец не становится участником автоматически")

	// Повторное вступление
	err = s.AddMember(ctx, &models.SpaceMember{
		SpaceID:  space.ID,
		UserID:   memberID,
		JoinedAt: time.Now(),
	})
	assert.ErrorIs(t, err, storage.ErrAlreadyMember)

	// Вступление в несуществующее пространство
	err = s.AddMember(ctx, &models.SpaceMember{
		SpaceID:  "nonexistent",
		UserID:   memberID,
		JoinedAt: time.Now(),
	})
	assert.ErrorIs(t, err, storage.ErrSpaceNotFound)
}

func TestSpaceStorage_ListUserSpaces(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s, "user")
	otherID := createTestUser(t, ctx, s, "other")

	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"personal", "family", "friends"} {
		space := &models.Space{
			ID:        uuid.New().String(),
			Name:      name,
			Kind:      models.SpaceShared,
			OwnerID:   userID,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, s.CreateSpace(ctx, space))
		require.NoError(t, s.AddMember(ctx, &models.SpaceMember{
			SpaceID:  space.ID,
			UserID:   userID,
			JoinedAt: time.Now(),
		}))
	}

	// Чужое пространство без членства
	foreign := &models.Space{
		ID:        uuid.New().String(),
		Name:      "foreign",
		Kind:      models.SpaceShared,
		OwnerID:   otherID,
		CreatedAt: base,
	}
	require.NoError(t, s.CreateSpace(ctx, foreign))

	spaces, err := s.ListUserSpaces(ctx, userID)
	require.NoError(t, err)
	require.Len(t, spaces, 3)
	assert.Equal(t, "personal", spaces[0].Name)
	assert.Equal(t, "family", spaces[1].Name)
	assert.Equal(t, "friends", spaces[2].Name)
}
