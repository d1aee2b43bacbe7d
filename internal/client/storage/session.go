package storage

import (
	"context"
	"time"
)

// SessionStorage defines interface for storing the active session on client
type SessionStorage interface {
	// SaveSession stores session data, replacing the previous session
	SaveSession(ctx context.Context, session *SessionData) error

	// GetSession retrieves the stored session
	// Returns ErrSessionNotFound if no session exists
	GetSession(ctx context.Context) (*SessionData, error)

	// DeleteSession removes the stored session (logout)
	DeleteSession(ctx context.Context) error

	// IsAuthenticated checks if a non-expired session exists
	IsAuthenticated(ctx context.Context) (bool, error)
}

// SessionData представляет сохраненную сессию пользователя
type SessionData struct {
	ExpiresAt    time.Time `json:"expires_at"`   // срок действия access token
	Username     string    `json:"username"`     // username пользователя
	UserID       string    `json:"user_id"`      // UUID пользователя
	DisplayName  string    `json:"display_name"` // отображаемое имя
	AccessToken  string    `json:"access_token"` // JWT access token
	RefreshToken string    `json:"refresh_token"`
	PublicSalt   string    `json:"public_salt"` // base64 encoded salt
}
