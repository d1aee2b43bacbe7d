package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrTokenNotFound indicates that refresh token was not found
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrEntryNotFound indicates that feed entry was not found
	ErrEntryNotFound = errors.New("entry not found")

	// ErrSpaceNotFound indicates that space was not found
	ErrSpaceNotFound = errors.New("space not found")

	// ErrAlreadyMember indicates that user is already a member of the space
	ErrAlreadyMember = errors.New("user is already a member of the space")
)
