package repository

import (
	"context"
	"errors"

	"streamtube/internal/domain/entity"
)

// Sentinel errors shared by all repository implementations. Services map
// these to user-facing failures; a unique-index rejection surfaces as
// ErrDuplicate so concurrent registrations resolve as a conflict, not a
// server fault.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate unique field")
)

// UserRepository defines the persistence boundary for users. Uniqueness of
// username and email is enforced by the store's indexes.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRefreshToken(ctx context.Context, id, refreshToken string) error
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
	GetWatchHistory(ctx context.Context, userID string) ([]string, error)
}
