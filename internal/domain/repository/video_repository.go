package repository

import (
	"context"

	"streamtube/internal/domain/entity"
)

// VideoRepository defines the persistence boundary for the video catalog.
type VideoRepository interface {
	Create(ctx context.Context, v *entity.Video) error
	GetByID(ctx context.Context, id string) (*entity.Video, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Video, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Video, error)
	IncrementViews(ctx context.Context, id string) error
}
