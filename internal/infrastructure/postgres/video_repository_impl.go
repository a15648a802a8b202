package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"streamtube/internal/domain/entity"
	"streamtube/internal/domain/repository"
)

type VideoRepository struct {
	db DB
}

func NewVideoRepository(db DB) *VideoRepository {
	return &VideoRepository{db: db}
}

const videoColumns = `id, owner_id, title, description, url, thumbnail_url, duration_seconds, views, created_at, updated_at`

func scanVideo(row pgx.Row) (*entity.Video, error) {
	v := &entity.Video{}
	var durationSec int64
	err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.URL,
		&v.ThumbnailURL, &durationSec, &v.Views, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	v.Duration = time.Duration(durationSec) * time.Second
	return v, nil
}

func (r *VideoRepository) Create(ctx context.Context, v *entity.Video) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO videos (owner_id, title, description, url, thumbnail_url, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, views, created_at, updated_at
	`, v.OwnerID, v.Title, v.Description, v.URL, v.ThumbnailURL, int64(v.Duration.Seconds()))

	return row.Scan(&v.ID, &v.Views, &v.CreatedAt, &v.UpdatedAt)
}

func (r *VideoRepository) GetByID(ctx context.Context, id string) (*entity.Video, error) {
	return scanVideo(r.db.QueryRow(ctx, `
		SELECT `+videoColumns+`
		FROM videos
		WHERE id = $1
	`, id))
}

// GetByIDs resolves videos for a list of ids, preserving the order of ids.
// Missing ids are skipped: the watch history does not enforce referential
// integrity, deleted videos simply drop out.
func (r *VideoRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+videoColumns+`
		FROM videos
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*entity.Video, len(ids))
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		byID[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*entity.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *VideoRepository) List(ctx context.Context, limit, offset int) ([]*entity.Video, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+videoColumns+`
		FROM videos
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *VideoRepository) IncrementViews(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `
		UPDATE videos
		SET views = views + 1, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.VideoRepository = (*VideoRepository)(nil)
