package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"streamtube/internal/domain/entity"
	repo "streamtube/internal/domain/repository"
	"streamtube/pkg/helpers"
)

var ErrVideoNotFound = errors.New("video not found")

// VideoService manages the video catalog and records views into the
// viewer's watch history.
type VideoService struct {
	Videos repo.VideoRepository
	Users  repo.UserRepository
	Logger *logrus.Logger
	Pub    *helpers.RabbitPublisher
}

type PublishVideoInput struct {
	Title       string
	Description string
	URL         string
	Thumbnail   string
	Duration    time.Duration
}

// ViewEvent is published to RabbitMQ whenever a view is recorded.
type ViewEvent struct {
	VideoID  string    `json:"video_id"`
	ViewerID string    `json:"viewer_id"`
	At       time.Time `json:"at"`
}

func (s *VideoService) Publish(ctx context.Context, ownerID string, in PublishVideoInput) (*entity.Video, error) {
	v := &entity.Video{
		OwnerID:      ownerID,
		Title:        in.Title,
		Description:  in.Description,
		URL:          in.URL,
		ThumbnailURL: in.Thumbnail,
		Duration:     in.Duration,
	}
	if err := s.Videos.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *VideoService) Get(ctx context.Context, id string) (*entity.Video, error) {
	v, err := s.Videos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *VideoService) List(ctx context.Context, limit, offset int) ([]*entity.Video, error) {
	return s.Videos.List(ctx, limit, offset)
}

// RecordView bumps the view counter, appends the video to the viewer's
// watch history (order-preserving), and emits a view event. Event delivery
// is best effort; the view itself is not.
func (s *VideoService) RecordView(ctx context.Context, viewerID, videoID string) error {
	if err := s.Videos.IncrementViews(ctx, videoID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrVideoNotFound
		}
		return err
	}
	if err := s.Users.AppendWatchHistory(ctx, viewerID, videoID); err != nil {
		return err
	}
	if s.Pub != nil {
		ev := ViewEvent{VideoID: videoID, ViewerID: viewerID, At: time.Now().UTC()}
		if err := s.Pub.PublishJSON(ctx, ev); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("video_id", videoID).Warn("publish view event failed")
		}
	}
	return nil
}
