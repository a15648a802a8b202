package entity

import "time"

// Video is a published catalog entry. Users reference videos from their
// watch history by id only.
type Video struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	URL          string
	ThumbnailURL string
	Duration     time.Duration
	Views        int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
