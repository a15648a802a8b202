package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "streamtube/internal/application"
	"streamtube/internal/domain/entity"
	"streamtube/internal/interface/middleware"
	"streamtube/pkg/apierror"
	"streamtube/pkg/response"
	"streamtube/pkg/validation"
)

type VideoHandler struct {
	Svc    *userapp.VideoService
	Logger *logrus.Logger
}

func NewVideoHandler(svc *userapp.VideoService, logger *logrus.Logger) *VideoHandler {
	return &VideoHandler{Svc: svc, Logger: logger}
}

type publishVideoRequest struct {
	Title           string `json:"title" binding:"required,max=200"`
	Description     string `json:"description"`
	URL             string `json:"url" binding:"required,url"`
	ThumbnailURL    string `json:"thumbnail_url" binding:"omitempty,url"`
	DurationSeconds int64  `json:"duration_seconds" binding:"required,gt=0"`
}

func videoView(v *entity.Video) gin.H {
	return gin.H{
		"id":               v.ID,
		"owner_id":         v.OwnerID,
		"title":            v.Title,
		"description":      v.Description,
		"url":              v.URL,
		"thumbnail_url":    v.ThumbnailURL,
		"duration_seconds": int64(v.Duration.Seconds()),
		"views":            v.Views,
		"created_at":       v.CreatedAt,
		"updated_at":       v.UpdatedAt,
	}
}

// Publish POST /api/v1/videos (auth)
func (h *VideoHandler) Publish(c *gin.Context) error {
	var req publishVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return apierror.BadRequest("invalid payload", validation.ToDetails(err))
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	v, err := h.Svc.Publish(c.Request.Context(), uid, userapp.PublishVideoInput{
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		Thumbnail:   req.ThumbnailURL,
		Duration:    time.Duration(req.DurationSeconds) * time.Second,
	})
	if err != nil {
		return err
	}
	response.Success(c, http.StatusCreated, videoView(v), "video published", nil)
	return nil
}

// List GET /api/v1/videos?limit=&offset=
func (h *VideoHandler) List(c *gin.Context) error {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	videos, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		return apierror.Internal(err)
	}
	out := make([]gin.H, 0, len(videos))
	for _, v := range videos {
		out = append(out, videoView(v))
	}
	response.Success(c, http.StatusOK, out, "videos", gin.H{"count": len(out), "limit": limit, "offset": offset})
	return nil
}

// Get GET /api/v1/videos/:id
func (h *VideoHandler) Get(c *gin.Context) error {
	v, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, userapp.ErrVideoNotFound) {
			return apierror.NotFound("video not found")
		}
		return err
	}
	response.Success(c, http.StatusOK, videoView(v), "video", nil)
	return nil
}

// RecordView POST /api/v1/videos/:id/view (auth)
// Counts the view and appends the video to the caller's watch history.
func (h *VideoHandler) RecordView(c *gin.Context) error {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.RecordView(c.Request.Context(), uid, c.Param("id")); err != nil {
		if errors.Is(err, userapp.ErrVideoNotFound) {
			return apierror.NotFound("video not found")
		}
		return err
	}
	response.Success[any](c, http.StatusOK, gin.H{"recorded": true}, "view recorded", nil)
	return nil
}
