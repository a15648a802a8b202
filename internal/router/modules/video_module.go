package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"streamtube/internal/container"
	handlers "streamtube/internal/interface/http"
	"streamtube/internal/interface/middleware"
	"streamtube/pkg/helpers"
)

// VideoModule wires the video catalog routes.
// Public: GET /videos, GET /videos/:id
// Protected: POST /videos, POST /videos/:id/view
type VideoModule struct {
	Handler *handlers.VideoHandler
	JWT     *helpers.JWTManager
}

func NewVideoModule(h *handlers.VideoHandler, jwt *helpers.JWTManager) *VideoModule {
	return &VideoModule{Handler: h, JWT: jwt}
}

func (m *VideoModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	listLimiter := middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/videos", listLimiter, middleware.Wrap(m.Handler.List))
	rg.GET("/videos/:id", listLimiter, middleware.Wrap(m.Handler.Get))

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/videos", middleware.Wrap(m.Handler.Publish))
		auth.POST("/videos/:id/view", middleware.Wrap(m.Handler.RecordView))
	}
}
