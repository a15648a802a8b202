package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"streamtube/internal/container"
	handlers "streamtube/internal/interface/http"
	"streamtube/internal/interface/middleware"
	"streamtube/pkg/helpers"
)

// UserModule wires user HTTP handlers and auth middleware into routes.
// Public: POST /users/register, /users/login, /users/refresh
// Protected: /users/logout, /users/me*, /users/history, /users/search
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	registerLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/users/register", registerLimiter, middleware.Wrap(m.Handler.Register))
	rg.POST("/users/login", loginLimiter, middleware.Wrap(m.Handler.Login))
	rg.POST("/users/refresh", refreshLimiter, middleware.Wrap(m.Handler.Refresh))

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/users/logout", middleware.Wrap(m.Handler.Logout))
		auth.GET("/users/me", middleware.Wrap(m.Handler.Me))
		auth.PATCH("/users/me", middleware.Wrap(m.Handler.UpdateMe))
		auth.POST("/users/me/password", middleware.Wrap(m.Handler.ChangePassword))
		auth.PATCH("/users/me/avatar", middleware.Wrap(m.Handler.UpdateAvatar))
		auth.PATCH("/users/me/cover", middleware.Wrap(m.Handler.UpdateCoverImage))
		auth.GET("/users/history", middleware.Wrap(m.Handler.WatchHistory))
		auth.GET("/users/search", middleware.Wrap(m.Handler.Search))
	}
}
