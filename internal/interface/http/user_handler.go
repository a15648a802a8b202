package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "streamtube/internal/application"
	"streamtube/internal/domain/entity"
	"streamtube/internal/interface/middleware"
	"streamtube/pkg/apierror"
	"streamtube/pkg/helpers"
	"streamtube/pkg/response"
	"streamtube/pkg/validation"
)

const maxImageSize = 8 << 20 // 8 MiB per uploaded image

type UserHandler struct {
	Svc     *userapp.Service
	JWT     *helpers.JWTManager
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewUserHandler(svc *userapp.Service, jwt *helpers.JWTManager, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, JWT: jwt, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	Username string `form:"username" binding:"required,min=3,max=30"`
	Email    string `form:"email" binding:"required,email"`
	FullName string `form:"full_name" binding:"required"`
	Password string `form:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"` // username or email
	Password   string `json:"password" binding:"required,pwd"`
}

type updateProfileRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

func userView(u *entity.User) gin.H {
	return gin.H{
		"id":              u.ID,
		"username":        u.Username,
		"email":           u.Email,
		"full_name":       u.FullName,
		"avatar_url":      u.AvatarURL,
		"cover_image_url": u.CoverImageURL,
		"created_at":      u.CreatedAt,
		"updated_at":      u.UpdatedAt,
	}
}

// Register POST /api/v1/users/register (multipart)
// Required: username, email, full_name, password, avatar file.
// Optional: cover_image file.
func (h *UserHandler) Register(c *gin.Context) error {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		return apierror.BadRequest("invalid payload", validation.ToDetails(err))
	}

	owner := entity.NormalizeIdentifier(req.Username)
	avatarURL, err := h.formImage(c, "avatar", "avatars", owner, true)
	if err != nil {
		return err
	}
	coverURL, err := h.formImage(c, "cover_image", "covers", owner, false)
	if err != nil {
		return err
	}

	u, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		Username:      req.Username,
		Email:         req.Email,
		FullName:      req.FullName,
		Password:      req.Password,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		return err
	}
	response.Success(c, http.StatusCreated, userView(u), "user registered", nil)
	return nil
}

// formImage uploads a multipart image field to GCS under category/ and
// returns its public URL. A missing optional field returns "".
func (h *UserHandler) formImage(c *gin.Context, field, category, ownerID string, required bool) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) && !required {
			return "", nil
		}
		return "", apierror.BadRequest(field+" file is required", nil)
	}
	if fh.Size > maxImageSize {
		return "", apierror.BadRequest(field+" exceeds the size limit", nil)
	}
	f, err := fh.Open()
	if err != nil {
		return "", apierror.Internal(err)
	}
	defer func(f multipart.File) { _ = f.Close() }(f)

	url, err := h.Svc.UploadImage(c.Request.Context(), category, ownerID, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		return "", apierror.Wrap(http.StatusBadGateway, "image upload failed", err)
	}
	return url, nil
}

// Login POST /api/v1/users/login
func (h *UserHandler) Login(c *gin.Context) error {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return apierror.BadRequest("invalid payload", validation.ToDetails(err))
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		return apierror.Unauthorized("invalid credentials")
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, userView(u), "login successful", gin.H{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
	return nil
}

// Refresh POST /api/v1/users/refresh
// The refresh token is read from the cookie or, as a fallback, the body.
func (h *UserHandler) Refresh(c *gin.Context) error {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = c.ShouldBindJSON(&body)
		refresh = body.RefreshToken
	}
	if refresh == "" {
		return apierror.Unauthorized("missing refresh token")
	}

	_, pair, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		return apierror.Unauthorized("invalid refresh token")
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, gin.H{"refreshed": true}, "token refreshed", gin.H{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
	return nil
}

// Logout POST /api/v1/users/logout (auth)
func (h *UserHandler) Logout(c *gin.Context) error {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.Logout(c.Request.Context(), uid); err != nil {
		return apierror.Internal(err)
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
	return nil
}

// Me GET /api/v1/users/me (auth)
func (h *UserHandler) Me(c *gin.Context) error {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		return apierror.NotFound("user not found")
	}
	response.Success(c, http.StatusOK, userView(u), "profile", nil)
	return nil
}

// UpdateMe PATCH /api/v1/users/me (auth)
func (h *UserHandler) UpdateMe(c *gin.Context) error {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return apierror.BadRequest("invalid payload", validation.ToDetails(err))
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, userapp.UpdateProfileInput{FullName: req.FullName, Email: req.Email})
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			return apierror.NotFound("user not found")
		}
		return err
	}
	response.Success(c, http.StatusOK, userView(u), "profile updated", nil)
	return nil
}

// ChangePassword POST /api/v1/users/me/password (auth)
func (h *UserHandler) ChangePassword(c *gin.Context) error {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return apierror.BadRequest("invalid payload", validation.ToDetails(err))
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), uid, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, userapp.ErrInvalidCredentials) {
			return apierror.Unauthorized("wrong password")
		}
		if errors.Is(err, userapp.ErrUserNotFound) {
			return apierror.NotFound("user not found")
		}
		return err
	}
	response.Success[any](c, http.StatusOK, gin.H{"changed": true}, "password changed", nil)
	return nil
}

// UpdateAvatar PATCH /api/v1/users/me/avatar (auth, multipart)
func (h *UserHandler) UpdateAvatar(c *gin.Context) error {
	return h.updateImage(c, "avatar", h.Svc.UploadAvatar)
}

// UpdateCoverImage PATCH /api/v1/users/me/cover (auth, multipart)
func (h *UserHandler) UpdateCoverImage(c *gin.Context) error {
	return h.updateImage(c, "cover_image", h.Svc.UploadCoverImage)
}

func (h *UserHandler) updateImage(c *gin.Context, field string, upload func(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error)) error {
	uid := c.GetString(middleware.CtxUserIDKey)
	fh, err := c.FormFile(field)
	if err != nil {
		return apierror.BadRequest(field+" file is required", nil)
	}
	if fh.Size > maxImageSize {
		return apierror.BadRequest(field+" exceeds the size limit", nil)
	}
	f, err := fh.Open()
	if err != nil {
		return apierror.Internal(err)
	}
	defer func(f multipart.File) { _ = f.Close() }(f)

	url, err := upload(c.Request.Context(), uid, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			return apierror.NotFound("user not found")
		}
		return apierror.Wrap(http.StatusBadGateway, "image upload failed", err)
	}
	response.Success[any](c, http.StatusOK, gin.H{"url": url}, field+" updated", nil)
	return nil
}

// WatchHistory GET /api/v1/users/history (auth)
func (h *UserHandler) WatchHistory(c *gin.Context) error {
	uid := c.GetString(middleware.CtxUserIDKey)
	videos, err := h.Svc.WatchHistory(c.Request.Context(), uid)
	if err != nil {
		return apierror.Internal(err)
	}
	out := make([]gin.H, 0, len(videos))
	for _, v := range videos {
		out = append(out, videoView(v))
	}
	response.Success(c, http.StatusOK, out, "watch history", gin.H{"count": len(out)})
	return nil
}

// Search GET /api/v1/users/search?q=&size= (auth)
func (h *UserHandler) Search(c *gin.Context) error {
	q := c.Query("q")
	if q == "" {
		return apierror.BadRequest("q is required", nil)
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		return apierror.Wrap(http.StatusBadGateway, "search unavailable", err)
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
	return nil
}
