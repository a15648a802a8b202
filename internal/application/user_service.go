package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"streamtube/internal/domain/entity"
	repo "streamtube/internal/domain/repository"
	"streamtube/pkg/apierror"
	"streamtube/pkg/helpers"
	"streamtube/pkg/mailer"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// Service implements the user lifecycle: registration, credential
// verification, token issuance and rotation, profile and watch history.
type Service struct {
	Repo         repo.UserRepository
	Videos       repo.VideoRepository
	JWT          *helpers.JWTManager
	GCS          *storage.Client
	GCSBucket    string
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	Pub          *helpers.RabbitPublisher
	MailEnabled  bool
}

// TokenPair bundles a freshly issued access/refresh pair with expiries.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type RegisterInput struct {
	Username      string
	Email         string
	FullName      string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

// Register creates a user. Identifiers are normalized, the password is
// hashed before the record ever reaches the store, and a duplicate
// username/email rejection from the store surfaces as a conflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	u := entity.NewUser(in.Username, in.Email, in.FullName, in.AvatarURL, in.CoverImageURL)
	if err := u.SetPassword(in.Password); err != nil {
		return nil, apierror.Internal(err)
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apierror.Conflict("username or email already taken")
		}
		return nil, err
	}
	_ = s.indexUser(ctx, u)
	return u, nil
}

// Authenticate validates an identifier (email or username) and password and
// returns the user without issuing tokens. The same failure is returned for
// a missing user and a wrong password.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*entity.User, error) {
	u, err := s.lookup(ctx, identifier)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !u.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) lookup(ctx context.Context, identifier string) (*entity.User, error) {
	if strings.Contains(identifier, "@") {
		return s.Repo.GetByEmail(ctx, identifier)
	}
	return s.Repo.GetByUsername(ctx, identifier)
}

// IssueTokens generates the access/refresh pair, persists the refresh token
// on the user record, and records a session in Redis.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, u.Email, u.Username, u.FullName)
	if err != nil {
		s.logError(err, u.ID, "generate access token failed")
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID)
	if err != nil {
		s.logError(err, u.ID, "generate refresh token failed")
		return TokenPair{}, err
	}

	if err := s.Repo.UpdateRefreshToken(ctx, u.ID, refresh); err != nil {
		return TokenPair{}, err
	}
	u.RefreshToken = refresh

	s.writeSession(ctx, u, rexp)

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *Service) writeSession(ctx context.Context, u *entity.User, rexp time.Time) {
	if s.Redis == nil {
		return
	}
	key := helpers.SessionKey(u.ID)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"full_name":  u.FullName,
		"avatar_url": u.AvatarURL,
		"updated_at": nowRFC3339(),
	})
	pipe.Expire(ctx, key, time.Until(rexp))
	if _, err := pipe.Exec(ctx); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("key", key).Warn("redis pipeline failed")
	}
}

// Login verifies credentials, issues tokens, and queues a login
// notification email when mail sending is enabled.
func (s *Service) Login(ctx context.Context, identifier, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, identifier, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.queueLoginEmail(ctx, u)
	return u, pair, nil
}

func (s *Service) queueLoginEmail(ctx context.Context, u *entity.User) {
	if s.Pub == nil || !s.MailEnabled {
		return
	}
	job := mailer.EmailJob{
		To:      u.Email,
		Subject: "New login to your account",
		Text:    fmt.Sprintf("Hi %s, your account was just used to sign in. If this wasn't you, change your password.", u.FullName),
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("queue login email failed")
	}
}

// Refresh rotates the token pair. The presented refresh token must verify
// against the refresh secret AND match the token stored on the record, so a
// stolen-then-rotated token cannot be replayed.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*entity.User, TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if u.RefreshToken == "" || u.RefreshToken != refreshToken {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Logout clears the stored refresh token and drops the Redis session.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.Repo.UpdateRefreshToken(ctx, userID, ""); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if s.Redis != nil {
		if err := s.Redis.Del(ctx, helpers.SessionKey(userID)).Err(); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("session delete failed")
		}
	}
	return nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

type UpdateProfileInput struct {
	FullName string
	Email    string
}

// UpdateProfile changes fullName and/or email. The password field is not
// touched, so the stored hash survives the save unchanged.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	if in.FullName != "" {
		u.FullName = strings.TrimSpace(in.FullName)
	}
	if in.Email != "" {
		u.Email = entity.NormalizeIdentifier(in.Email)
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apierror.Conflict("email already taken")
		}
		return nil, err
	}
	s.refreshSessionFields(ctx, u)
	_ = s.indexUser(ctx, u)
	return u, nil
}

func (s *Service) refreshSessionFields(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	key := helpers.SessionKey(u.ID)
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"email":      u.Email,
		"full_name":  u.FullName,
		"avatar_url": u.AvatarURL,
		"updated_at": nowRFC3339(),
	})
	if ttl, err := s.Redis.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("key", key).Warn("redis pipeline failed")
	}
}

// ChangePassword verifies the old credential and replaces the hash. The new
// plaintext is hashed before the update statement runs.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return ErrUserNotFound
	}
	if !u.CheckPassword(oldPassword) {
		return ErrInvalidCredentials
	}
	if err := u.SetPassword(newPassword); err != nil {
		return apierror.Internal(err)
	}
	return s.Repo.UpdatePassword(ctx, u.ID, u.Password)
}

// UploadAvatar stores a new avatar image in GCS and updates the profile.
func (s *Service) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	return s.uploadImage(ctx, userID, "avatars", r, filename, contentType, func(u *entity.User, url string) {
		u.AvatarURL = url
	})
}

// UploadCoverImage stores a new cover image in GCS and updates the profile.
func (s *Service) UploadCoverImage(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	return s.uploadImage(ctx, userID, "covers", r, filename, contentType, func(u *entity.User, url string) {
		u.CoverImageURL = url
	})
}

func (s *Service) uploadImage(ctx context.Context, userID, category string, r io.Reader, filename, contentType string, assign func(*entity.User, string)) (string, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return "", ErrUserNotFound
	}
	url, err := s.UploadImage(ctx, category, userID, r, filename, contentType)
	if err != nil {
		return "", err
	}
	assign(u, url)
	if err := s.Repo.Update(ctx, u); err != nil {
		return "", err
	}
	s.refreshSessionFields(ctx, u)
	_ = s.indexUser(ctx, u)
	return url, nil
}

// UploadImage streams an image into the configured bucket under
// category/ownerID/ and returns its public URL.
func (s *Service) UploadImage(ctx context.Context, category, ownerID string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	objectPath := helpers.ImageObjectPath(category, ownerID, filename)
	return helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
}

// WatchHistory resolves the user's watch history to videos, preserving the
// recorded order. Ids whose videos no longer exist drop out silently.
func (s *Service) WatchHistory(ctx context.Context, userID string) ([]*entity.Video, error) {
	ids, err := s.Repo.GetWatchHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.Videos == nil || len(ids) == 0 {
		return nil, nil
	}
	return s.Videos.GetByIDs(ctx, ids)
}

func (s *Service) logError(err error, userID, msg string) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Error(msg)
	}
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"full_name":  u.FullName,
		"avatar_url": u.AvatarURL,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// SearchUsers performs a multi_match over username and full name.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "full_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
