package application

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamtube/internal/domain/entity"
	repo "streamtube/internal/domain/repository"
	"streamtube/pkg/apierror"
	"streamtube/pkg/helpers"
)

// fakeUserRepo is an in-memory UserRepository with the store's uniqueness
// semantics.
type fakeUserRepo struct {
	users   map[string]*entity.User
	history map[string][]string
	nextID  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}, history: map[string][]string{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	for _, ex := range f.users {
		if ex.Username == u.Username || ex.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	f.nextID++
	u.ID = "u-" + strconv.Itoa(f.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	email = entity.NormalizeIdentifier(email)
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	username = entity.NormalizeIdentifier(username)
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, u *entity.User) error {
	cur, ok := f.users[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	for id, ex := range f.users {
		if id != u.ID && (ex.Username == u.Username || ex.Email == u.Email) {
			return repo.ErrDuplicate
		}
	}
	u.Password = cur.Password
	cp := *u
	cp.RefreshToken = cur.RefreshToken
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (f *fakeUserRepo) UpdateRefreshToken(_ context.Context, id, token string) error {
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.RefreshToken = token
	return nil
}

func (f *fakeUserRepo) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	f.history[userID] = append(f.history[userID], videoID)
	return nil
}

func (f *fakeUserRepo) GetWatchHistory(_ context.Context, userID string) ([]string, error) {
	return f.history[userID], nil
}

var _ repo.UserRepository = (*fakeUserRepo)(nil)

type fakeVideoRepo struct {
	videos map[string]*entity.Video
}

func (f *fakeVideoRepo) Create(_ context.Context, v *entity.Video) error {
	f.videos[v.ID] = v
	return nil
}

func (f *fakeVideoRepo) GetByID(_ context.Context, id string) (*entity.Video, error) {
	v, ok := f.videos[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return v, nil
}

func (f *fakeVideoRepo) GetByIDs(_ context.Context, ids []string) ([]*entity.Video, error) {
	out := make([]*entity.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := f.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVideoRepo) List(_ context.Context, _, _ int) ([]*entity.Video, error) {
	return nil, nil
}

func (f *fakeVideoRepo) IncrementViews(_ context.Context, id string) error {
	v, ok := f.videos[id]
	if !ok {
		return repo.ErrNotFound
	}
	v.Views++
	return nil
}

var _ repo.VideoRepository = (*fakeVideoRepo)(nil)

func newTestService(t *testing.T) (*Service, *fakeUserRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := newFakeUserRepo()
	svc := &Service{
		Repo:   users,
		Videos: &fakeVideoRepo{videos: map[string]*entity.Video{}},
		JWT: &helpers.JWTManager{
			AccessSecret:  []byte("test-access"),
			RefreshSecret: []byte("test-refresh"),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    240 * time.Hour,
		},
		Redis: rdb,
	}
	return svc, users, mr
}

func registerAlice(t *testing.T, svc *Service) *entity.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Username:  "Alice",
		Email:     "Alice@Example.com",
		FullName:  "Alice Liddell",
		Password:  "wonderland9",
		AvatarURL: "https://cdn/a.png",
	})
	require.NoError(t, err)
	return u
}

func TestRegisterHashesPasswordAndNormalizes(t *testing.T) {
	svc, users, _ := newTestService(t)

	u := registerAlice(t, svc)

	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "wonderland9", u.Password)

	stored := users.users[u.ID]
	assert.True(t, stored.CheckPassword("wonderland9"))
}

func TestRegisterDuplicateIsConflict(t *testing.T) {
	svc, _, _ := newTestService(t)
	registerAlice(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username:  "ALICE",
		Email:     "other@example.com",
		FullName:  "Someone Else",
		Password:  "password123",
		AvatarURL: "https://cdn/b.png",
	})

	apiErr, ok := apierror.From(err)
	require.True(t, ok)
	assert.Equal(t, 409, apiErr.Status)
}

func TestLoginStoresRefreshTokenAndSession(t *testing.T) {
	svc, users, mr := newTestService(t)
	u := registerAlice(t, svc)

	got, pair, err := svc.Login(context.Background(), "alice@example.com", "wonderland9")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	assert.Equal(t, pair.RefreshToken, users.users[u.ID].RefreshToken)

	key := helpers.SessionKey(u.ID)
	assert.Equal(t, u.ID, mr.HGet(key, "user_id"))
	assert.Equal(t, "alice", mr.HGet(key, "username"))
	ttl := mr.TTL(key)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestLoginByUsername(t *testing.T) {
	svc, _, _ := newTestService(t)
	registerAlice(t, svc)

	_, _, err := svc.Login(context.Background(), "alice", "wonderland9")
	assert.NoError(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	registerAlice(t, svc)

	_, _, err := svc.Login(context.Background(), "alice", "not-it")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "wonderland9")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, users, _ := newTestService(t)
	u := registerAlice(t, svc)

	_, first, err := svc.Login(context.Background(), "alice", "wonderland9")
	require.NoError(t, err)

	// token timestamps are second-granular; force distinct issue times
	time.Sleep(1100 * time.Millisecond)

	got, second, err := svc.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, second.RefreshToken, users.users[u.ID].RefreshToken)

	// the superseded token no longer matches the stored one
	_, _, err = svc.Refresh(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRejectsGarbageAndForeignTokens(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := registerAlice(t, svc)

	_, _, err := svc.Refresh(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// a valid refresh token that was never persisted for the user
	other, _, err := svc.JWT.GenerateRefreshToken(u.ID)
	require.NoError(t, err)
	_, _, err = svc.Refresh(context.Background(), other)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutClearsTokenAndSession(t *testing.T) {
	svc, users, mr := newTestService(t)
	u := registerAlice(t, svc)
	_, _, err := svc.Login(context.Background(), "alice", "wonderland9")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), u.ID))

	assert.Empty(t, users.users[u.ID].RefreshToken)
	assert.False(t, mr.Exists(helpers.SessionKey(u.ID)))
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := registerAlice(t, svc)

	err := svc.ChangePassword(context.Background(), u.ID, "wrong-old", "newpassword1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(context.Background(), u.ID, "wonderland9", "newpassword1"))

	_, _, err = svc.Login(context.Background(), "alice", "wonderland9")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "alice", "newpassword1")
	assert.NoError(t, err)
}

func TestUpdateProfileKeepsPasswordHash(t *testing.T) {
	svc, users, _ := newTestService(t)
	u := registerAlice(t, svc)
	hashBefore := users.users[u.ID].Password

	got, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{
		FullName: "Alice P. Liddell",
		Email:    "Alice.New@Example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice P. Liddell", got.FullName)
	assert.Equal(t, "alice.new@example.com", got.Email)
	assert.Equal(t, hashBefore, users.users[u.ID].Password)
}

func TestUpdateProfileDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := registerAlice(t, svc)
	_, err := svc.Register(context.Background(), RegisterInput{
		Username:  "bob",
		Email:     "bob@example.com",
		FullName:  "Bob",
		Password:  "password123",
		AvatarURL: "https://cdn/b.png",
	})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{Email: "bob@example.com"})

	apiErr, ok := apierror.From(err)
	require.True(t, ok)
	assert.Equal(t, 409, apiErr.Status)
}

func TestWatchHistoryResolvesVideosInOrder(t *testing.T) {
	svc, users, _ := newTestService(t)
	u := registerAlice(t, svc)

	vids := svc.Videos.(*fakeVideoRepo)
	vids.videos["v-1"] = &entity.Video{ID: "v-1", Title: "First"}
	vids.videos["v-2"] = &entity.Video{ID: "v-2", Title: "Second"}

	for _, id := range []string{"v-2", "v-1", "v-gone", "v-2"} {
		require.NoError(t, users.AppendWatchHistory(context.Background(), u.ID, id))
	}

	got, err := svc.WatchHistory(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "v-2", got[0].ID)
	assert.Equal(t, "v-1", got[1].ID)
	assert.Equal(t, "v-2", got[2].ID)
}
