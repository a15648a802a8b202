package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"streamtube/internal/domain/entity"
)

func TestNewUserNormalizesIdentifiers(t *testing.T) {
	u := entity.NewUser("  Alice ", " Alice@Example.COM ", "  Alice Liddell ", "https://cdn/a.png", "")

	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice Liddell", u.FullName)
	assert.Equal(t, "https://cdn/a.png", u.AvatarURL)
	assert.Empty(t, u.CoverImageURL)
}

func TestNormalizeIdentifier(t *testing.T) {
	assert.Equal(t, "bob", entity.NormalizeIdentifier(" BOB "))
	assert.Equal(t, "a@b.c", entity.NormalizeIdentifier("A@B.C"))
	assert.Equal(t, "", entity.NormalizeIdentifier("   "))
}

func TestSetPasswordStoresHashOnly(t *testing.T) {
	u := &entity.User{}
	require.NoError(t, u.SetPassword("hunter2secret"))

	assert.NotEqual(t, "hunter2secret", u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("hunter2secret")))
}

func TestCheckPassword(t *testing.T) {
	u := &entity.User{}
	require.NoError(t, u.SetPassword("correct horse"))

	assert.True(t, u.CheckPassword("correct horse"))
	assert.False(t, u.CheckPassword("battery staple"))
	assert.False(t, u.CheckPassword(""))
}

func TestSetPasswordFailureLeavesHashUntouched(t *testing.T) {
	u := &entity.User{}
	require.NoError(t, u.SetPassword("original-pass"))
	before := u.Password

	// bcrypt rejects inputs longer than 72 bytes
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'x'
	}
	err := u.SetPassword(string(long))

	require.Error(t, err)
	assert.Equal(t, before, u.Password)
}
