package entity

import (
	"strings"
	"time"

	"streamtube/pkg/helpers"
)

// User is the aggregate root for the user domain. Password always holds a
// bcrypt hash; the plaintext credential never reaches this struct's fields.
// RefreshToken is the most recently issued refresh token for the account,
// overwritten on every login/refresh cycle.
//
// Watch history is a weak, order-preserving relation (video ids only) kept
// in its own table and resolved by lookup, never embedded here.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	CoverImageURL string
	Password      string
	RefreshToken  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewUser builds a user with normalized identifiers: username and email are
// trimmed and lowercased, fullName is trimmed. AvatarURL is required by the
// schema; CoverImageURL may be empty.
func NewUser(username, email, fullName, avatarURL, coverImageURL string) *User {
	return &User{
		Username:      NormalizeIdentifier(username),
		Email:         NormalizeIdentifier(email),
		FullName:      strings.TrimSpace(fullName),
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
	}
}

// NormalizeIdentifier trims and lowercases a unique identifier (username or
// email) so lookups and uniqueness are case-insensitive.
func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SetPassword hashes plain immediately and stores only the hash. On hashing
// failure the field is left untouched and the error surfaces to the caller,
// so a record can never be persisted with a plaintext credential.
func (u *User) SetPassword(plain string) error {
	hash, err := helpers.HashPassword(plain)
	if err != nil {
		return err
	}
	u.Password = hash
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return helpers.CompareHashAndPassword(u.Password, plain)
}
