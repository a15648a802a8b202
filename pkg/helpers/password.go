package helpers

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the fixed work factor for credential hashing.
const BcryptCost = 10

// HashPassword hashes a plaintext password with bcrypt. Only the hash ever
// reaches storage.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword reports whether plain matches the stored bcrypt
// hash. bcrypt's comparison is constant-effort; the plaintext is never
// retained or logged.
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
