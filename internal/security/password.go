package security

import (
	"crypto/rand"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only looks at the first 72 bytes and x/crypto rejects longer input,
// so both sides clamp to keep 73..128 byte passwords usable.
const maxPasswordBytes = 72

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(clamp(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), clamp(plain))
}

func clamp(plain string) []byte {
	b := []byte(plain)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// DummyHash returns a bcrypt hash at the default cost that no password
// matches. Login compares against it when the email is unknown.
func DummyHash() string {
	dummyOnce.Do(func() {
		secret := make([]byte, 32)
		_, _ = rand.Read(secret)

		hash, err := bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
		if err == nil {
			dummyHash = string(hash)
		}
	})

	return dummyHash
}
