package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost trades login latency against brute-force resistance; raise
// it only together with a rehash-on-login migration.
const passwordHashCost = bcrypt.DefaultCost

// bcrypt only reads the first 72 bytes of input. Signup validation caps
// passwords at that length; this guard is the backstop for other callers.
const maxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// HashPassword derives the bcrypt hash stored in users.password_hash.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
