package members

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatchedHashAndPassword is returned when a password comparison fails
var ErrMismatchedHashAndPassword = errors.New("password does not match")

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password. An empty hash fails closed: accounts created through
// the invite flow have no password until they join.
func ComparePasswordAndHash(password, hash string) error {
	if hash == "" {
		return ErrMismatchedHashAndPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}
