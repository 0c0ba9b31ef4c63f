package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Authenticator checks the single admin login.
type Authenticator struct {
	email string
	hash  []byte
}

// NewAuthenticator uses passwordHash when set, otherwise hashes password.
func NewAuthenticator(email, passwordHash, password string) (*Authenticator, error) {
	hash := []byte(passwordHash)
	if len(hash) == 0 {
		if password == "" {
			return nil, errors.New("admin password or hash is required")
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}
	return &Authenticator{email: normalizeEmail(email), hash: hash}, nil
}

// Check returns ErrInvalidCredentials unless both values match.
func (a *Authenticator) Check(email, password string) error {
	emailOK := subtle.ConstantTimeCompare([]byte(normalizeEmail(email)), []byte(a.email)) == 1
	// The hash is compared even when the email is wrong.
	passErr := bcrypt.CompareHashAndPassword(a.hash, []byte(password))
	if !emailOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
