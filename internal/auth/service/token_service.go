// Package service issues and verifies the admin bearer token. Only the Argon2id hash
// of the token is ever configured, so a leaked configuration does not grant access.
package service

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/envelope/internal/errors"
)

// TokenService generates admin tokens and compares them against a configured hash.
type TokenService interface {
	// GenerateToken returns a new random token and its Argon2id hash.
	GenerateToken() (plainToken string, tokenHash string, err error)

	// CompareToken reports whether plainToken matches tokenHash in constant time.
	CompareToken(plainToken string, tokenHash string) bool
}

type tokenService struct {
	hasher *pwdhash.PasswordHasher
}

// NewTokenService creates a TokenService using Argon2id hashing with the Moderate
// policy.
func NewTokenService() TokenService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &tokenService{hasher: hasher}
}

// GenerateToken creates a 32-byte random token encoded as URL-safe base64.
func (s *tokenService) GenerateToken() (string, string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random token")
	}

	plainToken := base64.URLEncoding.EncodeToString(randomBytes)

	tokenHash, err := s.hasher.Hash([]byte(plainToken))
	if err != nil {
		return "", "", apperrors.Wrap(err, "failed to hash token")
	}

	return plainToken, tokenHash, nil
}

func (s *tokenService) CompareToken(plainToken string, tokenHash string) bool {
	if plainToken == "" || tokenHash == "" {
		return false
	}
	ok, err := s.hasher.Verify([]byte(plainToken), tokenHash)
	if err != nil {
		return false
	}
	return ok
}
