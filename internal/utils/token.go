package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"     // secure random number generation
	"encoding/base64" // URL-safe encoding for token values
	"time"            // time utilities for generating expirations

	"github.com/krishibandhu/krishibandhu-backend/internal/model"
)

// tokenBytes is the entropy of each token value. 32 bytes (256 bits)
// encode to 43 URL-safe characters.
const tokenBytes = 32

// NewTokenValue returns an opaque, cryptographically random token
// string. Values are compared by exact string match in the store, so
// uniqueness follows from the entropy; collisions additionally hit
// the unique index on tokens.token.
func NewTokenValue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewTokenPair mints an access/refresh pair for a user. The two
// values are generated independently; the access token lives ttlMin
// minutes, the refresh token ttlDays days. The pair is not persisted
// here; the caller stores it atomically, replacing any prior tokens
// of the user.
func NewTokenPair(userID uint64, ttlMin, ttlDays int) (access, refresh model.Token, err error) {
	now := time.Now().UTC()

	av, err := NewTokenValue()
	if err != nil {
		return model.Token{}, model.Token{}, err
	}
	rv, err := NewTokenValue()
	if err != nil {
		return model.Token{}, model.Token{}, err
	}

	access = model.Token{
		Value:     av,
		UserID:    userID,
		Kind:      model.TokenKindAccess,
		ExpiresAt: now.Add(time.Duration(ttlMin) * time.Minute),
	}
	refresh = model.Token{
		Value:     rv,
		UserID:    userID,
		Kind:      model.TokenKindRefresh,
		ExpiresAt: now.Add(time.Duration(ttlDays) * 24 * time.Hour),
	}
	return access, refresh, nil
}
