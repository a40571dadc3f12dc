package model

import "time"

// Token kinds stored in tokens.kind. The verifier accepts only
// access tokens; the refresh flow accepts only refresh tokens.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// Token models a row in the `tokens` table. The Value column holds
// the opaque random string handed to the client; lookups are exact
// string matches. A user has at most one live access and one live
// refresh token: every issuance deletes all prior rows for the user
// before inserting the new pair.
//
// Fields:
//  ID        – primary key identifier.
//  Value     – unique opaque token string (URL-safe base64).
//  UserID    – owner of the token.
//  Kind      – access or refresh.
//  ExpiresAt – expiration timestamp; rows are not removed on expiry,
//              they are simply rejected on lookup.
//  CreatedAt – timestamp of creation.
type Token struct {
	ID        uint64    // tokens.id
	Value     string    // tokens.token
	UserID    uint64    // tokens.user_id
	Kind      string    // tokens.kind
	ExpiresAt time.Time // tokens.expires_at
	CreatedAt time.Time // tokens.created_at
}

// Expired reports whether the token's expiry is strictly before now.
func (t Token) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
