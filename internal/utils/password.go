package utils

import "golang.org/x/crypto/bcrypt"

// MaxPasswordBytes is the number of password bytes fed into bcrypt.
// bcrypt ignores input beyond 72 bytes, so longer passwords are
// truncated explicitly rather than silently; two passwords sharing
// the first 72 bytes verify as equal.
const MaxPasswordBytes = 72

// HashPassword returns bcrypt hash using the given cost. Input is
// capped at MaxPasswordBytes before hashing.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword(truncate(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(plain)) == nil
}

func truncate(plain string) []byte {
	b := []byte(plain)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}
