package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/sha256" // SHA-256 hashing for password reset tokens
    "encoding/hex"  // hex encoding of digests
    "time"          // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionToken represents a signed JWT carried in the HTTP-only "token"
// cookie along with its expiry. The Role claim distinguishes diner
// sessions from owner sessions so that one cannot impersonate the other.
type SessionToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// NewSessionToken builds and signs an HS256 JWT for an account. It takes
// the signing secret, the account ID, the session role ("user" or
// "owner") and a TTL in minutes. The JWT includes standard claims:
// subject (sub), role, expiration (exp) and issued at (iat).
func NewSessionToken(secret string, accountID uint64, role string, ttlMin int) (SessionToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  accountID,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// HashResetToken returns the SHA-256 hash of a raw password reset token
// as a hex string. Only the hash is stored so a leaked database row
// cannot be replayed as a reset link.
func HashResetToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
