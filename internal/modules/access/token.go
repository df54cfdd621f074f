package access

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenCodec mints and parses the bearer tokens that carry the caller identity.
// Key management itself is out of scope; the codec only binds an already
// established identity to a request.
type TokenCodec struct {
	secret   []byte
	duration time.Duration
}

// NewTokenCodec creates a codec with the given HMAC secret and token lifetime
func NewTokenCodec(secret string, duration time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), duration: duration}
}

// Mint issues a signed token for the account
func (c *TokenCodec) Mint(account int64) (string, time.Time, error) {
	expiresAt := time.Now().Add(c.duration)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(account, 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates a token and returns the account it was minted for
func (c *TokenCodec) Parse(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid token claims")
	}

	account, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || account <= 0 {
		return 0, fmt.Errorf("invalid token subject")
	}
	return account, nil
}
