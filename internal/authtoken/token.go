// Package authtoken issues and verifies the bearer tokens that authenticate
// every request except registration, login, and invite validation.
package authtoken

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expiry is how long an issued token remains valid.
const Expiry = 7 * 24 * time.Hour

// ErrInvalidToken is returned for any token that fails to parse, fails
// signature verification, or has expired.
var ErrInvalidToken = errors.New("invalid-token")

// Claims is the payload carried by a wisp bearer token.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service issues and verifies tokens against a single process-wide secret.
type Service struct {
	secret []byte
}

// New builds a token Service for the given signing secret.
func New(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// Issue signs a new token for the given user.
func (s *Service) Issue(userID int64, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(userID, 10),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token, returning its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
