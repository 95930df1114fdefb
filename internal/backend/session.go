package backend

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionFromToken validates a bearer session token issued by the hosted
// auth service and returns the profile it identifies.
func sessionFromToken(secret []byte, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Session{}, ErrNoSession
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Session{}, ErrNoSession
	}
	return Session{UserID: claims.Subject}, nil
}

// SignSessionToken issues a session token for a profile. Used by local
// development and tests; production tokens come from the auth service.
func SignSessionToken(secret []byte, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
