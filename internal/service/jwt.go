package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrJWTNotReady  = errors.New("jwt secret is not set")
)

var jwtSecret []byte

// InitJWT sets the HMAC secret used for session tokens
func InitJWT(secret string) {
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	jwtSecret = []byte(secret)
}

// GenerateSessionToken signs a token binding the bearer to one game session
func GenerateSessionToken(sessionKey string, ttl time.Duration) (string, error) {
	if len(jwtSecret) == 0 {
		return "", ErrJWTNotReady
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"session": sessionKey,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseSessionToken validates the token and returns its session key
func ParseSessionToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	}, jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	key, ok := claims["session"].(string)
	if !ok || key == "" {
		return "", errors.New("session not found in token")
	}
	return key, nil
}
