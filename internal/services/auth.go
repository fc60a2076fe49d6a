package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService issues and verifies the admin console bearer tokens
type AuthService struct {
	username string
	password string
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthService creates an auth service
func NewAuthService(username, password, secret string) *AuthService {
	return &AuthService{
		username: username,
		password: password,
		secret:   []byte(secret),
		tokenTTL: 24 * time.Hour,
	}
}

// Login checks the admin credentials and issues an HMAC-signed token
func (a *AuthService) Login(username, password string) (string, error) {
	if a.username == "" || a.password == "" {
		return "", fmt.Errorf("%w: admin credentials are not configured", ErrUnauthorized)
	}
	if username != a.username || password != a.password {
		return "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(a.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks a bearer token and returns the subject it carries
func (a *AuthService) VerifyToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid token claims", ErrUnauthorized)
	}
	sub, _ := claims["sub"].(string)
	return sub, nil
}
