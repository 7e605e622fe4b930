package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/briankorir/cargotracker-api/config"
	"github.com/briankorir/cargotracker-api/models"
)

// Token types carried in the token_type claim
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenPair is the credential pair handed out at login
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Claims is the JWT payload for both access and refresh tokens. The email is
// encoded in the token alongside the numeric user id.
type Claims struct {
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID returns the numeric user id from the subject claim
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid subject claim: %w", err)
	}
	return uint(id), nil
}

// GenerateTokenPair issues a fresh access/refresh token pair for the user
func GenerateTokenPair(user *models.User, cfg *config.Config) (*TokenPair, error) {
	access, err := signToken(user, cfg, TokenTypeAccess, cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := signToken(user, cfg, TokenTypeRefresh, cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func signToken(user *models.User, cfg *config.Config, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ParseToken validates a token string and checks it carries the expected type
func ParseToken(tokenString string, tokenType string, cfg *config.Config) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("expected a %s token", tokenType)
	}
	return claims, nil
}

// ParseAccessToken validates an access token
func ParseAccessToken(tokenString string, cfg *config.Config) (*Claims, error) {
	return ParseToken(tokenString, TokenTypeAccess, cfg)
}

// ParseRefreshToken validates a refresh token
func ParseRefreshToken(tokenString string, cfg *config.Config) (*Claims, error) {
	return ParseToken(tokenString, TokenTypeRefresh, cfg)
}
