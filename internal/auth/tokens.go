package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docqa-platform/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AdminClaims are the claims carried by an admin bearer token. Admin tokens
// are short-lived and cross-tenant; tenant API keys never appear as JWTs.
type AdminClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates admin bearer tokens. Issued JTIs are
// stored in Redis so individual tokens can be revoked before expiry.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	rdb    *redis.Client
}

func NewTokenService(secret string, ttl time.Duration, rdb *redis.Client) (*TokenService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("admin token secret must be at least 32 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, rdb: rdb}, nil
}

// Issue creates a signed admin token and registers its JTI for revocation.
func (s *TokenService) Issue(ctx context.Context, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)
	jti := uuid.NewString()

	claims := AdminClaims{
		Username: username,
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "docqa-platform",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	if err := s.rdb.Set(ctx, "admin:"+jti, username, s.ttl).Err(); err != nil {
		return "", time.Time{}, err
	}

	return signed, exp, nil
}

// Validate parses, signature-checks and revocation-checks an admin token.
// All failure modes collapse to ErrInvalidCredential.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Prevent algorithm confusion attacks
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, models.ErrInvalidCredential
	}

	exists, err := s.rdb.Exists(ctx, "admin:"+claims.ID).Result()
	if err != nil || exists != 1 {
		return nil, models.ErrInvalidCredential
	}

	return claims, nil
}

// Revoke invalidates a single token by JTI.
func (s *TokenService) Revoke(ctx context.Context, jti string) error {
	return s.rdb.Del(ctx, "admin:"+jti).Err()
}
