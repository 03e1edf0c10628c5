package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// TenantKeyPrefix marks tenant-scoped API keys; the credential kind is
// detected by this prefix.
const TenantKeyPrefix = "mt_"

// GenerateAPIKey returns a fresh cryptographically random tenant API key.
func GenerateAPIKey() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %v", err)
	}
	return TenantKeyPrefix + hex.EncodeToString(raw), nil
}

// IsTenantKey reports whether a credential looks like a tenant API key.
func IsTenantKey(credential string) bool {
	return strings.HasPrefix(credential, TenantKeyPrefix)
}

// KeyDigest returns the hex SHA-256 of an API key, used as the cache key for
// key-to-tenant resolution so raw keys never appear in cache storage.
func KeyDigest(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

// HashPassword hashes an admin password with bcrypt.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %v", err)
	}

	return string(hashedPassword), nil
}

// CheckPassword verifies a password against its bcrypt hash.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
