package config

import (
	"fmt"
	"os"
	"strconv"
)

// defaultSessionHours is how long a session token stays valid when
// JWT_EXPIRATION_HOURS is not set.
const defaultSessionHours = 24

// JWTConfig holds the signing material for server session tokens. A token is
// minted on login and presented as a bearer token on every protected route.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig reads session-token settings from the environment: JWT_SECRET
// (required) signs tokens, JWT_EXPIRATION_HOURS bounds their lifetime
// (default 24).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set to sign session tokens")
	}

	hours := defaultSessionHours
	if raw := os.Getenv("JWT_EXPIRATION_HOURS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
		}
		hours = parsed
	}
	if hours < 1 {
		return nil, fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1, got %d", hours)
	}

	return &JWTConfig{Secret: secret, ExpirationHours: hours}, nil
}
