package auth

import (
	"context"

	"github.com/vendora/vendora/internal/config"
)

// Claims are the identity facts carried by a verified bearer token
type Claims struct {
	UserID string
	Email  string
}

// Provider issues and verifies bearer tokens and hashes local passwords
type Provider interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
	GenerateToken(userID, email string) (string, error)
	HashPassword(password string) (string, error)
	ComparePassword(hash, password string) error
}

func NewProvider(cfg *config.Configuration) Provider {
	return NewJWTAuth(cfg)
}
