package auth

import (
	"context"

	"github.com/runreward/runreward/internal/cryptox"
)

// AdminGate decides whether a caller may use administrator operations.
type AdminGate interface {
	Authorize(ctx context.Context, password string) (bool, error)
}

// PasswordGate checks a password against an argon2id hash.
type PasswordGate struct {
	hash string
}

// NewPasswordGate prefers hash; when it is empty the plain password is
// hashed once here so it is never compared directly.
func NewPasswordGate(hash, plain string) *PasswordGate {
	if hash == "" && plain != "" {
		hash = cryptox.HashPassword(plain)
	}
	return &PasswordGate{hash: hash}
}

func (g *PasswordGate) Authorize(_ context.Context, password string) (bool, error) {
	if g.hash == "" {
		return false, nil
	}
	return cryptox.VerifyPassword(password, g.hash)
}
