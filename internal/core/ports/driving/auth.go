package driving

import (
	"context"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
)

// AuthService authenticates devices against the workbench passphrase and
// validates the tokens it hands out.
type AuthService interface {
	// Authenticate verifies the passphrase and issues a device-scoped token.
	Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken parses and validates a token, returning its claims.
	ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error)
}
