package driven

import "github.com/rozx/tsukuyomi-core/internal/core/domain"

// AuthAdapter handles authentication cryptographic operations.
// The workbench has a single owner: one passphrase, many devices.
type AuthAdapter interface {
	// Passphrase operations
	HashPassphrase(passphrase string) (string, error)
	VerifyPassphrase(passphrase, hash string) bool

	// Token operations
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
