package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driving"
)

const defaultTokenTTL = 30 * 24 * time.Hour

// AuthenticatorConfig holds dependencies for creating an Authenticator.
type AuthenticatorConfig struct {
	Auth driven.AuthAdapter

	// PassphraseHash is the bcrypt hash of the workbench access passphrase.
	PassphraseHash string

	// TokenTTL bounds issued token lifetime. Defaults to 30 days.
	TokenTTL time.Duration

	Logger *slog.Logger
}

// Authenticator issues device tokens for the single-owner workbench. There
// is one passphrase; each device that presents it gets its own token.
type Authenticator struct {
	auth           driven.AuthAdapter
	passphraseHash string
	tokenTTL       time.Duration
	logger         *slog.Logger
}

// Verify interface compliance
var _ driving.AuthService = (*Authenticator)(nil)

// NewAuthenticator creates an Authenticator from the given configuration.
func NewAuthenticator(cfg AuthenticatorConfig) *Authenticator {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		auth:           cfg.Auth,
		passphraseHash: cfg.PassphraseHash,
		tokenTTL:       ttl,
		logger:         logger,
	}
}

// Authenticate verifies the passphrase and issues a device-scoped token.
func (a *Authenticator) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if a.passphraseHash == "" {
		return nil, fmt.Errorf("%w: no access passphrase configured", domain.ErrUnauthorized)
	}
	if !a.auth.VerifyPassphrase(req.Passphrase, a.passphraseHash) {
		a.logger.Warn("rejected login attempt", "device_name", req.DeviceName)
		return nil, domain.ErrUnauthorized
	}

	now := time.Now()
	expiresAt := now.Add(a.tokenTTL)
	claims := &domain.TokenClaims{
		DeviceID:   domain.GenerateID(),
		DeviceName: req.DeviceName,
		IssuedAt:   now.Unix(),
		ExpiresAt:  expiresAt.Unix(),
	}

	token, err := a.auth.GenerateToken(claims)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	a.logger.Info("device authenticated", "device_id", claims.DeviceID, "device_name", req.DeviceName)
	return &domain.LoginResponse{
		Token:     token,
		DeviceID:  claims.DeviceID,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken parses and validates a token, returning its claims.
func (a *Authenticator) ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	claims, err := a.auth.ParseToken(token)
	if err != nil {
		return nil, err
	}
	if claims.IsExpired() {
		return nil, domain.ErrTokenExpired
	}
	return claims, nil
}
