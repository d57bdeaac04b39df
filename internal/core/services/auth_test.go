package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
)

// stubAuthAdapter verifies against a stored plaintext and round-trips claims
// through an in-memory token table.
type stubAuthAdapter struct {
	passphrase string
	tokens     map[string]*domain.TokenClaims
	genErr     error
}

var _ driven.AuthAdapter = (*stubAuthAdapter)(nil)

func newStubAuthAdapter(passphrase string) *stubAuthAdapter {
	return &stubAuthAdapter{
		passphrase: passphrase,
		tokens:     make(map[string]*domain.TokenClaims),
	}
}

func (s *stubAuthAdapter) HashPassphrase(passphrase string) (string, error) {
	return "hash:" + passphrase, nil
}

func (s *stubAuthAdapter) VerifyPassphrase(passphrase, hash string) bool {
	return passphrase == s.passphrase && hash != ""
}

func (s *stubAuthAdapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	if s.genErr != nil {
		return "", s.genErr
	}
	token := "token-" + claims.DeviceID
	s.tokens[token] = claims
	return token, nil
}

func (s *stubAuthAdapter) ParseToken(token string) (*domain.TokenClaims, error) {
	claims, ok := s.tokens[token]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

func TestAuthenticateIssuesDeviceToken(t *testing.T) {
	adapter := newStubAuthAdapter("open sesame")
	auth := NewAuthenticator(AuthenticatorConfig{
		Auth:           adapter,
		PassphraseHash: "hash:open sesame",
	})

	resp, err := auth.Authenticate(context.Background(), domain.LoginRequest{
		Passphrase: "open sesame",
		DeviceName: "tablet",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token == "" || resp.DeviceID == "" {
		t.Errorf("response missing token or device id: %+v", resp)
	}
	if !resp.ExpiresAt.After(time.Now()) {
		t.Error("expected a future expiry")
	}

	claims, err := auth.ValidateToken(context.Background(), resp.Token)
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.DeviceID != resp.DeviceID || claims.DeviceName != "tablet" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAuthenticateRejectsWrongPassphrase(t *testing.T) {
	auth := NewAuthenticator(AuthenticatorConfig{
		Auth:           newStubAuthAdapter("open sesame"),
		PassphraseHash: "hash:open sesame",
	})

	_, err := auth.Authenticate(context.Background(), domain.LoginRequest{Passphrase: "wrong"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthenticateRequiresConfiguredPassphrase(t *testing.T) {
	auth := NewAuthenticator(AuthenticatorConfig{
		Auth: newStubAuthAdapter("anything"),
	})

	_, err := auth.Authenticate(context.Background(), domain.LoginRequest{Passphrase: "anything"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized when no hash configured, got %v", err)
	}
}

func TestValidateTokenExpiredClaims(t *testing.T) {
	adapter := newStubAuthAdapter("open sesame")
	auth := NewAuthenticator(AuthenticatorConfig{
		Auth:           adapter,
		PassphraseHash: "hash:open sesame",
	})

	adapter.tokens["stale"] = &domain.TokenClaims{
		DeviceID:  "d1",
		IssuedAt:  time.Now().Add(-48 * time.Hour).Unix(),
		ExpiresAt: time.Now().Add(-24 * time.Hour).Unix(),
	}

	_, err := auth.ValidateToken(context.Background(), "stale")
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}

	_, err = auth.ValidateToken(context.Background(), "unknown")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}
