package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
)

// mockChatService is a mock implementation for testing
type mockChatService struct {
	pingErr error
	closed  bool
}

func (m *mockChatService) Send(ctx context.Context, messages []driven.ChatMessage) (string, error) {
	return "", nil
}

func (m *mockChatService) Model() string {
	return "test-model"
}

func (m *mockChatService) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *mockChatService) Close() error {
	m.closed = true
	return nil
}

func TestNewServices(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres")
	services := NewServices(config)

	if services == nil {
		t.Fatal("expected non-nil services")
	}
	if services.Config() != config {
		t.Error("expected config to match")
	}
}

func TestServices_ChatService(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres")
	services := NewServices(config)

	// Initially nil
	if services.ChatService() != nil {
		t.Error("expected nil chat service initially")
	}

	// Set chat service
	mock := &mockChatService{}
	services.SetChatService(mock)

	if services.ChatService() == nil {
		t.Error("expected non-nil chat service after set")
	}
	if !config.ChatAvailable() {
		t.Error("expected chat to be available")
	}

	// Set to nil
	services.SetChatService(nil)
	if services.ChatService() != nil {
		t.Error("expected nil chat service after clearing")
	}
	if config.ChatAvailable() {
		t.Error("expected chat to be unavailable")
	}
	if !mock.closed {
		t.Error("expected old service to be closed")
	}
}

func TestServices_ValidateAndSetChat(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres")
	services := NewServices(config)
	ctx := context.Background()

	t.Run("successful validation", func(t *testing.T) {
		mock := &mockChatService{}
		err := services.ValidateAndSetChat(ctx, mock)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if services.ChatService() == nil {
			t.Error("expected chat service to be set")
		}
	})

	t.Run("failed validation", func(t *testing.T) {
		mock := &mockChatService{pingErr: errors.New("connection failed")}
		err := services.ValidateAndSetChat(ctx, mock)
		if err == nil {
			t.Error("expected error")
		}
		if !mock.closed {
			t.Error("expected failed service to be closed")
		}
	})

	t.Run("nil service", func(t *testing.T) {
		err := services.ValidateAndSetChat(ctx, nil)
		if err != nil {
			t.Errorf("unexpected error for nil service: %v", err)
		}
	})
}

func TestServices_Close(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres")
	services := NewServices(config)

	mock := &mockChatService{}
	services.SetChatService(mock)

	if err := services.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !mock.closed {
		t.Error("expected chat service to be closed")
	}
	if config.ChatAvailable() {
		t.Error("expected chat to be unavailable after close")
	}
}

func TestServices_ReplaceService_ClosesOld(t *testing.T) {
	config := domain.NewRuntimeConfig("postgres")
	services := NewServices(config)

	old := &mockChatService{}
	replacement := &mockChatService{}

	services.SetChatService(old)
	services.SetChatService(replacement)

	if !old.closed {
		t.Error("expected old service to be closed when replaced")
	}
	if replacement.closed {
		t.Error("expected new service to remain open")
	}
}
