package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	authService        driving.AuthService
	libraryService     driving.LibraryService
	syncService        driving.SyncService
	translationService driving.TranslationService

	// Infrastructure
	settings    driven.SettingsStore
	taskQueue   driven.TaskQueue // can be nil
	runtime     *domain.RuntimeConfig
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	authService driving.AuthService,
	libraryService driving.LibraryService,
	syncService driving.SyncService,
	translationService driving.TranslationService,
	settings driven.SettingsStore,
	taskQueue driven.TaskQueue, // can be nil
	runtimeConfig *domain.RuntimeConfig,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	s := &Server{
		router:             http.NewServeMux(),
		version:            cfg.Version,
		authService:        authService,
		libraryService:     libraryService,
		syncService:        syncService,
		translationService: translationService,
		settings:           settings,
		taskQueue:          taskQueue,
		runtime:            runtimeConfig,
		db:                 db,
		redisClient:        redisClient,
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Create middleware
	authMiddleware := NewAuthMiddleware(s.authService)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Auth endpoints (public)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	// Library endpoints
	s.router.Handle("GET /api/v1/novels",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListNovels)))
	s.router.Handle("PUT /api/v1/novels/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSaveNovel)))
	s.router.Handle("GET /api/v1/novels/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetNovel)))
	s.router.Handle("DELETE /api/v1/novels/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteNovel)))
	s.router.Handle("DELETE /api/v1/novels/{id}/chapters/{chapterID}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteChapter)))

	// Translation endpoints
	s.router.Handle("POST /api/v1/novels/{id}/chapters/{chapterID}/translate",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleTranslateChapter)))
	s.router.Handle("POST /api/v1/novels/{id}/chapters/{chapterID}/proofread",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleProofreadChapter)))
	s.router.Handle("GET /api/v1/tasks/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetTask)))

	// Model endpoints
	s.router.Handle("GET /api/v1/models",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListModels)))
	s.router.Handle("PUT /api/v1/models/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSaveModel)))
	s.router.Handle("DELETE /api/v1/models/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleDeleteModel)))

	// Settings endpoints
	s.router.Handle("GET /api/v1/settings",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetSettings)))
	s.router.Handle("PUT /api/v1/settings",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleUpdateSettings)))

	// Sync endpoints
	s.router.Handle("POST /api/v1/sync/upload",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSyncUpload)))
	s.router.Handle("POST /api/v1/sync/download",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSyncDownload)))
	s.router.Handle("POST /api/v1/sync/confirm",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSyncConfirm)))
	s.router.Handle("POST /api/v1/sync/cancel",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSyncCancel)))
	s.router.Handle("POST /api/v1/sync/restore",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSyncRestore)))
	s.router.Handle("GET /api/v1/sync/status",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSyncStatus)))
}

// Handler returns the root handler, wrapped with logging and recovery.
func (s *Server) Handler() http.Handler {
	return NewRecoveryMiddleware().Handler(NewLoggingMiddleware().Handler(s.router))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
