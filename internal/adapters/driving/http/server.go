package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Authenticator issues access tokens and checks the admin password
type Authenticator interface {
	driven.TokenProvider
	VerifyPassword(password, hash string) bool
}

// TextSink accepts uploaded document text. The extraction pipeline normally
// produces text artifacts outside this service; this is the direct write path.
type TextSink interface {
	SaveText(ctx context.Context, documentID, text string) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Auth
	auth              Authenticator
	adminPasswordHash string
	tokenTTL          time.Duration

	// Services
	indexService  driving.IndexService
	searchService driving.SearchService
	runService    driving.RunService
	reportService driving.ReportService

	// Stores for project/document registration
	documentStore driven.DocumentStore
	textSink      TextSink

	// Infrastructure
	taskQueue   driven.TaskQueue
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host              string
	Port              int
	Version           string
	AdminPasswordHash string
	TokenTTL          time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:     "0.0.0.0",
		Port:     8080,
		Version:  "dev",
		TokenTTL: 12 * time.Hour,
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	auth Authenticator,
	indexService driving.IndexService,
	searchService driving.SearchService,
	runService driving.RunService,
	reportService driving.ReportService,
	documentStore driven.DocumentStore,
	textSink TextSink,
	taskQueue driven.TaskQueue,
	db Pinger,
	redisClient Pinger, // can be nil
) *Server {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 12 * time.Hour
	}

	s := &Server{
		router:            http.NewServeMux(),
		version:           cfg.Version,
		auth:              auth,
		adminPasswordHash: cfg.AdminPasswordHash,
		tokenTTL:          cfg.TokenTTL,
		indexService:      indexService,
		searchService:     searchService,
		runService:        runService,
		reportService:     reportService,
		documentStore:     documentStore,
		textSink:          textSink,
		taskQueue:         taskQueue,
		db:                db,
		redisClient:       redisClient,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.auth)

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Auth endpoint (public)
	s.router.HandleFunc("POST /api/v1/auth/token", s.handleIssueToken)

	// Project endpoints
	s.router.Handle("POST /api/v1/projects",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCreateProject)))
	s.router.Handle("GET /api/v1/projects/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetProject)))
	s.router.Handle("POST /api/v1/projects/{id}/documents",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCreateDocument)))

	// Document endpoints
	s.router.Handle("GET /api/v1/documents/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetDocument)))
	s.router.Handle("PUT /api/v1/documents/{id}/text",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleUploadText)))
	s.router.Handle("POST /api/v1/documents/{id}/index",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleIndexDocument)))

	// Search endpoint
	s.router.Handle("GET /api/v1/search",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleSearch)))

	// Run endpoints
	s.router.Handle("POST /api/v1/projects/{id}/runs",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleCreateRun)))
	s.router.Handle("GET /api/v1/projects/{id}/runs",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListRuns)))
	s.router.Handle("POST /api/v1/runs/{id}/advance",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleAdvanceRun)))
	s.router.Handle("POST /api/v1/runs/{id}/process",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleProcessRun)))
	s.router.Handle("GET /api/v1/runs/{id}",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleGetRun)))
	s.router.Handle("GET /api/v1/runs/{id}/items",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleListRunItems)))

	// Report endpoint
	s.router.Handle("GET /api/v1/projects/{id}/indicators",
		authMiddleware.Authenticate(http.HandlerFunc(s.handleProjectIndicators)))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
