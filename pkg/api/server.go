// Package api provides the HTTP API of the integrator server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tcmartin/integrator/pkg/config"
	"github.com/tcmartin/integrator/pkg/logging"
	"github.com/tcmartin/integrator/pkg/middleware"
	"github.com/tcmartin/integrator/pkg/registry"
	"github.com/tcmartin/integrator/pkg/storage"
)

// Version is reported by the health endpoint
var Version = "dev"

// Services are the backends the API serves
type Services struct {
	Integrations registry.IntegrationRegistry
	Connections  registry.ConnectionCatalog
	Drafts       storage.DraftStore
	Hub          *ChangeHub

	// Tokens validates bearer tokens when authentication is enabled
	Tokens middleware.TokenValidator
}

// Server represents the HTTP API server
type Server struct {
	config   *config.Config
	router   *mux.Router
	handler  http.Handler
	server   *http.Server
	services Services
	logger   logging.Logger
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, services Services, logger logging.Logger) (*Server, error) {
	if services.Integrations == nil || services.Connections == nil || services.Drafts == nil {
		return nil, errors.New("integrations, connections and drafts are required")
	}
	if cfg.Auth.Enabled && services.Tokens == nil {
		return nil, errors.New("a token validator is required when authentication is enabled")
	}
	if services.Hub == nil {
		services.Hub = NewChangeHub(logger)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	s := &Server{
		config:   cfg,
		router:   mux.NewRouter(),
		services: services,
		logger:   logger,
	}

	s.setupRoutes()
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the event stream holds its response open
		IdleTimeout: 60 * time.Second,
	}

	s.logger.LogSystemEvent("server_started", map[string]interface{}{
		"addr": addr,
		"tls":  s.config.Server.TLS.Enabled,
	})

	var err error
	if s.config.Server.TLS.Enabled {
		err = s.server.ListenAndServeTLS(
			s.config.Server.TLS.CertFile,
			s.config.Server.TLS.KeyFile,
		)
	} else {
		err = s.server.ListenAndServe()
	}

	// If the server was shut down gracefully, this error is expected
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop disconnects event subscribers and stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.services.Hub.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Match on the escaped path so ids may contain "/"
	s.router.UseEncodedPath()
	s.router.Use(middleware.RequestLogger(s.logger))

	// API router with version prefix
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Public routes (no authentication required)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)

	// Authenticated routes
	authenticated := api.PathPrefix("").Subrouter()
	if s.config.Auth.Enabled {
		authenticated.Use(middleware.NewAuthMiddleware(s.services.Tokens).Authenticate)
	}

	// Integration routes
	integrations := authenticated.PathPrefix("/integrations").Subrouter()
	integrations.HandleFunc("", s.handleListIntegrations).Methods(http.MethodGet, http.MethodOptions)
	integrations.HandleFunc("", s.handleCreateIntegration).Methods(http.MethodPost, http.MethodOptions)
	integrations.HandleFunc("/{id}", s.handleGetIntegration).Methods(http.MethodGet, http.MethodOptions)
	integrations.HandleFunc("/{id}", s.handleUpdateIntegration).Methods(http.MethodPut, http.MethodOptions)
	integrations.HandleFunc("/{id}", s.handleDeleteIntegration).Methods(http.MethodDelete, http.MethodOptions)

	// Connection routes
	connections := authenticated.PathPrefix("/connections").Subrouter()
	connections.HandleFunc("", s.handleListConnections).Methods(http.MethodGet, http.MethodOptions)
	connections.HandleFunc("", s.handleCreateConnection).Methods(http.MethodPost, http.MethodOptions)
	connections.HandleFunc("/{id}", s.handleGetConnection).Methods(http.MethodGet, http.MethodOptions)
	connections.HandleFunc("/{id}/actions/{actionId}", s.handleActionDescriptor).Methods(http.MethodPost, http.MethodOptions)

	// Draft routes
	drafts := authenticated.PathPrefix("/drafts").Subrouter()
	drafts.HandleFunc("", s.handleListDrafts).Methods(http.MethodGet, http.MethodOptions)
	drafts.HandleFunc("/{key}", s.handleGetDraft).Methods(http.MethodGet, http.MethodOptions)
	drafts.HandleFunc("/{key}", s.handlePutDraft).Methods(http.MethodPut, http.MethodOptions)
	drafts.HandleFunc("/{key}", s.handleDeleteDraft).Methods(http.MethodDelete, http.MethodOptions)

	// Change feeds
	authenticated.HandleFunc("/events", s.services.Hub.ServeSSE).Methods(http.MethodGet)
	authenticated.HandleFunc("/ws", s.services.Hub.ServeWebSocket).Methods(http.MethodGet)

	// CORS wraps the router so preflight requests are answered before routing
	s.handler = middleware.CORS(s.config.Server.AllowedOrigins)(s.router)
}
