// Package main is the entry point of the integrator server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tcmartin/integrator/pkg/api"
	"github.com/tcmartin/integrator/pkg/config"
	"github.com/tcmartin/integrator/pkg/logging"
	"github.com/tcmartin/integrator/pkg/registry"
	"github.com/tcmartin/integrator/pkg/services"
	"github.com/tcmartin/integrator/pkg/storage"
)

var (
	// Command-line flags
	configPath = flag.String("config", "", "Path to config file")
	version    = flag.Bool("version", false, "Print version information")
)

// Version information
var (
	AppVersion = "0.1.0"
	AppName    = "integrator-server"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("%s version %s\n", AppName, AppVersion)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Handle graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Application failed: %v", err)
		}
	case <-stop:
		app.logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Stop(ctx); err != nil {
			log.Fatalf("Error during shutdown: %v", err)
		}
	}
}

// loadConfig loads the configuration from path, or from the first config
// file found in the standard locations
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}

	locations := []string{
		"./integrator.yaml",
		"./integrator.json",
		"./configs/integrator.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".integrator", "server.yaml"))
	}
	locations = append(locations, "/etc/integrator/server.yaml")

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return config.LoadConfig(location)
		}
	}

	// Defaults plus environment overrides
	return config.Load("")
}

// App wires the server components together
type App struct {
	config   *config.Config
	logger   *logging.ZapLogger
	provider storage.StorageProvider
	janitor  *services.DraftJanitor
	server   *api.Server
}

// NewApp builds every component from the configuration
func NewApp(cfg *config.Config) (*App, error) {
	logger, err := logging.NewLogger(cfg.Logging.LogConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	provider, err := storage.NewProvider(cfg.Storage.ProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create storage provider: %w", err)
	}
	if err := provider.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage provider: %w", err)
	}

	hub := api.NewChangeHub(logger)
	svc := api.Services{
		Integrations: registry.NewIntegrationRegistry(provider.GetIntegrationStore(), hub),
		Connections:  registry.NewConnectionCatalog(provider.GetConnectionStore(), hub),
		Drafts:       provider.GetDraftStore(),
		Hub:          hub,
	}
	if cfg.Auth.Enabled {
		svc.Tokens = services.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiration)
	}

	api.Version = AppVersion
	server, err := api.NewServer(cfg, svc, logger)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("failed to create API server: %w", err)
	}

	return &App{
		config:   cfg,
		logger:   logger,
		provider: provider,
		janitor:  services.NewDraftJanitor(provider.GetDraftStore(), cfg.Drafts.TTL, cfg.Drafts.PruneSchedule, logger),
		server:   server,
	}, nil
}

// Start starts the draft janitor and serves the API until stopped
func (a *App) Start() error {
	if err := a.janitor.Start(); err != nil {
		return err
	}
	a.logger.LogSystemEvent("app_started", map[string]interface{}{
		"version": AppVersion,
		"storage": a.config.Storage.Type,
		"auth":    a.config.Auth.Enabled,
	})
	return a.server.Start()
}

// Stop shuts every component down
func (a *App) Stop(ctx context.Context) error {
	a.janitor.Stop()
	err := a.server.Stop(ctx)
	if cerr := a.provider.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("failed to close storage: %w", cerr))
	}
	_ = a.logger.Sync()
	return err
}
