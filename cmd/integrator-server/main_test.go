package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmartin/integrator/pkg/config"
)

func TestLoadConfigFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\nstorage:\n  type: file\n  file:\n    directory: /tmp/x\n"), 0600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Storage.Type)
}

func TestAppLifecycle(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 18931
	cfg.Storage.Type = "file"
	cfg.Storage.File.Directory = t.TempDir()
	cfg.Logging.Output = "stderr"

	app, err := NewApp(cfg)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()

	// Give the listener a moment before shutting down
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Stop(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNewAppRejectsUnknownStorage(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Type = "floppy"
	_, err := NewApp(cfg)
	assert.Error(t, err)
}
