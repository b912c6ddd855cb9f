// Package main is the integrator command line client.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tcmartin/integrator/pkg/client"
	"github.com/tcmartin/integrator/pkg/config"
	"github.com/tcmartin/integrator/pkg/integration"
	"github.com/tcmartin/integrator/pkg/logging"
	"github.com/tcmartin/integrator/pkg/storage"
)

// cli holds the state shared by every command
type cli struct {
	configPath string
	serverURL  string
	token      string
	draftStore string

	in  io.Reader
	out io.Writer
	fs  afero.Fs

	config  *config.Config
	logger  logging.Logger
	closers []func() error
}

func main() {
	c := &cli{in: os.Stdin, out: os.Stdout, fs: afero.NewOsFs()}
	if err := run(c, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes args and releases what the command opened, whether or not
// it failed
func run(c *cli, args []string) error {
	root := newRootCmd(c)
	root.SetArgs(args)
	err := root.Execute()
	if cerr := c.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "integrator",
		Short:         "Integrator CLI",
		Long:          `Command line client for building integrations against an integrator server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
	}
	rootCmd.SetIn(c.in)
	rootCmd.SetOut(c.out)

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "Config file (default is ~/.integrator/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&c.serverURL, "server", "", "Server URL")
	rootCmd.PersistentFlags().StringVar(&c.token, "token", "", "API token")
	rootCmd.PersistentFlags().StringVar(&c.draftStore, "drafts", "", "Draft store: file, remote or memory")

	rootCmd.AddCommand(
		newIntegrationCmd(c),
		newConnectionCmd(c),
		newDraftCmd(c),
		newWizardCmd(c),
		newEventsCmd(c),
		newTokenCmd(c),
		newConfigCmd(c),
	)
	return rootCmd
}

// defaultConfigPath returns the per-user config file
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".integrator", "config.yaml")
}

// load reads the configuration and applies flag overrides
func (c *cli) load() error {
	path := c.configPath
	if path == "" {
		if p := defaultConfigPath(); p != "" {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if c.serverURL != "" {
		cfg.Client.ServerURL = c.serverURL
	}
	if c.token != "" {
		cfg.Client.Token = c.token
	}
	if c.draftStore != "" {
		cfg.Client.DraftStore = c.draftStore
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.config = cfg

	logger, err := logging.NewLogger(cfg.Logging.LogConfig())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	c.logger = logger
	c.closers = append(c.closers, func() error {
		_ = logger.Sync()
		return nil
	})
	return nil
}

func (c *cli) close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// client returns an API client for the configured server
func (c *cli) client() (*client.Client, error) {
	return client.New(client.Config{
		BaseURL: c.config.Client.ServerURL,
		Token:   c.config.Client.Token,
		Headers: c.config.Client.Headers,
		Timeout: c.config.Client.Timeout,
	}, client.WithLogger(c.logger))
}

// drafts returns the configured draft store
func (c *cli) drafts(api *client.Client) (storage.DraftStore, error) {
	if c.config.Client.DraftStore == "remote" {
		return client.NewRemoteDraftStore(api), nil
	}

	provider, err := storage.NewProvider(c.config.Client.DraftProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create draft store: %w", err)
	}
	if err := provider.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize draft store: %w", err)
	}
	c.closers = append(c.closers, provider.Close)
	return provider.GetDraftStore(), nil
}

// helper returns an integration helper bound to the server and draft store
func (c *cli) helper() (*integration.Helper, *client.Client, error) {
	api, err := c.client()
	if err != nil {
		return nil, nil, err
	}
	drafts, err := c.drafts(api)
	if err != nil {
		return nil, nil, err
	}
	return integration.NewHelper(api, drafts, c.logger), api, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
