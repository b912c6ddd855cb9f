package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tcmartin/integrator/pkg/config"
	"github.com/tcmartin/integrator/pkg/services"
)

func newTokenCmd(c *cli) *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:   "token [subject]",
		Short: "Sign an API token with the configured secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.config.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret is not configured")
			}
			expiration := c.config.Auth.TokenExpiration
			if cmd.Flags().Changed("hours") {
				expiration = hours
			}
			token, err := services.NewJWTService(c.config.Auth.JWTSecret, expiration).GenerateToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, token)
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 0, "Token lifetime in hours; 0 never expires")
	return cmd
}

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the CLI configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write the current configuration to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no config path given")
			}
			if err := config.SaveConfig(c.config, path); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.AddCommand(initCmd)
	return cmd
}
