package main

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tcmartin/integrator/pkg/models"
)

func newConnectionCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connection",
		Aliases: []string{"connections"},
		Short:   "Browse and register connections",
	}

	var query string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			connections, err := api.ListConnections(commandContext(cmd))
			if err != nil {
				return fmt.Errorf("failed to list connections: %w", err)
			}

			rows := [][]string{}
			for _, conn := range connections {
				if query != "" && !fuzzy.MatchFold(query, conn.Name) {
					continue
				}
				rows = append(rows, []string{conn.ID, conn.Name, connectorName(conn), actionIDs(conn)})
			}
			if len(rows) == 0 {
				fmt.Fprintln(c.out, "No connections found")
				return nil
			}
			return printTable(c.out, []string{"ID", "NAME", "CONNECTOR", "ACTIONS"}, rows)
		},
	}
	listCmd.Flags().StringVarP(&query, "query", "q", "", "Fuzzy match on the connection name")

	var format string
	getCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show a connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			conn, err := api.GetConnection(commandContext(cmd), args[0])
			if err != nil {
				return fmt.Errorf("failed to get connection %s: %w", args[0], err)
			}
			return printDocument(c.out, format, conn)
		},
	}
	getCmd.Flags().StringVarP(&format, "output", "o", formatJSON, "Output format: json or yaml")

	createCmd := &cobra.Command{
		Use:   "create [file]",
		Short: "Register a connection from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := afero.ReadFile(c.fs, args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			// YAML is a superset of JSON
			var conn models.Connection
			if err := yaml.Unmarshal(data, &conn); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			api, err := c.client()
			if err != nil {
				return err
			}
			created, err := api.CreateConnection(commandContext(cmd), conn)
			if err != nil {
				return fmt.Errorf("failed to create connection: %w", err)
			}
			fmt.Fprintf(c.out, "Connection %s created\n", created.ID)
			return nil
		},
	}

	var properties map[string]string
	describeCmd := &cobra.Command{
		Use:   "describe [connection-id] [action-id]",
		Short: "Fetch the descriptor of an action for the given properties",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			descriptor, err := api.GetActionDescriptor(commandContext(cmd), args[0], args[1], properties)
			if err != nil {
				return fmt.Errorf("failed to describe %s/%s: %w", args[0], args[1], err)
			}
			return printDocument(c.out, format, descriptor)
		},
	}
	describeCmd.Flags().StringToStringVar(&properties, "set", nil, "Configured property, e.g. --set keywords=golang")
	describeCmd.Flags().StringVarP(&format, "output", "o", formatJSON, "Output format: json or yaml")

	cmd.AddCommand(listCmd, getCmd, createCmd, describeCmd)
	return cmd
}

func connectorName(conn models.Connection) string {
	if conn.Connector == nil {
		return conn.ConnectorID
	}
	return conn.Connector.Name
}

func actionIDs(conn models.Connection) string {
	if conn.Connector == nil {
		return ""
	}
	ids := make([]string, 0, len(conn.Connector.Actions))
	for _, a := range conn.Connector.Actions {
		ids = append(ids, a.ID)
	}
	return strings.Join(ids, ",")
}
