package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tcmartin/integrator/pkg/models"
)

func newEventsCmd(c *cli) *cobra.Command {
	var useWebSocket bool
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream change events from the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			events := make(chan models.ChangeEvent, 16)
			handler := func(event models.ChangeEvent) {
				select {
				case events <- event:
				case <-ctx.Done():
				}
			}

			errCh := make(chan error, 1)
			go func() {
				if useWebSocket {
					errCh <- api.WatchWebSocket(ctx, handler)
				} else {
					errCh <- api.Watch(ctx, handler)
				}
			}()

			seen := 0
			for {
				select {
				case event := <-events:
					fmt.Fprintf(c.out, "%s %s %s %s\n", event.Time.Local().Format(time.RFC3339), event.Kind, event.Action, event.ID)
					seen++
					if limit > 0 && seen >= limit {
						cancel()
						<-errCh
						return nil
					}
				case err := <-errCh:
					return err
				}
			}
		},
	}
	cmd.Flags().BoolVar(&useWebSocket, "websocket", false, "Use the websocket feed instead of server-sent events")
	cmd.Flags().IntVarP(&limit, "count", "n", 0, "Exit after this many events")
	return cmd
}
