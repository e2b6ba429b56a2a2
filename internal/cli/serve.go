package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/internal/server"
)

// serveCommand creates the serve command exposing a graph over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve <graph.json>",
		Short: "Serve a graph over the HTTP API",
		Long: `Serve loads a graph document and exposes collapse, expand, search,
frame, and snapshot operations over HTTP. The server runs until
interrupted and drains in-flight operations on shutdown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := c.loadGraph(args[0])
			if err != nil {
				return err
			}
			coord, err := c.newCoordinator(ctx, s, noCache)
			if err != nil {
				return err
			}
			defer coord.Close()

			snaps, err := c.newSnapshotStore(ctx)
			if err != nil {
				return err
			}
			defer snaps.Close(ctx)

			if addr == "" {
				addr = c.config.Server.Addr
			}
			srv := server.New(coord, server.Options{
				Addr:      addr,
				Snapshots: snaps,
				Logger:    c.Logger,
			})

			printInfo("Serving %s on http://%s", args[0], addr)
			printNextStep("Fetch a frame", "curl http://"+addr+"/api/v1/frame")
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	return cmd
}
