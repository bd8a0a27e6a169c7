package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wallstreet-rpg/internal/logging"
	"wallstreet-rpg/internal/server"
	"wallstreet-rpg/internal/stream"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the historical data API and render stream",
		Long: `Serve exposes the seeded historical data endpoint, a websocket stream of
render events, and Prometheus metrics for a browser-based chart frontend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if addr == "" {
				addr = app.Config.Server.Addr
			}
			hub := stream.NewHub(app.Logger)
			defer hub.Close()

			srv := server.New(server.Config{
				Addr:         addr,
				ReadTimeout:  app.Config.Server.ReadTimeout,
				WriteTimeout: app.Config.Server.WriteTimeout,
			}, app.Fetcher, hub, app.Metrics, app.Logger)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			output.Info("🌐 Listening on %s (Ctrl+C to stop)", addr)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-sigCh:
			case <-cmd.Context().Done():
			}

			logger := logging.FromContext(cmd.Context())
			logger.Info().Str("addr", addr).Msg("Shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			output.Success("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: from config)")
	return cmd
}
