package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/triage"
	"github.com/aretw0/triage/internal/cli"
	triagehttp "github.com/aretw0/triage/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves modules, sessions and outcomes as JSON over HTTP. Session changes are
streamed as server-sent events. With a module directory configured, edits are
picked up without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := openApp(sigCtx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		addr := app.Config.HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		opts := []triagehttp.Option{
			triagehttp.WithLogger(app.Logger),
			triagehttp.WithVersion(strings.TrimSpace(triage.Version)),
		}
		if app.Ledger != nil {
			opts = append(opts, triagehttp.WithLedger(app.Ledger))
		}
		if app.Config.HTTP.Metrics {
			opts = append(opts, triagehttp.WithMetrics(app.Metrics.Handler()))
		}
		if app.Catalog.Dir() != "" {
			opts = append(opts, triagehttp.WithWatch(app.Watch))
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           triagehttp.NewHandler(app.Manager, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("Starting HTTP server", "addr", srv.Addr, "store", app.Config.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return err
		case <-sigCtx.Done():
			app.Logger.Info("Shutting down", "signal", sigCtx.Signal())
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			app.Logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		app.Logger.Info("HTTP server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default from config, :8080)")
}
