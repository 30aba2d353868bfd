package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jacentio/tickets/internal/httpapi"
	"github.com/jacentio/tickets/internal/telemetry"
	"github.com/jacentio/tickets/ticket"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ticket HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if serveAddr != "" {
			app.Config.Server.Addr = serveAddr
		}
		return serve(ctx, app)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func serve(ctx context.Context, app *App) error {
	cfg := app.Config
	logger := cfg.Logger(app.Err)

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:   cfg.Telemetry.ServiceName,
		TraceExporter: cfg.Telemetry.TraceExporter,
		Output:        app.Out,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer shutdownTracing(context.Background())

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo(context.Background())

	service := ticket.NewService(repo, cfg.EngineConfig(), logger)
	handler := httpapi.NewHandler(service, cfg.HTTPOptions(), logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewRouter(handler, promhttp.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "backend", cfg.Backend)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
