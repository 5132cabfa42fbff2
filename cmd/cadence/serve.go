package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/c360studio/cadence/sweep"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the metrics endpoint and the periodic overdue sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				sweeper := sweep.New(app.Store, app.cfg.Sweep.Schedule, app.logger)
				if err := sweeper.Start(ctx); err != nil {
					return err
				}
				defer sweeper.Stop()

				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv := &http.Server{Addr: app.cfg.Metrics.Listen, Handler: mux}

				errCh := make(chan error, 1)
				go func() {
					app.logger.Info("metrics listening", slog.String("addr", srv.Addr))
					errCh <- srv.ListenAndServe()
				}()

				select {
				case <-ctx.Done():
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := srv.Shutdown(shutdownCtx); err != nil {
						return fmt.Errorf("shutdown metrics server: %w", err)
					}
					return nil
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				}
			})
		},
	}
}
