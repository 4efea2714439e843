package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"hn-sentiment/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Re-analyse watched posts every day",
	Long: `Run in the foreground, re-analysing every watched post daily at
refresh_time in timezone. When metrics_addr is set, Prometheus metrics are
served on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("now", false, "refresh watched posts once at startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	refreshNow, _ := cmd.Flags().GetBool("now")

	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	prefs, err := store.LoadPreferences(cfg.Model)
	if err != nil {
		return err
	}
	runner, err := newRunner(store, prefs.Model, cfg.Concurrency)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	refresh := func(ctx context.Context) {
		if err := runner.RefreshWatches(ctx); err != nil {
			slog.Error("watch refresh failed", "error", err)
		}
	}

	sched, err := scheduler.New(cfg.Timezone)
	if err != nil {
		return err
	}
	if err := sched.Schedule(cfg.RefreshTime, refresh); err != nil {
		return err
	}
	sched.Start()
	slog.Info("scheduler started", "next_run", sched.Next())

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			slog.Info("metrics server listening", "addr", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}

	if refreshNow {
		refresh(ctx)
	}

	<-ctx.Done()
	slog.Info("shutting down")

	sched.Stop()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", "error", err)
		}
	}
	return nil
}
