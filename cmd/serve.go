package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fundcomp/internal/api"
	"github.com/sells-group/fundcomp/internal/config"
	"github.com/sells-group/fundcomp/internal/monitoring"
	"github.com/sells-group/fundcomp/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the composition HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := initPipeline(cfg, "serve")
		if err != nil {
			return err
		}

		collector := startMonitoring(ctx, p, cfg.Monitor)

		scheduler, err := startRefresh(p, cfg.Server.RefreshCron)
		if err != nil {
			return err
		}
		if scheduler != nil {
			defer scheduler.Stop()
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.NewRouter(p, collector, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// startMonitoring records every pipeline run and, when a webhook is
// configured, checks for upstream outages until ctx is done.
func startMonitoring(ctx context.Context, p *pipeline.Pipeline, mc config.MonitorConfig) *monitoring.Collector {
	collector := monitoring.NewCollector(p.Cache(), 0)
	p.SetObserver(collector)

	if mc.WebhookURL != "" {
		checker := monitoring.NewChecker(collector, monitoring.NewAlerter(mc), mc)
		go checker.Run(ctx)
	}
	return collector
}

// startRefresh schedules cache invalidation. An empty schedule disables it.
func startRefresh(p *pipeline.Pipeline, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		zap.L().Info("scheduled cache refresh")
		p.Cache().Invalidate()
	}); err != nil {
		return nil, eris.Wrapf(err, "parse refresh cron %q", schedule)
	}
	c.Start()
	zap.L().Info("cache refresh scheduled", zap.String("cron", schedule))
	return c, nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
