package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/exploopio/emerald/pkg/dashboard"
	"github.com/exploopio/emerald/pkg/health"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	logDir := "."
	if a.cfg.Log.File != "" {
		logDir = filepath.Dir(a.cfg.Log.File)
	}

	req, err := a.requester(ctx)
	if err != nil {
		return err
	}

	h := health.NewHandler(health.WithVersion(version), health.WithTimeout(a.cfg.Server.HealthTimeout))
	h.Register("model", &health.ModelCheck{Model: a.cfg.Model.Name, HasAPIKey: a.cfg.HasAPIKey()})
	h.Register("memory", &health.MemoryCheck{})
	h.Register("system_memory", &health.SystemMemoryCheck{})
	h.Register("disk", &health.DiskCheck{Path: logDir, MinFreePercent: 5})

	srv := dashboard.New(a.cfg, req, a.resolver(),
		dashboard.WithHealth(h),
		dashboard.WithMetrics(a.metrics),
		dashboard.WithLogger(a.logger),
	)

	a.logger.Info("[%s] %s starting (model %s)", appName, version, a.cfg.Model.Name)
	return srv.Run(ctx)
}
