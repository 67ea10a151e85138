package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/exploopio/emerald/pkg/config"
	"github.com/exploopio/emerald/pkg/core"
	"github.com/exploopio/emerald/pkg/insights"
	"github.com/exploopio/emerald/pkg/ipdetect"
	"github.com/exploopio/emerald/pkg/metrics"
)

const appName = "emerald"

// app carries what the subcommands share once flags are parsed.
type app struct {
	configPath string
	envFile    string
	logLevel   string

	cfg     *config.Config
	logger  core.Logger
	metrics *metrics.PrometheusCollector
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Security reports for a host and its open ports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to YAML config file")
	flags.StringVar(&a.envFile, "env-file", "", "path to .env file (default: ./.env if present)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newServeCmd(a), newScanCmd(a), newVersionCmd())
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := core.NewLogrusLogger(&cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.metrics = metrics.NewPrometheusCollector(&metrics.PrometheusConfig{RegisterDefaultMetrics: true})

	if !cfg.HasAPIKey() {
		logger.Warn("[%s] no API key configured (%s, %s or %s); reports will use the fallback assessment",
			appName, config.EnvAPIKey, config.EnvGeminiKey, config.EnvLegacyKey)
	}
	return nil
}

func (a *app) requester(ctx context.Context) (*insights.Requester, error) {
	return insights.NewFromConfig(ctx, &insights.Config{
		APIKey:  a.cfg.Model.APIKey,
		Model:   a.cfg.Model.Name,
		BaseURL: a.cfg.Model.BaseURL,
		Timeout: a.cfg.Model.Timeout,
	}, insights.WithLogger(a.logger), insights.WithMetrics(a.metrics))
}

func (a *app) resolver() *ipdetect.Resolver {
	return ipdetect.New(
		ipdetect.WithURL(a.cfg.Scan.DetectURL),
		ipdetect.WithFallbackIP(a.cfg.Scan.FallbackIP),
		ipdetect.WithLogger(a.logger),
	)
}
