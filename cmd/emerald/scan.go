package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/exploopio/emerald/pkg/config"
	"github.com/exploopio/emerald/pkg/console"
	"github.com/exploopio/emerald/pkg/dashboard"
)

type scanOptions struct {
	IP     string
	Mode   string
	JSON   bool
	Output string
}

func newScanCmd(a *app) *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Produce one security report",
		Long: `Request a security report for a host. When --ip is omitted the public
IP of this machine is detected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Mode == "" {
				opts.Mode = a.cfg.Scan.DefaultMode
			}
			opts.Mode = strings.ToLower(opts.Mode)
			if !validScanMode(opts.Mode) {
				return fmt.Errorf("--mode must be one of: %s", strings.Join(config.Modes, ", "))
			}
			return a.scan(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.IP, "ip", "", "target IP (default: detected public IP)")
	flags.StringVar(&opts.Mode, "mode", "", "scan mode: quick or full")
	flags.BoolVar(&opts.JSON, "json", false, "print the result as JSON")
	flags.StringVarP(&opts.Output, "output", "o", "", "also write the JSON result to this file")

	return cmd
}

func validScanMode(mode string) bool {
	for _, m := range config.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

func (a *app) scan(ctx context.Context, out io.Writer, opts *scanOptions) error {
	ip := strings.TrimSpace(opts.IP)
	if ip == "" {
		ip = a.resolver().Detect(ctx)
	}

	req, err := a.requester(ctx)
	if err != nil {
		return err
	}

	result := dashboard.ScanResult{
		ID:        uuid.NewString(),
		IP:        ip,
		Mode:      opts.Mode,
		Ports:     append([]int(nil), a.cfg.Scan.Ports...),
		StartedAt: time.Now().UTC(),
	}

	var progress *console.Progress
	if !opts.JSON {
		p, err := console.StartProgress(out, fmt.Sprintf("Analyzing %s", ip))
		if err != nil {
			a.logger.Debug("[scan] progress bar unavailable: %v", err)
		} else {
			progress = p
		}
	}

	result.Report = req.GetSecurityInsights(ctx, result.Ports, ip)
	result.CompletedAt = time.Now().UTC()

	if progress != nil {
		progress.Stop()
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", opts.Output, err)
		}
		if !opts.JSON {
			pterm.Success.WithWriter(out).Printfln("Result written to %s", opts.Output)
		}
	}

	if opts.JSON {
		_, err := fmt.Fprintln(out, string(data))
		return err
	}
	return console.New(out).Render(result.Report, ip)
}
