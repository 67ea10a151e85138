package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/exploopio/emerald/pkg/config"
	"github.com/exploopio/emerald/pkg/dashboard"
	"github.com/exploopio/emerald/pkg/report"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvAPIKey, config.EnvGeminiKey, config.EnvLegacyKey,
		config.EnvModel, config.EnvBaseURL, config.EnvListenAddr, config.EnvLogLevel,
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "emerald dev") {
		t.Errorf("output = %q", out)
	}
}

func TestScan_JSONWithoutAPIKeyUsesFallback(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "report.json")

	out, err := run(t, "scan", "--ip", "198.51.100.9", "--mode", "FULL", "--json", "--output", path, "--log-level", "error")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	var res dashboard.ScanResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out)
	}
	if res.IP != "198.51.100.9" || res.Mode != config.ModeFull {
		t.Errorf("IP/Mode = %q/%q", res.IP, res.Mode)
	}
	if res.Report == nil || res.Report.Score != 60 || res.Report.Status != report.StatusAtRisk {
		t.Errorf("expected fallback report, got %+v", res.Report)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output file: %v", err)
	}
	if !bytes.Contains(data, []byte(`"198.51.100.9"`)) {
		t.Errorf("output file = %s", data)
	}
}

func TestScan_Render(t *testing.T) {
	clearEnv(t)

	out, err := run(t, "scan", "--ip", "198.51.100.9", "--log-level", "error")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	for _, want := range []string{"198.51.100.9", "60/100", "Telnet", "Critical Risk"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestScan_BadMode(t *testing.T) {
	clearEnv(t)

	if _, err := run(t, "scan", "--ip", "198.51.100.9", "--mode", "deep"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestInvalidConfig(t *testing.T) {
	clearEnv(t)

	if _, err := run(t, "scan", "--ip", "198.51.100.9", "--log-level", "loud"); err == nil {
		t.Error("expected error for invalid log level")
	}
}
