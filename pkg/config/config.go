// Package config loads Emerald configuration from a YAML file, an optional
// .env file and the process environment, in that order of precedence
// (environment wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/exploopio/emerald/pkg/core"
	"github.com/exploopio/emerald/pkg/gemini"
	"github.com/exploopio/emerald/pkg/ipdetect"
)

// Environment variables. The API key is looked up in order.
const (
	EnvAPIKey     = "EMERALD_API_KEY"
	EnvGeminiKey  = "GEMINI_API_KEY"
	EnvLegacyKey  = "API_KEY"
	EnvModel      = "EMERALD_MODEL"
	EnvBaseURL    = "EMERALD_BASE_URL"
	EnvListenAddr = "EMERALD_LISTEN_ADDR"
	EnvLogLevel   = "EMERALD_LOG_LEVEL"
)

// Scan modes. Both report on the same port list.
const (
	ModeQuick = "quick"
	ModeFull  = "full"
)

// Modes lists the accepted scan modes.
var Modes = []string{ModeQuick, ModeFull}

// Config is the full Emerald configuration.
type Config struct {
	Model  ModelConfig    `yaml:"model"`
	Scan   ScanConfig     `yaml:"scan"`
	Server ServerConfig   `yaml:"server"`
	Log    core.LogConfig `yaml:"log"`
}

// ModelConfig configures the generative model.
type ModelConfig struct {
	APIKey  string        `yaml:"api_key"`
	Name    string        `yaml:"name"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ScanConfig configures what a scan reports on.
type ScanConfig struct {
	Ports       []int  `yaml:"ports"`
	DefaultMode string `yaml:"default_mode"`
	DetectURL   string `yaml:"detect_url"`
	FallbackIP  string `yaml:"fallback_ip"`
}

// ServerConfig configures the dashboard API.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	HealthTimeout   time.Duration `yaml:"health_timeout"`

	// ScansPerMinute limits POST /api/v1/scans; 0 disables the limit.
	ScansPerMinute int  `yaml:"scans_per_minute"`
	ScanBurst      int  `yaml:"scan_burst"`
	Compression    bool `yaml:"compression"`
	Metrics        bool `yaml:"metrics"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Name:    gemini.DefaultModel,
			BaseURL: gemini.DefaultBaseURL,
			Timeout: gemini.DefaultTimeout,
		},
		Scan: ScanConfig{
			Ports:       []int{22, 23, 80, 443},
			DefaultMode: ModeQuick,
			DetectURL:   ipdetect.DefaultURL,
			FallbackIP:  ipdetect.DefaultFallbackIP,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			HealthTimeout:   5 * time.Second,
			ScansPerMinute:  10,
			ScanBurst:       3,
			Compression:     true,
			Metrics:         true,
		},
		Log: *core.DefaultLogConfig(),
	}
}

// Load builds the configuration: defaults, then the .env file at envFile (if
// any) loaded into the environment, then the YAML file at path (if any) with
// ${VAR} expansion, then the environment overrides.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	// The env file populates the environment first so ${VAR} references in
	// the YAML can resolve to its values.
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadEnvFile loads KEY=VALUE pairs into the environment without
// overriding variables that are already set. An empty path tries ".env"
// and ignores its absence.
func LoadEnvFile(path string) error {
	optional := path == ""
	if optional {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	for _, key := range []string{EnvAPIKey, EnvGeminiKey, EnvLegacyKey} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			c.Model.APIKey = v
			break
		}
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Model.Name = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Model.BaseURL = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration. A missing API key is allowed: the
// service then serves fallback reports.
func (c *Config) Validate() error {
	v := NewValidator()

	v.Required("model.name", c.Model.Name)
	v.URL("model.base_url", c.Model.BaseURL)
	v.MinDuration("model.timeout", c.Model.Timeout, time.Second)
	v.MaxDuration("model.timeout", c.Model.Timeout, 10*time.Minute)

	v.Custom("scan.ports", func() bool { return len(c.Scan.Ports) > 0 }, "must list at least one port")
	for i, p := range c.Scan.Ports {
		field := fmt.Sprintf("scan.ports[%d]", i)
		v.Min(field, p, 0)
		v.Max(field, p, 65535)
	}
	v.OneOf("scan.default_mode", c.Scan.DefaultMode, Modes)
	v.URL("scan.detect_url", c.Scan.DetectURL)
	v.IP("scan.fallback_ip", c.Scan.FallbackIP)

	v.Required("server.listen_addr", c.Server.ListenAddr)
	v.MinDuration("server.health_timeout", c.Server.HealthTimeout, 100*time.Millisecond)
	v.Min("server.scans_per_minute", c.Server.ScansPerMinute, 0)
	if c.Server.ScansPerMinute > 0 {
		v.Min("server.scan_burst", c.Server.ScanBurst, 1)
	}

	v.OneOf("log.level", c.Log.Level, []string{"debug", "info", "warn", "warning", "error"})
	v.OneOf("log.format", c.Log.Format, []string{"text", "json"})

	return v.Validate()
}

// HasAPIKey reports whether a model credential is configured.
func (c *Config) HasAPIKey() bool {
	return c.Model.APIKey != ""
}
