// Package models - Service configuration and operational settings.
// This file defines the configuration structures for every component of the
// status server.
//
// Configuration Philosophy:
// - Hierarchical configuration grouped by component (server, probe, metrics, etc.)
// - Defaults that reproduce the classic status server with no config file at all
// - Validation up front so misconfigurations fail before the listener binds
package models

import (
	"errors"
	"fmt"
	"time"
)

// Trace exporter constants
const (
	TraceExporterStdout = "stdout"
	TraceExporterOTLP   = "otlp"
)

// Config is the root configuration structure containing all service settings.
//
// Configuration Structure:
// - Server: HTTP listener and timeouts
// - Probe: TCP liveness probe targets for the co-located search service
// - Metrics: host metric collection settings
// - RateLimit: optional per-client throttling of /status
// - Logging: structured logging output
// - Telemetry: Prometheus exporter for the service's own metrics
// - Observability: OpenTelemetry tracing
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`
	Probe         ProbeConfig         `yaml:"probe" json:"probe"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit" json:"rate_limit"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Telemetry     TelemetryConfig     `yaml:"telemetry" json:"telemetry"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" json:"port"`
	Host            string        `yaml:"host" json:"host"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// ProbeConfig describes the TCP endpoints whose reachability decides
// elasticsearch_up. Ports are dialed in order.
type ProbeConfig struct {
	Host    string        `yaml:"host" json:"host"`
	Ports   []int         `yaml:"ports" json:"ports"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

type MetricsConfig struct {
	DiskPath string `yaml:"disk_path" json:"disk_path"`
	// CPUSampleInterval of zero compares against the previous call instead of blocking.
	CPUSampleInterval time.Duration `yaml:"cpu_sample_interval" json:"cpu_sample_interval"`
}

// RateLimitConfig throttles /status per client address. Disabled by default.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int           `yaml:"burst" json:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	TrustProxyHeaders bool          `yaml:"trust_proxy_headers" json:"trust_proxy_headers"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// TelemetryConfig controls the Prometheus endpoint for the server's own
// instrumentation. It listens on its own port so the status port keeps
// exactly one route.
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration matching the classic status server:
// port 8080 on all interfaces, probes against localhost:9200 and localhost:9300,
// disk usage for the root filesystem.
//
// Default Values Rationale:
// - 2s probe timeout: a stalled search node must not stall /status
// - Telemetry and tracing off: the status port stays a single-route surface
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Probe: ProbeConfig{
			Host:    "localhost",
			Ports:   []int{9200, 9300},
			Timeout: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			DiskPath: "/",
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 120,
			Burst:             20,
			CleanupInterval:   5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "hoststatus",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   TraceExporterStdout,
				SampleRate: 1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Probe.Validate(); err != nil {
		return fmt.Errorf("invalid probe config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("invalid rate limit config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("invalid telemetry config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}

	if sc.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}

	if sc.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	if sc.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	return nil
}

func (pc *ProbeConfig) Validate() error {
	if pc.Host == "" {
		return errors.New("probe host cannot be empty")
	}

	if len(pc.Ports) == 0 {
		return errors.New("at least one probe port is required")
	}

	for _, p := range pc.Ports {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("probe port %d must be between 1 and 65535", p)
		}
	}

	if pc.Timeout <= 0 {
		return errors.New("probe timeout must be positive")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if mc.DiskPath == "" {
		return errors.New("disk path cannot be empty")
	}

	if mc.CPUSampleInterval < 0 {
		return errors.New("cpu sample interval cannot be negative")
	}

	return nil
}

func (rc *RateLimitConfig) Validate() error {
	if !rc.Enabled {
		return nil
	}

	if rc.RequestsPerMinute <= 0 {
		return errors.New("requests per minute must be positive")
	}

	if rc.Burst <= 0 {
		return errors.New("burst must be positive")
	}

	if rc.CleanupInterval <= 0 {
		return errors.New("cleanup interval must be positive")
	}

	return nil
}

func (lc *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	found := false
	for _, vl := range validLevels {
		if lc.Level == vl {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	validFormats := []string{"json", "text"}
	found = false
	for _, vf := range validFormats {
		if lc.Format == vf {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	validOutputs := []string{"stdout", "stderr", "file"}
	found = false
	for _, vo := range validOutputs {
		if lc.Output == vo {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (tc *TelemetryConfig) Validate() error {
	if !tc.Enabled {
		return nil
	}

	if tc.Path == "" {
		return errors.New("telemetry path cannot be empty")
	}

	if tc.Port <= 0 || tc.Port > 65535 {
		return errors.New("telemetry port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if oc.ServiceName == "" {
		return errors.New("service name cannot be empty")
	}

	if !oc.Tracing.Enabled {
		return nil
	}

	switch oc.Tracing.Exporter {
	case TraceExporterStdout:
	case TraceExporterOTLP:
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("otlp endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("invalid trace exporter: %s", oc.Tracing.Exporter)
	}

	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("sample rate must be between 0 and 1")
	}

	return nil
}
