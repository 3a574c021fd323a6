package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"hoststatus/internal/models"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "HOSTSTATUS_"

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	// Start with default configuration
	config := models.NewDefaultConfig()

	// Load from file if provided and exists
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	if err := loadFromEnvironment(config); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment loads configuration from environment variables.
// Malformed numbers and durations are ignored, matching file-less defaults;
// only the probe port list is rejected outright since a partial list would
// silently change which service is probed.
func loadFromEnvironment(config *models.Config) error {
	// Server configuration
	if port := os.Getenv(EnvPrefix + "PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv(EnvPrefix + "HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv(EnvPrefix + "READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv(EnvPrefix + "WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv(EnvPrefix + "IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	if timeout := os.Getenv(EnvPrefix + "SHUTDOWN_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ShutdownTimeout = d
		}
	}

	// Probe configuration
	if host := os.Getenv(EnvPrefix + "PROBE_HOST"); host != "" {
		config.Probe.Host = host
	}

	if ports := os.Getenv(EnvPrefix + "PROBE_PORTS"); ports != "" {
		parsed, err := parsePorts(ports)
		if err != nil {
			return fmt.Errorf("%sPROBE_PORTS: %w", EnvPrefix, err)
		}
		config.Probe.Ports = parsed
	}

	if timeout := os.Getenv(EnvPrefix + "PROBE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Probe.Timeout = d
		}
	}

	// Host metrics configuration
	if path := os.Getenv(EnvPrefix + "DISK_PATH"); path != "" {
		config.Metrics.DiskPath = path
	}

	if interval := os.Getenv(EnvPrefix + "CPU_SAMPLE_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Metrics.CPUSampleInterval = d
		}
	}

	// Rate limit configuration
	if enabled := os.Getenv(EnvPrefix + "RATE_LIMIT_ENABLED"); enabled != "" {
		config.RateLimit.Enabled = strings.ToLower(enabled) == "true"
	}

	if rpm := os.Getenv(EnvPrefix + "RATE_LIMIT_RPM"); rpm != "" {
		if n, err := strconv.Atoi(rpm); err == nil {
			config.RateLimit.RequestsPerMinute = n
		}
	}

	if burst := os.Getenv(EnvPrefix + "RATE_LIMIT_BURST"); burst != "" {
		if n, err := strconv.Atoi(burst); err == nil {
			config.RateLimit.Burst = n
		}
	}

	if trust := os.Getenv(EnvPrefix + "RATE_LIMIT_TRUST_PROXY"); trust != "" {
		config.RateLimit.TrustProxyHeaders = strings.ToLower(trust) == "true"
	}

	// Logging configuration
	if level := os.Getenv(EnvPrefix + "LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv(EnvPrefix + "LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv(EnvPrefix + "LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv(EnvPrefix + "LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Telemetry configuration
	if enabled := os.Getenv(EnvPrefix + "TELEMETRY_ENABLED"); enabled != "" {
		config.Telemetry.Enabled = strings.ToLower(enabled) == "true"
	}

	if path := os.Getenv(EnvPrefix + "TELEMETRY_PATH"); path != "" {
		config.Telemetry.Path = path
	}

	if port := os.Getenv(EnvPrefix + "TELEMETRY_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Telemetry.Port = p
		}
	}

	// Tracing configuration
	if enabled := os.Getenv(EnvPrefix + "TRACING_ENABLED"); enabled != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(enabled) == "true"
	}

	if exporter := os.Getenv(EnvPrefix + "TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv(EnvPrefix + "OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}

	if rate := os.Getenv(EnvPrefix + "TRACING_SAMPLE_RATE"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Observability.Tracing.SampleRate = r
		}
	}

	return nil
}

// parsePorts parses a comma-separated port list such as "9200,9300".
func parsePorts(s string) ([]int, error) {
	var ports []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", part, err)
		}
		ports = append(ports, p)
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("no ports in %q", s)
	}
	return ports, nil
}

// SaveExample saves an example configuration file
func SaveExample(filePath string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()

	// Show the optional sections filled in
	config.Telemetry.Enabled = true
	config.Observability.Tracing.Exporter = models.TraceExporterOTLP
	config.Observability.Tracing.OTLPEndpoint = "localhost:4317"

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
