package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bronson/version"
)

// Config holds the full service configuration. Values are resolved in
// ascending precedence: defaults, JSON config file, environment, flags.
type Config struct {
	CleanupDirectory  string            `json:"cleanup_directory"`
	TargetDirectory   string            `json:"target_directory"`
	Host              string            `json:"host"`
	Port              int               `json:"port"`
	LogLevel          string            `json:"log_level"`
	AllowedOrigins    []string          `json:"allowed_origins"`
	EnableMetrics     bool              `json:"enable_metrics"`
	MaxFSOpsPerSecond int               `json:"max_fs_ops_per_second"`
	UnwantedPatterns  []string          `json:"unwanted_patterns"`
	MoveBatchSize     int               `json:"move_batch_size"`
	ShutdownTimeout   time.Duration     `json:"shutdown_timeout"`
	OtelEndpoint      string            `json:"otel_endpoint"`
	OtelFromEnv       bool              `json:"otel_from_env"`
	OtelServiceName   string            `json:"otel_service_name"`
	OtelTimeout       time.Duration     `json:"otel_timeout"`
	OtelHeaders       map[string]string `json:"otel_headers"`
	ConfigFile        string            `json:"-"`
}

// LoadConfig parses process configuration from os.Args.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load parses configuration from the given argument list.
func Load(args []string) (*Config, error) {
	cfg := &Config{
		Host:              "0.0.0.0",
		Port:              1968,
		LogLevel:          "info",
		AllowedOrigins:    []string{"*"},
		EnableMetrics:     true,
		MaxFSOpsPerSecond: 0,
		MoveBatchSize:     1,
		ShutdownTimeout:   10 * time.Second,
		OtelServiceName:   "bronson",
		OtelTimeout:       5 * time.Second,
		OtelHeaders:       map[string]string{},
	}

	fs := flag.NewFlagSet("bronson", flag.ContinueOnError)
	cleanupDir := fs.String("cleanup-directory", cfg.CleanupDirectory, "Cleanup root directory (default: none).")
	targetDir := fs.String("target-directory", cfg.TargetDirectory, "Target root directory for comparison and moves (default: none).")
	host := fs.String("host", cfg.Host, fmt.Sprintf("Listen host (default: %s).", cfg.Host))
	port := fs.Int("port", cfg.Port, fmt.Sprintf("Listen port (default: %d).", cfg.Port))
	logLevel := fs.String("log-level", cfg.LogLevel, fmt.Sprintf("Log level: debug, info, warn, error, fatal, or panic (default: %s).", cfg.LogLevel))
	origins := fs.String("allowed-origins", strings.Join(cfg.AllowedOrigins, ","), "Comma-separated list of allowed CORS origins (default: *).")
	enableMetrics := fs.Bool("enable-metrics", cfg.EnableMetrics, fmt.Sprintf("Expose Prometheus metrics on /metrics (default: %t).", cfg.EnableMetrics))
	maxFSOps := fs.Int("max-fs-ops-per-second", cfg.MaxFSOpsPerSecond, "Maximum filesystem operations per second, 0 for unlimited (default: 0).")
	patterns := fs.String("unwanted-patterns", "", "Comma-separated regex patterns replacing the built-in unwanted-file set (default: built-in set).")
	batchSize := fs.Int("move-batch-size", cfg.MoveBatchSize, fmt.Sprintf("Default number of directories moved per move call (default: %d).", cfg.MoveBatchSize))
	shutdownTimeout := fs.Duration("shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout (default: 10s).")
	otelEndpoint := fs.String("otel-endpoint", cfg.OtelEndpoint, "OTLP/HTTP logs endpoint (default: none).")
	otelFromEnv := fs.Bool("otel-from-env", cfg.OtelFromEnv, "Allow OTEL endpoint fallback from OTEL environment variables (default: false).")
	otelServiceName := fs.String("otel-service-name", cfg.OtelServiceName, fmt.Sprintf("OTEL service name for export (default: %s).", cfg.OtelServiceName))
	otelTimeout := fs.Duration("otel-timeout", cfg.OtelTimeout, "OTEL export timeout (default: 5s).")
	otelHeaders := fs.String("otel-headers", "", "Comma-separated OTEL headers (key=value) for export (default: none).")
	configFile := fs.String("config", "", "Path to JSON configuration file (default: none).")
	showVersion := fs.Bool("version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *showVersion {
		fmt.Printf("Bronson version %s\n", version.Version)
		os.Exit(0)
	}

	if *configFile != "" {
		cfg.ConfigFile = *configFile
		if err := cfg.loadFromFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cleanup-directory":
			cfg.CleanupDirectory = *cleanupDir
		case "target-directory":
			cfg.TargetDirectory = *targetDir
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "log-level":
			cfg.LogLevel = *logLevel
		case "allowed-origins":
			cfg.AllowedOrigins = parseCommaSeparated(*origins)
		case "enable-metrics":
			cfg.EnableMetrics = *enableMetrics
		case "max-fs-ops-per-second":
			cfg.MaxFSOpsPerSecond = *maxFSOps
		case "unwanted-patterns":
			cfg.UnwantedPatterns = parseCommaSeparated(*patterns)
		case "move-batch-size":
			cfg.MoveBatchSize = *batchSize
		case "shutdown-timeout":
			cfg.ShutdownTimeout = *shutdownTimeout
		case "otel-endpoint":
			cfg.OtelEndpoint = *otelEndpoint
		case "otel-from-env":
			cfg.OtelFromEnv = *otelFromEnv
		case "otel-service-name":
			cfg.OtelServiceName = *otelServiceName
		case "otel-timeout":
			cfg.OtelTimeout = *otelTimeout
		case "otel-headers":
			cfg.OtelHeaders = parseHeaders(*otelHeaders)
		}
	})

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies the environment contract the service has always had:
// CLEANUP_DIRECTORY, TARGET_DIRECTORY, PORT, LOG_LEVEL, ENABLE_METRICS.
func (cfg *Config) applyEnv() {
	if v := os.Getenv("CLEANUP_DIRECTORY"); v != "" {
		cfg.CleanupDirectory = v
	}
	if v := os.Getenv("TARGET_DIRECTORY"); v != "" {
		cfg.TargetDirectory = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ENABLE_METRICS"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.EnableMetrics = enabled
		}
	}
}

func (cfg *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %v", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	return nil
}

func (cfg *Config) validate() error {
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = "0.0.0.0"
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.MaxFSOpsPerSecond < 0 {
		return fmt.Errorf("max-fs-ops-per-second must be zero or positive")
	}
	if cfg.MoveBatchSize < 1 {
		return fmt.Errorf("move-batch-size must be at least 1")
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown-timeout must be positive")
	}
	for _, pattern := range cfg.UnwantedPatterns {
		if _, err := regexp.Compile("(?i)" + pattern); err != nil {
			return fmt.Errorf("invalid unwanted pattern %q: %v", pattern, err)
		}
	}
	return nil
}

// ListenAddress joins the configured host and port.
func (cfg *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

func parseCommaSeparated(input string) []string {
	if strings.TrimSpace(input) == "" {
		return []string{}
	}
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseHeaders(input string) map[string]string {
	headers := map[string]string{}
	for _, pair := range parseCommaSeparated(input) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers
}
