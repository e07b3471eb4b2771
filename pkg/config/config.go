package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/protodoc/pkg/observability"
	"github.com/platinummonkey/protodoc/pkg/registry"
)

// Config holds all application configuration
type Config struct {
	// Descriptor set source
	Source SourceConfig `yaml:"source"`

	// Annotation schema and related type analysis
	Schema SchemaConfig `yaml:"schema"`

	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Signature cache
	Cache CacheConfig `yaml:"cache"`

	// Snapshot reloading
	Reload ReloadConfig `yaml:"reload"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// SourceConfig describes where the descriptor set is loaded from
type SourceConfig struct {
	// URI is a path, file://path or s3://bucket/key
	URI string `yaml:"uri"`
	// Strict rejects descriptor sets with dangling type references
	Strict bool     `yaml:"strict"`
	S3     S3Config `yaml:"s3"`
}

// S3Config holds S3 client settings for s3:// sources
type S3Config struct {
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// SchemaConfig controls how method options are decoded and which types are
// never reported as related
type SchemaConfig struct {
	// Dir holds extra .proto files compiled into the annotation schema
	Dir                 string   `yaml:"dir"`
	RouteExtensions     []string `yaml:"route_extensions"`
	WebSocketExtensions []string `yaml:"websocket_extensions"`
	// Exclusions of nil selects the built-in defaults
	Exclusions []string `yaml:"exclusions"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// CORSOrigins lists origins allowed to query the service; "*" allows all
	CORSOrigins []string `yaml:"cors_origins"`
}

// CacheConfig holds signature cache settings
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// ReloadConfig controls when the descriptor set is reloaded
type ReloadConfig struct {
	// Watch reloads file sources when they change
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
	// Schedule is a cron spec; empty disables scheduled reloads
	Schedule string `yaml:"schedule"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			S3: S3Config{Region: "us-east-1"},
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Size: 1024,
			TTL:  10 * time.Minute,
		},
		Reload: ReloadConfig{
			Debounce: registry.DefaultDebounce,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      observability.FormatText,
			MetricsEnabled: true,
		},
	}
}

// LoadConfig loads configuration from the file named by PROTODOC_CONFIG (if
// any) and the environment, and validates it. A .env file in the working
// directory is loaded first when present.
func LoadConfig() (*Config, error) {
	cfg, err := Load(os.Getenv("PROTODOC_CONFIG"))
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Load builds a configuration from defaults, the YAML file at path (skipped
// when path is empty) and PROTODOC_* environment variables, in that order.
// The result is not validated so that callers can apply flags first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides values with the environment. Current values are the
// defaults so that unset variables keep what the file said.
func (c *Config) applyEnv() {
	c.Source.URI = getEnv("PROTODOC_SOURCE", c.Source.URI)
	c.Source.Strict = getEnvBool("PROTODOC_STRICT", c.Source.Strict)
	c.Source.S3.Region = getEnv("PROTODOC_S3_REGION", c.Source.S3.Region)
	c.Source.S3.Endpoint = getEnv("PROTODOC_S3_ENDPOINT", c.Source.S3.Endpoint)
	c.Source.S3.AccessKey = getEnv("PROTODOC_S3_ACCESS_KEY", c.Source.S3.AccessKey)
	c.Source.S3.SecretKey = getEnv("PROTODOC_S3_SECRET_KEY", c.Source.S3.SecretKey)
	c.Source.S3.UsePathStyle = getEnvBool("PROTODOC_S3_USE_PATH_STYLE", c.Source.S3.UsePathStyle)

	c.Schema.Dir = getEnv("PROTODOC_SCHEMA_DIR", c.Schema.Dir)
	c.Schema.RouteExtensions = getEnvList("PROTODOC_ROUTE_EXTENSIONS", c.Schema.RouteExtensions)
	c.Schema.WebSocketExtensions = getEnvList("PROTODOC_WEBSOCKET_EXTENSIONS", c.Schema.WebSocketExtensions)
	c.Schema.Exclusions = getEnvList("PROTODOC_EXCLUSIONS", c.Schema.Exclusions)

	c.Server.Host = getEnv("PROTODOC_HOST", c.Server.Host)
	c.Server.Port = getEnv("PROTODOC_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("PROTODOC_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("PROTODOC_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("PROTODOC_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("PROTODOC_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.CORSOrigins = getEnvList("PROTODOC_CORS_ORIGINS", c.Server.CORSOrigins)

	c.Cache.Size = getEnvInt("PROTODOC_CACHE_SIZE", c.Cache.Size)
	c.Cache.TTL = getEnvDuration("PROTODOC_CACHE_TTL", c.Cache.TTL)

	c.Reload.Watch = getEnvBool("PROTODOC_WATCH", c.Reload.Watch)
	c.Reload.Debounce = getEnvDuration("PROTODOC_WATCH_DEBOUNCE", c.Reload.Debounce)
	c.Reload.Schedule = getEnv("PROTODOC_RELOAD_SCHEDULE", c.Reload.Schedule)

	c.Observability.LogLevel = getEnv("PROTODOC_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("PROTODOC_LOG_FORMAT", c.Observability.LogFormat)
	c.Observability.MetricsEnabled = getEnvBool("PROTODOC_METRICS_ENABLED", c.Observability.MetricsEnabled)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Source.URI == "" {
		errs = append(errs, fmt.Errorf("source is required"))
	}
	if strings.HasPrefix(c.Source.URI, "s3://") && c.Source.S3.Region == "" {
		errs = append(errs, fmt.Errorf("s3 region is required for s3 sources"))
	}

	if c.Server.Port == "" {
		errs = append(errs, fmt.Errorf("server port is required"))
	} else if _, err := strconv.Atoi(c.Server.Port); err != nil {
		errs = append(errs, fmt.Errorf("server port must be numeric: %q", c.Server.Port))
	}

	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache size must not be negative"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache ttl must not be negative"))
	}

	if c.Reload.Watch && strings.HasPrefix(c.Source.URI, "s3://") {
		errs = append(errs, fmt.Errorf("watch is only supported for file sources, use a reload schedule"))
	}
	if c.Reload.Schedule != "" {
		if _, err := cron.ParseStandard(c.Reload.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("invalid reload schedule: %w", err))
		}
	}

	if _, err := logrus.ParseLevel(c.Observability.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Observability.LogLevel))
	}
	switch c.Observability.LogFormat {
	case observability.FormatText, observability.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Observability.LogFormat))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address of the server
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// S3Options returns the S3 client options of the source
func (s SourceConfig) S3Options() registry.S3Options {
	return registry.S3Options{
		Region:       s.S3.Region,
		Endpoint:     s.S3.Endpoint,
		AccessKey:    s.S3.AccessKey,
		SecretKey:    s.S3.SecretKey,
		UsePathStyle: s.S3.UsePathStyle,
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable or a default.
// Empty items are dropped.
func getEnvList(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
