package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	t.Setenv("PROTODOC_TEST_VAR", "custom")

	assert.Equal(t, "custom", getEnv("PROTODOC_TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("PROTODOC_TEST_VAR_NOT_SET", "default"))
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{name: "true string", envValue: "true", want: true},
		{name: "uppercase TRUE", envValue: "TRUE", want: true},
		{name: "one", envValue: "1", want: true},
		{name: "false string", envValue: "false", defaultValue: true, want: false},
		{name: "unset uses default", envValue: "", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PROTODOC_TEST_BOOL", tt.envValue)
			assert.Equal(t, tt.want, getEnvBool("PROTODOC_TEST_BOOL", tt.defaultValue))
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	t.Setenv("PROTODOC_TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("PROTODOC_TEST_INT", 7))

	t.Setenv("PROTODOC_TEST_INT", "forty-two")
	assert.Equal(t, 7, getEnvInt("PROTODOC_TEST_INT", 7))
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	t.Setenv("PROTODOC_TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getEnvDuration("PROTODOC_TEST_DURATION", time.Second))

	t.Setenv("PROTODOC_TEST_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvDuration("PROTODOC_TEST_DURATION", time.Second))
}

// TestGetEnvList tests the getEnvList helper function
func TestGetEnvList(t *testing.T) {
	assert.Nil(t, getEnvList("PROTODOC_TEST_LIST_NOT_SET", nil))

	t.Setenv("PROTODOC_TEST_LIST", " .a.B , ,.c.D")
	assert.Equal(t, []string{".a.B", ".c.D"}, getEnvList("PROTODOC_TEST_LIST", nil))

	t.Setenv("PROTODOC_TEST_LIST", "")
	assert.Equal(t, []string{}, getEnvList("PROTODOC_TEST_LIST", []string{"x"}))
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 1024, cfg.Cache.Size)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.Nil(t, cfg.Schema.Exclusions)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "protodoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source:
  uri: ./api.binpb
  strict: true
server:
  port: "9000"
  read_timeout: 5s
schema:
  exclusions: [".google.protobuf.Timestamp"]
reload:
  watch: true
  debounce: 2s
observability:
  log_format: json
`), 0o644))

	t.Setenv("PROTODOC_PORT", "9100")
	t.Setenv("PROTODOC_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./api.binpb", cfg.Source.URI)
	assert.True(t, cfg.Source.Strict)
	assert.Equal(t, "9100", cfg.Server.Port, "environment wins over file")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, []string{".google.protobuf.Timestamp"}, cfg.Schema.Exclusions)
	assert.True(t, cfg.Reload.Watch)
	assert.Equal(t, 2*time.Second, cfg.Reload.Debounce)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PROTODOC_SOURCE=from-dotenv.binpb\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PROTODOC_SOURCE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.binpb", cfg.Source.URI)
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

// TestConfigValidate tests configuration validation
func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Source.URI = "api.binpb"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing source", mutate: func(c *Config) { c.Source.URI = "" }, wantErr: "source is required"},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "server port is required"},
		{name: "non numeric port", mutate: func(c *Config) { c.Server.Port = "http" }, wantErr: "must be numeric"},
		{name: "negative cache", mutate: func(c *Config) { c.Cache.Size = -1 }, wantErr: "cache size"},
		{name: "bad schedule", mutate: func(c *Config) { c.Reload.Schedule = "every day" }, wantErr: "invalid reload schedule"},
		{name: "descriptor schedule", mutate: func(c *Config) { c.Reload.Schedule = "@every 5m" }},
		{
			name: "watch s3",
			mutate: func(c *Config) {
				c.Source.URI = "s3://bucket/api.binpb"
				c.Reload.Watch = true
			},
			wantErr: "watch is only supported for file sources",
		},
		{name: "bad log level", mutate: func(c *Config) { c.Observability.LogLevel = "loud" }, wantErr: "invalid log level"},
		{name: "bad log format", mutate: func(c *Config) { c.Observability.LogFormat = "xml" }, wantErr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSourceConfig_S3Options(t *testing.T) {
	src := SourceConfig{S3: S3Config{Region: "eu-west-1", Endpoint: "http://minio:9000", UsePathStyle: true}}
	opts := src.S3Options()
	assert.Equal(t, "eu-west-1", opts.Region)
	assert.Equal(t, "http://minio:9000", opts.Endpoint)
	assert.True(t, opts.UsePathStyle)
}
