package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestNewConfig_Defaults(t *testing.T) {
	resetFlagsAndEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected Port 8080, got %d", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel 'info', got %s", cfg.LogLevel)
	}
	if cfg.MetricsPath != "/metrics" {
		t.Errorf("Expected MetricsPath '/metrics', got %s", cfg.MetricsPath)
	}
	if cfg.Messaging.Exchange != "readability.persistent" {
		t.Errorf("Expected default exchange, got %s", cfg.Messaging.Exchange)
	}
	if cfg.Cache.TTLSmall != 7200 {
		t.Errorf("Expected default small TTL 7200, got %d", cfg.Cache.TTLSmall)
	}
	if cfg.Thresholds.Background != 20000 {
		t.Errorf("Expected default background threshold 20000, got %d", cfg.Thresholds.Background)
	}
}

func TestNewConfig_Flags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	os.Args = []string{"cmd", "--port=9090", "--log-level=debug", "--messaging-host=broker.internal"}

	resetFlagsAndEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Expected Port 9090, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel 'debug', got %s", cfg.LogLevel)
	}
	if cfg.Messaging.Host != "broker.internal" {
		t.Errorf("Expected messaging host override, got %s", cfg.Messaging.Host)
	}
}

func TestNewConfig_EnvVars(t *testing.T) {
	resetFlagsAndEnv(t)

	t.Setenv("LIXSERVICE_PORT", "9091")
	t.Setenv("LIXSERVICE_LOG_LEVEL", "warn")
	t.Setenv("LIXSERVICE_CACHE_HOST", "redis.internal")

	cfg, err := New()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != 9091 {
		t.Errorf("Expected Port 9091, got %d", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("Expected LogLevel 'warn', got %s", cfg.LogLevel)
	}
	if cfg.Cache.Host != "redis.internal" {
		t.Errorf("Expected cache host override, got %s", cfg.Cache.Host)
	}
}

func TestNewConfig_ConfigFile(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	resetFlagsAndEnv(t)

	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.json")

	configData := map[string]interface{}{
		"port":      9092,
		"log-level": "error",
	}
	fileContent, _ := json.Marshal(configData)
	os.WriteFile(configFile, fileContent, 0644)

	os.Args = []string{"cmd", "--config-file=" + configFile}

	cfg, err := New()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != 9092 {
		t.Errorf("Expected Port 9092, got %d", cfg.Port)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("Expected LogLevel 'error', got %s", cfg.LogLevel)
	}
}

func TestNewConfig_Precedence(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	// Flag (highest precedence)
	os.Args = []string{"cmd", "--port=3333"}

	resetFlagsAndEnv(t)

	// Config file
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.json")
	configData := map[string]interface{}{"port": 1111}
	fileContent, _ := json.Marshal(configData)
	os.WriteFile(configFile, fileContent, 0644)
	t.Setenv("LIXSERVICE_CONFIG_FILE", configFile)

	// Env var
	t.Setenv("LIXSERVICE_PORT", "2222")

	cfg, err := New()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != 3333 {
		t.Errorf("Expected Port 3333 (from flag), got %d", cfg.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{
			Port:        8080,
			LogLevel:    "info",
			MetricsPort: 8081,
			Thresholds:  ThresholdsConfig{Small: 1000, Large: 10000, Background: 20000},
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid", func(c *Config) {}, false},
		{"invalid log level", func(c *Config) { c.LogLevel = "invalid" }, true},
		{"invalid port zero", func(c *Config) { c.Port = 0 }, true},
		{"invalid port negative", func(c *Config) { c.Port = -1 }, true},
		{"invalid port too high", func(c *Config) { c.Port = 65536 }, true},
		{"invalid metrics port", func(c *Config) { c.MetricsPort = 0 }, true},
		{"small not less than large", func(c *Config) { c.Thresholds.Small = 10000 }, true},
		{"large not less than background", func(c *Config) { c.Thresholds.Large = 20000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.expectError {
				t.Errorf("Validate() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

// resetFlagsAndEnv resets pflag and environment variables for a clean test run.
func resetFlagsAndEnv(t *testing.T) {
	t.Helper()
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	os.Clearenv()
}
