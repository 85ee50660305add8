package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every group spec.md §6 enumerates from environment/flags.
type Config struct {
	Port        int    `mapstructure:"port"`
	LogLevel    string `mapstructure:"log-level"`
	MetricsPath string `mapstructure:"metrics-path"`
	MetricsPort int    `mapstructure:"metrics-port"`
	TLSCertFile string `mapstructure:"tls-cert-file"`
	TLSKeyFile  string `mapstructure:"tls-key-file"`
	AuthToken   string `mapstructure:"auth-token"`

	Messaging  MessagingConfig  `mapstructure:",squash"`
	Cache      CacheConfig      `mapstructure:",squash"`
	Thresholds ThresholdsConfig `mapstructure:",squash"`

	MetricsEnabled bool `mapstructure:"metrics-enabled"`
}

// MessagingConfig is the persistent-queue adapter's connection and
// topology settings.
type MessagingConfig struct {
	Host          string `mapstructure:"messaging-host"`
	Port          string `mapstructure:"messaging-port"`
	User          string `mapstructure:"messaging-user"`
	Password      string `mapstructure:"messaging-password"`
	VHost         string `mapstructure:"messaging-vhost"`
	QueueName     string `mapstructure:"messaging-queue-name"`
	Exchange      string `mapstructure:"messaging-exchange"`
	RoutingKey    string `mapstructure:"messaging-routing-key"`
	PrefetchCount int    `mapstructure:"messaging-prefetch-count"`
}

// CacheConfig is the Redis-backed cache layer's connection and TTL
// settings.
type CacheConfig struct {
	Host      string `mapstructure:"cache-host"`
	Port      string `mapstructure:"cache-port"`
	DB        int    `mapstructure:"cache-db"`
	Password  string `mapstructure:"cache-password"`
	TTLDefault int   `mapstructure:"cache-ttl-default"`
	TTLSmall  int    `mapstructure:"cache-ttl-small"`
	TTLLarge  int    `mapstructure:"cache-ttl-large"`
}

// ThresholdsConfig tunes the text-size classification and backgrounding
// cutoffs.
type ThresholdsConfig struct {
	Small      int `mapstructure:"threshold-small"`
	Large      int `mapstructure:"threshold-large"`
	Background int `mapstructure:"threshold-background"`
}

// New creates a new Config object from flags, environment (LIXSERVICE_
// prefix), and an optional config file, in descending precedence: a flag
// set on the command line beats the environment, which beats the file.
func New() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", 8080)
	v.SetDefault("log-level", "info")
	v.SetDefault("metrics-path", "/metrics")
	v.SetDefault("metrics-port", 8081)
	v.SetDefault("tls-cert-file", "")
	v.SetDefault("tls-key-file", "")
	v.SetDefault("auth-token", "")
	v.SetDefault("metrics-enabled", true)

	v.SetDefault("messaging-host", "localhost")
	v.SetDefault("messaging-port", "5672")
	v.SetDefault("messaging-user", "guest")
	v.SetDefault("messaging-password", "guest")
	v.SetDefault("messaging-vhost", "/")
	v.SetDefault("messaging-queue-name", "readability.lix.critical")
	v.SetDefault("messaging-exchange", "readability.persistent")
	v.SetDefault("messaging-routing-key", "lix.critical")
	v.SetDefault("messaging-prefetch-count", 10)

	v.SetDefault("cache-host", "localhost")
	v.SetDefault("cache-port", "6379")
	v.SetDefault("cache-db", 0)
	v.SetDefault("cache-password", "")
	v.SetDefault("cache-ttl-default", 3600)
	v.SetDefault("cache-ttl-small", 7200)
	v.SetDefault("cache-ttl-large", 1800)

	v.SetDefault("threshold-small", 1000)
	v.SetDefault("threshold-large", 10000)
	v.SetDefault("threshold-background", 20000)

	pflag.Int("port", 8080, "Listening port")
	pflag.String("log-level", "info", "Logging level (debug, info, warn, error)")
	pflag.String("metrics-path", "/metrics", "Metrics endpoint path")
	pflag.Int("metrics-port", 8081, "Metrics server port")
	pflag.String("tls-cert-file", "", "Path to TLS certificate file")
	pflag.String("tls-key-file", "", "Path to TLS key file")
	pflag.String("auth-token", "", "Shared key authenticating non-bus requests")
	pflag.Bool("metrics-enabled", true, "Enable the Prometheus metrics server")

	pflag.String("messaging-host", "localhost", "AMQP broker host")
	pflag.String("messaging-port", "5672", "AMQP broker port")
	pflag.String("messaging-user", "guest", "AMQP user")
	pflag.String("messaging-password", "guest", "AMQP password")
	pflag.String("messaging-vhost", "/", "AMQP virtual host")
	pflag.String("messaging-queue-name", "readability.lix.critical", "Durable queue name")
	pflag.String("messaging-exchange", "readability.persistent", "Durable direct exchange name")
	pflag.String("messaging-routing-key", "lix.critical", "Routing key binding the queue to the exchange")
	pflag.Int("messaging-prefetch-count", 10, "Consumer QoS prefetch count")

	pflag.String("cache-host", "localhost", "Redis host")
	pflag.String("cache-port", "6379", "Redis port")
	pflag.Int("cache-db", 0, "Redis logical database index")
	pflag.String("cache-password", "", "Redis password")
	pflag.Int("cache-ttl-default", 3600, "Default cache TTL in seconds")
	pflag.Int("cache-ttl-small", 7200, "Cache TTL in seconds for small texts")
	pflag.Int("cache-ttl-large", 1800, "Cache TTL in seconds for large/huge texts")

	pflag.Int("threshold-small", 1000, "Character length below which a text is 'small'")
	pflag.Int("threshold-large", 10000, "Character length above which a text is 'large'")
	pflag.Int("threshold-background", 20000, "Character length above which analysis backgrounds")

	pflag.String("config-file", "", "Path to JSON config file. Can also be set with LIXSERVICE_CONFIG_FILE env var.")
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetEnvPrefix("LIXSERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile := v.GetString("config-file"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		Port:           v.GetInt("port"),
		LogLevel:       v.GetString("log-level"),
		MetricsPath:    v.GetString("metrics-path"),
		MetricsPort:    v.GetInt("metrics-port"),
		TLSCertFile:    v.GetString("tls-cert-file"),
		TLSKeyFile:     v.GetString("tls-key-file"),
		AuthToken:      v.GetString("auth-token"),
		MetricsEnabled: v.GetBool("metrics-enabled"),
		Messaging: MessagingConfig{
			Host:          v.GetString("messaging-host"),
			Port:          v.GetString("messaging-port"),
			User:          v.GetString("messaging-user"),
			Password:      v.GetString("messaging-password"),
			VHost:         v.GetString("messaging-vhost"),
			QueueName:     v.GetString("messaging-queue-name"),
			Exchange:      v.GetString("messaging-exchange"),
			RoutingKey:    v.GetString("messaging-routing-key"),
			PrefetchCount: v.GetInt("messaging-prefetch-count"),
		},
		Cache: CacheConfig{
			Host:       v.GetString("cache-host"),
			Port:       v.GetString("cache-port"),
			DB:         v.GetInt("cache-db"),
			Password:   v.GetString("cache-password"),
			TTLDefault: v.GetInt("cache-ttl-default"),
			TTLSmall:   v.GetInt("cache-ttl-small"),
			TTLLarge:   v.GetInt("cache-ttl-large"),
		},
		Thresholds: ThresholdsConfig{
			Small:      v.GetInt("threshold-small"),
			Large:      v.GetInt("threshold-large"),
			Background: v.GetInt("threshold-background"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a Config struct with default values, for tests and
// for NewTestServer-style harnesses that don't go through flag parsing.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		LogLevel:       "info",
		MetricsPath:    "/metrics",
		MetricsPort:    8081,
		MetricsEnabled: true,
		Messaging: MessagingConfig{
			Host:          "localhost",
			Port:          "5672",
			User:          "guest",
			Password:      "guest",
			VHost:         "/",
			QueueName:     "readability.lix.critical",
			Exchange:      "readability.persistent",
			RoutingKey:    "lix.critical",
			PrefetchCount: 10,
		},
		Cache: CacheConfig{
			Host:       "localhost",
			Port:       "6379",
			TTLDefault: 3600,
			TTLSmall:   7200,
			TTLLarge:   1800,
		},
		Thresholds: ThresholdsConfig{
			Small:      1000,
			Large:      10000,
			Background: 20000,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	isValidLogLevel := false
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			isValidLogLevel = true
			break
		}
	}
	if !isValidLogLevel {
		return fmt.Errorf("invalid log-level: %s, must be one of %v", c.LogLevel, validLogLevels)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d, must be between 1 and 65535", c.Port)
	}
	if c.MetricsPort <= 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics-port: %d, must be between 1 and 65535", c.MetricsPort)
	}
	if c.Thresholds.Small >= c.Thresholds.Large {
		return fmt.Errorf("invalid thresholds: small (%d) must be less than large (%d)", c.Thresholds.Small, c.Thresholds.Large)
	}
	if c.Thresholds.Large >= c.Thresholds.Background {
		return fmt.Errorf("invalid thresholds: large (%d) must be less than background (%d)", c.Thresholds.Large, c.Thresholds.Background)
	}

	return nil
}
