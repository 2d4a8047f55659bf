// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/craftfair/dispatch/internal/attachstore"
	"github.com/craftfair/dispatch/internal/provider"
	"github.com/craftfair/dispatch/internal/queue"
)

// Config holds all application configuration.
type Config struct {
	API         APIConfig         `mapstructure:"api"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Queue       queue.Config      `mapstructure:"queue"`
	Provider    provider.Config   `mapstructure:"provider"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
	Brand       BrandConfig       `mapstructure:"brand"`
	Unsubscribe UnsubscribeConfig `mapstructure:"unsubscribe"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Templates   []TemplateConfig  `mapstructure:"templates"`
}

// APIConfig holds REST API server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	MetricsPort  int           `mapstructure:"metrics_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	PoolMin        int32         `mapstructure:"pool_min"`
	PoolMax        int32         `mapstructure:"pool_max"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Output    string `mapstructure:"output"` // stdout or file
	FilePath  string `mapstructure:"file_path"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

// AttachmentsConfig holds attachment store configuration.
type AttachmentsConfig struct {
	Type       string `mapstructure:"type"` // local or s3
	Path       string `mapstructure:"path"`
	S3Bucket   string `mapstructure:"s3_bucket"`
	S3Prefix   string `mapstructure:"s3_prefix"`
	S3Endpoint string `mapstructure:"s3_endpoint"`
	S3Region   string `mapstructure:"s3_region"`
}

// StoreConfig converts to the attachstore package's config type.
func (c AttachmentsConfig) StoreConfig() attachstore.Config {
	return attachstore.Config{
		Type:       c.Type,
		Path:       c.Path,
		S3Bucket:   c.S3Bucket,
		S3Prefix:   c.S3Prefix,
		S3Endpoint: c.S3Endpoint,
		S3Region:   c.S3Region,
	}
}

// BrandConfig holds the platform-default brand presentation fields, used
// when a message has no vendor-scoped branding.
type BrandConfig struct {
	FromName    string `mapstructure:"from_name"`
	FromEmail   string `mapstructure:"from_email"`
	ReplyTo     string `mapstructure:"reply_to"`
	LogoURL     string `mapstructure:"logo_url"`
	AccentColor string `mapstructure:"accent_color"`
	FooterText  string `mapstructure:"footer_text"`
}

// UnsubscribeConfig holds one-click unsubscribe token configuration.
type UnsubscribeConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	BaseURL    string        `mapstructure:"base_url"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// AuthConfig holds admin API authentication configuration.
type AuthConfig struct {
	APIKeys []APIKeyConfig `mapstructure:"api_keys"`
}

// APIKeyConfig is one named API key. Hash is a bcrypt hash of the raw key.
type APIKeyConfig struct {
	Name string `mapstructure:"name"`
	Hash string `mapstructure:"hash"`
}

// TemplateConfig is one message template definition. Category is not
// configurable: it comes from the static classification table.
type TemplateConfig struct {
	Key        string            `mapstructure:"key"`
	Enabled    bool              `mapstructure:"enabled"`
	Subject    string            `mapstructure:"subject"`
	Body       string            `mapstructure:"body"`
	LinkParams map[string]string `mapstructure:"link_params"`
}

// Load reads configuration from the given config directory path.
// It looks for a file named "config.yaml" in that directory.
// Environment variables with prefix DISPATCH_ override file values.
// For example, DISPATCH_DATABASE_URL overrides database.url.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix("DISPATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.metrics_port", 9090)
	v.SetDefault("api.read_timeout", 10*time.Second)
	v.SetDefault("api.write_timeout", 30*time.Second)

	v.SetDefault("database.pool_min", 2)
	v.SetDefault("database.pool_max", 10)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "stdout")

	qd := queue.DefaultConfig()
	v.SetDefault("queue.type", "redis")
	v.SetDefault("queue.redis_addr", qd.RedisAddr)
	v.SetDefault("queue.group_name", qd.GroupName)
	v.SetDefault("queue.worker_count", qd.WorkerCount)
	v.SetDefault("queue.block_timeout", qd.BlockTimeout)
	v.SetDefault("queue.process_timeout", qd.ProcessTimeout)
	v.SetDefault("queue.shutdown_timeout", qd.ShutdownTimeout)
	v.SetDefault("queue.max_retries", qd.MaxRetries)

	v.SetDefault("provider.type", "stdout")
	v.SetDefault("provider.timeout", 30*time.Second)

	v.SetDefault("attachments.type", "local")
	v.SetDefault("attachments.path", "/var/lib/dispatch/attachments")

	v.SetDefault("unsubscribe.token_ttl", 90*24*time.Hour)
}
