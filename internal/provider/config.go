package provider

import (
	"errors"
	"time"
)

const defaultTimeout = 30 * time.Second

// Config holds configuration for a delivery provider.
type Config struct {
	// Type identifies the provider: "sendgrid", "mailgun", "smtp", "stdout".
	Type string `mapstructure:"type"`

	// APIKey is the authentication credential for HTTP providers.
	APIKey string `mapstructure:"api_key"`

	// Endpoint overrides the default API URL (useful for testing).
	Endpoint string `mapstructure:"endpoint"`

	// Timeout is the maximum duration for a send. Providers enforce it
	// themselves; the orchestrator sees a timeout only as a failed send.
	Timeout time.Duration `mapstructure:"timeout"`

	// Domain is the Mailgun sending domain.
	Domain string `mapstructure:"domain"`

	// FromEmail and FromName are the default sender identity when the
	// brand resolver supplies no override.
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`

	// SMTP relay settings.
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
}

// Validate checks that required fields are set based on provider type.
func (c *Config) Validate() error {
	if c.Type == "" {
		return errors.New("provider type is required")
	}

	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}

	switch c.Type {
	case "sendgrid":
		if c.APIKey == "" {
			return errors.New("sendgrid: api_key is required")
		}
	case "mailgun":
		if c.APIKey == "" {
			return errors.New("mailgun: api_key is required")
		}
		if c.Domain == "" {
			return errors.New("mailgun: domain is required")
		}
	case "smtp":
		if c.SMTPHost == "" {
			return errors.New("smtp: smtp_host is required")
		}
		if c.SMTPPort == 0 {
			c.SMTPPort = 587
		}
	case "stdout":
		// No configuration required.
	default:
		return errors.New("unknown provider type: " + c.Type)
	}

	return nil
}
