package provider

import (
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty type", Config{}, true},
		{"unknown type", Config{Type: "carrier-pigeon"}, true},
		{"stdout needs nothing", Config{Type: "stdout"}, false},
		{"sendgrid with key", Config{Type: "sendgrid", APIKey: "k"}, false},
		{"sendgrid without key", Config{Type: "sendgrid"}, true},
		{"mailgun complete", Config{Type: "mailgun", APIKey: "k", Domain: "d"}, false},
		{"mailgun without domain", Config{Type: "mailgun", APIKey: "k"}, true},
		{"mailgun without key", Config{Type: "mailgun", Domain: "d"}, true},
		{"smtp with host", Config{Type: "smtp", SMTPHost: "mail.example.com"}, false},
		{"smtp without host", Config{Type: "smtp"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateDefaults(t *testing.T) {
	cfg := Config{Type: "smtp", SMTPHost: "mail.example.com"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
}

func TestNew(t *testing.T) {
	client := &mockHTTPClient{}

	tests := []struct {
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{Config{Type: "sendgrid", APIKey: "k"}, "sendgrid", false},
		{Config{Type: "mailgun", APIKey: "k", Domain: "d"}, "mailgun", false},
		{Config{Type: "smtp", SMTPHost: "h"}, "smtp", false},
		{Config{Type: "stdout"}, "stdout", false},
		{Config{Type: "nope"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Type, func(t *testing.T) {
			p, err := New(tt.cfg, client)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p.GetName() != tt.wantName {
				t.Errorf("GetName() = %s, want %s", p.GetName(), tt.wantName)
			}
		})
	}
}
