package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresGatewayStore reads vendor gateway rows from vendor_gateways.
// Disabled rows are treated as absent so vendors fall back to the platform
// default without deleting their configuration.
type PostgresGatewayStore struct {
	pool *pgxpool.Pool
}

// NewPostgresGatewayStore creates a PostgresGatewayStore on the given pool.
func NewPostgresGatewayStore(pool *pgxpool.Pool) *PostgresGatewayStore {
	return &PostgresGatewayStore{pool: pool}
}

// gatewaySettings holds optional fields parsed from the settings JSONB column.
type gatewaySettings struct {
	Endpoint     string `json:"endpoint,omitempty"`
	Domain       string `json:"domain,omitempty"`
	FromEmail    string `json:"from_email,omitempty"`
	FromName     string `json:"from_name,omitempty"`
	SMTPHost     string `json:"smtp_host,omitempty"`
	SMTPPort     int    `json:"smtp_port,omitempty"`
	SMTPUsername string `json:"smtp_username,omitempty"`
	SMTPPassword string `json:"smtp_password,omitempty"`
}

func (s *PostgresGatewayStore) GetByVendor(ctx context.Context, vendorID string) (*Config, error) {
	var (
		providerType string
		apiKey       *string
		enabled      bool
		settingsJSON []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT provider_type, api_key, enabled, settings
		FROM vendor_gateways
		WHERE vendor_id = $1`,
		vendorID,
	).Scan(&providerType, &apiKey, &enabled, &settingsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGatewayNotFound
		}
		return nil, fmt.Errorf("provider: get gateway: %w", err)
	}

	if !enabled {
		return nil, ErrGatewayNotFound
	}

	cfg := Config{Type: providerType}
	if apiKey != nil {
		cfg.APIKey = *apiKey
	}

	if len(settingsJSON) > 0 {
		var extra gatewaySettings
		if err := json.Unmarshal(settingsJSON, &extra); err != nil {
			return nil, fmt.Errorf("provider: unmarshal gateway settings: %w", err)
		}
		cfg.Endpoint = extra.Endpoint
		cfg.Domain = extra.Domain
		cfg.FromEmail = extra.FromEmail
		cfg.FromName = extra.FromName
		cfg.SMTPHost = extra.SMTPHost
		cfg.SMTPPort = extra.SMTPPort
		cfg.SMTPUsername = extra.SMTPUsername
		cfg.SMTPPassword = extra.SMTPPassword
	}

	return &cfg, nil
}
