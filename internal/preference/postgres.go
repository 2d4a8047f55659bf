package preference

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Store backed by recipient_preferences.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore on the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, recipientType, recipient string) (*Preference, error) {
	var p Preference
	err := s.pool.QueryRow(ctx, `
		SELECT recipient_type, recipient, marketing_opt_out, operational_reminder_opt_out, updated_at
		FROM recipient_preferences
		WHERE recipient_type = $1 AND recipient = $2`,
		recipientType, recipient,
	).Scan(&p.RecipientType, &p.Recipient, &p.MarketingOptOut, &p.OperationalReminderOptOut, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("preference: get: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Set(ctx context.Context, pref *Preference) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO recipient_preferences
			(recipient_type, recipient, marketing_opt_out, operational_reminder_opt_out, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (recipient_type, recipient) DO UPDATE SET
			marketing_opt_out = EXCLUDED.marketing_opt_out,
			operational_reminder_opt_out = EXCLUDED.operational_reminder_opt_out,
			updated_at = now()`,
		pref.RecipientType, pref.Recipient, pref.MarketingOptOut, pref.OperationalReminderOptOut,
	)
	if err != nil {
		return fmt.Errorf("preference: set: %w", err)
	}
	return nil
}
