package brand

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads vendor brand rows from vendor_brands.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore on the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetByVendor(ctx context.Context, vendorID string) (*Brand, error) {
	var b Brand
	err := s.pool.QueryRow(ctx, `
		SELECT from_name, from_email, reply_to, logo_url, accent_color, footer_text
		FROM vendor_brands
		WHERE vendor_id = $1`,
		vendorID,
	).Scan(&b.FromName, &b.FromEmail, &b.ReplyTo, &b.LogoURL, &b.AccentColor, &b.FooterText)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("brand: get by vendor: %w", err)
	}
	return &b, nil
}
