package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code raised when an insert hits the
// partial unique index on (template, recipient, context_fingerprint) for
// non-terminal statuses. That index is what makes dedup absolute under
// concurrent Enqueue calls.
const uniqueViolation = "23505"

// PostgresStore is the production Store backed by the dispatch_messages table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore on the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, msg *Message) error {
	contextJSON, err := json.Marshal(msg.Context)
	if err != nil {
		return fmt.Errorf("record: marshal context: %w", err)
	}

	id, err := uuid.Parse(msg.ID)
	if err != nil {
		return fmt.Errorf("record: parse id %q: %w", msg.ID, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO dispatch_messages
			(id, template, channel, recipient, language, context, context_fingerprint,
			 scheduled_for, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10)`,
		id, msg.Template, msg.Channel, msg.Recipient, msg.Language, contextJSON,
		msg.ContextFingerprint, msg.ScheduledFor, string(msg.Status), msg.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("record: insert message: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Message, error) {
	row := s.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id)
	return scanMessage(row)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM dispatch_messages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("record: delete message: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindActive(ctx context.Context, template, recipient, fingerprint string) (*Message, error) {
	row := s.pool.QueryRow(ctx, selectColumns+`
		WHERE template = $1 AND recipient = $2 AND context_fingerprint = $3
		  AND status IN ('queued', 'sent')
		LIMIT 1`,
		template, recipient, fingerprint,
	)
	return scanMessage(row)
}

func (s *PostgresStore) MarkSent(ctx context.Context, id, providerName, providerMessageID string, sentAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE dispatch_messages
		SET status = 'sent', attempts = attempts + 1, sent_at = $2,
		    provider_name = $3, provider_message_id = $4
		WHERE id = $1 AND status = 'queued'`,
		id, sentAt, providerName, providerMessageID,
	)
	if err != nil {
		return fmt.Errorf("record: mark sent: %w", err)
	}
	return s.checkTransitioned(ctx, id, tag)
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id string, countAttempt bool) error {
	increment := 0
	if countAttempt {
		increment = 1
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE dispatch_messages
		SET status = 'failed', attempts = attempts + $2
		WHERE id = $1 AND status = 'queued'`,
		id, increment,
	)
	if err != nil {
		return fmt.Errorf("record: mark failed: %w", err)
	}
	return s.checkTransitioned(ctx, id, tag)
}

func (s *PostgresStore) MarkSuppressed(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE dispatch_messages
		SET status = 'suppressed'
		WHERE id = $1 AND status = 'queued'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("record: mark suppressed: %w", err)
	}
	return s.checkTransitioned(ctx, id, tag)
}

func (s *PostgresStore) ListByRecipient(ctx context.Context, recipient string, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, selectColumns+`
		WHERE recipient = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		recipient, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("record: list by recipient: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// checkTransitioned distinguishes "no queued row" into not-found vs already
// terminal after a conditional update matched nothing.
func (s *PostgresStore) checkTransitioned(ctx context.Context, id string, tag pgconn.CommandTag) error {
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM dispatch_messages WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("record: check message existence: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrTerminal
}

const selectColumns = `
	SELECT id, template, channel, recipient, language, context, context_fingerprint,
	       scheduled_for, status, attempts, created_at, sent_at, provider_name, provider_message_id
	FROM dispatch_messages`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*Message, error) {
	var (
		msg          Message
		id           uuid.UUID
		contextJSON  []byte
		status       string
		sentAt       *time.Time
		providerName *string
		providerMsg  *string
	)

	err := row.Scan(
		&id, &msg.Template, &msg.Channel, &msg.Recipient, &msg.Language,
		&contextJSON, &msg.ContextFingerprint, &msg.ScheduledFor, &status,
		&msg.Attempts, &msg.CreatedAt, &sentAt, &providerName, &providerMsg,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("record: scan message: %w", err)
	}

	msg.ID = id.String()
	msg.Status = Status(status)
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &msg.Context); err != nil {
			return nil, fmt.Errorf("record: unmarshal context: %w", err)
		}
	}
	if sentAt != nil {
		msg.SentAt = *sentAt
	}
	if providerName != nil {
		msg.ProviderName = *providerName
	}
	if providerMsg != nil {
		msg.ProviderMessageID = *providerMsg
	}
	return &msg, nil
}
