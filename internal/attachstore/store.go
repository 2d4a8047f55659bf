// Package attachstore provides storage backends for message attachments.
//
// Attachment payloads are held out of band so message records stay small:
// callers upload bytes at enqueue time, record the returned reference in the
// message context, and the dispatcher fetches payloads back just before the
// provider send.
package attachstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a requested attachment does not exist.
var ErrNotFound = errors.New("attachstore: attachment not found")

// Ref identifies a stored attachment along with the metadata needed to
// reconstruct it for delivery. Refs are embedded in the message context
// under the reserved attachments key.
type Ref struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// Store defines the interface for attachment storage backends.
type Store interface {
	Put(ctx context.Context, attachmentID string, data []byte) error
	Get(ctx context.Context, attachmentID string) ([]byte, error)
	Delete(ctx context.Context, attachmentID string) error
}

// NewID returns a fresh attachment identifier.
func NewID() string {
	return uuid.New().String()
}

// Config holds configuration for creating a Store.
type Config struct {
	Type       string // "local" or "s3"
	Path       string // base directory for local store
	S3Bucket   string
	S3Prefix   string
	S3Endpoint string
	S3Region   string
}

// New creates a Store based on the provided configuration.
// If Type is empty or unsupported, it defaults to local storage and logs a warning.
func New(cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Type {
	case "local":
		return NewLocalStore(cfg.Path)
	case "s3":
		return NewS3StoreFromConfig(cfg)
	default:
		logger.Warn().
			Str("type", cfg.Type).
			Msg("unsupported or empty attachment store type, defaulting to local")
		return NewLocalStore(cfg.Path)
	}
}

// RefsFromContext decodes attachment references out of a message context
// value. The stored form is []any of map[string]any after a JSON round trip,
// so both the typed and decoded shapes are accepted.
func RefsFromContext(v any) ([]Ref, error) {
	switch refs := v.(type) {
	case nil:
		return nil, nil
	case []Ref:
		return refs, nil
	case []any:
		out := make([]Ref, 0, len(refs))
		for _, item := range refs {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("attachstore: invalid attachment ref %T", item)
			}
			ref := Ref{}
			ref.ID, _ = m["id"].(string)
			ref.Filename, _ = m["filename"].(string)
			ref.ContentType, _ = m["content_type"].(string)
			if ref.ID == "" {
				return nil, errors.New("attachstore: attachment ref missing id")
			}
			out = append(out, ref)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("attachstore: invalid attachment refs %T", v)
	}
}
