// Package provider abstracts outbound delivery transports and resolves
// which provider handles a given message.
package provider

import (
	"context"
	"time"
)

// Provider is the delivery gateway capability: it performs the actual
// network send for one message.
type Provider interface {
	// Send delivers a message and returns a delivery result.
	Send(ctx context.Context, msg *Message) (*Result, error)
	// GetName returns the provider's identifier (e.g., "sendgrid", "smtp").
	GetName() string
	// HealthCheck verifies the provider is reachable and functional.
	HealthCheck(ctx context.Context) error
}

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(req *HTTPRequest) (*HTTPResponse, error)
}

// HTTPRequest represents an outgoing HTTP request to a provider API.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// HTTPResponse represents an HTTP response from a provider API.
type HTTPResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Message is the fully rendered payload handed to a provider.
type Message struct {
	ID          string
	To          string
	Subject     string
	HTMLBody    string
	TextBody    string
	Language    string
	Attachments []Attachment

	// Sender identity overrides supplied by the brand resolver. Empty
	// fields fall back to the provider's configured defaults.
	FromName  string
	FromEmail string
	ReplyTo   string

	Headers map[string]string
}

// Attachment is a file attached to an outbound message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Result contains the outcome of a successful delivery attempt.
type Result struct {
	ProviderMessageID string
	Timestamp         time.Time
	Metadata          map[string]string
}
