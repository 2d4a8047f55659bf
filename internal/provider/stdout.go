package provider

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Stdout implements Provider by printing messages to standard output.
// Intended for development; nothing is actually delivered.
type Stdout struct {
	writer io.Writer
}

// NewStdout creates a Stdout provider writing to os.Stdout.
func NewStdout(_ Config) *Stdout {
	return &Stdout{writer: os.Stdout}
}

func (s *Stdout) GetName() string { return "stdout" }

// Send prints the message details and returns a successful result.
func (s *Stdout) Send(_ context.Context, msg *Message) (*Result, error) {
	var b strings.Builder
	b.WriteString("--- stdout provider: message ---\n")
	fmt.Fprintf(&b, "ID:       %s\n", msg.ID)
	fmt.Fprintf(&b, "To:       %s\n", msg.To)
	fmt.Fprintf(&b, "From:     %s <%s>\n", msg.FromName, msg.FromEmail)
	fmt.Fprintf(&b, "Subject:  %s\n", msg.Subject)
	fmt.Fprintf(&b, "Language: %s\n", msg.Language)
	fmt.Fprintf(&b, "Body:     (%d bytes html)\n", len(msg.HTMLBody))
	for _, att := range msg.Attachments {
		fmt.Fprintf(&b, "Attach:   %s (%s, %d bytes)\n", att.Filename, att.ContentType, len(att.Content))
	}
	b.WriteString("--- end ---\n")

	if _, err := io.WriteString(s.writer, b.String()); err != nil {
		return nil, fmt.Errorf("stdout: write: %w", err)
	}

	return &Result{
		ProviderMessageID: "stdout-" + msg.ID,
		Timestamp:         time.Now(),
	}, nil
}

// HealthCheck always returns nil since stdout is always available.
func (s *Stdout) HealthCheck(_ context.Context) error {
	return nil
}
