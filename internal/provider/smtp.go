package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

// SMTP implements Provider by relaying through an SMTP server with STARTTLS
// and PLAIN authentication. Used for vendors running their own relay.
type SMTP struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
	timeout   time.Duration
}

// NewSMTP creates an SMTP relay provider from the given configuration.
func NewSMTP(cfg Config) *SMTP {
	return &SMTP{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		timeout:   cfg.Timeout,
	}
}

func (s *SMTP) GetName() string { return "smtp" }

// Send builds a MIME message and relays it. The send timeout is enforced
// here; the caller only sees success or failure.
func (s *SMTP) Send(ctx context.Context, msg *Message) (*Result, error) {
	fromEmail := msg.FromEmail
	if fromEmail == "" {
		fromEmail = s.fromEmail
	}
	fromName := msg.FromName
	if fromName == "" {
		fromName = s.fromName
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), s.host)
	body, err := buildMIME(messageID, fromName, fromEmail, msg)
	if err != nil {
		return nil, fmt.Errorf("smtp: build mime: %w", err)
	}

	var auth sasl.Client
	if s.username != "" {
		auth = sasl.NewPlainClient("", s.username, s.password)
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	errCh := make(chan error, 1)
	go func() {
		errCh <- smtp.SendMail(addr, auth, fromEmail, []string{msg.To}, bytes.NewReader(body))
	}()

	timeout := s.timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("smtp: send canceled: %w", ctx.Err())
	case <-timer.C:
		return nil, &DeliveryError{Provider: "smtp", Message: "send timed out after " + timeout.String()}
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("smtp: send: %w", err)
		}
	}

	return &Result{
		ProviderMessageID: messageID,
		Timestamp:         time.Now(),
	}, nil
}

// HealthCheck dials the relay and quits immediately.
func (s *SMTP) HealthCheck(_ context.Context) error {
	c, err := smtp.Dial(fmt.Sprintf("%s:%d", s.host, s.port))
	if err != nil {
		return fmt.Errorf("smtp: dial: %w", err)
	}
	return c.Quit()
}

// buildMIME assembles an RFC 5322 message: a multipart/alternative body for
// text+html, wrapped in multipart/mixed when attachments are present.
func buildMIME(messageID, fromName, fromEmail string, msg *Message) ([]byte, error) {
	var buf bytes.Buffer

	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", fromName), fromEmail)
	}

	fmt.Fprintf(&buf, "Message-ID: %s\r\n", messageID)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	for k, v := range msg.Headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	buf.WriteString("MIME-Version: 1.0\r\n")

	writer := multipart.NewWriter(&buf)

	if len(msg.Attachments) == 0 {
		fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", writer.Boundary())
		if err := writeBodyParts(writer, msg); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	altBuf := &bytes.Buffer{}
	altWriter := multipart.NewWriter(altBuf)
	if err := writeBodyParts(altWriter, msg); err != nil {
		return nil, err
	}
	if err := altWriter.Close(); err != nil {
		return nil, err
	}

	altPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", altWriter.Boundary())},
	})
	if err != nil {
		return nil, err
	}
	if _, err := altPart.Write(altBuf.Bytes()); err != nil {
		return nil, err
	}

	for _, att := range msg.Attachments {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		part, err := writer.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {contentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", att.Filename)},
		})
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(att.Content)
		if _, err := part.Write([]byte(encoded)); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBodyParts(w *multipart.Writer, msg *Message) error {
	if msg.TextBody != "" {
		part, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"text/plain; charset=utf-8"},
		})
		if err != nil {
			return err
		}
		if _, err := part.Write([]byte(msg.TextBody)); err != nil {
			return err
		}
	}
	if msg.HTMLBody != "" {
		part, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"text/html; charset=utf-8"},
		})
		if err != nil {
			return err
		}
		if _, err := part.Write([]byte(msg.HTMLBody)); err != nil {
			return err
		}
	}
	return nil
}
