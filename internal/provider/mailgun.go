package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

const mailgunDefaultEndpoint = "https://api.mailgun.net"

// Mailgun implements Provider for the Mailgun messages API.
type Mailgun struct {
	apiKey    string
	domain    string
	endpoint  string
	fromEmail string
	fromName  string
	client    HTTPClient
}

// NewMailgun creates a Mailgun provider from the given configuration.
func NewMailgun(cfg Config, client HTTPClient) *Mailgun {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = mailgunDefaultEndpoint
	}
	return &Mailgun{
		apiKey:    cfg.APIKey,
		domain:    cfg.Domain,
		endpoint:  endpoint,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		client:    client,
	}
}

func (m *Mailgun) GetName() string { return "mailgun" }

type mailgunResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send delivers a message via the Mailgun messages API.
// Attachments require multipart encoding and are not supported on this
// provider; configure sendgrid or smtp for templates that attach files.
func (m *Mailgun) Send(ctx context.Context, msg *Message) (*Result, error) {
	form := m.buildForm(msg)

	resp, err := m.client.Do(&HTTPRequest{
		Method: "POST",
		URL:    fmt.Sprintf("%s/v3/%s/messages", m.endpoint, m.domain),
		Headers: map[string]string{
			"Authorization": "Basic " + basicAuth("api", m.apiKey),
			"Content-Type":  "application/x-www-form-urlencoded",
		},
		Body: []byte(form.Encode()),
	})
	if err != nil {
		return nil, fmt.Errorf("mailgun: send request: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var mgResp mailgunResponse
		messageID := ""
		if err := json.Unmarshal(resp.Body, &mgResp); err == nil {
			messageID = mgResp.ID
		}
		return &Result{
			ProviderMessageID: messageID,
			Timestamp:         time.Now(),
			Metadata: map[string]string{
				"message":     mgResp.Message,
				"status_code": fmt.Sprintf("%d", resp.StatusCode),
			},
		}, nil
	}

	return nil, ClassifyHTTPError("mailgun", resp.StatusCode, string(resp.Body))
}

// HealthCheck verifies Mailgun API connectivity by requesting domain info.
func (m *Mailgun) HealthCheck(ctx context.Context) error {
	resp, err := m.client.Do(&HTTPRequest{
		Method: "GET",
		URL:    fmt.Sprintf("%s/v3/domains/%s", m.endpoint, m.domain),
		Headers: map[string]string{
			"Authorization": "Basic " + basicAuth("api", m.apiKey),
		},
	})
	if err != nil {
		return fmt.Errorf("mailgun: health check request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mailgun: health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (m *Mailgun) buildForm(msg *Message) url.Values {
	fromEmail := msg.FromEmail
	if fromEmail == "" {
		fromEmail = m.fromEmail
	}
	fromName := msg.FromName
	if fromName == "" {
		fromName = m.fromName
	}

	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}

	form := url.Values{}
	form.Set("from", from)
	form.Set("to", msg.To)
	form.Set("subject", msg.Subject)
	if msg.TextBody != "" {
		form.Set("text", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		form.Set("html", msg.HTMLBody)
	}
	if msg.ReplyTo != "" {
		form.Set("h:Reply-To", msg.ReplyTo)
	}
	return form
}

func basicAuth(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
}
