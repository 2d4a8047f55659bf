package preference

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/craftfair/dispatch/internal/template"
)

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "https://dispatch.example.com/unsubscribe", time.Hour)

	token, err := issuer.Issue("user", "buyer@example.com", template.CategoryMarketing)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.RecipientType != "user" {
		t.Errorf("RecipientType = %s, want user", claims.RecipientType)
	}
	if claims.Recipient != "buyer@example.com" {
		t.Errorf("Recipient = %s, want buyer@example.com", claims.Recipient)
	}
	if claims.Category != string(template.CategoryMarketing) {
		t.Errorf("Category = %s, want %s", claims.Category, template.CategoryMarketing)
	}
}

func TestTokenIssuer_RejectsWrongKey(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", "", time.Hour)
	other := NewTokenIssuer("secret-b", "", time.Hour)

	token, err := issuer.Issue("user", "x@y.com", template.CategoryMarketing)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := other.Parse(token); err == nil {
		t.Error("Parse() with wrong key succeeded, want error")
	}
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", "", -time.Hour)
	// A non-positive ttl falls back to the default, so build an expired
	// issuer explicitly.
	issuer.ttl = -time.Hour

	token, err := issuer.Issue("user", "x@y.com", template.CategoryOperational)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := issuer.Parse(token); err == nil {
		t.Error("Parse() of expired token succeeded, want error")
	}
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("secret", "", time.Hour)
	if _, err := issuer.Parse("not-a-jwt"); err == nil {
		t.Error("Parse() of garbage succeeded, want error")
	}
}

func TestTokenIssuer_LinkFor(t *testing.T) {
	issuer := NewTokenIssuer("secret", "https://dispatch.example.com/unsubscribe", time.Hour)

	link := issuer.LinkFor("user", "buyer@example.com", template.CategoryMarketing)
	if !strings.HasPrefix(link, "https://dispatch.example.com/unsubscribe?token=") {
		t.Fatalf("LinkFor() = %s, want unsubscribe URL with token param", link)
	}

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	claims, err := issuer.Parse(u.Query().Get("token"))
	if err != nil {
		t.Fatalf("Parse() of embedded token error = %v", err)
	}
	if claims.Recipient != "buyer@example.com" {
		t.Errorf("embedded Recipient = %s, want buyer@example.com", claims.Recipient)
	}
}

func TestTokenIssuer_LinkForWithoutBaseURL(t *testing.T) {
	issuer := NewTokenIssuer("secret", "", time.Hour)
	if link := issuer.LinkFor("user", "x@y.com", template.CategoryMarketing); link != "" {
		t.Errorf("LinkFor() without base URL = %s, want empty", link)
	}
}
