package render

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestTextEngine_Render(t *testing.T) {
	tests := []struct {
		name    string
		tpl     string
		data    map[string]any
		want    string
		wantErr bool
	}{
		{
			name: "simple substitution",
			tpl:  "Receipt {{.order_number}}",
			data: map[string]any{"order_number": "A-1"},
			want: "Receipt A-1",
		},
		{
			name: "nested field",
			tpl:  "Hi {{.user.name}}",
			data: map[string]any{"user": map[string]any{"name": "Ada"}},
			want: "Hi Ada",
		},
		{
			name:    "missing key errors",
			tpl:     "Receipt {{.order_number}}",
			data:    map[string]any{},
			wantErr: true,
		},
		{
			name:    "parse error",
			tpl:     "Receipt {{.order",
			data:    map[string]any{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TextEngine{}.Render(tt.tpl, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Render() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderer_SubjectRawFallback(t *testing.T) {
	r := NewRenderer(nil, PlainShell{}, zerolog.Nop())

	got := r.Subject("Receipt {{.order_number}}", map[string]any{"order_number": "A-1"})
	if got != "Receipt A-1" {
		t.Errorf("Subject() = %q, want %q", got, "Receipt A-1")
	}

	// On render failure the raw template comes back so the token check can
	// fail the message.
	raw := r.Subject("Receipt {{.missing}}", map[string]any{})
	if raw != "Receipt {{.missing}}" {
		t.Errorf("Subject() fallback = %q, want raw template", raw)
	}
	if !HasUnresolvedTokens(raw) {
		t.Error("fallback subject not caught by token check")
	}
}

func TestRenderer_BodyWrapsFragment(t *testing.T) {
	r := NewRenderer(nil, nil, zerolog.Nop())

	body := r.Body("<p>Order {{.order_number}}</p>", map[string]any{
		"order_number": "A-1",
		"footer_text":  "Craft Fair Co",
	})
	if !strings.Contains(body, "<p>Order A-1</p>") {
		t.Errorf("Body() missing rendered fragment: %s", body)
	}
	if !strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("Body() missing email shell")
	}
	if !strings.Contains(body, "Craft Fair Co") {
		t.Error("Body() missing footer text")
	}
}

func TestRenderer_BodyRawFallback(t *testing.T) {
	r := NewRenderer(nil, PlainShell{}, zerolog.Nop())

	body := r.Body("<p>{{.missing}}</p>", map[string]any{})
	if !HasUnresolvedTokens(body) {
		t.Error("fallback body not caught by token check")
	}
}

func TestEmailShell_Wrap(t *testing.T) {
	shell := NewEmailShell()

	out := shell.Wrap("<p>hi</p>", map[string]any{
		"logo_url":        "https://cdn.example.com/logo.png",
		"accent_color":    "#ff6600",
		"unsubscribe_url": "https://dispatch.example.com/unsubscribe?token=t",
	})
	if !strings.Contains(out, `src="https://cdn.example.com/logo.png"`) {
		t.Error("Wrap() missing logo")
	}
	if !strings.Contains(out, "#ff6600") {
		t.Error("Wrap() missing accent color")
	}
	if !strings.Contains(out, `href="https://dispatch.example.com/unsubscribe?token=t"`) {
		t.Error("Wrap() missing unsubscribe link")
	}

	bare := shell.Wrap("<p>hi</p>", map[string]any{})
	if !strings.Contains(bare, "#1a1a2e") {
		t.Error("Wrap() missing default accent color")
	}
	if strings.Contains(bare, "<img") {
		t.Error("Wrap() rendered logo tag without logo_url")
	}
	if strings.Contains(bare, "Unsubscribe") {
		t.Error("Wrap() rendered unsubscribe link without URL")
	}
}
