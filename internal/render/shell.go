package render

import "strings"

// Shell wraps a rendered body fragment in the structural email chrome. The
// renderer does not own the chrome; presentation layers provide their own
// Shell when the default does not fit.
type Shell interface {
	Wrap(fragment string, data map[string]any) string
}

// EmailShell is the default Shell: a minimal table-free HTML wrapper showing
// the brand logo, accent color, and footer text when present in the context.
type EmailShell struct{}

// NewEmailShell creates the default shell.
func NewEmailShell() *EmailShell {
	return &EmailShell{}
}

// Wrap surrounds the fragment with header and footer chrome.
func (*EmailShell) Wrap(fragment string, data map[string]any) string {
	logo := stringField(data, "logo_url")
	accent := stringField(data, "accent_color")
	footer := stringField(data, "footer_text")
	unsubscribe := stringField(data, "unsubscribe_url")

	if accent == "" {
		accent = "#1a1a2e"
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body style="margin:0;padding:0;background:#f4f4f7;">`)
	b.WriteString(`<div style="max-width:600px;margin:0 auto;background:#ffffff;">`)
	b.WriteString(`<div style="padding:16px 24px;border-top:4px solid ` + accent + `;">`)
	if logo != "" {
		b.WriteString(`<img src="` + logo + `" alt="" style="max-height:48px;"/>`)
	}
	b.WriteString(`</div><div style="padding:8px 24px 24px;">`)
	b.WriteString(fragment)
	b.WriteString(`</div><div style="padding:16px 24px;color:#6b6b76;font-size:12px;border-top:1px solid #ececf1;">`)
	if footer != "" {
		b.WriteString(`<p>` + footer + `</p>`)
	}
	if unsubscribe != "" {
		b.WriteString(`<p><a href="` + unsubscribe + `">Unsubscribe</a></p>`)
	}
	b.WriteString(`</div></div></body></html>`)
	return b.String()
}

// PlainShell returns the fragment unchanged. Used by tests and by callers
// that compose their own chrome downstream.
type PlainShell struct{}

func (PlainShell) Wrap(fragment string, _ map[string]any) string { return fragment }

func stringField(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
