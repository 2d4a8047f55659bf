// Package brand resolves the sender identity and presentation fields merged
// into the render context before body rendering.
package brand

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no brand row exists for a vendor.
var ErrNotFound = errors.New("brand: not found")

// Brand carries sender identity overrides and presentation fields.
type Brand struct {
	FromName    string
	FromEmail   string
	ReplyTo     string
	LogoURL     string
	AccentColor string
	FooterText  string
}

// Resolver resolves the brand for a message from its context. The engine
// treats the resolver as optional: a nil resolver means no brand merge.
type Resolver interface {
	Resolve(ctx context.Context, messageContext map[string]any) (*Brand, error)
}

// MergeInto copies the presentation fields into the render context under
// well-known keys, without overwriting caller-supplied values.
func (b *Brand) MergeInto(data map[string]any) {
	merge := func(key, val string) {
		if val == "" {
			return
		}
		if _, exists := data[key]; !exists {
			data[key] = val
		}
	}
	merge("logo_url", b.LogoURL)
	merge("accent_color", b.AccentColor)
	merge("footer_text", b.FooterText)
	merge("from_name", b.FromName)
}

// StaticResolver always returns the same brand. Used as the platform-wide
// default when no vendor-scoped branding is configured.
type StaticResolver struct {
	brand Brand
}

// NewStaticResolver creates a StaticResolver for the given brand.
func NewStaticResolver(b Brand) *StaticResolver {
	return &StaticResolver{brand: b}
}

func (r *StaticResolver) Resolve(_ context.Context, _ map[string]any) (*Brand, error) {
	cp := r.brand
	return &cp, nil
}

// vendorIDFromContext extracts the vendor scoping key used by vendor-aware
// resolvers. Messages without a vendor get platform defaults.
func vendorIDFromContext(messageContext map[string]any) string {
	if v, ok := messageContext["vendor_id"].(string); ok {
		return v
	}
	return ""
}
