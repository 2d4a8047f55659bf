package brand

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestMergeInto(t *testing.T) {
	b := Brand{
		FromName:    "Craft Fair",
		LogoURL:     "https://cdn.example.com/logo.png",
		AccentColor: "#ff6600",
		FooterText:  "Craft Fair Collective",
	}

	data := map[string]any{
		// Caller-supplied value must survive the merge.
		"accent_color": "#000000",
		"order_number": "A-1",
	}
	b.MergeInto(data)

	if data["accent_color"] != "#000000" {
		t.Errorf("accent_color = %v, want caller value preserved", data["accent_color"])
	}
	if data["logo_url"] != "https://cdn.example.com/logo.png" {
		t.Errorf("logo_url = %v, want brand value", data["logo_url"])
	}
	if data["from_name"] != "Craft Fair" {
		t.Errorf("from_name = %v, want brand value", data["from_name"])
	}
	if data["footer_text"] != "Craft Fair Collective" {
		t.Errorf("footer_text = %v, want brand value", data["footer_text"])
	}
}

func TestMergeInto_EmptyFieldsSkipped(t *testing.T) {
	b := Brand{}
	data := map[string]any{}
	b.MergeInto(data)
	if len(data) != 0 {
		t.Errorf("MergeInto() added %d keys for empty brand, want 0", len(data))
	}
}

type mockBrandStore struct {
	brands map[string]*Brand
	err    error
	calls  int
}

func (m *mockBrandStore) GetByVendor(_ context.Context, vendorID string) (*Brand, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	b, ok := m.brands[vendorID]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func TestStoreResolver_FallbackWithoutVendor(t *testing.T) {
	fallback := Brand{FromName: "Platform"}
	store := &mockBrandStore{}
	r := NewStoreResolver(store, fallback, zerolog.Nop())

	b, err := r.Resolve(context.Background(), map[string]any{"order_number": "A-1"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if b.FromName != "Platform" {
		t.Errorf("FromName = %s, want Platform fallback", b.FromName)
	}
	if store.calls != 0 {
		t.Errorf("store calls = %d, want 0", store.calls)
	}
}

func TestStoreResolver_VendorBrand(t *testing.T) {
	store := &mockBrandStore{brands: map[string]*Brand{
		"v1": {FromName: "Vendor One", AccentColor: "#336699"},
	}}
	r := NewStoreResolver(store, Brand{FromName: "Platform"}, zerolog.Nop())

	b, err := r.Resolve(context.Background(), map[string]any{"vendor_id": "v1"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if b.FromName != "Vendor One" {
		t.Errorf("FromName = %s, want Vendor One", b.FromName)
	}
}

func TestStoreResolver_CachesLookups(t *testing.T) {
	store := &mockBrandStore{brands: map[string]*Brand{"v1": {FromName: "Vendor One"}}}
	r := NewStoreResolver(store, Brand{}, zerolog.Nop())
	ctx := context.Background()
	msgCtx := map[string]any{"vendor_id": "v1"}

	if _, err := r.Resolve(ctx, msgCtx); err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	if _, err := r.Resolve(ctx, msgCtx); err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if store.calls != 1 {
		t.Errorf("store calls = %d, want 1 (second hit served from cache)", store.calls)
	}
}

func TestStoreResolver_MissingRowFallsBack(t *testing.T) {
	store := &mockBrandStore{brands: map[string]*Brand{}}
	r := NewStoreResolver(store, Brand{FromName: "Platform"}, zerolog.Nop())

	b, err := r.Resolve(context.Background(), map[string]any{"vendor_id": "unknown"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if b.FromName != "Platform" {
		t.Errorf("FromName = %s, want Platform fallback", b.FromName)
	}
}

func TestStoreResolver_StoreErrorPropagates(t *testing.T) {
	store := &mockBrandStore{err: errors.New("connection refused")}
	r := NewStoreResolver(store, Brand{}, zerolog.Nop())

	if _, err := r.Resolve(context.Background(), map[string]any{"vendor_id": "v1"}); err == nil {
		t.Error("Resolve() with store error = nil, want error")
	}
}
