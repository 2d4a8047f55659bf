package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type mockGatewayStore struct {
	configs map[string]*Config
	err     error
	calls   int
}

func (m *mockGatewayStore) GetByVendor(_ context.Context, vendorID string) (*Config, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	cfg, ok := m.configs[vendorID]
	if !ok {
		return nil, ErrGatewayNotFound
	}
	return cfg, nil
}

func TestResolver_FallbackWithoutVendorID(t *testing.T) {
	fallback := NewStdout(Config{})
	store := &mockGatewayStore{}
	r := NewResolver(store, fallback, &mockHTTPClient{}, zerolog.Nop())

	p, err := r.Resolve(context.Background(), map[string]any{"order_number": "A-1"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p != Provider(fallback) {
		t.Error("Resolve() without vendor_id did not return the fallback")
	}
	if store.calls != 0 {
		t.Errorf("store calls = %d, want 0", store.calls)
	}
}

func TestResolver_VendorGateway(t *testing.T) {
	store := &mockGatewayStore{configs: map[string]*Config{
		"v1": {Type: "sendgrid", APIKey: "vendor-key"},
	}}
	r := NewResolver(store, NewStdout(Config{}), &mockHTTPClient{}, zerolog.Nop())

	p, err := r.Resolve(context.Background(), map[string]any{"vendor_id": "v1"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.GetName() != "sendgrid" {
		t.Errorf("GetName() = %s, want sendgrid", p.GetName())
	}
}

func TestResolver_CachesLookups(t *testing.T) {
	store := &mockGatewayStore{configs: map[string]*Config{
		"v1": {Type: "sendgrid", APIKey: "vendor-key"},
	}}
	r := NewResolver(store, NewStdout(Config{}), &mockHTTPClient{}, zerolog.Nop())

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

func TestResolver_NoGatewayFallsBack(t *testing.T) {
	fallback := NewStdout(Config{})
	store := &mockGatewayStore{configs: map[string]*Config{}}
	r := NewResolver(store, fallback, &mockHTTPClient{}, zerolog.Nop())

	p, err := r.Resolve(context.Background(), map[string]any{"vendor_id": "unknown"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p != Provider(fallback) {
		t.Error("Resolve() for unconfigured vendor did not return the fallback")
	}
}

func TestResolver_StoreErrorPropagates(t *testing.T) {
	store := &mockGatewayStore{err: errors.New("connection refused")}
	r := NewResolver(store, NewStdout(Config{}), &mockHTTPClient{}, zerolog.Nop())

	if _, err := r.Resolve(context.Background(), map[string]any{"vendor_id": "v1"}); err == nil {
		t.Error("Resolve() with store error = nil, want error")
	}
}

func TestResolver_NilStore(t *testing.T) {
	fallback := NewStdout(Config{})
	r := NewResolver(nil, fallback, &mockHTTPClient{}, zerolog.Nop())

	p, err := r.Resolve(context.Background(), map[string]any{"vendor_id": "v1"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p != Provider(fallback) {
		t.Error("Resolve() with nil store did not return the fallback")
	}
}
