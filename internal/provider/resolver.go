package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultCacheTTL = 5 * time.Minute

// ErrGatewayNotFound is returned by GatewayStore when a vendor has no
// gateway row configured.
var ErrGatewayNotFound = errors.New("provider: gateway not found")

// GatewayStore looks up per-vendor gateway configuration.
type GatewayStore interface {
	GetByVendor(ctx context.Context, vendorID string) (*Config, error)
}

type cachedProvider struct {
	provider  Provider
	expiresAt time.Time
}

// Resolver selects the delivery provider for a message from its context.
// Vendors can configure their own gateway (per-vendor sending domains and
// credentials); everything else uses the platform default. Resolved
// providers are cached with a TTL.
type Resolver struct {
	store    GatewayStore
	client   HTTPClient
	log      zerolog.Logger
	fallback Provider

	mu       sync.RWMutex
	cache    map[string]*cachedProvider
	cacheTTL time.Duration
}

// NewResolver creates a Resolver. store may be nil, in which case every
// message uses the fallback provider.
func NewResolver(store GatewayStore, fallback Provider, client HTTPClient, log zerolog.Logger) *Resolver {
	return &Resolver{
		store:    store,
		client:   client,
		log:      log,
		fallback: fallback,
		cache:    make(map[string]*cachedProvider),
		cacheTTL: defaultCacheTTL,
	}
}

// Resolve returns the provider for the message context. The context's
// vendor_id keys the lookup; messages without one, and vendors without an
// enabled gateway, get the platform default.
func (r *Resolver) Resolve(ctx context.Context, messageContext map[string]any) (Provider, error) {
	vendorID, _ := messageContext["vendor_id"].(string)
	if vendorID == "" || r.store == nil {
		return r.fallback, nil
	}

	r.mu.RLock()
	if cached, ok := r.cache[vendorID]; ok && time.Now().Before(cached.expiresAt) {
		p := cached.provider
		r.mu.RUnlock()
		return p, nil
	}
	r.mu.RUnlock()

	cfg, err := r.store.GetByVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, ErrGatewayNotFound) {
			r.log.Debug().
				Str("vendor_id", vendorID).
				Msg("no gateway configured for vendor, using platform default")
			r.cacheProvider(vendorID, r.fallback)
			return r.fallback, nil
		}
		return nil, fmt.Errorf("lookup gateway for vendor %s: %w", vendorID, err)
	}

	p, err := New(*cfg, r.client)
	if err != nil {
		return nil, fmt.Errorf("create provider for vendor %s: %w", vendorID, err)
	}

	r.log.Debug().
		Str("vendor_id", vendorID).
		Str("provider", p.GetName()).
		Msg("resolved vendor gateway")

	r.cacheProvider(vendorID, p)
	return p, nil
}

func (r *Resolver) cacheProvider(vendorID string, p Provider) {
	r.mu.Lock()
	r.cache[vendorID] = &cachedProvider{provider: p, expiresAt: time.Now().Add(r.cacheTTL)}
	r.mu.Unlock()
}
