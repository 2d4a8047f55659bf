package brand

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultCacheTTL = 5 * time.Minute

// Store looks up vendor-scoped brand rows.
type Store interface {
	GetByVendor(ctx context.Context, vendorID string) (*Brand, error)
}

type cachedBrand struct {
	brand     *Brand
	expiresAt time.Time
}

// StoreResolver resolves brands per vendor from a Store, falling back to a
// platform default when the message has no vendor or the vendor has no brand
// row. Results are cached with a TTL.
type StoreResolver struct {
	store    Store
	fallback Brand
	log      zerolog.Logger

	mu       sync.RWMutex
	cache    map[string]*cachedBrand
	cacheTTL time.Duration
}

// NewStoreResolver creates a StoreResolver with the given fallback brand.
func NewStoreResolver(store Store, fallback Brand, log zerolog.Logger) *StoreResolver {
	return &StoreResolver{
		store:    store,
		fallback: fallback,
		log:      log,
		cache:    make(map[string]*cachedBrand),
		cacheTTL: defaultCacheTTL,
	}
}

// Resolve returns the brand for the message's vendor, or the fallback.
func (r *StoreResolver) Resolve(ctx context.Context, messageContext map[string]any) (*Brand, error) {
	vendorID := vendorIDFromContext(messageContext)
	if vendorID == "" {
		cp := r.fallback
		return &cp, nil
	}

	r.mu.RLock()
	if cached, ok := r.cache[vendorID]; ok && time.Now().Before(cached.expiresAt) {
		b := *cached.brand
		r.mu.RUnlock()
		return &b, nil
	}
	r.mu.RUnlock()

	b, err := r.store.GetByVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.log.Debug().Str("vendor_id", vendorID).Msg("no brand row for vendor, using fallback")
			cp := r.fallback
			r.cacheBrand(vendorID, &cp)
			return &cp, nil
		}
		return nil, err
	}

	r.cacheBrand(vendorID, b)
	cp := *b
	return &cp, nil
}

func (r *StoreResolver) cacheBrand(vendorID string, b *Brand) {
	r.mu.Lock()
	r.cache[vendorID] = &cachedBrand{brand: b, expiresAt: time.Now().Add(r.cacheTTL)}
	r.mu.Unlock()
}
