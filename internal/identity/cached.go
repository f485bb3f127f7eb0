package identity

import (
	"context"
	"log"
)

// Lookup is the raw token resolver; TokenCache remembers tokens that have
// already been verified so repeat submissions skip the network hop.
type Lookup interface {
	LookupUser(ctx context.Context, token string) (string, bool, error)
}

type TokenCache interface {
	Get(ctx context.Context, key string) (string, error)
	Store(ctx context.Context, key string, ttl int, value any) error
}

type CachedLookup struct {
	lookup Lookup
	cache  TokenCache
	ttl    int // seconds
}

func NewCachedLookup(lookup Lookup, cache TokenCache, ttl int) *CachedLookup {
	return &CachedLookup{lookup: lookup, cache: cache, ttl: ttl}
}

// LookupUser only caches positive results; unknown tokens always hit the
// identity service so a revoked cache entry ages out on its TTL.
func (c *CachedLookup) LookupUser(ctx context.Context, token string) (string, bool, error) {
	if name, err := c.cache.Get(ctx, token); err == nil && name != "" {
		return name, true, nil
	}

	name, found, err := c.lookup.LookupUser(ctx, token)
	if err != nil || !found {
		return "", found, err
	}

	if err := c.cache.Store(ctx, token, c.ttl, name); err != nil {
		log.Printf("identity: token cache store failed: %v", err)
	}
	return name, true, nil
}
