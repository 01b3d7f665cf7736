package quizimages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"
)

// SearchCache stores raw search results by key
type SearchCache interface {
	GetCachedSearch(ctx context.Context, key string, maxAge time.Duration) ([]Candidate, bool, error)
	PutCachedSearch(ctx context.Context, key, kind, query string, cands []Candidate) error
}

// CachedSearcher serves repeated Commons lookups from a SearchCache.
// Cache errors are logged and fall through to the wrapped searcher.
type CachedSearcher struct {
	Inner ImageSearcher
	Cache SearchCache
	TTL   time.Duration
}

// NewCachedSearcher wraps inner with cache
func NewCachedSearcher(inner ImageSearcher, cache SearchCache, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{Inner: inner, Cache: cache, TTL: ttl}
}

func (c *CachedSearcher) SearchFiles(ctx context.Context, query string, limit int) ([]Candidate, error) {
	return c.lookup(ctx, "search", query, limit, c.Inner.SearchFiles)
}

func (c *CachedSearcher) CategoryMembers(ctx context.Context, category string, limit int) ([]Candidate, error) {
	return c.lookup(ctx, "category", category, limit, c.Inner.CategoryMembers)
}

func (c *CachedSearcher) lookup(ctx context.Context, kind, query string, limit int,
	fetch func(context.Context, string, int) ([]Candidate, error)) ([]Candidate, error) {
	key := SearchCacheKey(kind, query, limit)

	cands, ok, err := c.Cache.GetCachedSearch(ctx, key, c.TTL)
	if err != nil {
		log.Printf("Search cache read failed: %v", err)
	}
	if ok {
		VerboseLog("Cache hit %s %q", kind, query)
		return cands, nil
	}

	cands, err = fetch(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if err := c.Cache.PutCachedSearch(ctx, key, kind, query, cands); err != nil {
		log.Printf("Search cache write failed: %v", err)
	}
	return cands, nil
}

// SearchCacheKey is sha256(kind|query|limit) in hex
func SearchCacheKey(kind, query string, limit int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", kind, query, limit)))
	return hex.EncodeToString(sum[:])
}
