package project

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ArchResolver computes the architectures a target builds for on a
// platform.
type ArchResolver func(t *Target, p Platform) []string

// DefaultArchitectures builds universal binaries on Mac except for the
// editor, and arm64 everywhere else.
func DefaultArchitectures(t *Target, p Platform) []string {
	if p == PlatformMac && t.Type != TargetEditor {
		return []string{"arm64", "x86_64"}
	}
	return []string{"arm64"}
}

// ArchCache memoizes architecture lookups keyed by target and platform.
type ArchCache struct {
	cache   *lru.Cache[string, []string]
	resolve ArchResolver
}

// NewArchCache creates a cache holding up to size lookups.
func NewArchCache(size int, resolve ArchResolver) (*ArchCache, error) {
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("arch cache: %w", err)
	}
	return &ArchCache{cache: cache, resolve: resolve}, nil
}

func archKey(t *Target, p Platform) string {
	return t.Name + "|" + string(p)
}

// Lookup returns the memoized architectures, resolving on a miss.
func (c *ArchCache) Lookup(t *Target, p Platform) []string {
	key := archKey(t, p)
	if archs, ok := c.cache.Get(key); ok {
		return archs
	}
	archs := c.resolve(t, p)
	c.cache.Add(key, archs)
	return archs
}

// Insert overrides the architectures for a target and platform.
func (c *ArchCache) Insert(t *Target, p Platform, archs []string) {
	c.cache.Add(archKey(t, p), archs)
}

// Len reports how many lookups are cached.
func (c *ArchCache) Len() int {
	return c.cache.Len()
}
