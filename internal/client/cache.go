// Package client - list response cache
package client

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// listCache memoizes list responses per organization and entity type. Any
// mutation through the client drops every cached page for that scope.
type listCache struct {
	mu      sync.RWMutex
	entries map[string]map[string]*ListResult
}

func newListCache() *listCache {
	return &listCache{entries: make(map[string]map[string]*ListResult)}
}

func scopeKey(orgID uuid.UUID, entityType string) string {
	return orgID.String() + "/" + entityType
}

func cacheKey(orgID uuid.UUID, entityType string, opts ListOptions) string {
	return fmt.Sprintf("%s|%s|%s|%t|%d|%d",
		opts.Status, opts.Search, entityType, opts.IncludeDynamic, opts.Limit, opts.Offset)
}

func (c *listCache) get(orgID uuid.UUID, entityType, key string) (*ListResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	scope, ok := c.entries[scopeKey(orgID, entityType)]
	if !ok {
		return nil, false
	}
	result, ok := scope[key]
	return result, ok
}

func (c *listCache) put(orgID uuid.UUID, entityType, key string, result *ListResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sk := scopeKey(orgID, entityType)
	if c.entries[sk] == nil {
		c.entries[sk] = make(map[string]*ListResult)
	}
	c.entries[sk][key] = result
}

func (c *listCache) invalidate(orgID uuid.UUID, entityType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, scopeKey(orgID, entityType))
}
