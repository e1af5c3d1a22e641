package materializer

import (
	"sync"
)

// EntityKind namespaces identities in the cache
type EntityKind string

const (
	EntityLedger         EntityKind = "ledger"
	EntityRegularAccount EntityKind = "regular_account"
	EntityBudgetAccount  EntityKind = "budget_account"
	EntityContactAccount EntityKind = "contact_account"
	EntityPostingLine    EntityKind = "posting_line"
)

type identity struct {
	kind EntityKind
	id   any
}

// IdentityCache maps (kind, id) to the single materialized instance of one build.
// It is created per build call and safe for concurrent use.
type IdentityCache struct {
	mu        sync.Mutex
	instances map[identity]any
}

func NewIdentityCache() *IdentityCache {
	return &IdentityCache{instances: make(map[identity]any)}
}

// Lookup returns the instance registered for (kind, id)
func (c *IdentityCache) Lookup(kind EntityKind, id any) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	instance, ok := c.instances[identity{kind, id}]
	return instance, ok
}

// Register stores instance for (kind, id) unless one is already present. It returns
// the instance callers must use and whether this call's instance won.
func (c *IdentityCache) Register(kind EntityKind, id any, instance any) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := identity{kind, id}
	if existing, ok := c.instances[key]; ok {
		return existing, false
	}
	c.instances[key] = instance
	return instance, true
}

// Len returns the number of registered instances
func (c *IdentityCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.instances)
}

func lookup[T any](c *IdentityCache, kind EntityKind, id any) (T, bool) {
	instance, ok := c.Lookup(kind, id)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := instance.(T)
	return typed, ok
}

func register[T any](c *IdentityCache, kind EntityKind, id any, instance T) (T, bool) {
	winner, registered := c.Register(kind, id, instance)
	return winner.(T), registered
}
