package transform

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog maps aliases used in manifests to implementations.
type Catalog struct {
	mu    sync.RWMutex
	impls map[string]Implementation
}

func NewCatalog() *Catalog {
	return &Catalog{impls: make(map[string]Implementation)}
}

// Register adds impl under alias. Aliases are unique.
func (c *Catalog) Register(alias string, impl Implementation) error {
	if alias == "" {
		return fmt.Errorf("register transform: empty alias")
	}
	if impl.IsZero() {
		return fmt.Errorf("register transform %q: implementation is not set", alias)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, dup := c.impls[alias]; dup {
		return fmt.Errorf("register transform %q: already bound to %s", alias, prev.Name())
	}
	c.impls[alias] = impl
	return nil
}

func (c *Catalog) Lookup(alias string) (Implementation, error) {
	c.mu.RLock()
	impl, ok := c.impls[alias]
	c.mu.RUnlock()
	if !ok {
		return Implementation{}, fmt.Errorf("%w: %q", ErrUnknownImplementation, alias)
	}
	return impl, nil
}

// Aliases returns the registered aliases in sorted order.
func (c *Catalog) Aliases() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.impls))
	for a := range c.impls {
		out = append(out, a)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// DefaultCatalog is the process-wide catalog.
var DefaultCatalog = NewCatalog()

func Register(alias string, impl Implementation) error { return DefaultCatalog.Register(alias, impl) }

func LookupImplementation(alias string) (Implementation, error) {
	return DefaultCatalog.Lookup(alias)
}
