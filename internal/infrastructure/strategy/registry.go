// Package strategy wires the shipping policies selectable from config.
package strategy

import (
	"fmt"
	"slices"
	"sync"

	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/shared/strategy"
)

// Registry holds shipping policies by name plus the one checkout uses
type Registry struct {
	mu       sync.RWMutex
	shipping map[string]strategy.ShippingStrategy
	fallback string
}

func NewRegistry() *Registry {
	return &Registry{shipping: make(map[string]strategy.ShippingStrategy)}
}

// Register adds s. Names are unique.
func (r *Registry) Register(s strategy.ShippingStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.shipping[s.Name()]; taken {
		return fmt.Errorf("%w: shipping strategy %q", shared.ErrAlreadyExists, s.Name())
	}
	r.shipping[s.Name()] = s
	return nil
}

// Lookup finds a policy by name
func (r *Registry) Lookup(name string) (strategy.ShippingStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shipping[name]
	if !ok {
		return nil, fmt.Errorf("%w: shipping strategy %q", shared.ErrNotFound, name)
	}
	return s, nil
}

// UseDefault selects the policy returned by Default
func (r *Registry) UseDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shipping[name]; !ok {
		return fmt.Errorf("%w: shipping strategy %q", shared.ErrNotFound, name)
	}
	r.fallback = name
	return nil
}

// Default returns the selected policy, nil when none was selected
func (r *Registry) Default() strategy.ShippingStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shipping[r.fallback]
}

// Remove drops a policy; removing the default leaves none selected
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shipping[name]; !ok {
		return fmt.Errorf("%w: shipping strategy %q", shared.ErrNotFound, name)
	}
	delete(r.shipping, name)
	if r.fallback == name {
		r.fallback = ""
	}
	return nil
}

// Names lists registered policies alphabetically
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.shipping))
	for name := range r.shipping {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
