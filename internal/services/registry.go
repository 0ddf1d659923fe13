package services

import (
	"fmt"
	"strings"
	"sync"
)

// Registry is the lookup table of managed services, keyed by OS service
// name. It preserves registration order.
type Registry struct {
	mu       sync.RWMutex
	services map[string]ManagedService
	order    []string
}

// NewRegistry creates a new service registry
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]ManagedService),
	}
}

// Register adds a service to the registry
func (r *Registry) Register(svc ManagedService) error {
	if svc.Name == "" {
		return fmt.Errorf("service has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[svc.Name]; exists {
		return fmt.Errorf("service %s already registered", svc.Name)
	}

	r.services[svc.Name] = svc
	r.order = append(r.order, svc.Name)
	return nil
}

// Unregister removes a service from the registry
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[name]; !exists {
		return fmt.Errorf("service %s not found", name)
	}

	delete(r.services, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a service by name
func (r *Registry) Get(name string) (ManagedService, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, exists := r.services[name]
	return svc, exists
}

// GetAll returns all registered services in registration order
func (r *Registry) GetAll() []ManagedService {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ManagedService, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.services[name])
	}
	return out
}

// GetByProduct returns the services belonging to a catalog product
func (r *Registry) GetByProduct(product string) []ManagedService {
	var out []ManagedService
	for _, svc := range r.GetAll() {
		if strings.EqualFold(svc.Product, product) {
			out = append(out, svc)
		}
	}
	return out
}

// Select resolves names, each a service or a product name, to services in
// registration order. No names selects everything.
func (r *Registry) Select(names ...string) ([]ManagedService, error) {
	if len(names) == 0 {
		return r.GetAll(), nil
	}

	wanted := make(map[string]bool)
	for _, name := range names {
		if svc, ok := r.Get(name); ok {
			wanted[svc.Name] = true
			continue
		}
		byProduct := r.GetByProduct(name)
		if len(byProduct) == 0 {
			return nil, fmt.Errorf("unknown service or product %q", name)
		}
		for _, svc := range byProduct {
			wanted[svc.Name] = true
		}
	}

	var out []ManagedService
	for _, svc := range r.GetAll() {
		if wanted[svc.Name] {
			out = append(out, svc)
		}
	}
	return out, nil
}

// Len returns the number of registered services
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
