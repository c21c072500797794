// Package peer maintains the registry of known nodes. The registry is pure
// bookkeeping; no protocol behavior attaches to it.
package peer

import (
	"sync"
)

// Registry represents the set of known node addresses and their
// activity flag.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]bool
}

// NewRegistry constructs a registry to manage node information.
func NewRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]bool),
	}
}

// Register adds a new node address marked active. Registering the same
// address twice leaves the registry unchanged and reports false.
func (r *Registry) Register(address string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[address]; exists {
		return false
	}

	r.nodes[address] = true
	return true
}

// Remove removes a node address from the registry.
func (r *Registry) Remove(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.nodes, address)
}

// Count returns the number of registered nodes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.nodes)
}

// Copy returns a copy of the registry mapping.
func (r *Registry) Copy() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make(map[string]bool, len(r.nodes))
	for address, active := range r.nodes {
		nodes[address] = active
	}

	return nodes
}

// Replace resets the registry to the specified mapping. Used when resuming
// from a snapshot.
func (r *Registry) Replace(nodes map[string]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodes = make(map[string]bool, len(nodes))
	for address, active := range nodes {
		r.nodes[address] = active
	}
}
