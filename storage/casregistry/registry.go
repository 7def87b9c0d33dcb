// Package casregistry lets CAS backends register themselves by name so the
// block store can be assembled from configuration.
//
// Backends register in init(); a binary enables a backend by importing its
// package (often as a blank import).
package casregistry

import (
	"fmt"
	"sort"
	"sync"

	"xdao.co/skipproof/storage"
)

// Backend opens a storage.CAS from string settings.
type Backend struct {
	Name        string
	Description string
	// Keys documents the accepted settings, key -> description.
	Keys map[string]string

	// Open constructs the CAS. Backends holding resources also implement
	// storage.Closer.
	Open func(settings map[string]string) (storage.CAS, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register registers a backend.
func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("casregistry: backend name is required")
	}
	if b.Open == nil {
		return fmt.Errorf("casregistry: backend %q missing Open", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("casregistry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns the registered backends sorted by name.
func List() []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered backend names, sorted.
func Names() []string {
	bs := List()
	n := make([]string, 0, len(bs))
	for _, b := range bs {
		n = append(n, b.Name)
	}
	return n
}

// Open opens the named backend.
func Open(name string, settings map[string]string) (storage.CAS, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("casregistry: unknown backend %q (registered: %v)", name, Names())
	}
	cas, err := b.Open(settings)
	if err != nil {
		return nil, fmt.Errorf("casregistry: open %q: %w", name, err)
	}
	return cas, nil
}

// Require returns settings[key] or an error naming the backend.
func Require(backend string, settings map[string]string, key string) (string, error) {
	v := settings[key]
	if v == "" {
		return "", fmt.Errorf("%s: missing setting %q", backend, key)
	}
	return v, nil
}
