package provider

import (
	"context"
	"sort"
	"sync"
)

// Factory builds a Client for one provider tag.
type Factory func(ctx context.Context) (Client, error)

// Registry maps provider tags to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Names returns the registered provider tags in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the Client registered under name. An unknown name is a
// KindProvider error, as is any unclassified factory failure.
func (r *Registry) Resolve(ctx context.Context, name string) (Client, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, Errorf(KindProvider, "Unknown provider %s", name)
	}

	client, err := f(ctx)
	if err != nil {
		if _, classified := KindOf(err); classified {
			return nil, err
		}
		return nil, Wrap(KindProvider, err, "failed to initialise provider "+name)
	}
	return client, nil
}
