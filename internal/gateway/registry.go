package gateway

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ayo6706/utility-payments/internal/models"
	"github.com/google/uuid"
)

// Factory builds a Client for one provider row.
type Factory func(p models.Provider) (Client, error)

// Registry maps Provider.code to a Factory and caches one Client per provider.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	fallback  Factory
	clients   map[uuid.UUID]Client
}

// NewRegistry creates a registry. fallback serves codes with no registered
// factory; nil means such codes are rejected.
func NewRegistry(fallback Factory) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		fallback:  fallback,
		clients:   make(map[uuid.UUID]Client),
	}
}

// Register binds a provider code to a factory. Codes are case-insensitive.
func (r *Registry) Register(code string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[normalizeCode(code)] = f
}

// ClientFor returns the cached client for p, building it on first use.
func (r *Registry) ClientFor(p models.Provider) (Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[p.ID]; ok {
		return c, nil
	}
	f, ok := r.factories[normalizeCode(p.Code)]
	if !ok {
		f = r.fallback
	}
	if f == nil {
		return nil, fmt.Errorf("no client registered for provider code %q", p.Code)
	}
	c, err := f(p)
	if err != nil {
		return nil, fmt.Errorf("build client for provider %s: %w", p.Code, err)
	}
	r.clients[p.ID] = c
	return c, nil
}

// Forget drops a cached client, e.g. after a provider's config changed.
func (r *Registry) Forget(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

// HubtelFactory builds HubtelClients from provider config.
func HubtelFactory(opts ...Option) Factory {
	return func(p models.Provider) (Client, error) {
		return NewHubtelClient(p.Config, opts...)
	}
}

// StaticFactory returns the same client for every provider.
func StaticFactory(c Client) Factory {
	return func(models.Provider) (Client, error) {
		return c, nil
	}
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
