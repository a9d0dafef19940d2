package loader

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coral-mesh/geoinspect/pkg/geometry"
)

// DefaultCacheCapacity bounds the loader cache when no capacity is given.
const DefaultCacheCapacity = 1024

// Registry maps type strings to loaders through per-kind creator lists.
type Registry struct {
	mu         sync.RWMutex
	creators   [geometry.KindCount][]Creator
	cache      *loaderCache
	generation uuid.UUID
	logger     zerolog.Logger
}

// NewRegistry returns an empty registry caching up to capacity type strings.
func NewRegistry(logger zerolog.Logger, capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Registry{
		cache:      newLoaderCache(capacity),
		generation: uuid.New(),
		logger:     logger.With().Str("component", "registry").Logger(),
	}
}

// Register appends c to the creators of its kind.
func (r *Registry) Register(c Creator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := c.Kind()
	r.creators[k] = append(r.creators[k], c)
}

// Prepend inserts c in front of the creators of its kind so that it
// shadows them.
func (r *Registry) Prepend(c Creator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := c.Kind()
	r.creators[k] = append([]Creator{c}, r.creators[k]...)
}

// Creators lists the names of the creators of a kind in lookup order.
func (r *Registry) Creators(k geometry.Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.creators[k]))
	for i, c := range r.creators[k] {
		names[i] = c.Name()
	}
	return names
}

func (r *Registry) creatorsOf(k geometry.Kind) []Creator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.creators[k]
}

// Find returns the loader for typ, the type of the value named by name,
// among the kinds allowed. It returns ErrNotFound when no creator accepts
// the type.
func (r *Registry) Find(env *Env, kinds KindSet, name, typ string) (Loader, error) {
	if l, ok := r.cache.get(typ, kinds); ok {
		r.logger.Debug().Str("type", typ).Stringer("kind", l.Kind()).Msg("Loader cache hit")
		return l, nil
	}

	t := NewTarget(name, typ)
	for _, k := range kinds.Kinds() {
		for _, c := range r.creatorsOf(k) {
			l, err := c.Create(env, t)
			if err != nil {
				r.logger.Debug().
					Err(err).
					Str("creator", c.Name()).
					Str("type", typ).
					Msg("Creator failed, treating type as not found")
				continue
			}
			if l == nil {
				continue
			}
			r.logger.Debug().
				Str("creator", c.Name()).
				Str("type", typ).
				Stringer("kind", l.Kind()).
				Msg("Loader created")
			r.cache.put(typ, l)
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %s (kinds %s)", ErrNotFound, typ, kinds)
}

// Invalidate drops every cached loader and starts a new generation. It is
// called whenever the debuggee stops again.
func (r *Registry) Invalidate() {
	r.cache.clear()
	r.mu.Lock()
	r.generation = uuid.New()
	gen := r.generation
	r.mu.Unlock()
	r.logger.Debug().Str("generation", gen.String()).Msg("Loader cache invalidated")
}

// Generation identifies the current cache lifetime.
func (r *Registry) Generation() uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// Cached returns the number of type strings in the cache.
func (r *Registry) Cached() int {
	return r.cache.len()
}
