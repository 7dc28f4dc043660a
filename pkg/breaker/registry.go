package breaker

import "sync"

// Factory builds a breaker for a newly seen dependency name
type Factory func(name string) *Breaker

// Registry owns one breaker per protected dependency. It replaces process
// globals with explicit ownership: construct a Registry at startup, pass it
// to the call sites that need it, and let each site look its breaker up by
// dependency name.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	factory  Factory
}

// NewRegistry creates a registry. factory is invoked lazily, once per name;
// if nil, GetOrCreate builds breakers with default settings.
func NewRegistry(factory Factory) *Registry {
	if factory == nil {
		factory = func(name string) *Breaker {
			return New(DefaultFailureThreshold, DefaultRecoveryTimeout, WithName(name))
		}
	}

	return &Registry{
		breakers: make(map[string]*Breaker),
		factory:  factory,
	}
}

// Get returns the breaker registered for name, or nil
func (r *Registry) Get(name string) *Breaker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.breakers[name]
}

// GetOrCreate returns the breaker for name, building it on first use.
// Concurrent callers always observe the same instance per name.
func (r *Registry) GetOrCreate(name string) *Breaker {
	r.mu.RLock()
	b := r.breakers[name]
	r.mu.RUnlock()
	if b != nil {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b := r.breakers[name]; b != nil {
		return b
	}

	b = r.factory(name)
	r.breakers[name] = b
	return b
}

// Register adds a preconfigured breaker, replacing any existing one for its
// name
func (r *Registry) Register(b *Breaker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers[b.Name()] = b
}

// Names returns all registered dependency names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	return names
}

// States snapshots the state of every registered breaker, for health checks
func (r *Registry) States() map[string]State {
	r.mu.RLock()
	breakers := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.RUnlock()

	states := make(map[string]State, len(breakers))
	for _, b := range breakers {
		states[b.Name()] = b.State()
	}
	return states
}
