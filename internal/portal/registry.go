package portal

import (
	"github.com/rotisserie/eris"

	"github.com/mwalkowiak/flatwatch/internal/model"
)

// Registry maps portal names to their adapters.
type Registry struct {
	portals map[model.Portal]Portal
	order   []model.Portal // insertion order for deterministic iteration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		portals: make(map[model.Portal]Portal),
	}
}

// Register adds an adapter to the registry.
func (r *Registry) Register(p Portal) {
	name := p.Name()
	r.portals[name] = p
	r.order = append(r.order, name)
}

// Get returns an adapter by name.
func (r *Registry) Get(name model.Portal) (Portal, error) {
	p, ok := r.portals[name]
	if !ok {
		return nil, eris.Errorf("portal: unknown portal %q", name)
	}
	return p, nil
}

// Select returns adapters for the given names, in the requested order.
// An empty name list selects every registered adapter.
func (r *Registry) Select(names []string) ([]Portal, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	result := make([]Portal, 0, len(names))
	for _, name := range names {
		p, err := r.Get(model.Portal(name))
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

// All returns all adapters in registration order.
func (r *Registry) All() []Portal {
	result := make([]Portal, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.portals[name])
	}
	return result
}

// Default returns a registry with every built-in adapter registered.
func Default() *Registry {
	r := NewRegistry()
	r.Register(NewOtodom())
	r.Register(NewOLX())
	r.Register(NewGratka())
	return r
}
