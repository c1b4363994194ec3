package tool

import (
	"fmt"
	"sync"
)

// DuplicateToolError is reported when a tool name is registered twice.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// NotFoundError is reported when the model requests an unregistered tool.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q is not registered", e.Name)
}

// Definition is the declarative description of a tool included in model
// requests.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Registry holds the tools available to one engine instance. Names are
// unique; registration normally happens once at construction time but the
// registry is safe for concurrent use regardless.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, reporting DuplicateToolError if the name is taken.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return &DuplicateToolError{Name: name}
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// MustRegister is a fluent Register for construction-time wiring; it panics
// on duplicate names, which are a programming defect.
func (r *Registry) MustRegister(t Tool) *Registry {
	if err := r.Register(t); err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the tool for name or NotFoundError.
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return t, nil
}

// Definitions lists all registered tools in registration order for inclusion
// in a model request.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
