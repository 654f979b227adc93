package command

import (
	"fmt"
	"sort"
	"sync"

	"github.com/relaydev/execcore/pkg/sandbox"
)

// ErrCommandNotFound is returned when a registry lookup names no command.
type ErrCommandNotFound struct {
	Name string
}

func (e *ErrCommandNotFound) Error() string {
	return fmt.Sprintf("command: %q not found in registry", e.Name)
}

// Registry resolves command names to Executors. It holds two layers —
// builtin and custom — merged into one effective table where a custom
// registration overrides a builtin of the same name. Lookups are
// read-locked and cheap; registration and unregistration are expected to be
// infrequent.
type Registry struct {
	mu      sync.RWMutex
	builtin map[string]Executor
	custom  map[string]Executor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		builtin: make(map[string]Executor),
		custom:  make(map[string]Executor),
	}
}

// RegisterBuiltin adds e to the builtin layer under its descriptor's name.
func (r *Registry) RegisterBuiltin(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtin[e.Descriptor().Name] = e
}

// RegisterCustom adds e to the custom layer, overriding any builtin of the
// same name in the effective table.
func (r *Registry) RegisterCustom(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom[e.Descriptor().Name] = e
}

// Get resolves name in the effective table: custom first, falling back to
// builtin.
func (r *Registry) Get(name string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.custom[name]; ok {
		return e, nil
	}
	if e, ok := r.builtin[name]; ok {
		return e, nil
	}
	return nil, &ErrCommandNotFound{Name: name}
}

// effectiveLocked merges builtin and custom under the caller's held lock.
func (r *Registry) effectiveLocked() map[string]Executor {
	merged := make(map[string]Executor, len(r.builtin)+len(r.custom))
	for name, e := range r.builtin {
		merged[name] = e
	}
	for name, e := range r.custom {
		merged[name] = e
	}
	return merged
}

// List returns every registered command's descriptor, sorted by name.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	merged := r.effectiveLocked()
	out := make([]Descriptor, 0, len(merged))
	for _, e := range merged {
		out = append(out, e.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListByCapability returns every registered command that declares cap
// among its required capabilities, sorted by name.
func (r *Registry) ListByCapability(cap Capability) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	merged := r.effectiveLocked()
	var out []Descriptor
	for _, e := range merged {
		d := e.Descriptor()
		for _, c := range d.CapabilitiesRequired {
			if c == cap {
				out = append(out, d)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListForSandbox returns every registered command runnable at level,
// sorted by name.
func (r *Registry) ListForSandbox(level sandbox.Level) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	merged := r.effectiveLocked()
	var out []Descriptor
	for _, e := range merged {
		if level >= e.Descriptor().SandboxLevelRequired {
			out = append(out, e.Descriptor())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Unregister removes name from the custom layer. It does not affect a
// builtin of the same name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.custom, name)
}

// ResetToBuiltins clears the custom layer entirely, reverting the
// effective table to builtins only.
func (r *Registry) ResetToBuiltins() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom = make(map[string]Executor)
}
