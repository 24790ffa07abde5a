package jsonrpc

import (
	"errors"
	"sort"
	"sync"
)

// RegistryState is the lifecycle state of a Registry.
type RegistryState int

const (
	RegistryUnbuilt RegistryState = iota
	RegistryBuilding
	RegistryReady
	RegistryPoisoned
)

func (s RegistryState) String() string {
	switch s {
	case RegistryUnbuilt:
		return "unbuilt"
	case RegistryBuilding:
		return "building"
	case RegistryReady:
		return "ready"
	case RegistryPoisoned:
		return "poisoned"
	default:
		return "unknown"
	}
}

// ErrRegistryBuilt is returned when registering after the route table was built.
var ErrRegistryBuilt = errors.New("registry already built")

// Registry maps method names to handlers. Registrations are collected first; the
// route table is then built exactly once and is read-only afterwards.
type Registry struct {
	mu      sync.Mutex
	entries []Registration
	state   RegistryState

	once  sync.Once
	table map[string]Handler
	err   error
}

// NewRegistry creates a registry holding the given registrations.
func NewRegistry(registrations ...Registration) *Registry {
	return &Registry{
		entries: append([]Registration(nil), registrations...),
	}
}

// Register adds a handler for method. It fails once the table has been built.
func (r *Registry) Register(method string, handler Handler) error {
	return r.Add(NewRegistration(method, handler))
}

// Add appends registrations. It fails once the table has been built.
func (r *Registry) Add(registrations ...Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RegistryUnbuilt {
		return ErrRegistryBuilt
	}
	r.entries = append(r.entries, registrations...)
	return nil
}

// Build folds the registrations into the route table. Concurrent callers wait for
// the single build to finish and all observe the same result. A duplicate method
// name poisons the registry with a *DuplicateMethodError.
func (r *Registry) Build() error {
	r.once.Do(r.build)
	return r.err
}

func (r *Registry) build() {
	r.mu.Lock()
	r.state = RegistryBuilding
	entries := r.entries
	r.mu.Unlock()

	table := make(map[string]Handler, len(entries))
	for _, entry := range entries {
		if err := entry.validate(); err != nil {
			r.finish(nil, err)
			return
		}
		if _, exists := table[entry.Method]; exists {
			r.finish(nil, &DuplicateMethodError{Method: entry.Method})
			return
		}
		table[entry.Method] = entry.Handler
	}
	r.finish(table, nil)
}

func (r *Registry) finish(table map[string]Handler, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.table = table
	r.err = err
	if err != nil {
		r.state = RegistryPoisoned
		return
	}
	r.state = RegistryReady
}

// State returns the current lifecycle state.
func (r *Registry) State() RegistryState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Lookup returns the handler for method, building the table first if needed.
func (r *Registry) Lookup(method string) (Handler, bool) {
	if err := r.Build(); err != nil {
		return nil, false
	}
	handler, ok := r.table[method]
	return handler, ok
}

// Methods returns the registered method names in sorted order.
func (r *Registry) Methods() []string {
	if err := r.Build(); err != nil {
		return nil
	}
	methods := make([]string, 0, len(r.table))
	for method := range r.table {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}
