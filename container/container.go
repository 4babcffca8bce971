package container

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"
)

// Container provides services by name.
type Container interface {
	Has(name string) bool
	Get(name string) (any, error)
}

// ErrPanic is returned if a container implementation panics internally.
var ErrPanic = errors.New("container: panic during Get")

// MissingError is returned when a name is not present.
type MissingError struct{ Name string }

// Error implements the error interface.
func (e MissingError) Error() string {
	// Example: container: service "clock" missing
	return "container: service " + strconv.Quote(e.Name) + " missing"
}

// Map is a simple in-memory container. It is safe for concurrent use.
type Map struct {
	mu    sync.RWMutex
	items map[string]any
}

var _ Container = (*Map)(nil)

// NewMap returns an empty container.
func NewMap() *Map {
	return &Map{items: map[string]any{}}
}

// Provide stores a value under a name and returns the container for chaining.
func (m *Map) Provide(name string, val any) *Map {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[name] = val
	return m
}

// ProvideType stores val under the Go type string of T ("*zap.Logger").
func ProvideType[T any](m *Map, val T) *Map {
	return m.Provide(TypeName[T](), val)
}

// TypeName returns the container key used for T.
func TypeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// Has implements Container.
func (m *Map) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.items[name]
	return ok
}

// Get implements Container.
func (m *Map) Get(name string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.items[name]
	if !ok {
		return nil, MissingError{Name: name}
	}
	return v, nil
}

// MustGet returns the value or panics with a helpful message.
// Useful in examples/tests where missing services should fail fast.
func (m *Map) MustGet(name string) any {
	v, err := m.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Names returns the provided names, sorted.
func (m *Map) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.items))
	for k := range m.items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SafeGet reads name from c and converts panics into ErrPanic.
func SafeGet(c Container, name string) (val any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			val = nil
			err = fmt.Errorf("%w: %v", ErrPanic, rec)
		}
	}()

	return c.Get(name)
}

// SafeHas reports c.Has(name), treating a panic as false.
func SafeHas(c Container, name string) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()

	return c.Has(name)
}
