package registry

import (
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/sghaida/vdto/locator"
)

// ErrLocatorNotFound matches every LocatorNotFoundError.
var ErrLocatorNotFound = errors.New("registry: locator not found")

// LocatorNotFoundError is returned when an interface has no locator.
type LocatorNotFoundError struct{ Interface string }

// Error implements the error interface.
func (e LocatorNotFoundError) Error() string {
	// Example: registry: cannot find service locator for "models.User"
	return "registry: cannot find service locator for " + strconv.Quote(e.Interface)
}

// Is reports whether target is ErrLocatorNotFound.
func (e LocatorNotFoundError) Is(target error) bool { return target == ErrLocatorNotFound }

// LocatorFunc builds the locator of one interface.
type LocatorFunc func() *locator.Locator

type lazyLocator struct {
	once  sync.Once
	build LocatorFunc
	l     *locator.Locator
}

func (ll *lazyLocator) get() *locator.Locator {
	ll.once.Do(func() { ll.l = ll.build() })
	return ll.l
}

// Registry maps interface names to their locators. It is read-only once built
// and safe for concurrent use.
type Registry struct {
	locators map[string]*lazyLocator
}

// New returns a registry over deferred locator constructors. Each constructor
// runs at most once, on the first Get of its interface.
func New(locators map[string]LocatorFunc) *Registry {
	r := &Registry{locators: make(map[string]*lazyLocator, len(locators))}
	for iface, build := range locators {
		r.locators[iface] = &lazyLocator{build: build}
	}
	return r
}

// Get returns the locator of iface.
func (r *Registry) Get(iface string) (*locator.Locator, error) {
	ll, ok := r.locators[iface]
	if !ok {
		return nil, LocatorNotFoundError{Interface: iface}
	}
	return ll.get(), nil
}

// Has reports whether iface has a locator.
func (r *Registry) Has(iface string) bool {
	_, ok := r.locators[iface]
	return ok
}

// Interfaces returns the registered interface names, sorted.
func (r *Registry) Interfaces() []string {
	out := make([]string, 0, len(r.locators))
	for iface := range r.locators {
		out = append(out, iface)
	}
	sort.Strings(out)
	return out
}
