package locator

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/sghaida/vdto/version"
)

// Factory builds the instance of one registered version. ctx carries the
// resolutions in flight; pass it to nested GetContext calls so cycles are seen.
type Factory func(ctx context.Context) (any, error)

type slot struct {
	version string
	factory Factory
}

type inFlightKey struct{}

// inFlight is one resolution of a call chain, linked to its caller.
type inFlight struct {
	locator   *Locator
	version   string
	requested string
	parent    *inFlight
}

func inFlightFrom(ctx context.Context) *inFlight {
	f, _ := ctx.Value(inFlightKey{}).(*inFlight)
	return f
}

// Locator serves the versioned implementations of one interface.
type Locator struct {
	iface  string
	cmp    version.Comparator
	cache  Cache
	logger *zap.Logger

	// versions and slots are fixed at construction.
	versions []string
	slots    map[string]*slot
}

// Option configures a Locator.
type Option func(*Locator)

// WithComparator sets the version comparator (version.Default otherwise).
func WithComparator(c version.Comparator) Option {
	return func(l *Locator) {
		if c != nil {
			l.cmp = c
		}
	}
}

// WithCache memoizes floor lookups in c.
func WithCache(c Cache) Option {
	return func(l *Locator) { l.cache = c }
}

// WithLogger sets the logger (a no-op logger otherwise).
func WithLogger(logger *zap.Logger) Option {
	return func(l *Locator) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New returns a locator serving iface with the given version factories.
func New(iface string, factories map[string]Factory, opts ...Option) *Locator {
	l := &Locator{
		iface:  iface,
		cmp:    version.Default,
		logger: zap.NewNop(),
		slots:  make(map[string]*slot, len(factories)),
	}
	for _, opt := range opts {
		opt(l)
	}

	for v, f := range factories {
		l.versions = append(l.versions, v)
		l.slots[v] = &slot{version: v, factory: f}
	}
	version.Sort(l.cmp, l.versions)
	return l
}

// Interface returns the served interface name.
func (l *Locator) Interface() string { return l.iface }

// Versions returns the registered versions, ascending.
func (l *Locator) Versions() []string {
	return append([]string(nil), l.versions...)
}

// Has reports whether id is not older than the oldest registered version.
// There is no upper bound: Has("99.0") is true whenever any version exists.
func (l *Locator) Has(id string) bool {
	if len(l.versions) == 0 {
		return false
	}
	if id == version.Latest {
		return true
	}
	return l.cmp.Compare(id, l.versions[0]) >= 0
}

// Get returns the instance built by the greatest registered version that is
// not greater than id. "latest" selects the greatest registered version.
func (l *Locator) Get(id string) (any, error) {
	return l.GetContext(context.Background(), id)
}

// GetContext is Get with a context for the cache backend. Resolutions already
// in flight on ctx are checked first: re-entering one of them fails with a
// CircularReferenceError.
func (l *Locator) GetContext(ctx context.Context, id string) (any, error) {
	if id == version.Latest && len(l.versions) > 0 {
		id = l.versions[len(l.versions)-1]
	}

	key, ok := l.floor(ctx, id)
	if !ok {
		return nil, l.notFound(ctx, id)
	}

	parent := inFlightFrom(ctx)
	for f := parent; f != nil; f = f.parent {
		if f.locator == l && f.version == key {
			return nil, CircularReferenceError{ID: key, Path: []string{key, key}}
		}
	}

	s := l.slots[key]
	if s.factory == nil {
		return nil, NilFactoryError{Interface: l.iface, Version: key}
	}
	l.logger.Debug("locator resolving",
		zap.String("interface", l.iface),
		zap.String("requested", id),
		zap.String("version", key),
	)
	ctx = context.WithValue(ctx, inFlightKey{}, &inFlight{locator: l, version: key, requested: id, parent: parent})
	return s.factory(ctx)
}

// Invoke is Get that reports a missing version as (nil, nil).
// Every other error is returned unchanged.
func (l *Locator) Invoke(id string) (any, error) {
	v, err := l.Get(id)
	if errors.Is(err, ErrServiceNotFound) {
		return nil, nil
	}
	return v, err
}

// floor returns the registered version for id, consulting the cache first.
func (l *Locator) floor(ctx context.Context, id string) (string, bool) {
	cacheKey := l.iface + "_" + id
	if l.cache != nil {
		cached, hit, err := l.cache.Get(ctx, cacheKey)
		switch {
		case err != nil:
			l.logger.Warn("locator cache get failed",
				zap.String("interface", l.iface),
				zap.String("key", cacheKey),
				zap.Error(err),
			)
		case hit:
			if _, known := l.slots[cached]; known {
				l.logger.Debug("locator cache hit", zap.String("key", cacheKey), zap.String("version", cached))
				return cached, true
			}
		}
	}

	key, ok := version.Floor(l.cmp, l.versions, id)
	if !ok {
		return "", false
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, cacheKey, key); err != nil {
			l.logger.Warn("locator cache set failed",
				zap.String("interface", l.iface),
				zap.String("key", cacheKey),
				zap.Error(err),
			)
		}
	}
	return key, true
}

func (l *Locator) notFound(ctx context.Context, id string) error {
	source := ""
	for f := inFlightFrom(ctx); f != nil; f = f.parent {
		if f.locator == l {
			source = f.requested
			break
		}
	}

	return NotFoundError{
		Interface:    l.iface,
		Version:      id,
		SourceID:     source,
		Alternatives: l.Versions(),
	}
}

// GetAs returns the instance for id typed as T.
func GetAs[T any](l *Locator, id string) (T, error) {
	var zero T
	raw, err := l.Get(id)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, WrongTypeError{Interface: l.iface, Version: id, GotType: typeString(raw)}
	}
	return v, nil
}

// MustGet returns the instance for id or panics.
// Useful in examples/tests where a missing version should fail fast.
func (l *Locator) MustGet(id string) any {
	v, err := l.Get(id)
	if err != nil {
		panic(fmt.Errorf("locator: %s: %w", l.iface, err))
	}
	return v
}

func typeString(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
