package proxy

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sghaida/vdto/catalog"
)

// Instantiator builds instances. *catalog.Class and *Class implement it.
type Instantiator interface {
	New(args ...any) (any, error)
}

var (
	_ Instantiator = (*catalog.Class)(nil)
	_ Instantiator = (*Class)(nil)
)

// Extension populates a builder. Extensions run in registration order.
type Extension interface {
	Extend(b *Builder) error
}

// ExtensionFunc adapts a func to Extension.
type ExtensionFunc func(b *Builder) error

// Extend implements Extension.
func (f ExtensionFunc) Extend(b *Builder) error { return f(b) }

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithExtension appends extensions.
func WithExtension(exts ...Extension) FactoryOption {
	return func(f *Factory) { f.extensions = append(f.extensions, exts...) }
}

// WithCatalog resolves interface and trait names against cat.
func WithCatalog(cat catalog.Catalog) FactoryOption {
	return func(f *Factory) {
		if cat != nil {
			f.lookup = cat.Lookup
		}
	}
}

// WithLogger sets the logger of the factory and of its default generator.
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithGenerator replaces the generator.
func WithGenerator(g *Generator) FactoryOption {
	return func(f *Factory) { f.generator = g }
}

// GenerateOption tunes one GenerateProxy call.
type GenerateOption func(*generateOptions)

type generateOptions struct {
	throwEmpty bool
}

// ThrowEmpty makes GenerateProxy fail with EmptyBuilderError instead of
// returning the class itself when no extension added anything.
func ThrowEmpty() GenerateOption {
	return func(o *generateOptions) { o.throwEmpty = true }
}

type factoryEntry struct {
	class *Class
	empty bool
}

// Factory generates proxy classes through its extensions and caches them by
// ClassID of the target. It is safe for concurrent use.
type Factory struct {
	extensions []Extension
	lookup     Lookup
	logger     *zap.Logger
	generator  *Generator

	mu    sync.RWMutex
	cache map[uuid.UUID]factoryEntry
	group singleflight.Group
}

// NewFactory returns a factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		logger: zap.NewNop(),
		cache:  map[uuid.UUID]factoryEntry{},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.generator == nil {
		f.generator = NewGenerator(WithGeneratorLogger(f.logger))
	}
	return f
}

// GenerateProxy returns the proxy class of class, or class itself when no
// extension contributed anything. Concurrent calls for the same class share
// one generation.
func (f *Factory) GenerateProxy(class *catalog.Class, opts ...GenerateOption) (Instantiator, error) {
	if class == nil {
		return nil, CannotProxyClassError{Class: "<nil>", Reason: "missing"}
	}
	var o generateOptions
	for _, opt := range opts {
		opt(&o)
	}

	id := ClassID(class.Name)
	f.mu.RLock()
	e, ok := f.cache[id]
	f.mu.RUnlock()

	if !ok {
		v, err, _ := f.group.Do(id.String(), func() (any, error) {
			f.mu.RLock()
			e, ok := f.cache[id]
			f.mu.RUnlock()
			if ok {
				return e, nil
			}

			e, err := f.build(class)
			if err != nil {
				return nil, err
			}
			f.mu.Lock()
			f.cache[id] = e
			f.mu.Unlock()
			return e, nil
		})
		if err != nil {
			return nil, err
		}
		e = v.(factoryEntry)
	}

	if e.empty {
		if o.throwEmpty {
			return nil, EmptyBuilderError{Class: class.Name}
		}
		return class, nil
	}
	return e.class, nil
}

// Len returns the number of cached classes.
func (f *Factory) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache)
}

func (f *Factory) build(class *catalog.Class) (factoryEntry, error) {
	if len(f.extensions) == 0 {
		return factoryEntry{empty: true}, nil
	}

	b, err := NewBuilder(class, f.lookup)
	if err != nil {
		return factoryEntry{}, err
	}
	for _, ext := range f.extensions {
		if err := ext.Extend(b); err != nil {
			return factoryEntry{}, fmt.Errorf("proxy: extend %q: %w", class.Name, err)
		}
	}
	if b.Empty() {
		f.logger.Debug("proxy not needed", zap.String("class", class.Name), zap.Stringer("proxy_id", ClassID(class.Name)))
		return factoryEntry{empty: true}, nil
	}

	pc, err := f.generator.Generate(b)
	if err != nil {
		return factoryEntry{}, err
	}
	f.logger.Debug("proxy cached",
		zap.String("class", class.Name),
		zap.String("proxy", pc.Name()),
		zap.Stringer("proxy_id", pc.ID()),
	)
	return factoryEntry{class: pc}, nil
}
