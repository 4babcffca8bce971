package proxy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sghaida/vdto/catalog"
)

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithGeneratorLogger sets the logger handed to generated classes.
func WithGeneratorLogger(logger *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Generator turns builders into run-time proxy classes.
type Generator struct {
	logger *zap.Logger
}

// NewGenerator returns a generator.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// methodPlan is the dispatch plan of one intercepted or wrapped method.
type methodPlan struct {
	interceptors []*Interceptor
	wrappers     []*Wrapper
}

// boundTrait is a trait resolved against the catalog.
type boundTrait struct {
	Trait
	class *catalog.Class
}

// Generate compiles b into a proxy class.
func (g *Generator) Generate(b *Builder) (*Class, error) {
	target := b.Class()
	if b.Empty() {
		return nil, EmptyBuilderError{Class: target.Name}
	}

	for _, m := range b.InterceptedMethods() {
		if m.Final {
			return nil, CannotProxyFinalMethodError{Class: target.Name, Method: m.Name}
		}
	}
	if err := checkRuntimeBodies(b); err != nil {
		return nil, err
	}

	c := &Class{
		name:             proxyName(target.Name),
		id:               ClassID(target.Name),
		target:           target,
		interfaces:       b.Interfaces(),
		logger:           g.logger.With(zap.String("class", target.Name), zap.Stringer("proxy_id", ClassID(target.Name))),
		defaults:         map[string]any{},
		propInterceptors: map[string][]*Interceptor{},
		methods:          map[string]methodPlan{},
		extraMethods:     map[string]ExtraMethod{},
		extraProps:       b.ExtraProperties(),
	}

	for _, p := range b.InterceptedProperties() {
		c.defaults[p.Name] = p.Default
		c.intercepted = append(c.intercepted, p)
		c.propInterceptors[p.Name] = b.PropertyInterceptors(p.Name)
	}
	for _, p := range c.extraProps {
		c.defaults[p.Name] = p.Default
	}
	for _, m := range b.InterceptedMethods() {
		c.methods[m.Name] = methodPlan{
			interceptors: b.MethodInterceptors(m.Name),
			wrappers:     b.MethodWrappers(m.Name),
		}
	}
	for _, m := range b.ExtraMethods() {
		c.extraMethods[m.Name] = m
	}

	traits, err := bindTraits(b)
	if err != nil {
		return nil, err
	}
	c.traits = traits

	g.logger.Debug("proxy generated",
		zap.String("class", target.Name),
		zap.String("proxy", c.name),
		zap.Stringer("proxy_id", c.id),
		zap.Int("properties", len(c.intercepted)),
		zap.Int("methods", len(c.methods)),
	)
	return c, nil
}

// ClassID returns the identity of the proxy class generated for the target
// class name. It is stable across generators and processes.
func ClassID(target string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(target))
}

// checkRuntimeBodies rejects parts whose code would be silently skipped at
// run time. Code-only builders are for the code generator.
func checkRuntimeBodies(b *Builder) error {
	class := b.Class().Name
	missing := func(member, part string) error {
		return MissingRuntimeBodyError{Class: class, Member: member, Part: part}
	}

	for _, p := range b.InterceptedProperties() {
		for _, ic := range b.PropertyInterceptors(p.Name) {
			if strings.TrimSpace(ic.Code) != "" && ic.Fn == nil {
				return missing(p.Name, "interceptor")
			}
		}
	}
	for _, m := range b.InterceptedMethods() {
		for _, ic := range b.MethodInterceptors(m.Name) {
			if strings.TrimSpace(ic.Code) != "" && ic.Fn == nil {
				return missing(m.Name, "interceptor")
			}
		}
		for _, w := range b.MethodWrappers(m.Name) {
			if strings.TrimSpace(w.Head) != "" && w.HeadFn == nil {
				return missing(m.Name, "wrapper head")
			}
			if strings.TrimSpace(w.Tail) != "" && w.TailFn == nil {
				return missing(m.Name, "wrapper tail")
			}
		}
	}
	for _, m := range b.ExtraMethods() {
		if m.Fn == nil {
			return missing(m.Name, "method")
		}
	}
	for _, p := range b.ExtraProperties() {
		if strings.TrimSpace(p.Init) != "" && p.InitFn == nil {
			return missing(p.Name, "init")
		}
	}
	return nil
}

func bindTraits(b *Builder) ([]boundTrait, error) {
	traits := b.Traits()
	if len(traits) == 0 {
		return nil, nil
	}
	lookup := b.Lookup()
	if lookup == nil {
		return nil, fmt.Errorf("proxy: no class lookup to resolve trait %q", traits[0].Name)
	}

	out := make([]boundTrait, 0, len(traits))
	for _, t := range traits {
		tc, ok := lookup(t.Name)
		if !ok || tc.IsInterface() {
			return nil, fmt.Errorf("proxy: trait %q does not exist", t.Name)
		}
		for _, a := range t.Aliases {
			if _, ok := tc.Method(a.Method); !ok {
				return nil, NonExistentMethodError{Class: t.Name, Method: a.Method}
			}
		}
		for _, o := range t.Overrides {
			if _, ok := tc.Method(o.Method); !ok {
				return nil, NonExistentMethodError{Class: t.Name, Method: o.Method}
			}
			if !slices.ContainsFunc(traits, func(other Trait) bool { return other.Name == o.TraitToReplace }) {
				return nil, fmt.Errorf("proxy: trait %q overrides unknown trait %q", t.Name, o.TraitToReplace)
			}
		}
		out = append(out, boundTrait{Trait: t, class: tc})
	}
	return out, nil
}

// proxyName returns "<Type>Proxy" for "ns.pkg.Type".
func proxyName(className string) string {
	if i := strings.LastIndexByte(className, '.'); i >= 0 {
		className = className[i+1:]
	}
	return className + "Proxy"
}

// -----------------------------------------------------------------------------
// Class
// -----------------------------------------------------------------------------

// Class is a generated proxy class. It is immutable and safe for concurrent use.
type Class struct {
	name       string
	id         uuid.UUID
	target     *catalog.Class
	interfaces []string
	logger     *zap.Logger

	// defaults is the value-holder layout: intercepted properties with their
	// declared defaults, then extra properties.
	defaults         map[string]any
	intercepted      []catalog.Property
	propInterceptors map[string][]*Interceptor
	methods          map[string]methodPlan
	extraMethods     map[string]ExtraMethod
	extraProps       []ExtraProperty
	traits           []boundTrait
}

// Name returns the proxy type name ("AccountProxy").
func (c *Class) Name() string { return c.name }

// ID identifies the proxy class; it is derived from the target class name.
func (c *Class) ID() uuid.UUID { return c.id }

// Target returns the proxied class.
func (c *Class) Target() *catalog.Class { return c.target }

// Interfaces returns the interfaces added by the builder.
func (c *Class) Interfaces() []string { return slices.Clone(c.interfaces) }

// Implements reports whether the proxy implements iface, through the target
// or an added interface.
func (c *Class) Implements(iface string) bool {
	return c.target.Implements(iface) || slices.Contains(c.interfaces, iface)
}

// New implements Instantiator. The result is an *Instance.
func (c *Class) New(args ...any) (any, error) {
	return c.Instantiate(args...)
}
