package catalog

import (
	"fmt"
	"path"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// Catalog enumerates class descriptions.
type Catalog interface {
	// Enumerate returns the classes named namespace or below it ("ns.x.Y"),
	// ordered by name.
	Enumerate(namespace string) ([]*Class, error)

	// Lookup returns a class by its fully qualified name.
	Lookup(name string) (*Class, bool)
}

// Map is an in-memory Catalog. It is safe for concurrent use.
type Map struct {
	mu      sync.RWMutex
	classes map[string]*Class
}

var _ Catalog = (*Map)(nil)

// NewMap returns an empty catalog.
func NewMap() *Map {
	return &Map{classes: map[string]*Class{}}
}

// Add registers a hand-built description.
func (m *Map) Add(c *Class) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.classes[c.Name]; exists {
		return DuplicateClassError{Name: c.Name}
	}
	m.classes[c.Name] = c
	m.linkLocked()
	return nil
}

// MustAdd is Add that panics on error, for catalogs built by hand.
func (m *Map) MustAdd(c *Class) *Map {
	if err := m.Add(c); err != nil {
		panic(err)
	}
	return m
}

// RegisterInterface registers an interface type under name.
func (m *Map) RegisterInterface(name string, t reflect.Type) (*Class, error) {
	if t == nil || t.Kind() != reflect.Interface {
		return nil, fmt.Errorf("catalog: %s: want interface type, got %v", name, t)
	}
	c := &Class{
		Name:    name,
		Package: path.Base(t.PkgPath()),
		Kind:    KindInterface,
		GoType:  t,
	}
	for i := 0; i < t.NumMethod(); i++ {
		c.Methods = append(c.Methods, describeMethod(t.Method(i), false, nil))
	}
	if err := m.Add(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Option tunes RegisterStruct.
type Option func(*structOptions)

type structOptions struct {
	params       []ParamSpec
	interfaces   []string
	final        bool
	readOnly     bool
	finalMethods map[string]bool
}

// WithParams names (and optionally defaults) the constructor parameters, in order.
func WithParams(specs ...ParamSpec) Option {
	return func(o *structOptions) { o.params = append(o.params, specs...) }
}

// WithInterfaces records interface names the class implements in addition to
// the ones linked through reflection.
func WithInterfaces(names ...string) Option {
	return func(o *structOptions) { o.interfaces = append(o.interfaces, names...) }
}

// WithFinal marks the class as not proxyable.
func WithFinal() Option { return func(o *structOptions) { o.final = true } }

// WithReadOnly marks the class as read-only (not proxyable).
func WithReadOnly() Option { return func(o *structOptions) { o.readOnly = true } }

// WithFinalMethods marks methods that must not be intercepted.
func WithFinalMethods(names ...string) Option {
	return func(o *structOptions) {
		if o.finalMethods == nil {
			o.finalMethods = map[string]bool{}
		}
		for _, n := range names {
			o.finalMethods[n] = true
		}
	}
}

// ParamSpec names one constructor parameter.
type ParamSpec struct {
	Name       string
	HasDefault bool
	Default    any
	// Nullable overrides the nullability derived from the Go kind when set.
	Nullable *bool
}

// Arg starts a parameter spec.
func Arg(name string) ParamSpec { return ParamSpec{Name: name} }

// WithDefault sets the default value.
func (p ParamSpec) WithDefault(v any) ParamSpec {
	p.HasDefault = true
	p.Default = v
	return p
}

// AsNullable forces nullability on or off.
func (p ParamSpec) AsNullable(nullable bool) ParamSpec {
	p.Nullable = &nullable
	return p
}

// RegisterStruct describes the struct produced by ctor and registers it under name.
//
// ctor must be a func returning *T or (*T, error) where T is a struct. Without
// WithParams the parameters are named arg0, arg1, ...
func (m *Map) RegisterStruct(name string, ctor any, opts ...Option) (*Class, error) {
	var o structOptions
	for _, opt := range opts {
		opt(&o)
	}

	ft := reflect.TypeOf(ctor)
	if ft == nil || ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("catalog: %s: constructor must be a func, got %T", name, ctor)
	}
	if ft.NumOut() < 1 || ft.NumOut() > 2 || (ft.NumOut() == 2 && ft.Out(1) != errorType) {
		return nil, fmt.Errorf("catalog: %s: constructor must return *T or (*T, error)", name)
	}
	out := ft.Out(0)
	if out.Kind() != reflect.Pointer || out.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("catalog: %s: constructor must return a struct pointer, got %v", name, out)
	}
	if len(o.params) > 0 && len(o.params) != ft.NumIn() {
		return nil, fmt.Errorf("catalog: %s: %d parameter specs for %d parameters", name, len(o.params), ft.NumIn())
	}

	params := make([]Param, ft.NumIn())
	for i := range params {
		spec := ParamSpec{Name: fmt.Sprintf("arg%d", i)}
		if len(o.params) > 0 {
			spec = o.params[i]
		}
		params[i] = describeParam(ft.In(i), spec, ft.IsVariadic() && i == ft.NumIn()-1)
	}

	st := out.Elem()
	c := &Class{
		Name:       name,
		Package:    path.Base(st.PkgPath()),
		Kind:       KindStruct,
		Final:      o.final,
		ReadOnly:   o.readOnly,
		Interfaces: append([]string(nil), o.interfaces...),
		GoType:     st,
		Properties: describeFields(st),
	}

	ctorName := runtimeFuncName(ctor)
	fn, err := NewFunc(name, ctorName, ctor, params, []string{out.String()})
	if err != nil {
		return nil, err
	}
	c.Constructor = fn

	pt := reflect.PointerTo(st)
	for i := 0; i < pt.NumMethod(); i++ {
		meth := pt.Method(i)
		c.Methods = append(c.Methods, describeMethod(meth, true, o.finalMethods))
	}

	if err := m.Add(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Enumerate implements Catalog.
func (m *Map) Enumerate(namespace string) ([]*Class, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := strings.TrimSuffix(namespace, ".") + "."
	out := make([]*Class, 0, len(m.classes))
	for name, c := range m.classes {
		if namespace == "" || name == namespace || strings.HasPrefix(name, prefix) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Lookup implements Catalog.
func (m *Map) Lookup(name string) (*Class, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.classes[name]
	return c, ok
}

// linkLocked records interface implementations on every struct. Reflected
// types are matched with reflect.Type.Implements, source descriptions by
// method names.
func (m *Map) linkLocked() {
	for _, iface := range m.classes {
		if !iface.IsInterface() {
			continue
		}
		for _, c := range m.classes {
			if c.IsInterface() || c.Implements(iface.Name) {
				continue
			}
			if implements(c, iface) {
				c.Interfaces = append(c.Interfaces, iface.Name)
			}
		}
	}
}

func implements(c, iface *Class) bool {
	if c.GoType != nil && iface.GoType != nil {
		return reflect.PointerTo(c.GoType).Implements(iface.GoType)
	}
	if c.GoType != nil || iface.GoType != nil || len(iface.Methods) == 0 {
		return false
	}
	for _, want := range iface.Methods {
		got, ok := c.Method(want.Name)
		if !ok || len(got.Params) != len(want.Params) || len(got.Results) != len(want.Results) {
			return false
		}
	}
	return true
}

// runtimeFuncName returns the bare name of a func value ("NewUser").
func runtimeFuncName(fn any) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return "new"
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// -----------------------------------------------------------------------------
// Reflection helpers
// -----------------------------------------------------------------------------

func describeParam(t reflect.Type, spec ParamSpec, variadic bool) Param {
	p := Param{
		Name:       spec.Name,
		Type:       t,
		TypeName:   t.String(),
		HasDefault: spec.HasDefault,
		Default:    spec.Default,
		Variadic:   variadic,
		Nullable:   nilable(t.Kind()),
	}
	if variadic {
		p.TypeName = t.Elem().String()
	}
	if spec.Nullable != nil {
		p.Nullable = *spec.Nullable
	}
	return p
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// describeMethod describes m; hasReceiver skips the receiver parameter of
// methods obtained from a concrete type.
func describeMethod(m reflect.Method, hasReceiver bool, finals map[string]bool) Method {
	t := m.Type
	start := 0
	if hasReceiver {
		start = 1
	}
	desc := Method{Name: m.Name, Visibility: Public, Final: finals[m.Name]}
	for i := start; i < t.NumIn(); i++ {
		desc.Params = append(desc.Params, describeParam(
			t.In(i),
			ParamSpec{Name: fmt.Sprintf("arg%d", i-start)},
			t.IsVariadic() && i == t.NumIn()-1,
		))
	}
	for i := 0; i < t.NumOut(); i++ {
		desc.Results = append(desc.Results, t.Out(i).String())
	}
	return desc
}

func describeFields(st reflect.Type) []Property {
	props := make([]Property, 0, st.NumField())
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if f.Anonymous {
			continue
		}
		vis := Private
		if f.IsExported() {
			vis = Public
		}
		props = append(props, Property{
			Name:       f.Name,
			Visibility: vis,
			Type:       f.Type,
			TypeName:   f.Type.String(),
			Default:    reflect.Zero(f.Type).Interface(),
		})
	}
	return props
}
