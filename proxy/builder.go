package proxy

import (
	"fmt"
	"go/token"
	"slices"
	"strings"

	"github.com/sghaida/vdto/catalog"
)

// Lookup finds a class by name. (*catalog.Map).Lookup satisfies it.
type Lookup func(name string) (*catalog.Class, bool)

// ReservedMethods are the names of the accessors every proxy defines.
var ReservedMethods = []string{"New", "Get", "Set", "Isset"}

// TraitAlias exposes a trait method under another name.
type TraitAlias struct {
	Method     string
	Alias      string
	Visibility catalog.Visibility
}

// TraitOverride makes the trait's Method win over the one of TraitToReplace.
type TraitOverride struct {
	Method         string
	TraitToReplace string
}

// Trait is a struct whose methods the proxy gains by embedding.
type Trait struct {
	Name      string
	Aliases   []TraitAlias
	Overrides []TraitOverride
}

// ExtraProperty is a property the proxy declares on top of the target's.
type ExtraProperty struct {
	Name string
	// TypeName is the Go type of the generated field ("int", "*zap.Logger").
	TypeName string
	Default  any
	// Init is Go code run by the generated constructor once the target is built.
	Init   string
	InitFn func(inst *Instance) error
}

// ExtraMethod is a method the proxy declares on top of the target's.
type ExtraMethod struct {
	Name string
	// Params, Results and Body make up the generated method; the receiver is
	// named p.
	Params  string
	Results string
	Body    string

	Fn func(inst *Instance, args ...any) ([]any, error)
}

// Source returns the method declaration for a receiver of type recv.
func (m ExtraMethod) Source(recv string) string {
	return "func (p " + recv + ") " + m.Name + "(" + m.Params + ") " + m.Results + " {\n" + m.Body + "\n}"
}

// Builder accumulates the interception plan of one target class.
type Builder struct {
	class  *catalog.Class
	lookup Lookup

	interfaces []string
	traits     []Trait

	accessibleProperties []catalog.Property
	accessibleMethods    map[string]catalog.Method

	propertyInterceptors map[string][]*Interceptor
	methodInterceptors   map[string][]*Interceptor
	methodWrappers       map[string][]*Wrapper

	extraProperties []ExtraProperty
	extraMethods    []ExtraMethod
}

// NewBuilder starts a builder for class. lookup resolves interface and trait
// names and may be nil.
func NewBuilder(class *catalog.Class, lookup Lookup) (*Builder, error) {
	switch {
	case class == nil:
		return nil, CannotProxyClassError{Class: "<nil>", Reason: "missing"}
	case class.IsInterface():
		return nil, CannotProxyClassError{Class: class.Name, Reason: "an interface"}
	case class.Final:
		return nil, CannotProxyClassError{Class: class.Name, Reason: "final"}
	case class.ReadOnly:
		return nil, CannotProxyClassError{Class: class.Name, Reason: "read-only"}
	}

	b := &Builder{
		class:                class,
		lookup:               lookup,
		accessibleMethods:    map[string]catalog.Method{},
		propertyInterceptors: map[string][]*Interceptor{},
		methodInterceptors:   map[string][]*Interceptor{},
		methodWrappers:       map[string][]*Wrapper{},
	}
	for _, p := range class.Properties {
		if p.Visibility.Accessible() {
			b.accessibleProperties = append(b.accessibleProperties, p)
		}
	}
	for _, m := range class.Methods {
		if m.Visibility.Accessible() && !m.Static {
			b.accessibleMethods[m.Name] = m
		}
	}
	return b, nil
}

// Class returns the target class.
func (b *Builder) Class() *catalog.Class { return b.class }

// Empty reports whether nothing has been added: no interceptors, wrappers,
// extra properties or extra methods.
func (b *Builder) Empty() bool {
	return len(b.propertyInterceptors) == 0 &&
		len(b.methodInterceptors) == 0 &&
		len(b.methodWrappers) == 0 &&
		len(b.extraProperties) == 0 &&
		len(b.extraMethods) == 0
}

// AddInterface declares an extra interface the proxy implements.
func (b *Builder) AddInterface(name string) error {
	if b.lookup == nil {
		return NonExistentInterfaceError{Interface: name}
	}
	c, ok := b.lookup(name)
	if !ok || !c.IsInterface() {
		return NonExistentInterfaceError{Interface: name}
	}
	if !slices.Contains(b.interfaces, name) {
		b.interfaces = append(b.interfaces, name)
	}
	return nil
}

// Interfaces returns the extra interfaces, in declaration order.
func (b *Builder) Interfaces() []string { return slices.Clone(b.interfaces) }

// AddTrait mixes a trait into the proxy.
func (b *Builder) AddTrait(name string, aliases []TraitAlias, overrides []TraitOverride) error {
	for _, t := range b.traits {
		if t.Name == name {
			return TraitAlreadyAddedError{Class: b.class.Name, Trait: name}
		}
	}
	b.traits = append(b.traits, Trait{Name: name, Aliases: slices.Clone(aliases), Overrides: slices.Clone(overrides)})
	return nil
}

// Traits returns the traits, in declaration order.
func (b *Builder) Traits() []Trait { return slices.Clone(b.traits) }

// AddPropertyInterceptor runs i before every write of an accessible property.
func (b *Builder) AddPropertyInterceptor(name string, i *Interceptor) error {
	if !b.accessibleProperty(name) {
		return NonExistentPropertyError{Class: b.class.Name, Property: name}
	}
	b.propertyInterceptors[name] = append(b.propertyInterceptors[name], i)
	return nil
}

// PropertyInterceptors returns the interceptors of a property.
func (b *Builder) PropertyInterceptors(name string) []*Interceptor {
	return slices.Clone(b.propertyInterceptors[name])
}

// AddMethodInterceptor runs i before every call of an accessible method.
func (b *Builder) AddMethodInterceptor(name string, i *Interceptor) error {
	if err := b.checkMethod(name, "intercepted"); err != nil {
		return err
	}
	b.methodInterceptors[name] = append(b.methodInterceptors[name], i)
	return nil
}

// MethodInterceptors returns the interceptors of a method.
func (b *Builder) MethodInterceptors(name string) []*Interceptor {
	return slices.Clone(b.methodInterceptors[name])
}

// AddMethodWrapper brackets every call of an accessible method with w.
func (b *Builder) AddMethodWrapper(name string, w *Wrapper) error {
	if err := b.checkMethod(name, "wrapped"); err != nil {
		return err
	}
	b.methodWrappers[name] = append(b.methodWrappers[name], w)
	return nil
}

// MethodWrappers returns the wrappers of a method, outermost first.
func (b *Builder) MethodWrappers(name string) []*Wrapper {
	return slices.Clone(b.methodWrappers[name])
}

func (b *Builder) checkMethod(name, op string) error {
	m, ok := b.accessibleMethods[name]
	if !ok {
		return NonExistentMethodError{Class: b.class.Name, Method: name}
	}
	if m.Final {
		return FinalMethodError{Class: b.class.Name, Method: name, Op: op}
	}
	return nil
}

// HasProperty reports whether name is an accessible or extra property.
func (b *Builder) HasProperty(name string) bool {
	return b.accessibleProperty(name) || b.extraProperty(name)
}

// AddProperty declares an extra property.
func (b *Builder) AddProperty(p ExtraProperty) error {
	if !token.IsIdentifier(p.Name) {
		return fmt.Errorf("proxy: invalid property name %q", p.Name)
	}
	if b.HasProperty(p.Name) {
		return PropertyAlreadyDeclaredError{Property: p.Name}
	}
	if err := ValidateStatements(p.Init); err != nil {
		return err
	}
	b.extraProperties = append(b.extraProperties, p)
	return nil
}

// ExtraProperties returns the extra properties, in declaration order.
func (b *Builder) ExtraProperties() []ExtraProperty { return slices.Clone(b.extraProperties) }

// InitCode returns the Init code of every extra property, in order.
func (b *Builder) InitCode() string {
	var parts []string
	for _, p := range b.extraProperties {
		if strings.TrimSpace(p.Init) != "" {
			parts = append(parts, p.Init)
		}
	}
	return strings.Join(parts, "\n")
}

// HasMethod reports whether name is an accessible or extra method.
func (b *Builder) HasMethod(name string) bool {
	_, ok := b.accessibleMethods[name]
	return ok || b.extraMethod(name)
}

// AddMethod declares an extra method. Its name must not collide with another
// method or with ReservedMethods.
func (b *Builder) AddMethod(m ExtraMethod) error {
	if !token.IsIdentifier(m.Name) {
		return fmt.Errorf("proxy: invalid method name %q", m.Name)
	}
	if b.HasMethod(m.Name) || slices.Contains(ReservedMethods, m.Name) {
		return MethodAlreadyDeclaredError{Method: m.Name}
	}
	if err := ValidateDecl(m.Source("*T")); err != nil {
		return err
	}
	b.extraMethods = append(b.extraMethods, m)
	return nil
}

// ExtraMethods returns the extra methods, in declaration order.
func (b *Builder) ExtraMethods() []ExtraMethod { return slices.Clone(b.extraMethods) }

// AccessibleProperties returns the properties a proxy can intercept, in
// declaration order.
func (b *Builder) AccessibleProperties() []catalog.Property {
	return slices.Clone(b.accessibleProperties)
}

// AccessibleMethod returns an accessible method by name.
func (b *Builder) AccessibleMethod(name string) (catalog.Method, bool) {
	m, ok := b.accessibleMethods[name]
	return m, ok
}

// InterceptedProperties returns the accessible properties with interceptors.
func (b *Builder) InterceptedProperties() []catalog.Property {
	var out []catalog.Property
	for _, p := range b.accessibleProperties {
		if len(b.propertyInterceptors[p.Name]) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// InterceptedMethods returns the methods with interceptors or wrappers, in
// the target's declaration order.
func (b *Builder) InterceptedMethods() []catalog.Method {
	var out []catalog.Method
	for _, m := range b.class.Methods {
		if len(b.methodInterceptors[m.Name]) > 0 || len(b.methodWrappers[m.Name]) > 0 {
			out = append(out, m)
		}
	}
	return out
}

// Lookup returns the class lookup the builder was created with.
func (b *Builder) Lookup() Lookup { return b.lookup }

func (b *Builder) accessibleProperty(name string) bool {
	for _, p := range b.accessibleProperties {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (b *Builder) extraProperty(name string) bool {
	for _, p := range b.extraProperties {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (b *Builder) extraMethod(name string) bool {
	for _, m := range b.extraMethods {
		if m.Name == name {
			return true
		}
	}
	return false
}
