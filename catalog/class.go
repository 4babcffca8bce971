package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// Visibility is the accessibility of a member from a proxy's point of view.
type Visibility uint8

const (
	Public Visibility = iota
	Protected
	Private
)

// String implements fmt.Stringer.
func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case Protected:
		return "protected"
	case Private:
		return "private"
	}
	return "visibility(" + strconv.Itoa(int(v)) + ")"
}

// Accessible reports whether a proxy can intercept a member of this visibility.
func (v Visibility) Accessible() bool { return v == Public || v == Protected }

// Kind distinguishes concrete types from interfaces.
type Kind uint8

const (
	KindStruct Kind = iota
	KindInterface
)

var (
	// ErrNotCallable is returned when a Func has no underlying function value.
	ErrNotCallable = errors.New("catalog: func is not callable")

	// ErrNotInstantiable is returned by Class.New for interfaces and classes
	// without a constructor or Go type.
	ErrNotInstantiable = errors.New("catalog: class is not instantiable")
)

// Param describes one formal parameter.
//
// For variadic parameters Type is the slice type and TypeName the element type.
type Param struct {
	Name       string
	Type       reflect.Type
	TypeName   string
	Nullable   bool
	HasDefault bool
	Default    any
	Variadic   bool
}

// Builtin reports whether the parameter type is predeclared or an unnamed
// composite of predeclared types (string, []byte, map[string]int, error, any).
// Parameters described from source without reflect information are treated as
// builtin unless their type name is qualified or capitalized.
func (p Param) Builtin() bool {
	if p.Type != nil {
		return isBuiltin(p.Type)
	}
	return isBuiltinName(p.TypeName)
}

func isBuiltin(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Chan:
		if t.Name() == "" {
			return isBuiltin(t.Elem())
		}
	case reflect.Map:
		if t.Name() == "" {
			return isBuiltin(t.Key()) && isBuiltin(t.Elem())
		}
	}
	return t.PkgPath() == ""
}

func isBuiltinName(name string) bool {
	for len(name) > 0 && (name[0] == '*' || name[0] == '[' || name[0] == ']') {
		name = name[1:]
	}
	if name == "" {
		return true
	}
	for _, r := range name {
		if r == '.' {
			return false
		}
	}
	return name[0] < 'A' || name[0] > 'Z'
}

// Func is a callable with described parameters: a constructor or a method.
type Func struct {
	// Owner is the name of the class declaring the func.
	Owner string
	// Name is the func name as declared ("NewUser", "Rename").
	Name    string
	Params  []Param
	Results []string

	fn reflect.Value
}

// NewFunc wraps fn (which must be a func value) with the given description.
func NewFunc(owner, name string, fn any, params []Param, results []string) (*Func, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("catalog: %s.%s: want func, got %T", owner, name, fn)
	}
	return &Func{Owner: owner, Name: name, Params: params, Results: results, fn: v}, nil
}

// Callable reports whether the func carries an underlying function value.
// Funcs described from source are not callable.
func (f *Func) Callable() bool { return f != nil && f.fn.IsValid() }

// String returns "Owner.Name()".
func (f *Func) String() string {
	if f == nil {
		return "<nil>"
	}
	return f.Owner + "." + f.Name + "()"
}

// Call invokes the func. Nil arguments become the parameter's zero value and
// arguments past the last fixed parameter fill the variadic one.
// A trailing non-nil error result is returned as the error.
func (f *Func) Call(args []any) ([]any, error) {
	if !f.Callable() {
		return nil, ErrNotCallable
	}
	in, err := f.buildArgs(args)
	if err != nil {
		return nil, err
	}
	return splitResults(f.fn.Call(in))
}

func (f *Func) buildArgs(args []any) ([]reflect.Value, error) {
	t := f.fn.Type()
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
	}
	if len(args) < fixed || (!t.IsVariadic() && len(args) > fixed) {
		return nil, ArityError{Func: f.String(), Want: t.NumIn(), Got: len(args), Variadic: t.IsVariadic()}
	}

	in := make([]reflect.Value, 0, len(args))
	for i, a := range args {
		var pt reflect.Type
		if i < fixed {
			pt = t.In(i)
		} else {
			pt = t.In(t.NumIn() - 1).Elem()
		}
		v, err := convert(a, pt)
		if err != nil {
			return nil, ArgumentTypeError{Func: f.String(), Index: i, Want: pt.String(), Got: fmt.Sprintf("%T", a)}
		}
		in = append(in, v)
	}
	return in, nil
}

// convert turns a into a value assignable to t.
func convert(a any, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if isNumber(v.Kind()) && isNumber(t.Kind()) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, errors.New("not assignable")
}

func isNumber(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Float64) && k != reflect.Uintptr
}

var errorType = reflect.TypeFor[error]()

func splitResults(out []reflect.Value) ([]any, error) {
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		last := out[n-1]
		out = out[:n-1]
		if !last.IsNil() {
			return valuesToAny(out), last.Interface().(error)
		}
	}
	return valuesToAny(out), nil
}

func valuesToAny(vs []reflect.Value) []any {
	res := make([]any, len(vs))
	for i, v := range vs {
		res[i] = v.Interface()
	}
	return res
}

// Method describes a method of a class.
type Method struct {
	Name       string
	Visibility Visibility
	Final      bool
	Static     bool
	Params     []Param
	Results    []string
}

// Property describes a field of a class.
type Property struct {
	Name       string
	Visibility Visibility
	Type       reflect.Type
	TypeName   string
	// Default is the declared default value (the zero value for Go structs).
	Default any
}

// Class describes a concrete type or an interface.
type Class struct {
	// Name is the fully qualified dotted name ("models.v1.v1_2.User").
	Name string
	// Package is the Go package name declaring the type.
	Package    string
	Kind       Kind
	Final      bool
	ReadOnly   bool
	Interfaces []string

	// Constructor is nil when the type is built with new(T).
	Constructor *Func
	Methods     []Method
	Properties  []Property

	// GoType is the struct (or interface) type; nil for source descriptions.
	GoType reflect.Type
}

// IsInterface reports whether the class describes an interface.
func (c *Class) IsInterface() bool { return c.Kind == KindInterface }

// Method returns the named method.
func (c *Class) Method(name string) (Method, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// Property returns the named property.
func (c *Class) Property(name string) (Property, bool) {
	for _, p := range c.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Implements reports whether iface is among the implemented interfaces.
func (c *Class) Implements(iface string) bool {
	for _, i := range c.Interfaces {
		if i == iface {
			return true
		}
	}
	return false
}

// New instantiates the class with the given constructor arguments.
// The result is a pointer to the struct.
func (c *Class) New(args ...any) (any, error) {
	if c.IsInterface() {
		return nil, ErrNotInstantiable
	}
	if c.Constructor != nil {
		out, err := c.Constructor.Call(args)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, ErrNotInstantiable
		}
		return out[0], nil
	}
	if c.GoType == nil {
		return nil, ErrNotInstantiable
	}
	if len(args) > 0 {
		return nil, ArityError{Func: c.Name + ".new()", Want: 0, Got: len(args)}
	}
	return reflect.New(c.GoType).Interface(), nil
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// ArityError is returned when a func is called with the wrong number of arguments.
type ArityError struct {
	Func     string
	Want     int
	Got      int
	Variadic bool
}

// Error implements the error interface.
func (e ArityError) Error() string {
	// Example: catalog: "models.User.NewUser()" wants 2 arguments, got 1
	want := strconv.Itoa(e.Want)
	if e.Variadic {
		want = "at least " + strconv.Itoa(e.Want-1)
	}
	return "catalog: " + strconv.Quote(e.Func) + " wants " + want + " arguments, got " + strconv.Itoa(e.Got)
}

// ArgumentTypeError is returned when an argument cannot be assigned to its parameter.
type ArgumentTypeError struct {
	Func  string
	Index int
	Want  string
	Got   string
}

// Error implements the error interface.
func (e ArgumentTypeError) Error() string {
	// Example: catalog: "models.User.NewUser()" argument 0: want string, got int
	return "catalog: " + strconv.Quote(e.Func) + " argument " + strconv.Itoa(e.Index) + ": want " + e.Want + ", got " + e.Got
}

// DuplicateClassError is returned when a class name is registered twice.
type DuplicateClassError struct{ Name string }

// Error implements the error interface.
func (e DuplicateClassError) Error() string {
	return "catalog: class " + strconv.Quote(e.Name) + " already registered"
}
