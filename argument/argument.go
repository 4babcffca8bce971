package argument

import (
	"reflect"

	"github.com/sghaida/vdto/catalog"
)

// Argument describes one formal parameter being resolved.
type Argument struct {
	// Owner is the class declaring the callable.
	Owner string
	// Callable is the callable's display name ("models.User.NewUser()").
	Callable   string
	Name       string
	Type       reflect.Type
	TypeName   string
	HasDefault bool
	Default    any
	Variadic   bool
	Nullable   bool

	builtin bool
}

// NewArgument builds the descriptor of p as declared by fn.
func NewArgument(fn *catalog.Func, p catalog.Param) Argument {
	return Argument{
		Owner:      fn.Owner,
		Callable:   fn.String(),
		Name:       p.Name,
		Type:       p.Type,
		TypeName:   p.TypeName,
		HasDefault: p.HasDefault,
		Default:    p.Default,
		Variadic:   p.Variadic,
		Nullable:   p.Nullable,
		builtin:    p.Builtin(),
	}
}

// Builtin reports whether the parameter type is predeclared (string, int, error, ...).
func (a Argument) Builtin() bool { return a.builtin }

// ValueResolver yields values for the parameters it supports.
type ValueResolver interface {
	Supports(arg Argument) bool
	// Resolve returns one value, or several for a variadic parameter.
	Resolve(arg Argument) ([]any, error)
}

// Funcs adapts a pair of plain functions to ValueResolver.
type Funcs struct {
	SupportsFunc func(Argument) bool
	ResolveFunc  func(Argument) ([]any, error)
}

// Supports implements ValueResolver.
func (f Funcs) Supports(arg Argument) bool { return f.SupportsFunc(arg) }

// Resolve implements ValueResolver.
func (f Funcs) Resolve(arg Argument) ([]any, error) { return f.ResolveFunc(arg) }

// Named returns a resolver supplying value for every parameter called name.
func Named(name string, value any) ValueResolver {
	return Funcs{
		SupportsFunc: func(a Argument) bool { return a.Name == name },
		ResolveFunc:  func(Argument) ([]any, error) { return []any{value}, nil },
	}
}
