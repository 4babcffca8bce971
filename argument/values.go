package argument

import (
	"github.com/sghaida/vdto/container"
)

// DefaultValueResolver yields the declared default of non-variadic parameters.
type DefaultValueResolver struct{}

// Supports implements ValueResolver.
func (DefaultValueResolver) Supports(a Argument) bool { return a.HasDefault && !a.Variadic }

// Resolve implements ValueResolver.
func (DefaultValueResolver) Resolve(a Argument) ([]any, error) { return []any{a.Default}, nil }

// NullResolver yields nil for nullable non-variadic parameters.
type NullResolver struct{}

// Supports implements ValueResolver.
func (NullResolver) Supports(a Argument) bool { return a.Nullable && !a.Variadic }

// Resolve implements ValueResolver.
func (NullResolver) Resolve(Argument) ([]any, error) { return []any{nil}, nil }

// ContainerResolver yields services whose name is the parameter's type name.
// Predeclared types are never looked up.
type ContainerResolver struct {
	c container.Container
}

// NewContainerResolver returns a resolver backed by c.
func NewContainerResolver(c container.Container) *ContainerResolver {
	return &ContainerResolver{c: c}
}

// Supports implements ValueResolver.
func (r *ContainerResolver) Supports(a Argument) bool {
	return a.TypeName != "" && !a.Builtin() && container.SafeHas(r.c, a.TypeName)
}

// Resolve implements ValueResolver.
func (r *ContainerResolver) Resolve(a Argument) ([]any, error) {
	v, err := container.SafeGet(r.c, a.TypeName)
	if err != nil {
		return nil, err
	}
	return []any{v}, nil
}
