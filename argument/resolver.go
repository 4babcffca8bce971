package argument

import (
	"fmt"

	"github.com/sghaida/vdto/catalog"
)

// Resolver resolves argument lists through a chain of ValueResolvers.
type Resolver struct {
	resolvers []ValueResolver
}

// NewResolver returns a resolver trying resolvers in the given order.
func NewResolver(resolvers ...ValueResolver) *Resolver {
	return &Resolver{resolvers: append([]ValueResolver(nil), resolvers...)}
}

// Default returns the chain used when nothing else is configured:
// extra resolvers first, then DefaultValueResolver and NullResolver.
func Default(extra ...ValueResolver) *Resolver {
	chain := append(append([]ValueResolver(nil), extra...), DefaultValueResolver{}, NullResolver{})
	return NewResolver(chain...)
}

// Resolvers returns a copy of the chain.
func (r *Resolver) Resolvers() []ValueResolver {
	return append([]ValueResolver(nil), r.resolvers...)
}

// Arguments returns the values to call fn with, one or more per parameter.
// A nil fn has no parameters.
func (r *Resolver) Arguments(fn *catalog.Func) ([]any, error) {
	if fn == nil {
		return nil, nil
	}

	args := make([]any, 0, len(fn.Params))
next:
	for _, p := range fn.Params {
		arg := NewArgument(fn, p)
		for _, vr := range r.resolvers {
			if !vr.Supports(arg) {
				continue
			}
			vals, err := vr.Resolve(arg)
			if err != nil {
				return nil, fmt.Errorf("argument: resolve %q of %s: %w", arg.Name, arg.Callable, err)
			}
			if len(vals) == 0 {
				return nil, ResolutionError{Callable: arg.Callable, Parameter: arg.Name, Resolver: fmt.Sprintf("%T", vr), Empty: true}
			}
			args = append(args, vals...)
			continue next
		}
		return nil, ResolutionError{Callable: arg.Callable, Parameter: arg.Name}
	}
	return args, nil
}
