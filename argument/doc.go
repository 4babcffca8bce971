// Package argument binds values to the parameters of a catalog.Func.
//
// A Resolver walks the parameter list and asks a chain of ValueResolvers, in
// priority order, for each parameter's value. The first resolver that supports
// a parameter must yield at least one value; a parameter nobody supports is an
// error. The default chain ends with DefaultValueResolver and NullResolver:
//
//	r := argument.NewResolver(
//		argument.NewContainerResolver(services),
//		argument.DefaultValueResolver{},
//		argument.NullResolver{},
//	)
//	args, err := r.Arguments(class.Constructor)
package argument
