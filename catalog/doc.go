// Package catalog describes the types a registry or proxy works with.
//
// A Class is a small, reflection-friendly description of a Go type: its
// constructor (with named, optionally defaulted parameters), its methods with
// visibility and finality, its fields ("properties") and the interfaces it
// implements. Go has no class loader and no constructor parameter names, so
// descriptions are registered explicitly:
//
//	cat := catalog.NewMap()
//	_, _ = cat.RegisterInterface("models.User", reflect.TypeFor[models.User]())
//	_, _ = cat.RegisterStruct("models.v1.v1_0.User", v1_0.NewUser,
//		catalog.WithParams(catalog.Arg("name").WithDefault("anonymous")),
//	)
//
// Implemented interfaces are linked automatically with reflect.Type.Implements.
//
// For build-time generation, ParseDir describes a struct from Go source instead,
// honoring the //vdto:final and //vdto:readonly directives.
//
// Visibility follows where the consumer lives: a runtime proxy sits outside the
// model package, so reflected unexported fields are Private; generated proxies
// sit inside it, so parsed unexported fields are Protected.
package catalog
