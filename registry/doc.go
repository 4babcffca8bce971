// Package registry discovers versioned implementations in a catalog and serves
// one locator.Locator per interface.
//
// Implementations are found by naming convention. Under a namespace "models",
// a struct registered as "models.v1.v1_2.User" is version "1.2" of every
// interface it implements; the "_" in the second segment stands for ".".
// Names that do not follow the convention are skipped.
//
//	reg, err := registry.NewBuilder("models", cat).
//		WithServiceContainer(services).
//		WithProxyFactory(proxies).
//		Build()
//
//	loc, err := reg.Get("models.User")
//	user, err := loc.Get("1.3") // built by "models.v1.v1_2.User"
//
// Locators are created on first use. Each factory generates (or passes through)
// the proxy of its class, resolves the constructor arguments with an
// argument.Resolver and instantiates the result.
package registry
