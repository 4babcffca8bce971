// Package container is the dependency container consulted while building
// versioned models.
//
// It is deliberately small: a Container answers Has(name) and Get(name), and
// Map is an in-memory implementation keyed by name. Typed services are keyed by
// their Go type string, the same name argument resolution looks up:
//
//	c := container.NewMap().Provide("clock", clock)
//	container.ProvideType(c, logger) // key "*zap.Logger"
//
// Panics raised while reading from a Container are converted to ErrPanic so a
// misbehaving implementation cannot take down a resolution.
package container
