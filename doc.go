// Package vdto serves versioned implementations of interfaces.
//
// A namespace holds one package per version ("models.v1.v1_2" is version
// 1.2). Asking for version X returns the implementation of the greatest
// version not greater than X, so a client pinned to 1.5 keeps working until
// 2.0 ships and a new model only has to exist for the versions that changed.
//
// Packages:
//   - version: the comparator that orders version identifiers
//   - catalog: class descriptions, from reflection (Map) or source (ParseFS)
//   - container, argument: constructor arguments from services, names, defaults
//   - locator: one interface, many versions; floor resolution with an optional cache
//   - registry: scans a catalog namespace into lazily built locators
//   - resolver: resolves an interface for a request-carried version
//   - proxy, proxy/codegen: interception, wrappers and traits, at run time or as generated source
//   - cmd/vdtogen: the proxy generator and version diagnostics
//   - examples/versioned: an end-to-end namespace wired from registry.yaml
package vdto
