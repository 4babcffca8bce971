// Package locator resolves a requested version of one interface to the
// instance built by the closest registered implementation.
//
// A Locator owns the factories of every versioned implementation of an
// interface, sorted with a version.Comparator. Get performs a floor match:
// the greatest registered version not greater than the requested one wins,
// and "latest" selects the greatest registered version.
//
//	l := locator.New("models.User", map[string]locator.Factory{
//		"1.0": newUserV10,
//		"1.1": newUserV11,
//		"2.0": newUserV20,
//	})
//	u, err := l.Get("1.2") // built by the "1.1" factory
//
// Factories receive a context that records the resolutions in flight on
// their call chain. A factory that (directly or not) asks the same locator for
// its own slot through that context fails with a CircularReferenceError
// instead of recursing forever.
//
// Has is permissive: it reports whether a version is not older than the
// oldest implementation, not whether that exact version is registered.
//
// Floor lookups can be memoized through a Cache (MemoryCache or RedisCache).
// Cache failures are logged and treated as misses.
//
// A Locator is immutable once built and safe for concurrent use: cycle
// detection follows the context of each call chain, so goroutines resolving
// the same version do not see each other.
package locator
