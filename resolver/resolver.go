// Package resolver is the request-facing entry point: given an interface name
// and something carrying a requested version, it returns the matching
// versioned instance.
package resolver

import (
	"context"
	"fmt"

	"github.com/sghaida/vdto/locator"
	"github.com/sghaida/vdto/registry"
	"github.com/sghaida/vdto/version"
)

// Versioned is implemented by requests that know their requested version.
type Versioned interface {
	Version() string
}

// InvalidVersionError is returned for carriers that hold no version.
type InvalidVersionError struct{ GotType string }

// Error implements the error interface.
func (e InvalidVersionError) Error() string {
	// Example: resolver: version must be a string or a fmt.Stringer, int passed
	return "resolver: version must be a string or a fmt.Stringer, " + e.GotType + " passed"
}

type versionKey struct{}

// WithVersion returns a context carrying v as the requested version.
func WithVersion(ctx context.Context, v string) context.Context {
	return context.WithValue(ctx, versionKey{}, v)
}

// VersionFrom returns the requested version carried by ctx, or "latest".
func VersionFrom(ctx context.Context) string {
	if v, ok := ctx.Value(versionKey{}).(string); ok && v != "" {
		return v
	}
	return version.Latest
}

// Resolver resolves interfaces through a registry.
type Resolver struct {
	reg *registry.Registry
}

// New returns a resolver over reg.
func New(reg *registry.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve returns the instance of iface for the version carried by carrier:
// nil ("latest"), a string, a Versioned, a context.Context set with
// WithVersion, or a fmt.Stringer.
func (r *Resolver) Resolve(iface string, carrier any) (any, error) {
	v, err := VersionOf(carrier)
	if err != nil {
		return nil, err
	}
	l, err := r.reg.Get(iface)
	if err != nil {
		return nil, err
	}

	ctx, ok := carrier.(context.Context)
	if !ok {
		ctx = context.Background()
	}
	return l.GetContext(ctx, v)
}

// Has reports whether iface is served.
func (r *Resolver) Has(iface string) bool {
	return r.reg.Has(iface)
}

// VersionOf extracts the requested version from carrier.
func VersionOf(carrier any) (string, error) {
	switch c := carrier.(type) {
	case nil:
		return version.Latest, nil
	case string:
		if c == "" {
			return version.Latest, nil
		}
		return c, nil
	case Versioned:
		return c.Version(), nil
	case context.Context:
		return VersionFrom(c), nil
	case fmt.Stringer:
		return c.String(), nil
	}
	return "", InvalidVersionError{GotType: fmt.Sprintf("%T", carrier)}
}

// ResolveAs resolves iface and asserts the instance to T.
func ResolveAs[T any](r *Resolver, iface string, carrier any) (T, error) {
	var zero T
	raw, err := r.Resolve(iface, carrier)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		ver, _ := VersionOf(carrier)
		return zero, locator.WrongTypeError{Interface: iface, Version: ver, GotType: fmt.Sprintf("%T", raw)}
	}
	return v, nil
}
