package locator

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrServiceNotFound matches every NotFoundError.
	ErrServiceNotFound = errors.New("locator: service not found")

	// ErrCircularReference matches every CircularReferenceError.
	ErrCircularReference = errors.New("locator: circular reference")
)

// NotFoundError is returned when no registered version is lower than or equal
// to the requested one.
type NotFoundError struct {
	// Interface is the interface served by the locator.
	Interface string
	// Version is the requested version.
	Version string
	// SourceID is the version being resolved when the failing lookup was made,
	// or "" for a top-level lookup.
	SourceID string
	// Alternatives lists every registered version, ascending.
	Alternatives []string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	var b strings.Builder
	b.WriteString("locator: ")
	if e.SourceID == "" {
		// Example: locator: you have requested a non-existent version "0.1" for service "models.User"
		b.WriteString("you have requested a non-existent version ")
	} else {
		// Example: locator: version "1.0" has a dependency on a non-existent version "0.1" for service "models.User"
		b.WriteString("version " + strconv.Quote(e.SourceID) + " has a dependency on a non-existent version ")
	}
	b.WriteString(strconv.Quote(e.Version) + " for service " + strconv.Quote(e.Interface))

	switch len(e.Alternatives) {
	case 0:
	case 1:
		b.WriteString("; did you mean this: " + strconv.Quote(e.Alternatives[0]) + "?")
	default:
		quoted := make([]string, len(e.Alternatives))
		for i, a := range e.Alternatives {
			quoted[i] = strconv.Quote(a)
		}
		b.WriteString("; did you mean one of these: " + strings.Join(quoted, ", ") + "?")
	}
	return b.String()
}

// Is reports whether target is ErrServiceNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrServiceNotFound }

// CircularReferenceError is returned when a factory re-enters its own slot.
type CircularReferenceError struct {
	// ID is the registered version whose factory was re-entered.
	ID string
	// Path is the minimal cycle witness [ID, ID].
	Path []string
}

// Error implements the error interface.
func (e CircularReferenceError) Error() string {
	// Example: locator: circular reference detected for version "1.0", path: "1.0 -> 1.0"
	return "locator: circular reference detected for version " + strconv.Quote(e.ID) +
		", path: " + strconv.Quote(strings.Join(e.Path, " -> "))
}

// Is reports whether target is ErrCircularReference.
func (e CircularReferenceError) Is(target error) bool { return target == ErrCircularReference }

// WrongTypeError is returned by GetAs when the instance is not of the requested type.
type WrongTypeError struct {
	Interface string
	Version   string
	GotType   string
}

// Error implements the error interface.
func (e WrongTypeError) Error() string {
	// Example: locator: "models.User" version "1.0" has wrong type (*v1_0.Account)
	return "locator: " + strconv.Quote(e.Interface) + " version " + strconv.Quote(e.Version) + " has wrong type (" + e.GotType + ")"
}

// NilFactoryError is returned when a registered version has no factory.
type NilFactoryError struct {
	Interface string
	Version   string
}

// Error implements the error interface.
func (e NilFactoryError) Error() string {
	return "locator: nil factory for " + strconv.Quote(e.Interface) + " version " + strconv.Quote(e.Version)
}
