package argument

import (
	"errors"
	"strconv"
)

// ErrArgumentResolution matches every ResolutionError.
var ErrArgumentResolution = errors.New("argument: resolution failed")

// ResolutionError is returned when a parameter cannot be bound.
type ResolutionError struct {
	Callable  string
	Parameter string
	// Resolver is set with Empty when a resolver yielded no value.
	Resolver string
	Empty    bool
}

// Error implements the error interface.
func (e ResolutionError) Error() string {
	if e.Empty {
		// Example: argument: "*app.clockResolver.Resolve()" must yield at least one value
		return "argument: " + strconv.Quote(e.Resolver+".Resolve()") + " must yield at least one value"
	}
	// Example: argument: "models.User.NewUser()" requires that you provide a value for the "name" argument
	return "argument: " + strconv.Quote(e.Callable) + " requires that you provide a value for the " +
		strconv.Quote(e.Parameter) + " argument: it is not nullable, has no default and no resolver supports it"
}

// Is reports whether target is ErrArgumentResolution.
func (e ResolutionError) Is(target error) bool { return target == ErrArgumentResolution }
