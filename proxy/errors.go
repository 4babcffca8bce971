package proxy

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrCannotProxyClass        = errors.New("proxy: class cannot be proxied")
	ErrNonExistentInterface    = errors.New("proxy: non-existent interface")
	ErrNonExistentProperty     = errors.New("proxy: non-existent property")
	ErrNonExistentMethod       = errors.New("proxy: non-existent method")
	ErrPropertyAlreadyDeclared = errors.New("proxy: property already declared")
	ErrMethodAlreadyDeclared   = errors.New("proxy: method already declared")
	ErrTraitAlreadyAdded       = errors.New("proxy: trait already added")
	ErrFinalMethod             = errors.New("proxy: final method")
	ErrCannotProxyFinalMethod  = errors.New("proxy: cannot proxy final method")
	ErrInvalidSyntax           = errors.New("proxy: invalid syntax")
	ErrEmptyBuilder            = errors.New("proxy: empty builder")
	ErrUndefinedProperty       = errors.New("proxy: undefined property")
	ErrInaccessibleProperty    = errors.New("proxy: inaccessible property")
	ErrUndefinedMethod         = errors.New("proxy: undefined method")
	ErrMissingRuntimeBody      = errors.New("proxy: missing run-time body")
)

// CannotProxyClassError is returned for final, interface and read-only classes.
type CannotProxyClassError struct {
	Class  string
	Reason string
}

// Error implements the error interface.
func (e CannotProxyClassError) Error() string {
	// Example: proxy: provided class "models.v1.v1_0.Ledger" is final and cannot be proxied
	return "proxy: provided class " + strconv.Quote(e.Class) + " is " + e.Reason + " and cannot be proxied"
}

// Is reports whether target is ErrCannotProxyClass.
func (e CannotProxyClassError) Is(target error) bool { return target == ErrCannotProxyClass }

// NonExistentInterfaceError is returned by AddInterface for unknown interfaces.
type NonExistentInterfaceError struct{ Interface string }

// Error implements the error interface.
func (e NonExistentInterfaceError) Error() string {
	return "proxy: interface " + strconv.Quote(e.Interface) + " does not exist"
}

// Is reports whether target is ErrNonExistentInterface.
func (e NonExistentInterfaceError) Is(target error) bool { return target == ErrNonExistentInterface }

// NonExistentPropertyError is returned when intercepting a missing or private property.
type NonExistentPropertyError struct {
	Class    string
	Property string
}

// Error implements the error interface.
func (e NonExistentPropertyError) Error() string {
	return "proxy: property " + strconv.Quote(e.Property) + " is non-existent or not accessible on class " + strconv.Quote(e.Class)
}

// Is reports whether target is ErrNonExistentProperty.
func (e NonExistentPropertyError) Is(target error) bool { return target == ErrNonExistentProperty }

// NonExistentMethodError is returned when intercepting a missing or private method.
type NonExistentMethodError struct {
	Class  string
	Method string
}

// Error implements the error interface.
func (e NonExistentMethodError) Error() string {
	return "proxy: method " + strconv.Quote(e.Method) + " is non-existent or not accessible on class " + strconv.Quote(e.Class)
}

// Is reports whether target is ErrNonExistentMethod.
func (e NonExistentMethodError) Is(target error) bool { return target == ErrNonExistentMethod }

// FinalMethodError is returned when intercepting or wrapping a final method.
type FinalMethodError struct {
	Class  string
	Method string
	// Op is "intercepted" or "wrapped".
	Op string
}

// Error implements the error interface.
func (e FinalMethodError) Error() string {
	// Example: proxy: method "ID" is final on class "models.v1.v1_0.Account" and cannot be intercepted
	return "proxy: method " + strconv.Quote(e.Method) + " is final on class " + strconv.Quote(e.Class) + " and cannot be " + e.Op
}

// Is reports whether target is ErrFinalMethod.
func (e FinalMethodError) Is(target error) bool { return target == ErrFinalMethod }

// PropertyAlreadyDeclaredError is returned when an extra property collides.
type PropertyAlreadyDeclaredError struct{ Property string }

// Error implements the error interface.
func (e PropertyAlreadyDeclaredError) Error() string {
	return "proxy: property " + strconv.Quote(e.Property) + " has been already declared"
}

// Is reports whether target is ErrPropertyAlreadyDeclared.
func (e PropertyAlreadyDeclaredError) Is(target error) bool {
	return target == ErrPropertyAlreadyDeclared
}

// MethodAlreadyDeclaredError is returned when an extra method collides.
type MethodAlreadyDeclaredError struct{ Method string }

// Error implements the error interface.
func (e MethodAlreadyDeclaredError) Error() string {
	return "proxy: method " + strconv.Quote(e.Method) + " has been already declared"
}

// Is reports whether target is ErrMethodAlreadyDeclared.
func (e MethodAlreadyDeclaredError) Is(target error) bool { return target == ErrMethodAlreadyDeclared }

// TraitAlreadyAddedError is returned when a trait is added twice.
type TraitAlreadyAddedError struct {
	Class string
	Trait string
}

// Error implements the error interface.
func (e TraitAlreadyAddedError) Error() string {
	return "proxy: trait " + strconv.Quote(e.Trait) + " has been already added for proxy of class " + strconv.Quote(e.Class)
}

// Is reports whether target is ErrTraitAlreadyAdded.
func (e TraitAlreadyAddedError) Is(target error) bool { return target == ErrTraitAlreadyAdded }

// CannotProxyFinalMethodError is returned by generators asked to intercept a final method.
type CannotProxyFinalMethodError struct {
	Class  string
	Method string
}

// Error implements the error interface.
func (e CannotProxyFinalMethodError) Error() string {
	return "proxy: method " + strconv.Quote(e.Method) + " of class " + strconv.Quote(e.Class) + " is marked as final and cannot be proxied"
}

// Is reports whether target is ErrCannotProxyFinalMethod.
func (e CannotProxyFinalMethodError) Is(target error) bool {
	return target == ErrCannotProxyFinalMethod
}

// InvalidSyntaxError is returned for snippets that do not parse.
type InvalidSyntaxError struct {
	Code string
	Err  error
}

// Error implements the error interface.
func (e InvalidSyntaxError) Error() string {
	return "proxy: invalid syntax: " + e.Err.Error()
}

// Unwrap returns the parser error.
func (e InvalidSyntaxError) Unwrap() error { return e.Err }

// Is reports whether target is ErrInvalidSyntax.
func (e InvalidSyntaxError) Is(target error) bool { return target == ErrInvalidSyntax }

// EmptyBuilderError is returned when generating a proxy that would change nothing.
type EmptyBuilderError struct{ Class string }

// Error implements the error interface.
func (e EmptyBuilderError) Error() string {
	return "proxy: nothing to proxy for class " + strconv.Quote(e.Class)
}

// Is reports whether target is ErrEmptyBuilder.
func (e EmptyBuilderError) Is(target error) bool { return target == ErrEmptyBuilder }

// MissingRuntimeBodyError is returned when generating a run-time proxy from
// a part that carries Go code but no function to run in its place.
type MissingRuntimeBodyError struct {
	Class  string
	Member string
	// Part is what lacks a body: "interceptor", "wrapper head", "wrapper tail",
	// "method" or "init".
	Part string
}

// Error implements the error interface.
func (e MissingRuntimeBodyError) Error() string {
	// Example: proxy: interceptor of "models.v1.v1_0.User::Rename" has code but no run-time body
	return "proxy: " + e.Part + " of " + strconv.Quote(e.Class+"::"+e.Member) + " has code but no run-time body"
}

// Is reports whether target is ErrMissingRuntimeBody.
func (e MissingRuntimeBodyError) Is(target error) bool { return target == ErrMissingRuntimeBody }

// UndefinedPropertyError is returned when reading or writing an unknown property.
type UndefinedPropertyError struct {
	Class    string
	Property string
}

// Error implements the error interface.
func (e UndefinedPropertyError) Error() string {
	// Example: proxy: undefined property "models.v1.v1_0.Account::nickname"
	return "proxy: undefined property " + strconv.Quote(e.Class+"::"+e.Property)
}

// Is reports whether target is ErrUndefinedProperty.
func (e UndefinedPropertyError) Is(target error) bool { return target == ErrUndefinedProperty }

// InaccessiblePropertyError is returned when reading or writing a private property.
type InaccessiblePropertyError struct {
	Class    string
	Property string
}

// Error implements the error interface.
func (e InaccessiblePropertyError) Error() string {
	return "proxy: cannot access private property " + strconv.Quote(e.Class+"::"+e.Property)
}

// Is reports whether target is ErrInaccessibleProperty.
func (e InaccessiblePropertyError) Is(target error) bool { return target == ErrInaccessibleProperty }

// UndefinedMethodError is returned when calling an unknown method.
type UndefinedMethodError struct {
	Class  string
	Method string
}

// Error implements the error interface.
func (e UndefinedMethodError) Error() string {
	return "proxy: call to undefined method " + strconv.Quote(e.Class+"::"+e.Method+"()")
}

// Is reports whether target is ErrUndefinedMethod.
func (e UndefinedMethodError) Is(target error) bool { return target == ErrUndefinedMethod }

// PropertyTypeError is returned when assigning a value of the wrong type.
type PropertyTypeError struct {
	Class    string
	Property string
	Want     string
	Got      string
}

// Error implements the error interface.
func (e PropertyTypeError) Error() string {
	return "proxy: cannot assign " + e.Got + " to property " + strconv.Quote(e.Class+"::"+e.Property) + " of type " + e.Want
}

// NewPropertyTypeError describes the assignment of got to a property of type want.
func NewPropertyTypeError(class, property, want string, got any) PropertyTypeError {
	return PropertyTypeError{Class: class, Property: property, Want: want, Got: fmt.Sprintf("%T", got)}
}
