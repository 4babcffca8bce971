package proxy

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

var (
	errEscapesBlock = errors.New("code escapes its enclosing block")
	errNotOneFunc   = errors.New("code must declare exactly one function")
	errWrapperBody  = errors.New("wrapper head and tail must leave the wrapped body at the top level")
)

// ReturnValue short-circuits an intercepted call with the given results.
type ReturnValue struct {
	Values []any
}

// Return builds a ReturnValue.
func Return(values ...any) *ReturnValue {
	return &ReturnValue{Values: values}
}

// Invocation is the state of one intercepted call or property write.
type Invocation struct {
	Proxy *Instance
	// Member is the method or property name.
	Member string
	// Args are the call arguments, or the single value being assigned.
	// Interceptors may replace them; the target sees the final values.
	Args []any
	// Results and Err hold the outcome once the call has run. Wrapper tails
	// may inspect and replace them.
	Results []any
	Err     error
}

// InterceptorFunc is the run-time body of an interceptor.
type InterceptorFunc func(inv *Invocation) (*ReturnValue, error)

// Interceptor is logic run before a method or a property write.
type Interceptor struct {
	// Code is the Go statements rendered by the code generator. Inside a
	// method, parameters are in scope by name; inside a setter, "value" is.
	// Returning a *ReturnValue short-circuits.
	Code string
	Fn   InterceptorFunc
}

// NewInterceptor validates code and pairs it with its run-time body.
func NewInterceptor(code string, fn InterceptorFunc) (*Interceptor, error) {
	if err := ValidateStatements(code); err != nil {
		return nil, err
	}
	return &Interceptor{Code: code, Fn: fn}, nil
}

// MustInterceptor is NewInterceptor that panics on invalid code.
func MustInterceptor(code string, fn InterceptorFunc) *Interceptor {
	i, err := NewInterceptor(code, fn)
	if err != nil {
		panic(err)
	}
	return i
}

// Wrapper brackets a method: Head runs before the call, Tail after it,
// whatever the outcome.
type Wrapper struct {
	Head string
	Tail string

	HeadFn func(inv *Invocation) error
	TailFn func(inv *Invocation)
}

// wrapperSentinel stands in for the wrapped body while validating, so a head
// that opens a block for the tail to close is rejected.
const wrapperSentinel = "_ = 0"

// NewWrapper validates head and tail and pairs them with their run-time bodies.
func NewWrapper(head, tail string, headFn func(*Invocation) error, tailFn func(*Invocation)) (*Wrapper, error) {
	code := WrapperSource(head, tail, wrapperSentinel)
	body, err := parseStatements(code)
	if err != nil {
		return nil, err
	}
	if !isSentinel(body.List) {
		return nil, InvalidSyntaxError{Code: code, Err: errWrapperBody}
	}
	return &Wrapper{Head: head, Tail: tail, HeadFn: headFn, TailFn: tailFn}, nil
}

// MustWrapper is NewWrapper that panics on invalid code.
func MustWrapper(head, tail string, headFn func(*Invocation) error, tailFn func(*Invocation)) *Wrapper {
	w, err := NewWrapper(head, tail, headFn, tailFn)
	if err != nil {
		panic(err)
	}
	return w
}

// WrapperSource brackets body with a wrapper's head and deferred tail.
func WrapperSource(head, tail, body string) string {
	var b strings.Builder
	if head != "" {
		b.WriteString(head + "\n")
	}
	if tail != "" {
		b.WriteString("defer func() {\n" + tail + "\n}()\n")
	}
	b.WriteString(body)
	return b.String()
}

// ValidateStatements reports whether code parses as a Go statement list that
// stays inside the function it is rendered into.
func ValidateStatements(code string) error {
	_, err := parseStatements(code)
	return err
}

func parseStatements(code string) (*ast.BlockStmt, error) {
	src := "package p\nfunc _() {\n" + code + "\n}\n"
	f, err := parser.ParseFile(token.NewFileSet(), "snippet.go", src, parser.SkipObjectResolution)
	if err != nil {
		return nil, InvalidSyntaxError{Code: code, Err: err}
	}
	if len(f.Decls) != 1 {
		return nil, InvalidSyntaxError{Code: code, Err: errEscapesBlock}
	}
	fn, ok := f.Decls[0].(*ast.FuncDecl)
	if !ok || fn.Recv != nil || fn.Name.Name != "_" || fn.Body == nil {
		return nil, InvalidSyntaxError{Code: code, Err: errEscapesBlock}
	}
	return fn.Body, nil
}

// isSentinel reports whether the last statement is wrapperSentinel.
func isSentinel(list []ast.Stmt) bool {
	if len(list) == 0 {
		return false
	}
	as, ok := list[len(list)-1].(*ast.AssignStmt)
	if !ok || as.Tok != token.ASSIGN || len(as.Lhs) != 1 || len(as.Rhs) != 1 {
		return false
	}
	lhs, ok := as.Lhs[0].(*ast.Ident)
	if !ok || lhs.Name != "_" {
		return false
	}
	lit, ok := as.Rhs[0].(*ast.BasicLit)
	return ok && lit.Kind == token.INT && lit.Value == "0"
}

// ValidateDecl reports whether code parses as exactly one Go function
// declaration.
func ValidateDecl(code string) error {
	src := "package p\n" + code + "\n"
	f, err := parser.ParseFile(token.NewFileSet(), "snippet.go", src, parser.SkipObjectResolution)
	if err != nil {
		return InvalidSyntaxError{Code: code, Err: err}
	}
	if len(f.Decls) != 1 {
		return InvalidSyntaxError{Code: code, Err: errNotOneFunc}
	}
	if _, ok := f.Decls[0].(*ast.FuncDecl); !ok {
		return InvalidSyntaxError{Code: code, Err: errNotOneFunc}
	}
	return nil
}
