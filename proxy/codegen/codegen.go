// Package codegen renders a proxy.Builder into Go source: a <Type>Proxy struct
// that embeds the target, keeps intercepted properties in a value holder and
// overrides intercepted or wrapped methods.
//
// The rendered file lives in the target's package, so protected (unexported)
// members are reachable. It is formatted with go/format; snippets are spliced
// in verbatim and must compile in that package.
package codegen

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/format"
	"slices"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sghaida/vdto/catalog"
	"github.com/sghaida/vdto/proxy"
)

// ProxyImport is the import path of the proxy runtime used by rendered files.
const ProxyImport = "github.com/sghaida/vdto/proxy"

// Import is one import of the rendered file.
type Import struct {
	Name string
	Path string
}

// Options tunes Render.
type Options struct {
	// Package of the rendered file; the target's package when empty.
	Package string
	// TypeName is the Go type of the target; the last segment of the class
	// name when empty.
	TypeName string
	// DeclarationPath and Declaration are recorded in the header (the latter
	// as a SHA-256) so stale files can be detected.
	DeclarationPath string
	Declaration     []byte
	// Imports are added for the snippets.
	Imports []Import
}

var title = cases.Title(language.Und, cases.NoLower)

// ReservedMethodError is returned when a target method would be shadowed by
// an accessor every rendered proxy declares.
type ReservedMethodError struct {
	Class  string
	Method string
}

// Error implements the error interface.
func (e ReservedMethodError) Error() string {
	// Example: codegen: method "Get" of class "accounts.Settings" collides with a generated accessor
	return "codegen: method " + strconv.Quote(e.Method) + " of class " + strconv.Quote(e.Class) +
		" collides with a generated accessor"
}

// checkAccessors rejects targets whose methods share a name with the
// name-based accessors or the typed accessors of intercepted properties.
func checkAccessors(b *proxy.Builder) error {
	target := b.Class()
	generated := slices.Clone(proxy.ReservedMethods)
	for _, p := range b.InterceptedProperties() {
		generated = append(generated, "Get"+title.String(p.Name), "Set"+title.String(p.Name))
	}
	for _, m := range target.Methods {
		if slices.Contains(generated, m.Name) {
			return ReservedMethodError{Class: target.Name, Method: m.Name}
		}
	}
	return nil
}

// Render renders b.
func Render(b *proxy.Builder, opts Options) ([]byte, error) {
	target := b.Class()
	if b.Empty() {
		return nil, proxy.EmptyBuilderError{Class: target.Name}
	}
	for _, m := range b.InterceptedMethods() {
		if m.Final {
			return nil, proxy.CannotProxyFinalMethodError{Class: target.Name, Method: m.Name}
		}
	}
	if err := checkAccessors(b); err != nil {
		return nil, err
	}

	data, err := newFileData(b, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := fileTpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("codegen: render %s: %w", target.Name, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), fmt.Errorf("codegen: format %s: %w", target.Name, err)
	}
	return src, nil
}

// SHA256Hex returns the hex SHA-256 of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// -----------------------------------------------------------------------------
// Template data
// -----------------------------------------------------------------------------

type fileData struct {
	DeclPath string
	DeclHash string

	Package    string
	Imports    []Import
	Class      string
	Target     string
	Proxy      string
	Values     string
	Interfaces []string

	Ctor ctorData
	Init string

	Held   []fieldData
	Plain  []fieldData
	Extra  []fieldData
	Traits []traitData

	Methods      []methodData
	Forwarders   []forwarderData
	ExtraMethods []string
}

type ctorData struct {
	Params   string
	Call     string
	HasError bool
}

type fieldData struct {
	Name     string
	Type     string
	Accessor string
	// Interceptors are the setter snippets, in order.
	Interceptors []string
}

type traitData struct {
	Name string
	Type string
}

type resultData struct {
	Index int
	Name  string
	Type  string
}

type methodData struct {
	Name         string
	Params       string
	Results      string
	Call         string
	Returns      []resultData
	Wrappers     []*proxy.Wrapper
	Interceptors []string
}

type forwarderData struct {
	Name    string
	Params  string
	Results string
	Call    string
	Returns bool
}

func newFileData(b *proxy.Builder, opts Options) (*fileData, error) {
	target := b.Class()

	d := &fileData{
		DeclPath: opts.DeclarationPath,
		Package:  opts.Package,
		Class:    target.Name,
		Target:   opts.TypeName,
		Init:     b.InitCode(),
	}
	if opts.Declaration != nil {
		d.DeclHash = SHA256Hex(opts.Declaration)
	}
	if d.Package == "" {
		d.Package = target.Package
	}
	if d.Target == "" {
		d.Target = lastSegment(target.Name)
	}
	d.Proxy = d.Target + "Proxy"
	d.Values = unexport(d.Proxy) + "Values"

	d.Ctor = newCtorData(target, d.Target)

	intercepted := map[string]bool{}
	for _, p := range b.InterceptedProperties() {
		intercepted[p.Name] = true
		f := fieldData{Name: p.Name, Type: typeOr(p.TypeName), Accessor: title.String(p.Name)}
		for _, ic := range b.PropertyInterceptors(p.Name) {
			f.Interceptors = append(f.Interceptors, ic.Code)
		}
		d.Held = append(d.Held, f)
	}
	for _, p := range b.AccessibleProperties() {
		if !intercepted[p.Name] {
			d.Plain = append(d.Plain, fieldData{Name: p.Name, Type: typeOr(p.TypeName)})
		}
	}
	for _, p := range b.ExtraProperties() {
		d.Extra = append(d.Extra, fieldData{Name: p.Name, Type: typeOr(p.TypeName)})
	}

	for _, m := range b.InterceptedMethods() {
		md := methodData{
			Name:     m.Name,
			Wrappers: b.MethodWrappers(m.Name),
		}
		var args string
		md.Params, args = signature(m.Params)
		md.Results, md.Returns = namedResults(m.Results)
		md.Call = "p." + d.Target + "." + m.Name + "(" + args + ")"
		for _, ic := range b.MethodInterceptors(m.Name) {
			md.Interceptors = append(md.Interceptors, ic.Code)
		}
		d.Methods = append(d.Methods, md)
	}

	for _, m := range b.ExtraMethods() {
		d.ExtraMethods = append(d.ExtraMethods, m.Source("*"+d.Proxy))
	}

	if err := d.addTraits(b, target); err != nil {
		return nil, err
	}
	for _, iface := range b.Interfaces() {
		d.Interfaces = append(d.Interfaces, d.typeExpr(b, iface))
	}

	d.Imports = imports(opts.Imports, len(d.Held) > 0)
	return d, nil
}

func newCtorData(target *catalog.Class, typeName string) ctorData {
	c := target.Constructor
	if c == nil {
		return ctorData{Call: "&" + typeName + "{}"}
	}
	params, args := signature(c.Params)
	return ctorData{
		Params:   params,
		Call:     c.Name + "(" + args + ")",
		HasError: len(c.Results) == 2 && c.Results[1] == "error",
	}
}

// addTraits embeds the traits and adds forwarders for aliases and for every
// method promoted from more than one embedded type: the target wins, then an
// overriding trait, then the first trait declaring it.
func (d *fileData) addTraits(b *proxy.Builder, target *catalog.Class) error {
	lookup := b.Lookup()
	intercepted := map[string]bool{}
	for _, m := range d.Methods {
		intercepted[m.Name] = true
	}

	type owner struct {
		field  string
		method catalog.Method
	}
	var names []string
	owners := map[string][]owner{}
	overrides := map[string]string{}

	for _, t := range b.Traits() {
		var tc *catalog.Class
		if lookup != nil {
			tc, _ = lookup(t.Name)
		}
		if tc == nil {
			return fmt.Errorf("codegen: trait %q does not exist", t.Name)
		}
		field := lastSegment(t.Name)
		d.Traits = append(d.Traits, traitData{Name: field, Type: d.typeExpr(b, t.Name)})

		for _, a := range t.Aliases {
			m, ok := tc.Method(a.Method)
			if !ok {
				return proxy.NonExistentMethodError{Class: t.Name, Method: a.Method}
			}
			d.Forwarders = append(d.Forwarders, forwarder(a.Alias, field, m))
		}
		for _, o := range t.Overrides {
			if _, ok := tc.Method(o.Method); !ok {
				return proxy.NonExistentMethodError{Class: t.Name, Method: o.Method}
			}
			overrides[o.Method] = field
		}
		for _, m := range tc.Methods {
			if !m.Visibility.Accessible() {
				continue
			}
			if _, seen := owners[m.Name]; !seen {
				names = append(names, m.Name)
			}
			owners[m.Name] = append(owners[m.Name], owner{field: field, method: m})
		}
	}

	for _, name := range names {
		if intercepted[name] {
			continue
		}
		if m, ok := target.Method(name); ok {
			d.Forwarders = append(d.Forwarders, forwarder(name, d.Target, m))
			continue
		}
		candidates := owners[name]
		if field, ok := overrides[name]; ok {
			for _, c := range candidates {
				if c.field == field {
					d.Forwarders = append(d.Forwarders, forwarder(name, field, c.method))
				}
			}
			continue
		}
		if len(candidates) > 1 {
			d.Forwarders = append(d.Forwarders, forwarder(name, candidates[0].field, candidates[0].method))
		}
	}
	return nil
}

func forwarder(name, field string, m catalog.Method) forwarderData {
	params, args := signature(m.Params)
	return forwarderData{
		Name:    name,
		Params:  params,
		Results: plainResults(m.Results),
		Call:    "p." + field + "." + m.Name + "(" + args + ")",
		Returns: len(m.Results) > 0,
	}
}

// typeExpr returns the Go type expression of a catalog class as seen from the
// rendered package.
func (d *fileData) typeExpr(b *proxy.Builder, name string) string {
	typ := lastSegment(name)
	if lookup := b.Lookup(); lookup != nil {
		if c, ok := lookup(name); ok && c.Package != "" && c.Package != d.Package {
			return c.Package + "." + typ
		}
	}
	return typ
}

func imports(extra []Import, needReflect bool) []Import {
	out := []Import{{Path: ProxyImport}}
	if needReflect {
		out = append(out, Import{Path: "reflect"})
	}
	seen := map[string]bool{}
	for _, imp := range out {
		seen[imp.Path] = true
	}
	for _, imp := range extra {
		if imp.Path == "" || seen[imp.Path] {
			continue
		}
		seen[imp.Path] = true
		out = append(out, imp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// signature returns the parameter list and the matching call arguments.
func signature(params []catalog.Param) (string, string) {
	decl := make([]string, 0, len(params))
	args := make([]string, 0, len(params))
	for i, p := range params {
		name := p.Name
		if name == "" || name == "_" {
			name = "arg" + strconv.Itoa(i)
		}
		typ := typeOr(p.TypeName)
		if p.Variadic {
			decl = append(decl, name+" ..."+typ)
			args = append(args, name+"...")
			continue
		}
		decl = append(decl, name+" "+typ)
		args = append(args, name)
	}
	return strings.Join(decl, ", "), strings.Join(args, ", ")
}

func namedResults(results []string) (string, []resultData) {
	if len(results) == 0 {
		return "", nil
	}
	parts := make([]string, len(results))
	rs := make([]resultData, len(results))
	for i, r := range results {
		rs[i] = resultData{Index: i, Name: "r" + strconv.Itoa(i), Type: r}
		parts[i] = rs[i].Name + " " + r
	}
	return "(" + strings.Join(parts, ", ") + ")", rs
}

func plainResults(results []string) string {
	switch len(results) {
	case 0:
		return ""
	case 1:
		return results[0]
	}
	return "(" + strings.Join(results, ", ") + ")"
}

func typeOr(t string) string {
	if t == "" {
		return "any"
	}
	return t
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func unexport(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
