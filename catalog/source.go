package catalog

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

const (
	directiveFinal    = "//vdto:final"
	directiveReadOnly = "//vdto:readonly"
)

// ParseDir describes typeName from the Go package in dir.
func ParseDir(dir, typeName string) (*Class, error) {
	m, err := ParseFS(afero.NewOsFs(), dir, "")
	if err != nil {
		return nil, err
	}
	for _, c := range m.classes {
		if c.Name == c.Package+"."+typeName {
			return c, nil
		}
	}
	return nil, fmt.Errorf("catalog: type %q not found in %s", typeName, dir)
}

// ParseFS describes every struct and interface type declared in the package at
// dir. Classes are named prefix + "." + TypeName; an empty prefix means the
// package name. Test files and generated files (*_gen.go, *.gen.go) are skipped.
//
// Source descriptions carry no Go type: constructors are not callable and
// interfaces are linked by method names.
func ParseFS(fsys afero.Fs, dir, prefix string) (*Map, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", dir, err)
	}

	fset := token.NewFileSet()
	var files []*ast.File
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if strings.HasSuffix(name, "_gen.go") || strings.HasSuffix(name, ".gen.go") {
			continue
		}
		full := filepath.Join(dir, name)
		src, rerr := afero.ReadFile(fsys, full)
		if rerr != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", full, rerr)
		}
		f, perr := parser.ParseFile(fset, full, src, parser.ParseComments)
		if perr != nil {
			return nil, fmt.Errorf("catalog: parse %s: %w", full, perr)
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("catalog: no Go files in %s", dir)
	}

	pkg := files[0].Name.Name
	if prefix == "" {
		prefix = pkg
	}

	s := &sourceScan{pkg: pkg, prefix: prefix, types: map[string]*Class{}}
	for _, f := range files {
		s.collectTypes(f)
	}
	for _, f := range files {
		s.collectFuncs(f)
	}

	m := NewMap()
	names := make([]string, 0, len(s.types))
	for n := range s.types {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := m.Add(s.types[n]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type sourceScan struct {
	pkg    string
	prefix string
	types  map[string]*Class // keyed by the bare type name
}

func (s *sourceScan) collectTypes(f *ast.File) {
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			if ts.TypeParams != nil {
				continue
			}
			doc := ts.Doc
			if doc == nil && len(gd.Specs) == 1 {
				doc = gd.Doc
			}

			c := &Class{
				Name:     s.prefix + "." + ts.Name.Name,
				Package:  s.pkg,
				Final:    hasDirective(doc, directiveFinal),
				ReadOnly: hasDirective(doc, directiveReadOnly),
			}
			switch t := ts.Type.(type) {
			case *ast.StructType:
				c.Kind = KindStruct
				c.Properties = sourceFields(t)
			case *ast.InterfaceType:
				c.Kind = KindInterface
				c.Methods = sourceInterfaceMethods(t)
			default:
				continue
			}
			s.types[ts.Name.Name] = c
		}
	}
}

func (s *sourceScan) collectFuncs(f *ast.File) {
	for _, decl := range f.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if fd.Recv == nil {
			s.collectConstructor(fd)
			continue
		}
		if len(fd.Recv.List) == 0 {
			continue
		}
		c, ok := s.types[receiverTypeName(fd.Recv.List[0].Type)]
		if !ok || c.IsInterface() {
			continue
		}
		params, results := sourceSignature(fd.Type)
		c.Methods = append(c.Methods, Method{
			Name:       fd.Name.Name,
			Visibility: sourceVisibility(fd.Name.Name),
			Final:      hasDirective(fd.Doc, directiveFinal),
			Params:     params,
			Results:    results,
		})
	}
}

// collectConstructor records New<Type> functions returning *Type.
func (s *sourceScan) collectConstructor(fd *ast.FuncDecl) {
	name := fd.Name.Name
	if !strings.HasPrefix(name, "New") {
		return
	}
	c, ok := s.types[strings.TrimPrefix(name, "New")]
	if !ok || c.IsInterface() || fd.Type.Results == nil || len(fd.Type.Results.List) == 0 {
		return
	}
	star, ok := fd.Type.Results.List[0].Type.(*ast.StarExpr)
	if !ok || types.ExprString(star.X) != strings.TrimPrefix(name, "New") {
		return
	}
	params, results := sourceSignature(fd.Type)
	c.Constructor = &Func{Owner: c.Name, Name: name, Params: params, Results: results}
}

func sourceFields(st *ast.StructType) []Property {
	var props []Property
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			continue // embedded
		}
		typeName := types.ExprString(field.Type)
		for _, n := range field.Names {
			if n.Name == "_" {
				continue
			}
			props = append(props, Property{
				Name:       n.Name,
				Visibility: sourceVisibility(n.Name),
				TypeName:   typeName,
			})
		}
	}
	return props
}

func sourceInterfaceMethods(it *ast.InterfaceType) []Method {
	var out []Method
	for _, field := range it.Methods.List {
		ft, ok := field.Type.(*ast.FuncType)
		if !ok || len(field.Names) == 0 {
			continue // embedded interface or type constraint
		}
		params, results := sourceSignature(ft)
		for _, n := range field.Names {
			out = append(out, Method{Name: n.Name, Visibility: Public, Params: params, Results: results})
		}
	}
	return out
}

func sourceSignature(ft *ast.FuncType) ([]Param, []string) {
	var params []Param
	if ft.Params != nil {
		for _, field := range ft.Params.List {
			typeExpr := field.Type
			variadic := false
			if el, ok := typeExpr.(*ast.Ellipsis); ok {
				typeExpr, variadic = el.Elt, true
			}
			typeName := types.ExprString(typeExpr)
			nullable := variadic || isNilableExpr(typeExpr)

			names := field.Names
			if len(names) == 0 {
				names = []*ast.Ident{{Name: "_"}}
			}
			for _, n := range names {
				name := n.Name
				if name == "_" {
					name = fmt.Sprintf("arg%d", len(params))
				}
				params = append(params, Param{Name: name, TypeName: typeName, Nullable: nullable, Variadic: variadic})
			}
		}
	}

	var results []string
	if ft.Results != nil {
		for _, field := range ft.Results.List {
			n := max(len(field.Names), 1)
			for range n {
				results = append(results, types.ExprString(field.Type))
			}
		}
	}
	return params, results
}

func isNilableExpr(e ast.Expr) bool {
	switch t := e.(type) {
	case *ast.StarExpr, *ast.MapType, *ast.FuncType, *ast.ChanType, *ast.InterfaceType:
		return true
	case *ast.ArrayType:
		return t.Len == nil
	case *ast.Ident:
		return t.Name == "any" || t.Name == "error"
	}
	return false
}

func receiverTypeName(e ast.Expr) string {
	if star, ok := e.(*ast.StarExpr); ok {
		e = star.X
	}
	if id, ok := e.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

func sourceVisibility(name string) Visibility {
	if ast.IsExported(name) {
		return Public
	}
	return Protected
}

func hasDirective(doc *ast.CommentGroup, directive string) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if strings.TrimSpace(c.Text) == directive {
			return true
		}
	}
	return false
}
