package main

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sghaida/vdto/catalog"
	"github.com/sghaida/vdto/proxy"
	"github.com/sghaida/vdto/proxy/codegen"
)

//go:embed schema/declaration.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

// Declaration describes one proxy to generate.
//
// Example:
//
//	package: ./models/v1/v1_0
//	type: User
//	intercept:
//	  methods:
//	    - name: Rename
//	      code: |
//	        if name == "" { return proxy.Return(errors.New("empty name")) }
type Declaration struct {
	// Package is the target package directory, relative to the declaration file.
	Package string `yaml:"package"`
	Type    string `yaml:"type"`
	// Output is the generated file, relative to Package; derived from Type
	// and the out-suffix setting when empty.
	Output string `yaml:"output"`

	Interfaces []string       `yaml:"interfaces"`
	Imports    []ImportDecl   `yaml:"imports"`
	Traits     []TraitDecl    `yaml:"traits"`
	Properties []PropertyDecl `yaml:"properties"`
	Methods    []MethodDecl   `yaml:"methods"`
	Intercept  InterceptDecl  `yaml:"intercept"`
	Wrap       []WrapperDecl  `yaml:"wrap"`
}

type ImportDecl struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type TraitDecl struct {
	Type      string         `yaml:"type"`
	Aliases   []AliasDecl    `yaml:"aliases"`
	Overrides []OverrideDecl `yaml:"overrides"`
}

type AliasDecl struct {
	Method     string `yaml:"method"`
	Alias      string `yaml:"alias"`
	Visibility string `yaml:"visibility"`
}

type OverrideDecl struct {
	Method   string `yaml:"method"`
	Replaces string `yaml:"replaces"`
}

type PropertyDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Init string `yaml:"init"`
}

type MethodDecl struct {
	Name    string `yaml:"name"`
	Params  string `yaml:"params"`
	Results string `yaml:"results"`
	Body    string `yaml:"body"`
}

type InterceptDecl struct {
	Properties []SnippetDecl `yaml:"properties"`
	Methods    []SnippetDecl `yaml:"methods"`
}

type SnippetDecl struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

type WrapperDecl struct {
	Method string `yaml:"method"`
	Head   string `yaml:"head"`
	Tail   string `yaml:"tail"`
}

// -----------------------------------------------------------------------------
// Loading
// -----------------------------------------------------------------------------

// Issue is one schema violation of a declaration.
type Issue struct {
	Path    string
	Message string
}

// InvalidDeclarationError lists the schema violations of a declaration file.
//
// Example:
//
//	vdtogen: invalid declaration "user.yaml": /type: missing property
type InvalidDeclarationError struct {
	File   string
	Issues []Issue
}

func (e InvalidDeclarationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if is.Path == "" {
			msgs = append(msgs, is.Message)
			continue
		}
		msgs = append(msgs, is.Path+": "+is.Message)
	}
	return fmt.Sprintf("vdtogen: invalid declaration %q: %s", e.File, strings.Join(msgs, "; "))
}

// loadDeclaration reads path from fs, validates it against the embedded
// schema and decodes it. The raw bytes are returned for the file header.
func loadDeclaration(fs afero.Fs, path string) (*Declaration, []byte, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, nil, fmt.Errorf("vdtogen: read declaration %s: %w", path, err)
	}
	if err := validateDeclaration(path, raw); err != nil {
		return nil, nil, err
	}

	var d Declaration
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, nil, fmt.Errorf("vdtogen: parse declaration %s: %w", path, err)
	}
	return &d, raw, nil
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("declaration.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("declaration.schema.json")
	})
	return compiledSchema, compileErr
}

func validateDeclaration(path string, raw []byte) error {
	schema, err := getSchema()
	if err != nil {
		return fmt.Errorf("vdtogen: load schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("vdtogen: parse declaration %s: %w", path, err)
	}
	if doc == nil {
		return InvalidDeclarationError{File: path, Issues: []Issue{{Message: "empty document"}}}
	}
	js, err := json.Marshal(normalizeYAML(doc))
	if err != nil {
		return fmt.Errorf("vdtogen: convert declaration %s: %w", path, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return fmt.Errorf("vdtogen: convert declaration %s: %w", path, err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("vdtogen: validate declaration %s: %w", path, err)
	}
	var issues []Issue
	collectIssues(ve, &issues)
	if len(issues) == 0 {
		issues = []Issue{{Message: ve.Error()}}
	}
	return InvalidDeclarationError{File: path, Issues: issues}
}

// collectIssues gathers the leaf errors of the validation tree.
func collectIssues(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectIssues(cause, issues)
		}
		return
	}
	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	msg := ve.Error()
	if ve.ErrorKind != nil {
		msg = ve.ErrorKind.LocalizedString(printer)
	}
	*issues = append(*issues, Issue{Path: path, Message: msg})
}

// normalizeYAML converts decoded YAML into JSON-compatible values.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = normalizeYAML(e)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[fmt.Sprint(k)] = normalizeYAML(e)
		}
		return m
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeYAML(e)
		}
		return out
	default:
		return v
	}
}

// -----------------------------------------------------------------------------
// Applying
// -----------------------------------------------------------------------------

// packageDir resolves Package against the directory of the declaration file.
func (d *Declaration) packageDir(declPath string) string {
	if filepath.IsAbs(d.Package) {
		return filepath.Clean(d.Package)
	}
	return filepath.Join(filepath.Dir(declPath), d.Package)
}

// outputPath returns where the proxy of d is written.
func (d *Declaration) outputPath(declPath, suffix string) string {
	dir := d.packageDir(declPath)
	if d.Output != "" {
		if filepath.IsAbs(d.Output) {
			return d.Output
		}
		return filepath.Join(dir, d.Output)
	}
	return filepath.Join(dir, strings.ToLower(d.Type)+"_proxy"+suffix)
}

// qualify names a type of package pkg unless it is already qualified.
func qualify(pkg, name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return pkg + "." + name
}

// builder scans the target package and records d on a proxy builder.
func (d *Declaration) builder(fs afero.Fs, declPath string) (*proxy.Builder, error) {
	m, err := catalog.ParseFS(fs, d.packageDir(declPath), "")
	if err != nil {
		return nil, err
	}

	var target *catalog.Class
	for _, c := range classesOf(m) {
		if c.Name == c.Package+"."+d.Type {
			target = c
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("vdtogen: type %q not found in %s", d.Type, d.packageDir(declPath))
	}

	b, err := proxy.NewBuilder(target, m.Lookup)
	if err != nil {
		return nil, err
	}
	pkg := target.Package

	for _, iface := range d.Interfaces {
		if err := b.AddInterface(qualify(pkg, iface)); err != nil {
			return nil, err
		}
	}
	for _, t := range d.Traits {
		aliases := make([]proxy.TraitAlias, 0, len(t.Aliases))
		for _, a := range t.Aliases {
			aliases = append(aliases, proxy.TraitAlias{Method: a.Method, Alias: a.Alias, Visibility: visibility(a.Visibility)})
		}
		overrides := make([]proxy.TraitOverride, 0, len(t.Overrides))
		for _, o := range t.Overrides {
			overrides = append(overrides, proxy.TraitOverride{Method: o.Method, TraitToReplace: qualify(pkg, o.Replaces)})
		}
		if err := b.AddTrait(qualify(pkg, t.Type), aliases, overrides); err != nil {
			return nil, err
		}
	}
	for _, p := range d.Properties {
		if err := b.AddProperty(proxy.ExtraProperty{Name: p.Name, TypeName: p.Type, Init: p.Init}); err != nil {
			return nil, err
		}
	}
	for _, meth := range d.Methods {
		if err := b.AddMethod(proxy.ExtraMethod{Name: meth.Name, Params: meth.Params, Results: meth.Results, Body: meth.Body}); err != nil {
			return nil, err
		}
	}
	for _, s := range d.Intercept.Properties {
		ic, err := proxy.NewInterceptor(s.Code, nil)
		if err != nil {
			return nil, fmt.Errorf("vdtogen: property %s: %w", s.Name, err)
		}
		if err := b.AddPropertyInterceptor(s.Name, ic); err != nil {
			return nil, err
		}
	}
	for _, s := range d.Intercept.Methods {
		ic, err := proxy.NewInterceptor(s.Code, nil)
		if err != nil {
			return nil, fmt.Errorf("vdtogen: method %s: %w", s.Name, err)
		}
		if err := b.AddMethodInterceptor(s.Name, ic); err != nil {
			return nil, err
		}
	}
	for _, w := range d.Wrap {
		wr, err := proxy.NewWrapper(w.Head, w.Tail, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("vdtogen: wrap %s: %w", w.Method, err)
		}
		if err := b.AddMethodWrapper(w.Method, wr); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// renderOptions maps the declaration onto codegen options.
func (d *Declaration) renderOptions(declPath string, raw []byte) codegen.Options {
	opts := codegen.Options{
		TypeName:        d.Type,
		DeclarationPath: filepath.ToSlash(declPath),
		Declaration:     raw,
	}
	for _, imp := range d.Imports {
		opts.Imports = append(opts.Imports, codegen.Import{Name: imp.Name, Path: imp.Path})
	}
	return opts
}

func classesOf(m *catalog.Map) []*catalog.Class {
	all, _ := m.Enumerate("")
	return all
}

func visibility(s string) catalog.Visibility {
	switch s {
	case "protected":
		return catalog.Protected
	case "private":
		return catalog.Private
	default:
		return catalog.Public
	}
}
