package codegen

import "text/template"

var fileTpl = template.Must(template.New("proxy").Parse(`// Code generated by vdtogen; DO NOT EDIT.
{{- if .DeclPath }}
// Declaration: {{ .DeclPath }}
{{- end }}
{{- if .DeclHash }}
// Declaration-SHA256: {{ .DeclHash }}
{{- end }}

package {{ .Package }}

import (
{{- range .Imports }}
	{{ if .Name }}{{ .Name }} {{ end }}"{{ .Path }}"
{{- end }}
)

{{- if .Interfaces }}

var (
{{- range .Interfaces }}
	_ {{ . }} = (*{{ $.Proxy }})(nil)
{{- end }}
)
{{- end }}

{{- if .Held }}

// {{ .Values }} holds the last accepted values of the intercepted properties.
type {{ .Values }} struct {
{{- range .Held }}
	{{ .Name }} {{ .Type }}
{{- end }}
}
{{- end }}

// {{ .Proxy }} intercepts access to {{ .Target }} ({{ .Class }}).
type {{ .Proxy }} struct {
	*{{ .Target }}
{{- range .Traits }}
	{{ .Type }}
{{- end }}
{{- if .Held }}

	values {{ .Values }}
{{- end }}
{{- range .Extra }}
	{{ .Name }} {{ .Type }}
{{- end }}
}

// New{{ .Proxy }} builds the target and routes the values its constructor
// assigned to intercepted properties through their setters.
func New{{ .Proxy }}({{ .Ctor.Params }}) {{ if .Ctor.HasError }}(*{{ .Proxy }}, error){{ else }}*{{ .Proxy }}{{ end }} {
{{- if .Ctor.HasError }}
	target, err := {{ .Ctor.Call }}
	if err != nil {
		return nil, err
	}
	p := &{{ .Proxy }}{ {{ .Target }}: target }
{{- else }}
	p := &{{ .Proxy }}{ {{ .Target }}: {{ .Ctor.Call }} }
{{- end }}
{{- range .Held }}
	if v := p.{{ $.Target }}.{{ .Name }}; !reflect.DeepEqual(v, p.values.{{ .Name }}) {
		p.{{ $.Target }}.{{ .Name }} = p.values.{{ .Name }}
		p.Set{{ .Accessor }}(v)
	}
{{- end }}
{{- if .Init }}
	{{ .Init }}
{{- end }}
{{- if .Ctor.HasError }}
	return p, nil
{{- else }}
	return p
{{- end }}
}
{{- range .Held }}

// Set{{ .Accessor }} assigns {{ .Name }} unless an interceptor returns a value.
func (p *{{ $.Proxy }}) Set{{ .Accessor }}(value {{ .Type }}) {
{{- range .Interceptors }}
	if ret := func() *proxy.ReturnValue {
		{{ . }}
		return nil
	}(); ret != nil {
		return
	}
{{- end }}
	p.values.{{ .Name }} = value
	p.{{ $.Target }}.{{ .Name }} = value
}

// Get{{ .Accessor }} returns {{ .Name }}.
func (p *{{ $.Proxy }}) Get{{ .Accessor }}() {{ .Type }} {
	return p.{{ $.Target }}.{{ .Name }}
}
{{- end }}

// Get returns a property by name.
func (p *{{ .Proxy }}) Get(name string) (any, error) {
	switch name {
{{- range .Held }}
	case {{ printf "%q" .Name }}:
		return p.Get{{ .Accessor }}(), nil
{{- end }}
{{- range .Plain }}
	case {{ printf "%q" .Name }}:
		return p.{{ $.Target }}.{{ .Name }}, nil
{{- end }}
{{- range .Extra }}
	case {{ printf "%q" .Name }}:
		return p.{{ .Name }}, nil
{{- end }}
	}
	return nil, proxy.UndefinedPropertyError{Class: {{ printf "%q" .Class }}, Property: name}
}

// Set assigns a property by name.
func (p *{{ .Proxy }}) Set(name string, value any) error {
	switch name {
{{- range .Held }}
	case {{ printf "%q" .Name }}:
		v, ok := value.({{ .Type }})
		if !ok {
			return proxy.NewPropertyTypeError({{ printf "%q" $.Class }}, name, {{ printf "%q" .Type }}, value)
		}
		p.Set{{ .Accessor }}(v)
		return nil
{{- end }}
{{- range .Plain }}
	case {{ printf "%q" .Name }}:
		v, ok := value.({{ .Type }})
		if !ok {
			return proxy.NewPropertyTypeError({{ printf "%q" $.Class }}, name, {{ printf "%q" .Type }}, value)
		}
		p.{{ $.Target }}.{{ .Name }} = v
		return nil
{{- end }}
{{- range .Extra }}
	case {{ printf "%q" .Name }}:
		v, ok := value.({{ .Type }})
		if !ok {
			return proxy.NewPropertyTypeError({{ printf "%q" $.Class }}, name, {{ printf "%q" .Type }}, value)
		}
		p.{{ .Name }} = v
		return nil
{{- end }}
	}
	return proxy.UndefinedPropertyError{Class: {{ printf "%q" .Class }}, Property: name}
}

// Isset reports whether a property is defined and not nil.
func (p *{{ .Proxy }}) Isset(name string) bool {
	v, err := p.Get(name)
	return err == nil && !proxy.IsNil(v)
}
{{- range .Methods }}
{{- $m := . }}

// {{ .Name }} runs the wrappers and interceptors of {{ $.Target }}.{{ .Name }}.
func (p *{{ $.Proxy }}) {{ .Name }}({{ .Params }}) {{ .Results }} {
{{- range .Wrappers }}
{{- if .Head }}
	{{ .Head }}
{{- end }}
{{- if .Tail }}
	defer func() {
		{{ .Tail }}
	}()
{{- end }}
{{- end }}
{{- range .Interceptors }}
	if ret := func() *proxy.ReturnValue {
		{{ . }}
		return nil
	}(); ret != nil {
{{- range $m.Returns }}
		if len(ret.Values) > {{ .Index }} {
			{{ .Name }}, _ = ret.Values[{{ .Index }}].({{ .Type }})
		}
{{- end }}
		return
	}
{{- end }}
	{{ if .Returns }}return {{ end }}{{ .Call }}
}
{{- end }}
{{- range .Forwarders }}

func (p *{{ $.Proxy }}) {{ .Name }}({{ .Params }}) {{ .Results }} {
	{{ if .Returns }}return {{ end }}{{ .Call }}
}
{{- end }}
{{- range .ExtraMethods }}

{{ . }}
{{- end }}
`))
