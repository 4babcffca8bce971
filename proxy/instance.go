package proxy

import (
	"fmt"
	"reflect"
	"slices"

	"go.uber.org/zap"

	"github.com/sghaida/vdto/catalog"
)

// Instance is a proxied object: the target, the value holder of the
// intercepted and extra properties, and the trait values.
//
// An Instance is not safe for concurrent use, like the structs it wraps.
type Instance struct {
	class  *Class
	target reflect.Value // pointer to struct
	holder map[string]any
	traits []reflect.Value
}

// Instantiate builds the target with args and wraps it.
//
// Values the constructor assigned to intercepted properties are reset to the
// declared default and assigned again through Set, so interceptors observe
// them. Extra property initializers run last, in declaration order.
func (c *Class) Instantiate(args ...any) (*Instance, error) {
	v, err := c.target.New(args...)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("proxy: class %q built %T, want a struct pointer", c.target.Name, v)
	}

	inst := &Instance{
		class:  c,
		target: rv,
		holder: make(map[string]any, len(c.defaults)),
	}
	for name, def := range c.defaults {
		inst.holder[name] = def
	}

	for _, t := range c.traits {
		tv, err := t.class.New()
		if err != nil {
			return nil, fmt.Errorf("proxy: trait %q: %w", t.Name, err)
		}
		inst.traits = append(inst.traits, reflect.ValueOf(tv))
	}

	for _, p := range c.intercepted {
		f := inst.field(p.Name)
		if !f.IsValid() || !f.CanInterface() {
			continue
		}
		got := f.Interface()
		if reflect.DeepEqual(got, p.Default) {
			continue
		}
		if err := assign(f, p.Default); err != nil {
			return nil, err
		}
		if err := inst.Set(p.Name, got); err != nil {
			return nil, err
		}
	}

	for _, p := range c.extraProps {
		if p.InitFn == nil {
			continue
		}
		if err := p.InitFn(inst); err != nil {
			return nil, fmt.Errorf("proxy: init %q: %w", p.Name, err)
		}
	}
	return inst, nil
}

// Class returns the proxy class.
func (i *Instance) Class() *Class { return i.class }

// Target returns the proxied struct pointer.
func (i *Instance) Target() any { return i.target.Interface() }

// Implements reports whether the proxy implements iface.
func (i *Instance) Implements(iface string) bool { return i.class.Implements(iface) }

// Call invokes a method by name. Extra methods are looked up first, then the
// target's methods, then the traits: aliases, overrides, declaration order.
func (i *Instance) Call(method string, args ...any) ([]any, error) {
	c := i.class
	if m, ok := c.extraMethods[method]; ok {
		if m.Fn == nil {
			return nil, fmt.Errorf("proxy: extra method %q has no run-time body", method)
		}
		return m.Fn(i, args...)
	}

	if mv := i.target.MethodByName(method); mv.IsValid() {
		fn, err := catalog.NewFunc(c.target.Name, method, mv.Interface(), nil, nil)
		if err != nil {
			return nil, err
		}
		plan, ok := c.methods[method]
		if !ok {
			out, err := fn.Call(args)
			i.refresh()
			return out, err
		}
		return i.dispatch(method, plan, fn, args)
	}

	if fn, ok := i.traitMethod(method); ok {
		return fn.Call(args)
	}
	return nil, UndefinedMethodError{Class: c.target.Name, Method: method}
}

// dispatch runs the wrappers around the interceptors and the target call.
func (i *Instance) dispatch(method string, plan methodPlan, fn *catalog.Func, args []any) ([]any, error) {
	inv := &Invocation{Proxy: i, Member: method, Args: slices.Clone(args)}
	wrap(plan.wrappers, inv, func() {
		for _, ic := range plan.interceptors {
			if ic.Fn == nil {
				continue
			}
			ret, err := ic.Fn(inv)
			if err != nil {
				inv.Err = err
				return
			}
			if ret != nil {
				inv.Results = ret.Values
				return
			}
		}
		inv.Results, inv.Err = fn.Call(inv.Args)
		i.refresh()
	})
	return inv.Results, inv.Err
}

// wrap runs body inside ws, the first wrapper outermost. A tail runs only
// once its head has succeeded.
func wrap(ws []*Wrapper, inv *Invocation, body func()) {
	if len(ws) == 0 {
		body()
		return
	}
	w := ws[0]
	if w.HeadFn != nil {
		if err := w.HeadFn(inv); err != nil {
			inv.Err = err
			return
		}
	}
	if w.TailFn != nil {
		defer w.TailFn(inv)
	}
	wrap(ws[1:], inv, body)
}

// refresh copies the intercepted fields of the target back into the holder
// after a target method ran.
func (i *Instance) refresh() {
	for _, p := range i.class.intercepted {
		if f := i.field(p.Name); f.IsValid() && f.CanInterface() {
			i.holder[p.Name] = f.Interface()
		}
	}
}

func (i *Instance) traitMethod(name string) (*catalog.Func, bool) {
	traits := i.class.traits
	for idx, t := range traits {
		for _, a := range t.Aliases {
			if a.Alias == name {
				return i.traitFunc(idx, a.Method)
			}
		}
	}
	for idx, t := range traits {
		for _, o := range t.Overrides {
			if o.Method == name {
				return i.traitFunc(idx, name)
			}
		}
	}
	for idx := range traits {
		if fn, ok := i.traitFunc(idx, name); ok {
			return fn, true
		}
	}
	return nil, false
}

func (i *Instance) traitFunc(idx int, method string) (*catalog.Func, bool) {
	mv := i.traits[idx].MethodByName(method)
	if !mv.IsValid() {
		return nil, false
	}
	fn, err := catalog.NewFunc(i.class.traits[idx].Name, method, mv.Interface(), nil, nil)
	return fn, err == nil
}

// Get reads a property from the value holder or the target.
func (i *Instance) Get(name string) (any, error) {
	if v, ok := i.holder[name]; ok {
		return v, nil
	}
	p, ok := i.class.target.Property(name)
	if !ok {
		return nil, i.undefined(name, "get")
	}
	f := i.field(name)
	if !p.Visibility.Accessible() || !f.IsValid() || !f.CanInterface() {
		return nil, InaccessiblePropertyError{Class: i.class.target.Name, Property: name}
	}
	return f.Interface(), nil
}

// Set writes a property. Writes to intercepted properties run the
// interceptors first; a ReturnValue skips the assignment.
func (i *Instance) Set(name string, value any) error {
	c := i.class
	if ics, ok := c.propInterceptors[name]; ok {
		inv := &Invocation{Proxy: i, Member: name, Args: []any{value}}
		for _, ic := range ics {
			if ic.Fn == nil {
				continue
			}
			ret, err := ic.Fn(inv)
			if err != nil {
				return err
			}
			if ret != nil {
				return nil
			}
		}
		if len(inv.Args) > 0 {
			value = inv.Args[0]
		}
		f := i.field(name)
		if err := i.assignProperty(name, f, value); err != nil {
			return err
		}
		i.holder[name] = f.Interface()
		return nil
	}

	if _, ok := i.holder[name]; ok {
		i.holder[name] = value
		return nil
	}

	p, ok := c.target.Property(name)
	if !ok {
		return i.undefined(name, "set")
	}
	if !p.Visibility.Accessible() {
		return InaccessiblePropertyError{Class: c.target.Name, Property: name}
	}
	return i.assignProperty(name, i.field(name), value)
}

// Isset reports whether a property is defined, readable and not nil.
func (i *Instance) Isset(name string) bool {
	if _, ok := i.holder[name]; !ok {
		if _, ok := i.class.target.Property(name); !ok {
			return false
		}
	}
	v, err := i.Get(name)
	return err == nil && !IsNil(v)
}

// IsNil reports whether v is nil or holds a nil pointer, map, slice, func or
// channel.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func (i *Instance) field(name string) reflect.Value {
	return i.target.Elem().FieldByName(name)
}

func (i *Instance) assignProperty(name string, f reflect.Value, value any) error {
	if !f.IsValid() || !f.CanSet() {
		return InaccessiblePropertyError{Class: i.class.target.Name, Property: name}
	}
	if err := assign(f, value); err != nil {
		return NewPropertyTypeError(i.class.target.Name, name, f.Type().String(), value)
	}
	return nil
}

func (i *Instance) undefined(name, op string) error {
	i.class.logger.Warn("undefined property",
		zap.String("property", name),
		zap.String("op", op),
	)
	return UndefinedPropertyError{Class: i.class.target.Name, Property: name}
}

// assign stores v in f: nil becomes the zero value and numbers are converted.
func assign(f reflect.Value, v any) error {
	if v == nil {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(f.Type()):
		f.Set(rv)
	case isNumber(rv.Kind()) && isNumber(f.Kind()):
		f.Set(rv.Convert(f.Type()))
	default:
		return fmt.Errorf("proxy: cannot assign %T to %s", v, f.Type())
	}
	return nil
}

func isNumber(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64 && k != reflect.Uintptr
}
