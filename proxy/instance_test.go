package proxy

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func generate(t *testing.T, b *Builder, opts ...GeneratorOption) *Class {
	t.Helper()

	pc, err := NewGenerator(opts...).Generate(b)
	require.NoError(t, err)
	return pc
}

// TestInstance_MethodInterceptors verifies interceptors run in order, may rewrite arguments and short-circuit.
func TestInstance_MethodInterceptors(t *testing.T) {
	t.Parallel()

	b := accountBuilder(t, testCatalog(t))
	var seen []string
	require.NoError(t, b.AddMethodInterceptor("Rename", MustInterceptor(`name = strings.TrimSpace(name)`,
		func(inv *Invocation) (*ReturnValue, error) {
			seen = append(seen, "trim")
			inv.Args[0] = strings.TrimSpace(inv.Args[0].(string))
			return nil, nil
		})))
	require.NoError(t, b.AddMethodInterceptor("Rename", MustInterceptor(`if name == "root" { return proxy.Return("denied") }`,
		func(inv *Invocation) (*ReturnValue, error) {
			seen = append(seen, "guard")
			if inv.Args[0] == "root" {
				return Return("denied"), nil
			}
			return nil, nil
		})))

	inst, err := generate(t, b).Instantiate("ada", 0)
	require.NoError(t, err)

	out, err := inst.Call("Rename", "  grace ")
	require.NoError(t, err)
	assert.Equal(t, []any{"grace"}, out)
	assert.Equal(t, []string{"trim", "guard"}, seen)

	out, err = inst.Call("Rename", "root")
	require.NoError(t, err)
	assert.Equal(t, []any{"denied"}, out)
	assert.Equal(t, "grace", inst.Target().(*account).Name, "short-circuit skips the target")
}

// TestInstance_InterceptorError verifies an interceptor error aborts the call.
func TestInstance_InterceptorError(t *testing.T) {
	t.Parallel()

	b := accountBuilder(t, testCatalog(t))
	errDenied := errors.New("denied")
	require.NoError(t, b.AddMethodInterceptor("Deposit", MustInterceptor(`return nil`,
		func(*Invocation) (*ReturnValue, error) { return nil, errDenied })))

	inst, err := generate(t, b).Instantiate("ada", 0)
	require.NoError(t, err)

	_, err = inst.Call("Deposit", 5)
	assert.ErrorIs(t, err, errDenied)
	assert.Equal(t, 0, inst.Target().(*account).Balance)
}

// TestInstance_Wrappers verifies wrappers bracket the call outermost-first and tails see the outcome.
func TestInstance_Wrappers(t *testing.T) {
	t.Parallel()

	b := accountBuilder(t, testCatalog(t))
	var log []string
	wrapper := func(name string, headErr error) *Wrapper {
		return MustWrapper(`log.Println("`+name+` head")`, `log.Println("`+name+` tail")`,
			func(*Invocation) error {
				log = append(log, name+" head")
				return headErr
			},
			func(inv *Invocation) {
				log = append(log, name+" tail")
				if inv.Err == nil && name == "outer" {
					inv.Results = append(inv.Results, "wrapped")
				}
			})
	}
	require.NoError(t, b.AddMethodWrapper("Deposit", wrapper("outer", nil)))
	require.NoError(t, b.AddMethodWrapper("Deposit", wrapper("inner", nil)))
	require.NoError(t, b.AddMethodInterceptor("Deposit", MustInterceptor("", func(*Invocation) (*ReturnValue, error) {
		log = append(log, "interceptor")
		return nil, nil
	})))

	inst, err := generate(t, b).Instantiate("ada", 10)
	require.NoError(t, err)

	out, err := inst.Call("Deposit", 5)
	require.NoError(t, err)
	assert.Equal(t, []any{15, "wrapped"}, out)
	assert.Equal(t, []string{"outer head", "inner head", "interceptor", "inner tail", "outer tail"}, log)

	_, err = inst.Call("Deposit", -1)
	assert.EqualError(t, err, "negative deposit")
}

// TestInstance_WrapperHeadError verifies a failing head skips the call and its own tail.
func TestInstance_WrapperHeadError(t *testing.T) {
	t.Parallel()

	b := accountBuilder(t, testCatalog(t))
	errHead := errors.New("head failed")
	var log []string
	require.NoError(t, b.AddMethodWrapper("Rename", MustWrapper("", "",
		func(*Invocation) error { log = append(log, "outer head"); return nil },
		func(*Invocation) { log = append(log, "outer tail") })))
	require.NoError(t, b.AddMethodWrapper("Rename", MustWrapper("", "",
		func(*Invocation) error { log = append(log, "inner head"); return errHead },
		func(*Invocation) { log = append(log, "inner tail") })))

	inst, err := generate(t, b).Instantiate("ada", 0)
	require.NoError(t, err)

	_, err = inst.Call("Rename", "grace")
	assert.ErrorIs(t, err, errHead)
	assert.Equal(t, []string{"outer head", "inner head", "outer tail"}, log)
	assert.Equal(t, "ada", inst.Target().(*account).Name)
}

// TestInstance_PropertyInterceptors verifies constructor values and writes go through the set pipeline.
func TestInstance_PropertyInterceptors(t *testing.T) {
	t.Parallel()

	b := accountBuilder(t, testCatalog(t))
	var seen []any
	require.NoError(t, b.AddPropertyInterceptor("Balance", MustInterceptor(`if value < 0 { return proxy.Return() }`,
		func(inv *Invocation) (*ReturnValue, error) {
			seen = append(seen, inv.Args[0])
			if n, ok := inv.Args[0].(int); ok && n < 0 {
				return Return(), nil
			}
			return nil, nil
		})))

	inst, err := generate(t, b).Instantiate("ada", 10)
	require.NoError(t, err)
	assert.Equal(t, []any{10}, seen, "constructor-set value is routed through Set")

	v, err := inst.Get("Balance")
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	require.NoError(t, inst.Set("Balance", -5))
	v, _ = inst.Get("Balance")
	assert.Equal(t, 10, v, "short-circuit skips the assignment")

	require.NoError(t, inst.Set("Balance", int64(20)))
	assert.Equal(t, 20, inst.Target().(*account).Balance)

	_, err = inst.Call("Deposit", 5)
	require.NoError(t, err)
	v, _ = inst.Get("Balance")
	assert.Equal(t, 25, v, "holder follows the target after a call")

	var typeErr PropertyTypeError
	require.ErrorAs(t, inst.Set("Balance", "lots"), &typeErr)
	assert.Equal(t, "int", typeErr.Want)
}

// TestInstance_DefaultConstructorValue verifies values equal to the default skip the interceptors.
func TestInstance_DefaultConstructorValue(t *testing.T) {
	t.Parallel()

	b := accountBuilder(t, testCatalog(t))
	calls := 0
	require.NoError(t, b.AddPropertyInterceptor("Balance", MustInterceptor("", func(*Invocation) (*ReturnValue, error) {
		calls++
		return nil, nil
	})))

	_, err := generate(t, b).Instantiate("ada", 0)
	require.NoError(t, err)
	assert.Zero(t, calls)
}

// TestInstance_Properties verifies access to plain, private and undefined properties.
func TestInstance_Properties(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	b := accountBuilder(t, testCatalog(t))
	require.NoError(t, b.AddProperty(ExtraProperty{Name: "hits", TypeName: "int", Default: 0}))

	inst, err := generate(t, b, WithGeneratorLogger(zap.New(core))).Instantiate("ada", 0)
	require.NoError(t, err)

	require.NoError(t, inst.Set("Name", "grace"))
	assert.Equal(t, "grace", inst.Target().(*account).Name)
	assert.True(t, inst.Isset("Name"))
	assert.False(t, inst.Isset("Tags"), "nil slice")

	require.NoError(t, inst.Set("hits", 3))
	v, err := inst.Get("hits")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	var typeErr PropertyTypeError
	assert.ErrorAs(t, inst.Set("Name", 5), &typeErr)

	assert.ErrorIs(t, inst.Set("secret", "x"), ErrInaccessibleProperty)
	_, err = inst.Get("secret")
	assert.ErrorIs(t, err, ErrInaccessibleProperty)
	assert.False(t, inst.Isset("secret"))

	err = inst.Set("nickname", "x")
	require.ErrorIs(t, err, ErrUndefinedProperty)
	assert.Equal(t, `proxy: undefined property "models.v1.v1_0.Account::nickname"`, err.Error())
	_, err = inst.Get("nickname")
	assert.ErrorIs(t, err, ErrUndefinedProperty)
	assert.False(t, inst.Isset("nickname"))

	assert.Equal(t, 2, logs.FilterMessage("undefined property").Len())
}

// TestInstance_ExtraMembers verifies extra property initializers and extra methods.
func TestInstance_ExtraMembers(t *testing.T) {
	t.Parallel()

	b := accountBuilder(t, testCatalog(t))
	require.NoError(t, b.AddProperty(ExtraProperty{
		Name:     "audit",
		TypeName: "[]string",
		Init:     `p.audit = []string{"created"}`,
		InitFn: func(inst *Instance) error {
			return inst.Set("audit", []string{"created"})
		},
	}))
	require.NoError(t, b.AddMethod(ExtraMethod{
		Name:    "Audit",
		Results: "[]string",
		Body:    `return p.audit`,
		Fn: func(inst *Instance, _ ...any) ([]any, error) {
			v, err := inst.Get("audit")
			return []any{v}, err
		},
	}))

	inst, err := generate(t, b).Instantiate("ada", 0)
	require.NoError(t, err)

	out, err := inst.Call("Audit")
	require.NoError(t, err)
	assert.Equal(t, []any{[]string{"created"}}, out)

	out, err = inst.Call("Label")
	require.NoError(t, err)
	assert.Equal(t, []any{"account ada"}, out, "non-intercepted methods forward to the target")

	_, err = inst.Call("Missing")
	require.ErrorIs(t, err, ErrUndefinedMethod)
	assert.Equal(t, `proxy: call to undefined method "models.v1.v1_0.Account::Missing()"`, err.Error())
}

// TestInstance_Traits verifies alias, override and target precedence for trait methods.
func TestInstance_Traits(t *testing.T) {
	t.Parallel()

	b := accountBuilder(t, testCatalog(t))
	require.NoError(t, b.AddTrait("traits.Stamp", []TraitAlias{{Method: "Stamp", Alias: "Mark"}}, nil))
	require.NoError(t, b.AddTrait("traits.Seal", nil, []TraitOverride{{Method: "Stamp", TraitToReplace: "traits.Stamp"}}))
	require.NoError(t, b.AddProperty(ExtraProperty{Name: "hits"}))

	inst, err := generate(t, b).Instantiate("ada", 0)
	require.NoError(t, err)

	out, err := inst.Call("Mark")
	require.NoError(t, err)
	assert.Equal(t, []any{"stamped"}, out)

	out, err = inst.Call("Stamp")
	require.NoError(t, err)
	assert.Equal(t, []any{"sealed"}, out)

	out, err = inst.Call("Label")
	require.NoError(t, err)
	assert.Equal(t, []any{"account ada"}, out, "target methods win over traits")
}
