package proxy

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sghaida/vdto/catalog"
)

func lookupClass(t *testing.T, m *catalog.Map, name string) *catalog.Class {
	t.Helper()

	c, ok := m.Lookup(name)
	require.True(t, ok)
	return c
}

// TestFactory_PassThrough verifies classes are returned as they are when nothing is added.
func TestFactory_PassThrough(t *testing.T) {
	t.Parallel()

	m := testCatalog(t)
	account := lookupClass(t, m, "models.v1.v1_0.Account")

	tests := []struct {
		name string
		f    *Factory
	}{
		{name: "no_extensions", f: NewFactory(WithCatalog(m))},
		{name: "idle_extension", f: NewFactory(WithCatalog(m), WithExtension(ExtensionFunc(func(*Builder) error { return nil })))},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inst, err := tt.f.GenerateProxy(account)
			require.NoError(t, err)
			assert.Same(t, account, inst)

			_, err = tt.f.GenerateProxy(account, ThrowEmpty())
			assert.ErrorIs(t, err, ErrEmptyBuilder)
		})
	}

	final := lookupClass(t, m, "models.v1.v1_0.Ledger")
	inst, err := NewFactory().GenerateProxy(final)
	require.NoError(t, err)
	assert.Same(t, final, inst, "without extensions final classes pass through")
}

// TestFactory_Extensions verifies extensions run in order and the generated class is cached.
func TestFactory_Extensions(t *testing.T) {
	t.Parallel()

	m := testCatalog(t)
	account := lookupClass(t, m, "models.v1.v1_0.Account")

	var order []string
	var runs atomic.Int32
	f := NewFactory(
		WithCatalog(m),
		WithExtension(
			ExtensionFunc(func(b *Builder) error {
				runs.Add(1)
				order = append(order, "interfaces")
				return b.AddInterface("models.Auditor")
			}),
			ExtensionFunc(func(b *Builder) error {
				order = append(order, "renames")
				return b.AddMethodInterceptor("Rename", MustInterceptor("", func(inv *Invocation) (*ReturnValue, error) {
					return Return("intercepted"), nil
				}))
			}),
		),
	)

	inst, err := f.GenerateProxy(account)
	require.NoError(t, err)
	pc, ok := inst.(*Class)
	require.True(t, ok)
	assert.True(t, pc.Implements("models.Auditor"))
	assert.Equal(t, []string{"interfaces", "renames"}, order)

	again, err := f.GenerateProxy(account)
	require.NoError(t, err)
	assert.Same(t, pc, again)
	assert.EqualValues(t, 1, runs.Load())
	assert.Equal(t, 1, f.Len())

	v, err := pc.New("ada", 0)
	require.NoError(t, err)
	out, err := v.(*Instance).Call("Rename", "grace")
	require.NoError(t, err)
	assert.Equal(t, []any{"intercepted"}, out)
}

// TestFactory_ClassID verifies generated classes are cached and logged under their ClassID.
func TestFactory_ClassID(t *testing.T) {
	t.Parallel()

	m := testCatalog(t)
	account := lookupClass(t, m, "models.v1.v1_0.Account")
	core, logs := observer.New(zapcore.DebugLevel)

	f := NewFactory(WithCatalog(m), WithLogger(zap.New(core)), WithExtension(ExtensionFunc(func(b *Builder) error {
		return b.AddProperty(ExtraProperty{Name: "hits", Default: 0})
	})))

	inst, err := f.GenerateProxy(account)
	require.NoError(t, err)
	pc, ok := inst.(*Class)
	require.True(t, ok)

	id := ClassID(account.Name)
	assert.Equal(t, id, pc.ID())
	assert.NotEqual(t, id, ClassID("models.v1.v1_0.Ledger"))
	assert.Same(t, pc, f.cache[id].class)

	cached := logs.FilterMessage("proxy cached").All()
	require.Len(t, cached, 1)
	assert.Equal(t, id.String(), cached[0].ContextMap()["proxy_id"])
}

// TestFactory_Errors verifies builder and extension failures are reported and not cached.
func TestFactory_Errors(t *testing.T) {
	t.Parallel()

	m := testCatalog(t)
	errExt := errors.New("extension failed")
	calls := 0
	f := NewFactory(WithCatalog(m), WithExtension(ExtensionFunc(func(*Builder) error {
		calls++
		return errExt
	})))

	_, err := f.GenerateProxy(lookupClass(t, m, "models.v1.v1_0.Account"))
	require.ErrorIs(t, err, errExt)
	assert.Contains(t, err.Error(), "models.v1.v1_0.Account")

	_, err = f.GenerateProxy(lookupClass(t, m, "models.v1.v1_0.Account"))
	require.ErrorIs(t, err, errExt)
	assert.Equal(t, 2, calls)
	assert.Zero(t, f.Len())

	_, err = f.GenerateProxy(lookupClass(t, m, "models.v1.v1_0.Ledger"))
	assert.ErrorIs(t, err, ErrCannotProxyClass)

	_, err = f.GenerateProxy(nil)
	assert.ErrorIs(t, err, ErrCannotProxyClass)
}

// TestFactory_Concurrent verifies concurrent requests share one generation.
func TestFactory_Concurrent(t *testing.T) {
	t.Parallel()

	m := testCatalog(t)
	account := lookupClass(t, m, "models.v1.v1_0.Account")

	f := NewFactory(WithCatalog(m), WithExtension(ExtensionFunc(func(b *Builder) error {
		return b.AddProperty(ExtraProperty{Name: "hits", Default: 0})
	})))

	const n = 16
	results := make([]Instantiator, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inst, err := f.GenerateProxy(account)
			if err == nil {
				results[i] = inst
			}
		}()
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Same(t, results[0], r)
	}
}
