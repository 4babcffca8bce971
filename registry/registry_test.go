package registry

import (
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/vdto/argument"
	"github.com/sghaida/vdto/catalog"
	"github.com/sghaida/vdto/container"
	"github.com/sghaida/vdto/locator"
	"github.com/sghaida/vdto/proxy"
)

type user interface {
	Version() string
}

type internal interface {
	Internal() bool
}

type clock struct{ now string }

type userV10 struct{ clock *clock }

func newUserV10(c *clock) *userV10 { return &userV10{clock: c} }

func (u *userV10) Version() string { return "1.0" }

func (u *userV10) Internal() bool { return true }

type userV12 struct{ Name string }

func newUserV12(name string) *userV12 { return &userV12{Name: name} }

func (u *userV12) Version() string { return "1.2" }

type userV20 struct{}

func newUserV20() *userV20 { return &userV20{} }

func (u *userV20) Version() string { return "2.0" }

type helper struct{}

func newHelper() *helper { return &helper{} }

func modelCatalog(t *testing.T) *catalog.Map {
	t.Helper()

	m := catalog.NewMap()
	_, err := m.RegisterInterface("models.User", reflect.TypeFor[user]())
	require.NoError(t, err)
	_, err = m.RegisterInterface("models.Internal", reflect.TypeFor[internal]())
	require.NoError(t, err)
	_, err = m.RegisterStruct("models.v1.v1_0.User", newUserV10)
	require.NoError(t, err)
	_, err = m.RegisterStruct("models.v1.v1_2.User", newUserV12, catalog.WithParams(catalog.Arg("name").WithDefault("ada")))
	require.NoError(t, err)
	_, err = m.RegisterStruct("models.v2.v2_0.User", newUserV20)
	require.NoError(t, err)
	_, err = m.RegisterStruct("models.v1.v1_0.Helper", newHelper)
	require.NoError(t, err)
	_, err = m.RegisterStruct("models.legacy.User", newUserV20)
	require.NoError(t, err)
	_, err = m.RegisterStruct("other.v1.v1_0.User", newUserV20)
	require.NoError(t, err)
	return m
}

//
// -----------------------------------------------------------------------------
// Scan
// -----------------------------------------------------------------------------

// TestScan verifies interfaces, exclusions and versions extracted from class names.
func TestScan(t *testing.T) {
	t.Parallel()

	res, err := Scan(modelCatalog(t), "models", map[string]bool{"models.Internal": true})
	require.NoError(t, err)

	assert.Equal(t, []string{"models.User"}, res.Interfaces)
	assert.True(t, res.HasInterface("models.User"))
	assert.False(t, res.HasInterface("models.Internal"))

	assert.Equal(t, map[string]string{
		"1.0": "models.v1.v1_0.User",
		"1.2": "models.v1.v1_2.User",
		"2.0": "models.v2.v2_0.User",
	}, res.ModelsByInterface["models.User"])
	assert.Equal(t, map[string]string{"1.0": "models.v1.v1_0.User"}, res.ModelsByInterface["models.Internal"],
		"excluded interfaces still record their classes")
}

// TestClassVersion verifies the version pattern.
func TestClassVersion(t *testing.T) {
	t.Parallel()

	pattern := VersionPattern("app.models")
	tests := []struct {
		class string
		want  string
		ok    bool
	}{
		{class: "app.models.v1.v1_0.User", want: "1.0", ok: true},
		{class: "app.models.v2.v2_1_3.Order", want: "2.1.3", ok: true},
		{class: "app.models.v1.v1_0_beta.User", want: "1.0.beta", ok: true},
		{class: "app.models.User", ok: false},
		{class: "app.modelsX.v1.v1_0.User", ok: false},
		{class: "other.app.models.v1.v1_0.User", ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.class, func(t *testing.T) {
			t.Parallel()
			got, ok := ClassVersion(pattern, tt.class)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

//
// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// TestRegistry_Lazy verifies locators are built once, on first use.
func TestRegistry_Lazy(t *testing.T) {
	t.Parallel()

	var builds atomic.Int32
	r := New(map[string]LocatorFunc{
		"models.User": func() *locator.Locator {
			builds.Add(1)
			return locator.New("models.User", nil)
		},
	})

	assert.True(t, r.Has("models.User"))
	assert.Equal(t, []string{"models.User"}, r.Interfaces())
	assert.Zero(t, builds.Load())

	first, err := r.Get("models.User")
	require.NoError(t, err)
	second, err := r.Get("models.User")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.EqualValues(t, 1, builds.Load())

	_, err = r.Get("models.Missing")
	require.ErrorIs(t, err, ErrLocatorNotFound)
	assert.Equal(t, `registry: cannot find service locator for "models.Missing"`, err.Error())
	assert.False(t, r.Has("models.Missing"))
}

//
// -----------------------------------------------------------------------------
// Builder
// -----------------------------------------------------------------------------

// TestBuilder_Build verifies the end-to-end path from catalog to versioned instances.
func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	c := &clock{now: "noon"}
	services := container.NewMap()
	container.ProvideType(services, c)

	r, err := NewBuilder("models", modelCatalog(t)).
		ExcludeInterface("models.Internal").
		WithServiceContainer(services).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"models.User"}, r.Interfaces())

	l, err := r.Get("models.User")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0", "1.2", "2.0"}, l.Versions())

	v, err := l.Get("1.1")
	require.NoError(t, err)
	u10, ok := v.(*userV10)
	require.True(t, ok)
	assert.Same(t, c, u10.clock, "constructor argument resolved from the container")

	v, err = l.Get("1.9")
	require.NoError(t, err)
	assert.Equal(t, "ada", v.(*userV12).Name, "declared default")

	v, err = l.Get("latest")
	require.NoError(t, err)
	assert.Equal(t, "2.0", v.(user).Version())

	_, err = l.Get("0.9")
	assert.ErrorIs(t, err, locator.ErrServiceNotFound)
}

// TestBuilder_ResolverPrecedence verifies later argument resolvers win.
func TestBuilder_ResolverPrecedence(t *testing.T) {
	t.Parallel()

	r, err := NewBuilder("models", modelCatalog(t)).
		WithArgumentValueResolver(argument.Named("name", "grace")).
		WithArgumentValueResolver(argument.Named("name", "linus")).
		Build()
	require.NoError(t, err)

	l, err := r.Get("models.User")
	require.NoError(t, err)
	v, err := l.Get("1.2")
	require.NoError(t, err)
	assert.Equal(t, "linus", v.(*userV12).Name)
}

// TestBuilder_UnresolvableArgument verifies constructor arguments without a source fail at Get.
func TestBuilder_UnresolvableArgument(t *testing.T) {
	t.Parallel()

	m := catalog.NewMap()
	_, err := m.RegisterInterface("models.User", reflect.TypeFor[user]())
	require.NoError(t, err)
	_, err = m.RegisterStruct("models.v1.v1_2.User", newUserV12)
	require.NoError(t, err)

	r, err := NewBuilder("models", m).Build()
	require.NoError(t, err)

	l, err := r.Get("models.User")
	require.NoError(t, err)
	_, err = l.Get("1.2")
	assert.ErrorIs(t, err, argument.ErrArgumentResolution)
}

// TestBuilder_ProxyFactory verifies instances are built through the proxy factory.
func TestBuilder_ProxyFactory(t *testing.T) {
	t.Parallel()

	m := modelCatalog(t)
	factory := proxy.NewFactory(proxy.WithCatalog(m), proxy.WithExtension(proxy.ExtensionFunc(func(b *proxy.Builder) error {
		if !b.HasProperty("Name") {
			return nil
		}
		return b.AddPropertyInterceptor("Name", proxy.MustInterceptor(`value = strings.ToUpper(value)`,
			func(inv *proxy.Invocation) (*proxy.ReturnValue, error) {
				inv.Args[0] = "Dr. " + inv.Args[0].(string)
				return nil, nil
			}))
	})))

	r, err := NewBuilder("models", m).WithProxyFactory(factory).Build()
	require.NoError(t, err)

	l, err := r.Get("models.User")
	require.NoError(t, err)

	v, err := l.Get("1.2")
	require.NoError(t, err)
	inst, ok := v.(*proxy.Instance)
	require.True(t, ok)
	name, err := inst.Get("Name")
	require.NoError(t, err)
	assert.Equal(t, "Dr. ada", name)

	v, err = l.Get("2.0")
	require.NoError(t, err)
	assert.IsType(t, &userV20{}, v, "classes the extension leaves alone are not proxied")
}

type failingFactory struct{}

var errNoProxy = errors.New("no proxy")

func (failingFactory) GenerateProxy(*catalog.Class, ...proxy.GenerateOption) (proxy.Instantiator, error) {
	return nil, errNoProxy
}

// TestBuilder_Errors verifies build and factory failures.
func TestBuilder_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder("models", nil).Build()
	assert.Error(t, err)

	r, err := NewBuilder("models", modelCatalog(t)).WithProxyFactory(failingFactory{}).Build()
	require.NoError(t, err)
	l, err := r.Get("models.User")
	require.NoError(t, err)
	_, err = l.Get("2.0")
	assert.ErrorIs(t, err, errNoProxy)
}

// TestBuilder_WithConfig verifies namespace, exclusions and cache come from the config.
func TestBuilder_WithConfig(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Namespace: "models",
		Exclude:   []string{"models.User"},
		Cache:     CacheConfig{Driver: CacheMemory},
	}
	r, err := NewBuilder("ignored", modelCatalog(t)).WithConfig(cfg).Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"models.Internal"}, r.Interfaces())

	l, err := r.Get("models.Internal")
	require.NoError(t, err)
	v, err := l.Get("1.5")
	require.NoError(t, err)
	assert.IsType(t, &userV10{}, v)
}
