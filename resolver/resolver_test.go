package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/sghaida/vdto/locator"
	"github.com/sghaida/vdto/registry"
)

type request struct{ v string }

func (r request) Version() string { return r.v }

type semverish struct{ major, minor string }

func (s semverish) String() string { return s.major + "." + s.minor }

func testRegistry() *registry.Registry {
	return registry.New(map[string]registry.LocatorFunc{
		"models.User": func() *locator.Locator {
			return locator.New("models.User", map[string]locator.Factory{
				"1.0": func(context.Context) (any, error) { return "user 1.0", nil },
				"2.0": func(context.Context) (any, error) { return "user 2.0", nil },
			})
		},
	})
}

// TestVersionOf verifies every supported version carrier.
func TestVersionOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		carrier any
		want    string
	}{
		{name: "nil", carrier: nil, want: "latest"},
		{name: "string", carrier: "1.2", want: "1.2"},
		{name: "empty_string", carrier: "", want: "latest"},
		{name: "versioned", carrier: request{v: "1.5"}, want: "1.5"},
		{name: "context", carrier: WithVersion(context.Background(), "1.1"), want: "1.1"},
		{name: "bare_context", carrier: context.Background(), want: "latest"},
		{name: "stringer", carrier: semverish{"2", "1"}, want: "2.1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := VersionOf(tt.carrier)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := VersionOf(42)
	var invalid InvalidVersionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "resolver: version must be a string or a fmt.Stringer, int passed", err.Error())
}

// TestResolver_Resolve verifies resolution through the registry.
func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	r := New(testRegistry())
	assert.True(t, r.Has("models.User"))
	assert.False(t, r.Has("models.Order"))

	v, err := r.Resolve("models.User", "1.9")
	require.NoError(t, err)
	assert.Equal(t, "user 1.0", v)

	v, err = r.Resolve("models.User", WithVersion(context.Background(), "2.3"))
	require.NoError(t, err)
	assert.Equal(t, "user 2.0", v)

	v, err = r.Resolve("models.User", nil)
	require.NoError(t, err)
	assert.Equal(t, "user 2.0", v)

	_, err = r.Resolve("models.User", "0.5")
	assert.ErrorIs(t, err, locator.ErrServiceNotFound)

	_, err = r.Resolve("models.Order", "1.0")
	assert.ErrorIs(t, err, registry.ErrLocatorNotFound)

	_, err = r.Resolve("models.User", 3.14)
	assert.True(t, errors.As(err, &InvalidVersionError{}))
}

// TestResolveAs verifies typed resolution.
func TestResolveAs(t *testing.T) {
	t.Parallel()

	r := New(testRegistry())

	s, err := ResolveAs[string](r, "models.User", request{v: "1.0"})
	require.NoError(t, err)
	assert.Equal(t, "user 1.0", s)

	_, err = ResolveAs[int](r, "models.User", "1.0")
	var wrong locator.WrongTypeError
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, "string", wrong.GotType)

	_, err = ResolveAs[string](r, "models.User", "0.1")
	assert.ErrorIs(t, err, locator.ErrServiceNotFound)
}

// TestResolver_Concurrent verifies concurrent requests for one version share a registry.
func TestResolver_Concurrent(t *testing.T) {
	t.Parallel()

	res := New(testRegistry())

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			v, err := ResolveAs[string](res, "models.User", WithVersion(context.Background(), "1.5"))
			if err != nil {
				return err
			}
			if v != "user 1.0" {
				return errors.New("unexpected instance " + v)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
