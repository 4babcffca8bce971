package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now int }

type panicky struct{}

func (panicky) Has(string) bool         { panic("has exploded") }
func (panicky) Get(string) (any, error) { panic("get exploded") }

//
// -----------------------------------------------------------------------------
// NewMap / Provide
// -----------------------------------------------------------------------------

// TestNewMap_Empty verifies NewMap initializes an empty container.
func TestNewMap_Empty(t *testing.T) {
	t.Parallel()

	m := NewMap()
	require.NotNil(t, m)
	assert.Empty(t, m.Names())
	assert.False(t, m.Has("anything"))
}

// TestProvide_ChainsAndStores verifies Provide stores values and returns the same container for chaining.
func TestProvide_ChainsAndStores(t *testing.T) {
	t.Parallel()

	m := NewMap()
	ret := m.Provide("a", 1).Provide("b", "x")
	require.Same(t, m, ret)

	got, err := m.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	assert.True(t, m.Has("b"))
	assert.Equal(t, []string{"a", "b"}, m.Names())
}

// TestProvideType_KeysByTypeString verifies typed services are stored under their Go type string.
func TestProvideType_KeysByTypeString(t *testing.T) {
	t.Parallel()

	c := &clock{now: 7}
	m := ProvideType(NewMap(), c)

	assert.Equal(t, "*container.clock", TypeName[*clock]())
	assert.True(t, m.Has("*container.clock"))
	assert.Same(t, c, m.MustGet("*container.clock"))
}

//
// -----------------------------------------------------------------------------
// Get / MustGet
// -----------------------------------------------------------------------------

// TestGet_Missing verifies Get returns a MissingError for unknown names.
func TestGet_Missing(t *testing.T) {
	t.Parallel()

	_, err := NewMap().Get("clock")

	var missing MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "clock", missing.Name)
	assert.Equal(t, `container: service "clock" missing`, err.Error())
}

// TestMustGet_PanicsOnMissing verifies MustGet panics for unknown names.
func TestMustGet_PanicsOnMissing(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewMap().MustGet("missing") })
}

//
// -----------------------------------------------------------------------------
// SafeGet / SafeHas
// -----------------------------------------------------------------------------

// TestSafeGet_RecoversPanic verifies panics inside a container become ErrPanic.
func TestSafeGet_RecoversPanic(t *testing.T) {
	t.Parallel()

	val, err := SafeGet(panicky{}, "x")
	assert.Nil(t, val)
	require.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "get exploded")

	assert.False(t, SafeHas(panicky{}, "x"))
}

// TestSafeGet_PassesThrough verifies normal lookups are unchanged.
func TestSafeGet_PassesThrough(t *testing.T) {
	t.Parallel()

	m := NewMap().Provide("k", "v")

	val, err := SafeGet(m, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
	assert.True(t, SafeHas(m, "k"))
}
