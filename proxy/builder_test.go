package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewBuilder_CannotProxy verifies final, read-only and interface classes are rejected.
func TestNewBuilder_CannotProxy(t *testing.T) {
	t.Parallel()

	m := testCatalog(t)
	tests := []struct {
		class  string
		reason string
	}{
		{class: "models.v1.v1_0.Ledger", reason: "final"},
		{class: "models.v1.v1_0.Snapshot", reason: "read-only"},
		{class: "models.Named", reason: "an interface"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.reason, func(t *testing.T) {
			t.Parallel()

			c, ok := m.Lookup(tt.class)
			require.True(t, ok)

			_, err := NewBuilder(c, m.Lookup)
			require.ErrorIs(t, err, ErrCannotProxyClass)

			var cpe CannotProxyClassError
			require.ErrorAs(t, err, &cpe)
			assert.Equal(t, tt.reason, cpe.Reason)
			assert.Contains(t, err.Error(), tt.class)
		})
	}
}

// TestBuilder_Empty verifies only interceptors, wrappers and extra members make a builder non-empty.
func TestBuilder_Empty(t *testing.T) {
	t.Parallel()

	m := testCatalog(t)
	b := accountBuilder(t, m)
	assert.True(t, b.Empty())

	require.NoError(t, b.AddInterface("models.Auditor"))
	require.NoError(t, b.AddTrait("traits.Stamp", nil, nil))
	assert.True(t, b.Empty(), "interfaces and traits alone change nothing")

	require.NoError(t, b.AddMethodWrapper("Rename", MustWrapper("", "", nil, nil)))
	assert.False(t, b.Empty())
}

// TestBuilder_AddInterface verifies interfaces must exist and are recorded once.
func TestBuilder_AddInterface(t *testing.T) {
	t.Parallel()

	b := accountBuilder(t, testCatalog(t))

	require.NoError(t, b.AddInterface("models.Auditor"))
	require.NoError(t, b.AddInterface("models.Auditor"))
	assert.Equal(t, []string{"models.Auditor"}, b.Interfaces())

	err := b.AddInterface("models.Missing")
	assert.ErrorIs(t, err, ErrNonExistentInterface)

	err = b.AddInterface("traits.Stamp")
	assert.ErrorIs(t, err, ErrNonExistentInterface, "structs are not interfaces")
}

// TestBuilder_AddTrait verifies a trait is added once.
func TestBuilder_AddTrait(t *testing.T) {
	t.Parallel()

	b := accountBuilder(t, testCatalog(t))
	require.NoError(t, b.AddTrait("traits.Stamp", []TraitAlias{{Method: "Stamp", Alias: "Mark"}}, nil))

	err := b.AddTrait("traits.Stamp", nil, nil)
	require.ErrorIs(t, err, ErrTraitAlreadyAdded)
	assert.Equal(t, `proxy: trait "traits.Stamp" has been already added for proxy of class "models.v1.v1_0.Account"`, err.Error())

	traits := b.Traits()
	require.Len(t, traits, 1)
	assert.Equal(t, "Mark", traits[0].Aliases[0].Alias)
}

// TestBuilder_Interceptors verifies member checks on interceptors and wrappers.
func TestBuilder_Interceptors(t *testing.T) {
	t.Parallel()

	b := accountBuilder(t, testCatalog(t))
	ic := MustInterceptor("", noop)

	require.NoError(t, b.AddPropertyInterceptor("Name", ic))
	require.NoError(t, b.AddPropertyInterceptor("Name", ic))
	assert.Len(t, b.PropertyInterceptors("Name"), 2)

	assert.ErrorIs(t, b.AddPropertyInterceptor("secret", ic), ErrNonExistentProperty)
	assert.ErrorIs(t, b.AddPropertyInterceptor("missing", ic), ErrNonExistentProperty)

	require.NoError(t, b.AddMethodInterceptor("Rename", ic))
	assert.ErrorIs(t, b.AddMethodInterceptor("missing", ic), ErrNonExistentMethod)

	err := b.AddMethodInterceptor("ID", ic)
	require.ErrorIs(t, err, ErrFinalMethod)
	assert.Equal(t, `proxy: method "ID" is final on class "models.v1.v1_0.Account" and cannot be intercepted`, err.Error())

	err = b.AddMethodWrapper("ID", MustWrapper("", "", nil, nil))
	require.ErrorIs(t, err, ErrFinalMethod)
	assert.Contains(t, err.Error(), "cannot be wrapped")

	names := []string{}
	for _, m := range b.InterceptedMethods() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Rename"}, names)
}

// TestBuilder_AddProperty verifies extra property collisions and init validation.
func TestBuilder_AddProperty(t *testing.T) {
	t.Parallel()

	b := accountBuilder(t, testCatalog(t))

	require.NoError(t, b.AddProperty(ExtraProperty{Name: "audit", TypeName: "[]string", Init: `p.audit = nil`}))
	require.NoError(t, b.AddProperty(ExtraProperty{Name: "hits", TypeName: "int", Default: 0}))
	assert.True(t, b.HasProperty("audit"))
	assert.True(t, b.HasProperty("Name"))
	assert.False(t, b.HasProperty("secret"))

	assert.ErrorIs(t, b.AddProperty(ExtraProperty{Name: "audit"}), ErrPropertyAlreadyDeclared)
	assert.ErrorIs(t, b.AddProperty(ExtraProperty{Name: "Balance"}), ErrPropertyAlreadyDeclared)
	assert.ErrorIs(t, b.AddProperty(ExtraProperty{Name: "broken", Init: "if {"}), ErrInvalidSyntax)
	assert.Error(t, b.AddProperty(ExtraProperty{Name: "not valid"}))

	assert.Equal(t, "p.audit = nil", b.InitCode())
	assert.Len(t, b.ExtraProperties(), 2)
}

// TestBuilder_AddMethod verifies extra method collisions, reserved names and source validation.
func TestBuilder_AddMethod(t *testing.T) {
	t.Parallel()

	b := accountBuilder(t, testCatalog(t))

	require.NoError(t, b.AddMethod(ExtraMethod{Name: "Audit", Results: "string", Body: `return "ok"`}))
	assert.True(t, b.HasMethod("Audit"))
	assert.True(t, b.HasMethod("Rename"))

	tests := []struct {
		name   string
		method ExtraMethod
		want   error
	}{
		{name: "duplicate_extra", method: ExtraMethod{Name: "Audit"}, want: ErrMethodAlreadyDeclared},
		{name: "target_method", method: ExtraMethod{Name: "Rename"}, want: ErrMethodAlreadyDeclared},
		{name: "reserved", method: ExtraMethod{Name: "Get"}, want: ErrMethodAlreadyDeclared},
		{name: "bad_body", method: ExtraMethod{Name: "Broken", Body: "return ("}, want: ErrInvalidSyntax},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, b.AddMethod(tt.method), tt.want)
		})
	}

	assert.Equal(t, "func (p *T) Audit() string {\nreturn \"ok\"\n}", ExtraMethod{Name: "Audit", Results: "string", Body: `return "ok"`}.Source("*T"))
}
