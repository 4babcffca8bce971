package proxy

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sghaida/vdto/catalog"
)

type named interface {
	Label() string
}

type auditor interface {
	Audit() string
}

type account struct {
	Name    string
	Balance int
	Tags    []string
	secret  string //nolint:unused
}

func newAccount(name string, balance int) *account {
	return &account{Name: name, Balance: balance}
}

func (a *account) Rename(name string) string {
	a.Name = name
	return a.Name
}

func (a *account) Deposit(n int) (int, error) {
	if n < 0 {
		return a.Balance, errors.New("negative deposit")
	}
	a.Balance += n
	return a.Balance, nil
}

func (a *account) Label() string { return "account " + a.Name }

func (a *account) ID() string { return "id-" + a.Name }

type stamp struct{}

func newStamp() *stamp { return &stamp{} }

func (stamp) Stamp() string { return "stamped" }

func (stamp) Label() string { return "stamp label" }

type seal struct{}

func newSeal() *seal { return &seal{} }

func (seal) Stamp() string { return "sealed" }

type ledger struct{}

func newLedger() *ledger { return &ledger{} }

func testCatalog(t *testing.T) *catalog.Map {
	t.Helper()

	m := catalog.NewMap()
	_, err := m.RegisterInterface("models.Named", reflect.TypeFor[named]())
	require.NoError(t, err)
	_, err = m.RegisterInterface("models.Auditor", reflect.TypeFor[auditor]())
	require.NoError(t, err)
	_, err = m.RegisterStruct("models.v1.v1_0.Account", newAccount,
		catalog.WithParams(catalog.Arg("name"), catalog.Arg("balance").WithDefault(0)),
		catalog.WithFinalMethods("ID"),
	)
	require.NoError(t, err)
	_, err = m.RegisterStruct("traits.Stamp", newStamp)
	require.NoError(t, err)
	_, err = m.RegisterStruct("traits.Seal", newSeal)
	require.NoError(t, err)
	_, err = m.RegisterStruct("models.v1.v1_0.Ledger", newLedger, catalog.WithFinal())
	require.NoError(t, err)
	_, err = m.RegisterStruct("models.v1.v1_0.Snapshot", newLedger, catalog.WithReadOnly())
	require.NoError(t, err)
	return m
}

func accountBuilder(t *testing.T, m *catalog.Map) *Builder {
	t.Helper()

	c, ok := m.Lookup("models.v1.v1_0.Account")
	require.True(t, ok)
	b, err := NewBuilder(c, m.Lookup)
	require.NoError(t, err)
	return b
}

func noop(*Invocation) (*ReturnValue, error) { return nil, nil }
