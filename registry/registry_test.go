package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtfabric/definitions"
	"dtfabric/dterr"
	"dtfabric/registry"
)

func int32Def(name string, aliases ...string) definitions.Integer {
	return definitions.Integer{
		FixedSize: definitions.FixedSize{
			Base:  definitions.NewBase(name, aliases, "", nil),
			Size:  4,
			Units: definitions.UnitsBytes,
		},
	}
}

func TestRegisterAndLookupCaseInsensitive(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(int32Def("uint32")))

	def, ok := r.Lookup("UINT32")
	require.True(t, ok)
	assert.Equal(t, "uint32", def.Name())
}

func TestRegisterDuplicateName(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(int32Def("uint32")))

	err := r.Register(int32Def("uint32"))
	require.Error(t, err)
	assert.True(t, dterr.Is(err, dterr.KindDuplicateName))
}

func TestRegisterDuplicateAlias(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(int32Def("uint32", "dword")))

	err := r.Register(int32Def("DWORD_T", "dword"))
	require.Error(t, err)
	assert.True(t, dterr.Is(err, dterr.KindDuplicateName))
}

func TestResolveUnknownReference(t *testing.T) {
	r := registry.New()

	_, err := r.Resolve("missing")
	require.Error(t, err)
	assert.True(t, dterr.Is(err, dterr.KindUnresolvedReference))
}

func TestNamesPreservesRegistrationOrder(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(int32Def("b")))
	require.NoError(t, r.Register(int32Def("a")))

	assert.Equal(t, []string{"b", "a"}, r.Names())
}
