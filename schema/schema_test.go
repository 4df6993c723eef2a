package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtfabric/definitions"
	"dtfabric/dterr"
	"dtfabric/schema"
)

const int32LE = `
type: integer
name: int32
size: 4
units: bytes
byte_order: little-endian
format: signed
`

const float32LE = `
type: floating-point
name: float32
size: 4
units: bytes
byte_order: little-endian
`

func TestReadPoint3dFixedSize(t *testing.T) {
	point3d := `
type: structure
name: point3d
byte_order: little-endian
members:
- name: x
  data_type: int32
- name: y
  data_type: int32
- name: z
  data_type: int32
`

	reg, err := schema.Read([]string{int32LE, point3d})
	require.NoError(t, err)

	def, ok := reg.Lookup("point3d")
	require.True(t, ok)

	size, ok := def.ByteSize()
	require.True(t, ok)
	assert.Equal(t, 12, size)
}

func TestReadBox3dSequenceSize(t *testing.T) {
	triangle3d := `
type: structure
name: triangle3d
members:
- name: a
  data_type: point3d
- name: b
  data_type: point3d
- name: c
  data_type: point3d
`

	point3d := `
type: structure
name: point3d
members:
- name: x
  data_type: float32
- name: y
  data_type: float32
- name: z
  data_type: float32
`

	triangles := `
type: sequence
name: triangles
element_data_type: triangle3d
number_of_elements: "12"
`

	box3d := `
type: structure
name: box3d
members:
- name: triangles
  data_type: triangles
`

	reg, err := schema.Read([]string{float32LE, point3d, triangle3d, triangles, box3d})
	require.NoError(t, err)

	def, ok := reg.Lookup("box3d")
	require.True(t, ok)

	size, ok := def.ByteSize()
	require.True(t, ok)
	assert.Equal(t, 432, size)
}

func TestReadSphere3dVariableSequenceIsNotFixedSize(t *testing.T) {
	point3d := `
type: structure
name: point3d
members:
- name: x
  data_type: float32
- name: y
  data_type: float32
- name: z
  data_type: float32
`

	triangle3d := `
type: structure
name: triangle3d
members:
- name: a
  data_type: point3d
- name: b
  data_type: point3d
- name: c
  data_type: point3d
`

	sphere3d := `
type: structure
name: sphere3d
members:
- name: number_of_triangles
  data_type: int32
- name: triangles
  type:
    type: sequence
    element_data_type: triangle3d
    number_of_elements: "sphere3d.number_of_triangles"
`

	reg, err := schema.Read([]string{int32LE, float32LE, point3d, triangle3d, sphere3d})
	require.NoError(t, err)

	def, ok := reg.Lookup("sphere3d")
	require.True(t, ok)

	_, ok = def.ByteSize()
	assert.False(t, ok)
}

func TestReadConditionalMemberIsNotFixedSize(t *testing.T) {
	versioned := `
type: structure
name: versioned
members:
- name: version
  data_type: int32
- name: extra
  data_type: int32
  condition: "version > 1"
`

	reg, err := schema.Read([]string{int32LE, versioned})
	require.NoError(t, err)

	def, ok := reg.Lookup("versioned")
	require.True(t, ok)

	_, ok = def.ByteSize()
	assert.False(t, ok)
}

func TestReadIntegerRejectsForeignAttribute(t *testing.T) {
	bogus := `
type: integer
name: bogus
size: 4
units: bytes
format: signed
members:
- name: x
  data_type: bogus
`

	_, err := schema.Read([]string{bogus})
	require.Error(t, err)
	assert.True(t, dterr.Is(err, dterr.KindSchemaError))
}

func TestReadRejectsUnknownTopLevelKey(t *testing.T) {
	bogus := `
type: integer
name: bogus
size: 4
units: bytes
format: signed
not_a_real_attribute: true
`

	_, err := schema.Read([]string{bogus})
	require.Error(t, err)
	assert.True(t, dterr.Is(err, dterr.KindSchemaError))
}

func TestReadDuplicateNameFails(t *testing.T) {
	_, err := schema.Read([]string{int32LE, int32LE})
	require.Error(t, err)
	assert.True(t, dterr.Is(err, dterr.KindDuplicateName))
}

func TestReadUnresolvedReferenceFails(t *testing.T) {
	broken := `
type: structure
name: broken
members:
- name: field
  data_type: does_not_exist
`

	_, err := schema.Read([]string{broken})
	require.Error(t, err)
	assert.True(t, dterr.Is(err, dterr.KindUnresolvedReference))
}

func TestReadOwnershipCycleFails(t *testing.T) {
	a := `
type: structure
name: cycle_a
members:
- name: b
  data_type: cycle_b
`

	b := `
type: structure
name: cycle_b
members:
- name: a
  data_type: cycle_a
`

	_, err := schema.Read([]string{a, b})
	require.Error(t, err)
	assert.True(t, dterr.Is(err, dterr.KindDefinitionCycle))
}

func TestReadStructureGroupResolvesVariants(t *testing.T) {
	uint8T := `
type: integer
name: uint8
size: 1
units: bytes
format: unsigned
`

	base := `
type: structure
name: bsm_token_base
members:
- name: token_type
  data_type: uint8
`

	arg32 := `
type: structure
name: bsm_token_arg32
members:
- name: token_type
  data_type: uint8
  value: 0x2d
- name: argument
  data_type: int32
`

	arg64 := `
type: structure
name: bsm_token_arg64
members:
- name: token_type
  data_type: uint8
  value: 0x71
- name: argument
  data_type: int32
`

	group := `
type: structure-group
name: bsm_token
base: bsm_token_base
identifier: token_type
members:
- bsm_token_arg32
- bsm_token_arg64
`

	reg, err := schema.Read([]string{int32LE, uint8T, base, arg32, arg64, group})
	require.NoError(t, err)

	def, ok := reg.Lookup("bsm_token")
	require.True(t, ok)

	grp, ok := def.(*definitions.StructureGroup)
	require.True(t, ok)
	require.Len(t, grp.VariantDefs, 2)
	assert.Equal(t, "bsm_token_arg32", grp.VariantDefs[0].Name())
}

const uint8T = `
type: integer
name: uint8
size: 1
units: bytes
format: unsigned
`

func TestReadTerminatorWithCountRejectedWithoutRevisionGate(t *testing.T) {
	seq := `
type: stream
name: gated
element_data_type: uint8
number_of_elements: "4"
elements_terminator: 0
`

	_, err := schema.Read([]string{uint8T, seq})
	require.Error(t, err)
	assert.True(t, dterr.Is(err, dterr.KindSchemaError))
}

func TestReadTerminatorWithCountAllowedUnderRevisionGate(t *testing.T) {
	seq := `
type: stream
name: gated
element_data_type: uint8
number_of_elements: "4"
elements_terminator: 0
`

	format := `
type: format
name: gated_format
metadata:
  format_revision: 20200621
layout:
- data_type: gated
  offset: 0
`

	_, err := schema.Read([]string{uint8T, seq, format})
	require.NoError(t, err)
}

func TestReadStructureGroupDiscriminantCollisionFails(t *testing.T) {
	uint8T := `
type: integer
name: uint8
size: 1
units: bytes
format: unsigned
`

	base := `
type: structure
name: dup_base
members:
- name: token_type
  data_type: uint8
`

	variantA := `
type: structure
name: dup_a
members:
- name: token_type
  data_type: uint8
  value: 1
`

	variantB := `
type: structure
name: dup_b
members:
- name: token_type
  data_type: uint8
  value: 1
`

	group := `
type: structure-group
name: dup_group
base: dup_base
identifier: token_type
members:
- dup_a
- dup_b
`

	_, err := schema.Read([]string{uint8T, base, variantA, variantB, group})
	require.Error(t, err)
	assert.True(t, dterr.Is(err, dterr.KindGroupDiscriminantCollision))
}
