package dtmap_test

import (
	"encoding/binary"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtfabric/definitions"
	"dtfabric/dterr"
	"dtfabric/dtmap"
	"dtfabric/mapctx"
	"dtfabric/schema"
)

// assertOrderedMapEqual compares a decoded OrderedMap's Values against want
// key by key, dumping the full decoded value via spew on the first mismatch
// so a failing assertion shows the whole structure, not just the one field.
func assertOrderedMapEqual(t *testing.T, want map[string]any, om dtmap.OrderedMap) {
	t.Helper()

	for key, wantValue := range want {
		gotValue, ok := om.Get(key)
		if !assert.True(t, ok, "missing key %q\ndecoded value:\n%s", key, spew.Sdump(om)) {
			continue
		}

		assert.Equal(t, wantValue, gotValue, "mismatch at key %q\ndecoded value:\n%s", key, spew.Sdump(om))
	}
}

const int32LE = `
type: integer
name: int32
size: 4
units: bytes
byte_order: little-endian
format: signed
`

const uint32LE = `
type: integer
name: uint32
size: 4
units: bytes
byte_order: little-endian
format: unsigned
`

const uint16LE = `
type: integer
name: uint16
size: 2
units: bytes
byte_order: little-endian
format: unsigned
`

const uint8T = `
type: integer
name: uint8
size: 1
units: bytes
format: unsigned
`

const float32LE = `
type: floating-point
name: float32
size: 4
units: bytes
byte_order: little-endian
`

func mustFactory(t *testing.T, docs []string) (*dtmap.Factory, func(name string) dtmap.Map) {
	t.Helper()

	reg, err := schema.Read(docs)
	require.NoError(t, err)

	factory := dtmap.NewFactory()

	return factory, func(name string) dtmap.Map {
		def, ok := reg.Lookup(name)
		require.True(t, ok, "definition %q not found", name)

		m, err := factory.Build(def)
		require.NoError(t, err)

		return m
	}
}

func TestPoint3dFixedDecode(t *testing.T) {
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

	_, build := mustFactory(t, []string{int32LE, point3d})
	m := build("point3d")

	data := []byte{
		0x01, 0x00, 0x00, 0x00,
		0xFE, 0xFF, 0xFF, 0xFF,
		0x00, 0x00, 0x00, 0x00,
	}

	value, consumed, err := m.MapByteStream(data, 0, mapctx.New("point3d"))
	require.NoError(t, err)
	assert.Equal(t, 12, consumed)

	om := value.(dtmap.OrderedMap)
	assert.Equal(t, []string{"x", "y", "z"}, om.Keys)
	assertOrderedMapEqual(t, map[string]any{
		"x": int64(1),
		"y": int64(-2),
		"z": int64(0),
	}, om)
}

func TestSphere3dVariableDecode(t *testing.T) {
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

	_, build := mustFactory(t, []string{int32LE, float32LE, point3d, triangle3d, sphere3d})
	m := build("sphere3d")

	data := make([]byte, 4+2*72)
	binary.LittleEndian.PutUint32(data[0:4], 2)
	// the 72 payload bytes are all-zero float32 triples; decode shouldn't care.

	value, consumed, err := m.MapByteStream(data, 0, mapctx.New("sphere3d"))
	require.NoError(t, err)
	assert.Equal(t, 4+72, consumed)

	om := value.(dtmap.OrderedMap)
	triangles := om.Values["triangles"].([]any)
	assert.Len(t, triangles, 2)
}

func TestConditionalMemberDecode(t *testing.T) {
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

	_, build := mustFactory(t, []string{int32LE, versioned})
	m := build("versioned")

	v1 := make([]byte, 4)
	binary.LittleEndian.PutUint32(v1, 1)

	value, consumed, err := m.MapByteStream(v1, 0, mapctx.New("versioned"))
	require.NoError(t, err)
	assert.Equal(t, 4, consumed)

	om := value.(dtmap.OrderedMap)
	_, hasExtra := om.Get("extra")
	assert.False(t, hasExtra)

	v2 := make([]byte, 8)
	binary.LittleEndian.PutUint32(v2[0:4], 2)
	binary.LittleEndian.PutUint32(v2[4:8], 99)

	value, consumed, err = m.MapByteStream(v2, 0, mapctx.New("versioned"))
	require.NoError(t, err)
	assert.Equal(t, 8, consumed)

	om = value.(dtmap.OrderedMap)
	extra, hasExtra := om.Get("extra")
	assert.True(t, hasExtra)
	assert.Equal(t, int64(99), extra)
}

// ext2GroupDescriptor lays out a 32-byte ext2 block group descriptor: three
// uint32 block pointers, three uint16 counters, a uint16 pad, and 12
// reserved bytes.
const ext2GroupDescriptor = `
type: structure
name: ext2_group_descriptor
members:
- name: block_bitmap
  data_type: uint32
- name: inode_bitmap
  data_type: uint32
- name: inode_table
  data_type: uint32
- name: free_blocks_count
  data_type: uint16
- name: free_inodes_count
  data_type: uint16
- name: used_dirs_count
  data_type: uint16
- name: pad
  data_type: uint16
- name: reserved
  type:
    type: sequence
    element_data_type: uint8
    number_of_elements: "12"
`

func TestExt2GroupDescriptorRoundTrip(t *testing.T) {
	_, build := mustFactory(t, []string{uint32LE, uint16LE, uint8T, ext2GroupDescriptor})
	m := build("ext2_group_descriptor")

	original := make([]byte, 32)
	binary.LittleEndian.PutUint32(original[0:4], 0x00001000)
	binary.LittleEndian.PutUint32(original[4:8], 0x00002000)
	binary.LittleEndian.PutUint32(original[8:12], 0x00003000)
	binary.LittleEndian.PutUint16(original[12:14], 512)
	binary.LittleEndian.PutUint16(original[14:16], 256)
	binary.LittleEndian.PutUint16(original[16:18], 2)
	binary.LittleEndian.PutUint16(original[18:20], 0)

	for i := 0; i < 12; i++ {
		original[20+i] = byte(i + 1)
	}

	value, consumed, err := m.MapByteStream(original, 0, mapctx.New("ext2_group_descriptor"))
	require.NoError(t, err)
	require.Equal(t, 32, consumed)

	om := value.(dtmap.OrderedMap)

	// Re-encode the decoded value by hand and confirm it reproduces the
	// original 32 bytes exactly.
	roundTrip := make([]byte, 32)
	binary.LittleEndian.PutUint32(roundTrip[0:4], uint32(om.Values["block_bitmap"].(uint64)))
	binary.LittleEndian.PutUint32(roundTrip[4:8], uint32(om.Values["inode_bitmap"].(uint64)))
	binary.LittleEndian.PutUint32(roundTrip[8:12], uint32(om.Values["inode_table"].(uint64)))
	binary.LittleEndian.PutUint16(roundTrip[12:14], uint16(om.Values["free_blocks_count"].(uint64)))
	binary.LittleEndian.PutUint16(roundTrip[14:16], uint16(om.Values["free_inodes_count"].(uint64)))
	binary.LittleEndian.PutUint16(roundTrip[16:18], uint16(om.Values["used_dirs_count"].(uint64)))
	binary.LittleEndian.PutUint16(roundTrip[18:20], uint16(om.Values["pad"].(uint64)))

	reserved := om.Values["reserved"].([]any)
	require.Len(t, reserved, 12)

	for i, v := range reserved {
		roundTrip[20+i] = byte(v.(uint64))
	}

	assert.Equal(t, original, roundTrip)
}

func TestEnumerationLabel(t *testing.T) {
	fileType := `
type: enumeration
name: file_type
values:
- name: regular
  number: 1
- name: directory
  number: 2
`

	_, build := mustFactory(t, []string{fileType})

	reg, err := schema.Read([]string{fileType})
	require.NoError(t, err)

	def, ok := reg.Lookup("file_type")
	require.True(t, ok)

	enum := def.(*definitions.Enumeration)

	m := build("file_type")
	_, _, err = m.MapByteStream(nil, 0, mapctx.New("file_type"))
	require.Error(t, err)
	assert.True(t, dterr.Is(err, dterr.KindSchemaError))

	label, ok := dtmap.EnumerationLabel(enum, 2)
	assert.True(t, ok)
	assert.Equal(t, "directory", label)

	_, ok = dtmap.EnumerationLabel(enum, 99)
	assert.False(t, ok)
}

func TestBSMTokenDispatch(t *testing.T) {
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

	_, build := mustFactory(t, []string{int32LE, uint8T, base, arg32, arg64, group})
	m := build("bsm_token")

	arg32Data := make([]byte, 5)
	arg32Data[0] = 0x2d
	binary.LittleEndian.PutUint32(arg32Data[1:5], 7)

	value, consumed, err := m.MapByteStream(arg32Data, 0, mapctx.New("bsm_token"))
	require.NoError(t, err)
	assert.Equal(t, 5, consumed)
	om := value.(dtmap.OrderedMap)
	assertOrderedMapEqual(t, map[string]any{"argument": int64(7)}, om)

	arg64Data := make([]byte, 5)
	arg64Data[0] = 0x71
	binary.LittleEndian.PutUint32(arg64Data[1:5], 9)

	value, _, err = m.MapByteStream(arg64Data, 0, mapctx.New("bsm_token"))
	require.NoError(t, err)
	om = value.(dtmap.OrderedMap)
	assertOrderedMapEqual(t, map[string]any{"argument": int64(9)}, om)

	unknownData := make([]byte, 5)
	unknownData[0] = 0xFF

	_, _, err = m.MapByteStream(unknownData, 0, mapctx.New("bsm_token"))
	require.Error(t, err)
	assert.True(t, dterr.Is(err, dterr.KindUnknownGroupVariant))
}
