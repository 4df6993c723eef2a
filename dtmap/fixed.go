package dtmap

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"

	"dtfabric/definitions"
	"dtfabric/dterr"
	"dtfabric/mapctx"
)

// readUint decodes a size-byte (1, 2, 4 or 8) unsigned integer at offset in
// order, independent of signedness: sign interpretation happens afterward.
func readUint(data []byte, offset, size int, order binary.ByteOrder, defName string) (uint64, error) {
	if offset < 0 || offset+size > len(data) {
		have := len(data) - offset
		if offset > len(data) {
			have = 0
		}

		return 0, dterr.NewAt(dterr.KindByteStreamTooSmall, defName, "", offset,
			"need %d byte(s), have %d", size, have)
	}

	switch size {
	case 1:
		return uint64(data[offset]), nil
	case 2:
		return uint64(order.Uint16(data[offset : offset+2])), nil
	case 4:
		return uint64(order.Uint32(data[offset : offset+4])), nil
	case 8:
		return order.Uint64(data[offset : offset+8]), nil
	default:
		return 0, dterr.NewAt(dterr.KindByteStreamTooSmall, defName, "", offset,
			"unsupported fixed-size width %d", size)
	}
}

func signExtend(raw uint64, size int) int64 {
	switch size {
	case 1:
		return int64(int8(raw))
	case 2:
		return int64(int16(raw))
	case 4:
		return int64(int32(raw))
	default:
		return int64(raw)
	}
}

type booleanMap struct {
	def  definitions.Boolean
	size int
}

func newBooleanMap(d definitions.Boolean) *booleanMap {
	size, _ := d.ByteSize()
	return &booleanMap{def: d, size: size}
}

func (b *booleanMap) GetByteSize() (int, bool) { return b.def.ByteSize() }

func (b *booleanMap) MapByteStream(data []byte, offset int, _ *mapctx.Context) (any, int, error) {
	raw, err := readUint(data, offset, b.size, resolveByteOrder(b.def.ByteOrder), b.def.Name())
	if err != nil {
		return nil, 0, err
	}

	if raw == b.def.FalseValue {
		return false, b.size, nil
	}

	if b.def.TrueValue == nil {
		return true, b.size, nil
	}

	if raw == *b.def.TrueValue {
		return true, b.size, nil
	}

	return nil, 0, dterr.NewAt(dterr.KindInvalidBooleanEncoding, b.def.Name(), "", offset,
		"value %#x is neither the declared false (%#x) nor true (%#x) value",
		raw, b.def.FalseValue, *b.def.TrueValue)
}

type characterMap struct {
	def  definitions.Character
	size int
}

func newCharacterMap(d definitions.Character) *characterMap {
	size, _ := d.ByteSize()
	return &characterMap{def: d, size: size}
}

func (c *characterMap) GetByteSize() (int, bool) { return c.def.ByteSize() }

func (c *characterMap) MapByteStream(data []byte, offset int, _ *mapctx.Context) (any, int, error) {
	raw, err := readUint(data, offset, c.size, resolveByteOrder(c.def.ByteOrder), c.def.Name())
	if err != nil {
		return nil, 0, err
	}

	return rune(raw), c.size, nil
}

type integerMap struct {
	def  definitions.Integer
	size int
}

func newIntegerMap(d definitions.Integer) *integerMap {
	size, _ := d.ByteSize()
	return &integerMap{def: d, size: size}
}

func (i *integerMap) GetByteSize() (int, bool) { return i.def.ByteSize() }

func (i *integerMap) MapByteStream(data []byte, offset int, _ *mapctx.Context) (any, int, error) {
	raw, err := readUint(data, offset, i.size, resolveByteOrder(i.def.ByteOrder), i.def.Name())
	if err != nil {
		return nil, 0, err
	}

	if i.def.Format == definitions.FormatUnsigned {
		return raw, i.size, nil
	}

	return signExtend(raw, i.size), i.size, nil
}

type floatingPointMap struct {
	def  definitions.FloatingPoint
	size int
}

func newFloatingPointMap(d definitions.FloatingPoint) *floatingPointMap {
	size, _ := d.ByteSize()
	return &floatingPointMap{def: d, size: size}
}

func (f *floatingPointMap) GetByteSize() (int, bool) { return f.def.ByteSize() }

func (f *floatingPointMap) MapByteStream(data []byte, offset int, _ *mapctx.Context) (any, int, error) {
	order := resolveByteOrder(f.def.ByteOrder)

	raw, err := readUint(data, offset, f.size, order, f.def.Name())
	if err != nil {
		return nil, 0, err
	}

	if f.size == 4 {
		return math.Float32frombits(uint32(raw)), f.size, nil
	}

	return math.Float64frombits(raw), f.size, nil
}

// uuidMap decodes a 16-byte UUID/GUID into its constituent GUID fields,
// matching the composite decode semantics IsComposite advertises for this
// kind: a byte-order-aware struct (data1/data2/data3/data4), not an opaque
// 16-byte scalar.
type uuidMap struct {
	def definitions.UUID
}

func newUUIDMap(d definitions.UUID) *uuidMap { return &uuidMap{def: d} }

func (u *uuidMap) GetByteSize() (int, bool) { return u.def.ByteSize() }

// UUIDValue is the decoded value of a uuid definition.
type UUIDValue struct {
	Value uuid.UUID
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

func (u *uuidMap) MapByteStream(data []byte, offset int, _ *mapctx.Context) (any, int, error) {
	if offset < 0 || offset+16 > len(data) {
		have := len(data) - offset
		if offset > len(data) {
			have = 0
		}

		return nil, 0, dterr.NewAt(dterr.KindByteStreamTooSmall, u.def.Name(), "", offset,
			"need 16 byte(s), have %d", have)
	}

	order := resolveByteOrder(u.def.ByteOrder)
	raw := data[offset : offset+16]

	value := UUIDValue{}
	copy(value.Data4[:], raw[8:16])

	if isLittleEndian(order) {
		// GUID layout: the first three fields are stored little-endian, the
		// final 8 bytes (clock sequence + node) are not.
		value.Data1 = binary.LittleEndian.Uint32(raw[0:4])
		value.Data2 = binary.LittleEndian.Uint16(raw[4:6])
		value.Data3 = binary.LittleEndian.Uint16(raw[6:8])

		var canonical [16]byte
		binary.BigEndian.PutUint32(canonical[0:4], value.Data1)
		binary.BigEndian.PutUint16(canonical[4:6], value.Data2)
		binary.BigEndian.PutUint16(canonical[6:8], value.Data3)
		copy(canonical[8:16], raw[8:16])
		value.Value = uuid.UUID(canonical)
	} else {
		value.Data1 = binary.BigEndian.Uint32(raw[0:4])
		value.Data2 = binary.BigEndian.Uint16(raw[4:6])
		value.Data3 = binary.BigEndian.Uint16(raw[6:8])

		var canonical [16]byte
		copy(canonical[:], raw)
		value.Value = uuid.UUID(canonical)
	}

	return value, 16, nil
}

type constantMap struct {
	value any
}

func (c *constantMap) GetByteSize() (int, bool) { return 0, false }

func (c *constantMap) MapByteStream(_ []byte, _ int, _ *mapctx.Context) (any, int, error) {
	return c.value, 0, nil
}

// enumerationMap has no storage of its own: an Enumeration never appears as
// a member's data type directly, only as a lookup table consulted after the
// fact (see EnumerationLabel) for an integer member decoded elsewhere.
type enumerationMap struct {
	def *definitions.Enumeration
}

func (e *enumerationMap) GetByteSize() (int, bool) { return 0, false }

func (e *enumerationMap) MapByteStream(_ []byte, _ int, _ *mapctx.Context) (any, int, error) {
	return nil, 0, dterr.New(dterr.KindSchemaError, e.def.Name(), "",
		"enumeration %q has no storage of its own and cannot be decoded directly", e.def.Name())
}

// EnumerationLabel looks up the name of a decoded integer value against
// enum's declared values. Reports false (with an empty name) when enum is
// nil or the value matches nothing.
func EnumerationLabel(enum *definitions.Enumeration, value int64) (string, bool) {
	if enum == nil {
		return "", false
	}

	ev, ok := enum.ValueByNumber(value)
	if !ok {
		return "", false
	}

	return ev.Name, true
}
