package definitions

// ByteOrder selects the byte ordering of a fixed-size storage definition.
type ByteOrder int

const (
	// ByteOrderNative defers the choice to the host's byte order, resolved
	// once per process by the runtime mapper.
	ByteOrderNative ByteOrder = iota
	ByteOrderBigEndian
	ByteOrderLittleEndian
)

func (b ByteOrder) String() string {
	switch b {
	case ByteOrderBigEndian:
		return "big-endian"
	case ByteOrderLittleEndian:
		return "little-endian"
	default:
		return "native"
	}
}

// ByteOrderFromTag resolves the YAML byte_order value.
func ByteOrderFromTag(tag string) (ByteOrder, bool) {
	switch tag {
	case "", "native":
		return ByteOrderNative, true
	case "big-endian":
		return ByteOrderBigEndian, true
	case "little-endian":
		return ByteOrderLittleEndian, true
	default:
		return ByteOrderNative, false
	}
}

// NumberFormat selects signed vs. unsigned interpretation for an integer
// definition.
type NumberFormat int

const (
	FormatSigned NumberFormat = iota
	FormatUnsigned
)

func (f NumberFormat) String() string {
	if f == FormatUnsigned {
		return "unsigned"
	}

	return "signed"
}

// SizeNative is the sentinel Size value meaning "the native word size",
// distinct from any concrete byte count.
const SizeNative = -1

// UnitsBytes is the default, and only fully-supported, size unit.
const UnitsBytes = "bytes"

// FixedSize is embedded by every fixed-size storage definition (boolean,
// character, integer, floating-point, uuid).
type FixedSize struct {
	Base
	ByteOrder ByteOrder
	Size      int // byte count, or SizeNative
	Units     string
}

// ByteSize implements Definition.ByteSize: fixed-size types are known
// exactly unless sized natively or in non-byte units.
func (f FixedSize) ByteSize() (int, bool) {
	if f.Size == SizeNative || f.Units != UnitsBytes {
		return 0, false
	}

	return f.Size, true
}

func (f FixedSize) IsComposite() bool { return false }

// Boolean is the boolean fixed-size kind.
type Boolean struct {
	FixedSize
	FalseValue uint64
	// TrueValue, when non-nil, is the only value that decodes to true;
	// every other value is InvalidBooleanEncoding. When nil, every value
	// other than FalseValue decodes to true.
	TrueValue *uint64
}

func (Boolean) Kind() Kind { return KindBoolean }

// AllowedBooleanSizes are the byte sizes a boolean definition may declare.
var AllowedBooleanSizes = []int{1, 2, 4}

// Character is the character fixed-size kind; its decoded value is a code
// point, not a Go byte.
type Character struct {
	FixedSize
}

func (Character) Kind() Kind { return KindCharacter }

// AllowedCharacterSizes are the byte sizes a character definition may declare.
var AllowedCharacterSizes = []int{1, 2, 4}

// Integer is the integer fixed-size kind.
type Integer struct {
	FixedSize
	Format NumberFormat
}

func (Integer) Kind() Kind { return KindInteger }

// AllowedIntegerSizes are the byte sizes an integer definition may declare.
var AllowedIntegerSizes = []int{1, 2, 4, 8}

// FloatingPoint is the IEEE-754 fixed-size kind.
type FloatingPoint struct {
	FixedSize
}

func (FloatingPoint) Kind() Kind { return KindFloatingPoint }

// AllowedFloatingPointSizes are the byte sizes a floating-point definition
// may declare.
var AllowedFloatingPointSizes = []int{4, 8}

// UUID is the 16-byte UUID/GUID kind. It is composite per the original
// implementation: a UUID decodes into its constituent GUID fields rather
// than being treated as an opaque scalar.
type UUID struct {
	FixedSize
}

func (UUID) Kind() Kind        { return KindUUID }
func (UUID) IsComposite() bool { return true }

// AllowedUUIDSizes are the byte sizes a uuid definition may declare.
var AllowedUUIDSizes = []int{16}
