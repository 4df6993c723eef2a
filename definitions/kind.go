// Package definitions holds the immutable, typed object graph produced by
// the schema reader: one concrete Go type per data-type kind, dispatched by
// Kind() rather than by runtime type assertions wherever the decision can
// be made structurally.
package definitions

// Kind tags the variant of a Definition, mirroring the "type" field of a
// schema document.
type Kind int

const (
	KindUnknown Kind = iota

	KindBoolean
	KindCharacter
	KindInteger
	KindFloatingPoint
	KindUUID

	KindSequence
	KindStream
	KindString
	KindPadding

	KindStructure
	KindUnion

	KindConstant
	KindEnumeration

	KindFormat
	KindStructureFamily
	KindStructureGroup
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindCharacter:
		return "character"
	case KindInteger:
		return "integer"
	case KindFloatingPoint:
		return "floating-point"
	case KindUUID:
		return "uuid"
	case KindSequence:
		return "sequence"
	case KindStream:
		return "stream"
	case KindString:
		return "string"
	case KindPadding:
		return "padding"
	case KindStructure:
		return "structure"
	case KindUnion:
		return "union"
	case KindConstant:
		return "constant"
	case KindEnumeration:
		return "enumeration"
	case KindFormat:
		return "format"
	case KindStructureFamily:
		return "structure-family"
	case KindStructureGroup:
		return "structure-group"
	default:
		return "unknown"
	}
}

// KindFromTag resolves the YAML "type" tag to a Kind, or KindUnknown (ok
// false) for an unrecognized tag.
func KindFromTag(tag string) (Kind, bool) {
	switch tag {
	case "boolean":
		return KindBoolean, true
	case "character":
		return KindCharacter, true
	case "integer":
		return KindInteger, true
	case "floating-point":
		return KindFloatingPoint, true
	case "uuid":
		return KindUUID, true
	case "sequence":
		return KindSequence, true
	case "stream":
		return KindStream, true
	case "string":
		return KindString, true
	case "padding":
		return KindPadding, true
	case "structure":
		return KindStructure, true
	case "union":
		return KindUnion, true
	case "constant":
		return KindConstant, true
	case "enumeration":
		return KindEnumeration, true
	case "format":
		return KindFormat, true
	case "structure-family":
		return KindStructureFamily, true
	case "structure-group":
		return KindStructureGroup, true
	default:
		return KindUnknown, false
	}
}

// Definition is implemented by every concrete data-type definition. It is a
// closed sum type: the kind-specific fields live on the concrete struct
// named by Kind(), and callers recover them with a type switch rather than
// extending this interface.
type Definition interface {
	Name() string
	Aliases() []string
	Description() string
	URLs() []string
	Kind() Kind

	// IsComposite reports whether the definition owns other definitions.
	IsComposite() bool

	// ByteSize returns the fixed encoded size in bytes, and true, when the
	// definition is entirely fixed-size. Otherwise it returns (0, false).
	ByteSize() (int, bool)
}

// Base carries the attributes common to every Definition kind.
type Base struct {
	name        string
	aliases     []string
	description string
	urls        []string
}

// NewBase constructs the shared attribute set every Definition embeds.
func NewBase(name string, aliases []string, description string, urls []string) Base {
	return Base{name: name, aliases: aliases, description: description, urls: urls}
}

func (b Base) Name() string        { return b.name }
func (b Base) Aliases() []string   { return b.aliases }
func (b Base) Description() string { return b.description }
func (b Base) URLs() []string      { return b.urls }
