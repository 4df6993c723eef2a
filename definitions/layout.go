package definitions

// LayoutEntry places one named data type at an absolute offset within a
// format's top-level layout.
type LayoutEntry struct {
	DataType    string
	DataTypeDef Definition
	Offset      int
}

// Format is the top-level definition of a complete binary layout: a list of
// data types placed at fixed offsets, plus free-form metadata describing
// the format itself (author, URLs, format revision and the like).
type Format struct {
	Base
	Layout   []LayoutEntry
	Metadata map[string]any
}

func (Format) Kind() Kind          { return KindFormat }
func (Format) IsComposite() bool   { return true }
func (Format) ByteSize() (int, bool) { return 0, false }

// StructureFamily is a base structure plus a set of variant structures that
// each extend it; the caller selects which variant to decode, dtFabric does
// not dispatch on a discriminant for a family the way it does for a group.
type StructureFamily struct {
	Base
	BaseName   string
	BaseDef    *Structure
	Members    []string
	MemberDefs []*Structure
}

func (StructureFamily) Kind() Kind          { return KindStructureFamily }
func (StructureFamily) IsComposite() bool   { return true }
func (StructureFamily) ByteSize() (int, bool) { return 0, false }

// StructureGroup is a base structure plus a set of variant structures
// dispatched automatically by the decoded value of a pinned discriminant
// member common to the base and every variant. DefaultName/DefaultDef, when
// set, is used when the discriminant value matches no variant; otherwise an
// unmatched value is an UnknownGroupVariant error.
type StructureGroup struct {
	Base
	BaseName         string
	BaseDef          *Structure
	IdentifierMember string
	Variants         []string
	VariantDefs      []*Structure
	DefaultName      string
	DefaultDef       *Structure
}

func (StructureGroup) Kind() Kind          { return KindStructureGroup }
func (StructureGroup) IsComposite() bool   { return true }
func (StructureGroup) ByteSize() (int, bool) { return 0, false }
