package dtmap

import (
	"fmt"

	"dtfabric/definitions"
	"dtfabric/dterr"
	"dtfabric/mapctx"
)

type formatEntry struct {
	name string
	off  int
	m    Map
}

type formatMap struct {
	def     *definitions.Format
	entries []formatEntry
}

func (f *Factory) buildFormat(def *definitions.Format) (Map, error) {
	entries := make([]formatEntry, 0, len(def.Layout))

	for _, le := range def.Layout {
		if le.DataTypeDef == nil {
			continue
		}

		m, err := f.Build(le.DataTypeDef)
		if err != nil {
			return nil, err
		}

		entries = append(entries, formatEntry{name: le.DataType, off: le.Offset, m: m})
	}

	return &formatMap{def: def, entries: entries}, nil
}

func (fm *formatMap) GetByteSize() (int, bool) { return fm.def.ByteSize() }

func (fm *formatMap) MapByteStream(data []byte, offset int, ctx *mapctx.Context) (any, int, error) {
	child := ctx.Child(fm.def.Name())
	result := newOrderedMap()

	maxEnd := 0

	for _, e := range fm.entries {
		value, consumed, err := e.m.MapByteStream(data, offset+e.off, child)
		if err != nil {
			return nil, 0, err
		}

		result.set(e.name, value)

		if end := e.off + consumed; end > maxEnd {
			maxEnd = end
		}
	}

	return *result, maxEnd, nil
}

// familyMap does not decode on its own: dtFabric requires the caller to
// pre-select a structure-family variant by name, then decodes proceed as
// that plain structure. MapByteStream is implemented only so familyMap
// satisfies Map; Factory.BuildFamilyVariant is the real entry point.
type familyMap struct {
	def *definitions.StructureFamily
	f   *Factory
}

func (f *Factory) buildFamily(def *definitions.StructureFamily) (Map, error) {
	return &familyMap{def: def, f: f}, nil
}

func (fm *familyMap) GetByteSize() (int, bool) { return 0, false }

func (fm *familyMap) MapByteStream(_ []byte, _ int, _ *mapctx.Context) (any, int, error) {
	return nil, 0, fmt.Errorf(
		"dtmap: structure-family %q has no single decode; call Factory.BuildFamilyVariant with the caller-selected variant name",
		fm.def.Name())
}

// BuildFamilyVariant returns the Map for one named variant of a
// structure-family, the only way a structure-family is actually decoded.
func (f *Factory) BuildFamilyVariant(def *definitions.StructureFamily, variant string) (Map, error) {
	for _, v := range def.MemberDefs {
		if v.Name() == variant {
			return f.Build(v)
		}
	}

	return nil, fmt.Errorf("dtmap: structure-family %q has no variant %q", def.Name(), variant)
}

// groupMap dispatches to one of several structure variants by peeking the
// decoded value of a pinned discriminant member common to the base and
// every variant, falling back to a default variant or UnknownGroupVariant.
type groupMap struct {
	def              *definitions.StructureGroup
	identifierMap    Map
	identifierOffset int
	variants         map[string]Map
	defaultMap       Map
}

func (f *Factory) buildGroup(def *definitions.StructureGroup) (Map, error) {
	idx, precedingOffset, err := identifierOffset(def.BaseDef, def.IdentifierMember)
	if err != nil {
		return nil, err
	}

	idMember := def.BaseDef.Members[idx]

	idMap, err := f.Build(idMember.ResolvedType())
	if err != nil {
		return nil, err
	}

	variants := make(map[string]Map, len(def.VariantDefs))

	for _, variant := range def.VariantDefs {
		vm := findStructureMember(variant, def.IdentifierMember)
		if vm == nil {
			return nil, dterr.New(dterr.KindGroupMemberInvalid, def.Name(), def.IdentifierMember,
				"variant %q has no member named %q", variant.Name(), def.IdentifierMember)
		}

		m, err := f.Build(variant)
		if err != nil {
			return nil, err
		}

		for _, pv := range vm.PinnedValues {
			variants[fmt.Sprint(pv)] = m
		}
	}

	var defaultMap Map

	if def.DefaultDef != nil {
		defaultMap, err = f.Build(def.DefaultDef)
		if err != nil {
			return nil, err
		}
	}

	return &groupMap{
		def:              def,
		identifierMap:    idMap,
		identifierOffset: precedingOffset,
		variants:         variants,
		defaultMap:       defaultMap,
	}, nil
}

func findStructureMember(s *definitions.Structure, name string) *definitions.Member {
	for _, m := range s.Members {
		if m.Name == name {
			return m
		}
	}

	return nil
}

// identifierOffset computes the byte offset of the identifier member within
// the base structure, requiring every preceding member to be fixed-size:
// group dispatch has to peek the discriminant before the rest of the base
// structure is decoded.
func identifierOffset(base *definitions.Structure, identifier string) (int, int, error) {
	offset := 0

	for i, m := range base.Members {
		if m.Name == identifier {
			return i, offset, nil
		}

		t := m.ResolvedType()
		if t == nil {
			return 0, 0, dterr.New(dterr.KindGroupMemberInvalid, base.Name(), identifier,
				"member %q precedes the discriminant and has no resolved type", m.Name)
		}

		size, ok := t.ByteSize()
		if !ok {
			return 0, 0, dterr.New(dterr.KindGroupMemberInvalid, base.Name(), identifier,
				"member %q precedes the discriminant %q and is not fixed-size", m.Name, identifier)
		}

		offset += size
	}

	return 0, 0, dterr.New(dterr.KindGroupMemberInvalid, base.Name(), identifier,
		"base structure %q has no member named %q", base.Name(), identifier)
}

func (gm *groupMap) GetByteSize() (int, bool) { return 0, false }

func (gm *groupMap) MapByteStream(data []byte, offset int, ctx *mapctx.Context) (any, int, error) {
	value, _, err := gm.identifierMap.MapByteStream(data, offset+gm.identifierOffset, ctx)
	if err != nil {
		return nil, 0, err
	}

	key := fmt.Sprint(value)

	target, ok := gm.variants[key]
	if !ok {
		target = gm.defaultMap
	}

	if target == nil {
		return nil, 0, dterr.NewAt(dterr.KindUnknownGroupVariant, gm.def.Name(), gm.def.IdentifierMember, offset,
			"discriminant value %v matches no variant and no default is declared", value)
	}

	return target.MapByteStream(data, offset, ctx)
}
