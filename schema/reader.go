// Package schema reads multi-document dtFabric YAML schemas into a
// populated, fully cross-reference-resolved registry.Registry.
package schema

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"dtfabric/definitions"
	"dtfabric/dterr"
	"dtfabric/expr"
	"dtfabric/registry"
	"dtfabric/utils"
)

// maxAlignmentSize bounds a padding definition's alignment_size: anything
// past a handful of cache lines signals a schema typo rather than an
// intentional layout.
const maxAlignmentSize = 4096

// doc pairs a parsed document with its position for error reporting.
type doc struct {
	index int
	raw   rawDoc
	def   definitions.Definition
}

// Read ingests an ordered sequence of YAML document bodies (as split from a
// single "---"-separated schema stream) into a resolved Registry.
// Independent per-document parse and attribute-validation errors are
// aggregated so an author sees every malformed document at once; the first
// registration or resolution failure aborts the read.
func Read(yamlDocs []string) (*registry.Registry, error) {
	reg := registry.New()

	docs := make([]*doc, 0, len(yamlDocs))

	var errs error

	for i, body := range yamlDocs {
		var rd rawDoc

		dec := yaml.NewDecoder(strings.NewReader(body))
		dec.KnownFields(true)

		if err := dec.Decode(&rd); err != nil {
			errs = multierr.Append(errs, dterr.New(dterr.KindSchemaError, "", "",
				"document %d: invalid YAML: %v", i, err))

			continue
		}

		def, err := buildSkeleton(&rd, i)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		docs = append(docs, &doc{index: i, raw: rd, def: def})
	}

	if errs != nil {
		return nil, errs
	}

	for _, d := range docs {
		if err := reg.Register(d.def); err != nil {
			return nil, err
		}
	}

	if err := resolve(reg, docs); err != nil {
		return nil, err
	}

	return reg, nil
}

// buildSkeleton constructs the concrete Definition type named by rd.Type,
// validating that the document carries exactly the attributes its kind
// allows. Name references (data_type, element_data_type, base, members,
// identifier, default) are left as strings for the resolution pass.
func buildSkeleton(rd *rawDoc, index int) (definitions.Definition, error) {
	kind, ok := definitions.KindFromTag(rd.Type)
	if !ok {
		return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
			"document %d: unrecognized type %q", index, rd.Type)
	}

	if rd.Name == "" {
		return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
			"document %d: %q requires a name", index, rd.Type)
	}

	if err := validateAttributes(rd, kind, index); err != nil {
		return nil, err
	}

	base := definitions.NewBase(rd.Name, rd.Aliases.strings(), rd.Description, rd.URLs.strings())

	switch kind {
	case definitions.KindBoolean, definitions.KindCharacter, definitions.KindInteger,
		definitions.KindFloatingPoint, definitions.KindUUID:
		return buildFixedSize(rd, index, base, kind)

	case definitions.KindSequence, definitions.KindStream, definitions.KindString:
		return buildElementSequence(rd, index, base, kind)

	case definitions.KindPadding:
		if rd.AlignmentSize == 0 {
			return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
				"document %d: padding requires alignment_size", index)
		}

		if !utils.IsInRange(1, rd.AlignmentSize, maxAlignmentSize) {
			return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
				"document %d: alignment_size %d is out of range [1, %d]", index, rd.AlignmentSize, maxAlignmentSize)
		}

		return &definitions.Padding{Base: base, AlignmentSize: rd.AlignmentSize}, nil

	case definitions.KindStructure:
		members, err := buildMembers(rd.Members, rd.Name, index, false)
		if err != nil {
			return nil, err
		}

		byteOrder, ok := definitions.ByteOrderFromTag(rd.ByteOrder)
		if !ok {
			return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
				"document %d: invalid byte_order %q", index, rd.ByteOrder)
		}

		s := &definitions.Structure{Base: base, ByteOrder: byteOrder}
		for _, m := range members {
			s.AddMember(m)
		}

		return s, nil

	case definitions.KindUnion:
		members, err := buildMembers(rd.Members, rd.Name, index, true)
		if err != nil {
			return nil, err
		}

		byteOrder, ok := definitions.ByteOrderFromTag(rd.ByteOrder)
		if !ok {
			return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
				"document %d: invalid byte_order %q", index, rd.ByteOrder)
		}

		return &definitions.Union{Base: base, ByteOrder: byteOrder, Members: members}, nil

	case definitions.KindConstant:
		if rd.Value == nil {
			return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
				"document %d: constant requires a value", index)
		}

		return &definitions.Constant{Base: base, Value: rd.Value}, nil

	case definitions.KindEnumeration:
		e := &definitions.Enumeration{Base: base}

		for _, v := range rd.Values {
			ev := definitions.EnumValue{
				Name:        v.Name,
				Number:      v.Number,
				Aliases:     v.Aliases.strings(),
				Description: v.Description,
			}
			if err := e.AddValue(ev); err != nil {
				return nil, err
			}
		}

		return e, nil

	case definitions.KindFormat:
		if len(rd.Layout) == 0 {
			return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
				"document %d: format requires a non-empty layout", index)
		}

		layout := make([]definitions.LayoutEntry, len(rd.Layout))
		for i, l := range rd.Layout {
			layout[i] = definitions.LayoutEntry{DataType: l.DataType, Offset: l.Offset}
		}

		return &definitions.Format{Base: base, Layout: layout, Metadata: rd.Metadata}, nil

	case definitions.KindStructureFamily:
		if rd.Base == "" || len(rd.Members) == 0 {
			return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
				"document %d: structure-family requires base and members", index)
		}

		names := make([]string, len(rd.Members))
		for i, m := range rd.Members {
			names[i] = m.DataType
		}

		return &definitions.StructureFamily{Base: base, BaseName: rd.Base, Members: names}, nil

	case definitions.KindStructureGroup:
		if rd.Base == "" || rd.Identifier == "" || len(rd.Members) == 0 {
			return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
				"document %d: structure-group requires base, identifier and members", index)
		}

		names := make([]string, len(rd.Members))
		for i, m := range rd.Members {
			names[i] = m.DataType
		}

		return &definitions.StructureGroup{
			Base:             base,
			BaseName:         rd.Base,
			IdentifierMember: rd.Identifier,
			Variants:         names,
			DefaultName:      rd.Default,
		}, nil

	default:
		return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
			"document %d: unsupported type %q", index, rd.Type)
	}
}

// attributesByKind lists, per kind, the optional rawDoc attributes (beyond
// the type/name/aliases/description/urls every kind shares) that kind
// accepts. An attribute set on the document but absent from its kind's list
// is rejected by validateAttributes.
var attributesByKind = map[definitions.Kind][]string{
	definitions.KindBoolean:       {"byte_order", "size", "units", "false_value", "true_value"},
	definitions.KindCharacter:     {"byte_order", "size", "units"},
	definitions.KindInteger:       {"byte_order", "size", "units", "format"},
	definitions.KindFloatingPoint: {"byte_order", "size", "units"},
	definitions.KindUUID:          {"byte_order", "size", "units"},

	definitions.KindSequence: {"byte_order", "element_data_type", "number_of_elements",
		"elements_data_size", "elements_terminator"},
	definitions.KindStream: {"byte_order", "element_data_type", "number_of_elements",
		"elements_data_size", "elements_terminator"},
	definitions.KindString: {"byte_order", "element_data_type", "number_of_elements",
		"elements_data_size", "elements_terminator", "encoding"},

	definitions.KindPadding: {"alignment_size"},

	definitions.KindStructure: {"byte_order", "members"},
	definitions.KindUnion:     {"byte_order", "members"},

	definitions.KindConstant:    {"value"},
	definitions.KindEnumeration: {"values"},

	definitions.KindFormat: {"layout", "metadata"},

	definitions.KindStructureFamily: {"base", "members"},
	definitions.KindStructureGroup:  {"base", "identifier", "members", "default"},
}

// setAttributes reports, by yaml key name, which of rawDoc's kind-specific
// optional attributes were actually set on rd.
func setAttributes(rd *rawDoc) []string {
	var names []string

	add := func(name string, isSet bool) {
		if isSet {
			names = append(names, name)
		}
	}

	add("byte_order", rd.ByteOrder != "")
	add("size", rd.Size != nil)
	add("units", rd.Units != "")
	add("format", rd.Format != "")
	add("false_value", rd.FalseValue != nil)
	add("true_value", rd.TrueValue != nil)
	add("element_data_type", rd.ElementDataType != "")
	add("number_of_elements", rd.NumberOfElements != "")
	add("elements_data_size", rd.ElementsDataSize != "")
	add("elements_terminator", rd.ElementsTerminator != nil)
	add("encoding", rd.Encoding != "")
	add("alignment_size", rd.AlignmentSize != 0)
	add("members", len(rd.Members) != 0)
	add("value", rd.Value != nil)
	add("values", len(rd.Values) != 0)
	add("layout", len(rd.Layout) != 0)
	add("metadata", len(rd.Metadata) != 0)
	add("base", rd.Base != "")
	add("identifier", rd.Identifier != "")
	add("default", rd.Default != "")

	return names
}

// validateAttributes rejects a document carrying an attribute that belongs
// to some other kind's schema (e.g. members on a boolean, encoding on an
// integer). Unknown attributes are rejected separately, at parse time, by
// Read's KnownFields decoder.
func validateAttributes(rd *rawDoc, kind definitions.Kind, index int) error {
	allowed := attributesByKind[kind]

	var extra []string

	for _, name := range setAttributes(rd) {
		if !slices.Contains(allowed, name) {
			extra = append(extra, name)
		}
	}

	if len(extra) == 0 {
		return nil
	}

	sort.Strings(extra)

	return dterr.New(dterr.KindSchemaError, rd.Name, "",
		"document %d: %q does not accept attribute(s) %s", index, rd.Type, strings.Join(extra, ", "))
}

func buildFixedSize(rd *rawDoc, index int, base definitions.Base, kind definitions.Kind) (definitions.Definition, error) {
	byteOrder, ok := definitions.ByteOrderFromTag(rd.ByteOrder)
	if !ok {
		return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
			"document %d: invalid byte_order %q", index, rd.ByteOrder)
	}

	units := rd.Units
	if units == "" {
		units = definitions.UnitsBytes
	}

	size := definitions.SizeNative
	if rd.Size != nil && !rd.Size.native {
		size = rd.Size.size
	} else if rd.Size == nil {
		return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
			"document %d: %q requires size", index, rd.Type)
	}

	fs := definitions.FixedSize{Base: base, ByteOrder: byteOrder, Size: size, Units: units}

	switch kind {
	case definitions.KindBoolean:
		b := definitions.Boolean{FixedSize: fs, TrueValue: rd.TrueValue}
		if rd.FalseValue != nil {
			b.FalseValue = *rd.FalseValue
		}

		return b, nil

	case definitions.KindCharacter:
		return definitions.Character{FixedSize: fs}, nil

	case definitions.KindFloatingPoint:
		return definitions.FloatingPoint{FixedSize: fs}, nil

	case definitions.KindUUID:
		return definitions.UUID{FixedSize: fs}, nil

	case definitions.KindInteger:
		format := definitions.FormatSigned
		if rd.Format == "unsigned" {
			format = definitions.FormatUnsigned
		} else if rd.Format != "" && rd.Format != "signed" {
			return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
				"document %d: invalid integer format %q", index, rd.Format)
		}

		return definitions.Integer{FixedSize: fs, Format: format}, nil

	default:
		return nil, fmt.Errorf("buildFixedSize: unreachable kind %v", kind)
	}
}

func buildElementSequence(rd *rawDoc, index int, base definitions.Base, kind definitions.Kind) (definitions.Definition, error) {
	if rd.ElementDataType == "" {
		return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
			"document %d: %q requires element_data_type", index, rd.Type)
	}

	count := rd.NumberOfElements != ""
	size := rd.ElementsDataSize != ""
	term := rd.ElementsTerminator != nil

	if !count && !size && !term {
		return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
			"document %d: %q requires one of number_of_elements, elements_data_size, elements_terminator",
			index, rd.Type)
	}

	if count && size {
		return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
			"document %d: number_of_elements and elements_data_size are mutually exclusive", index)
	}

	byteOrder, ok := definitions.ByteOrderFromTag(rd.ByteOrder)
	if !ok {
		return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
			"document %d: invalid byte_order %q", index, rd.ByteOrder)
	}

	es := definitions.ElementSequence{
		Base:               base,
		ByteOrder:          byteOrder,
		ElementDataType:    rd.ElementDataType,
		ElementsTerminator: rd.ElementsTerminator,
	}

	if count {
		e, err := expr.ParseArithmetic(rd.NumberOfElements)
		if err != nil {
			return nil, dterr.New(dterr.KindExpressionSyntaxError, rd.Name, "", "%v", err)
		}

		es.NumberOfElementsExpr = &e
	}

	if size {
		e, err := expr.ParseArithmetic(rd.ElementsDataSize)
		if err != nil {
			return nil, dterr.New(dterr.KindExpressionSyntaxError, rd.Name, "", "%v", err)
		}

		es.ElementsDataSizeExpr = &e
	}

	switch kind {
	case definitions.KindSequence:
		return &definitions.Sequence{ElementSequence: es}, nil
	case definitions.KindStream:
		return &definitions.Stream{ElementSequence: es}, nil
	case definitions.KindString:
		if rd.Encoding == "" {
			return nil, dterr.New(dterr.KindSchemaError, rd.Name, "",
				"document %d: string requires encoding", index)
		}

		return &definitions.String{ElementSequence: es, Encoding: rd.Encoding}, nil
	default:
		return nil, fmt.Errorf("buildElementSequence: unreachable kind %v", kind)
	}
}

// buildMembers constructs the Member list of a structure or union. Members
// of a union may omit name (allowUnnamed); structure members always require
// one.
func buildMembers(raw []rawMember, owner string, docIndex int, allowUnnamed bool) ([]*definitions.Member, error) {
	members := make([]*definitions.Member, 0, len(raw))

	for _, rm := range raw {
		if rm.Name == "" && !allowUnnamed {
			return nil, dterr.New(dterr.KindSchemaError, owner, "",
				"document %d: structure member requires a name", docIndex)
		}

		if (rm.DataType == "") == (rm.Type == nil) {
			return nil, dterr.New(dterr.KindSchemaError, owner, rm.Name,
				"document %d: member requires exactly one of data_type or type", docIndex)
		}

		if rm.Value != nil && rm.Values != nil {
			return nil, dterr.New(dterr.KindSchemaError, owner, rm.Name,
				"document %d: member cannot declare both value and values", docIndex)
		}

		m := &definitions.Member{
			Name:        rm.Name,
			Aliases:     rm.Aliases.strings(),
			Description: rm.Description,
			DataType:    rm.DataType,
		}

		if rm.Value != nil {
			m.PinnedValues = []any(rm.Value)
		} else if rm.Values != nil {
			m.PinnedValues = []any(rm.Values)
		}

		if rm.Condition != "" {
			c, err := expr.ParseCondition(rm.Condition)
			if err != nil {
				return nil, dterr.New(dterr.KindExpressionSyntaxError, owner, rm.Name, "%v", err)
			}

			m.Condition = &c
		}

		if rm.Type != nil {
			inlineKind, ok := definitions.KindFromTag(rm.Type.Type)
			if !ok {
				return nil, dterr.New(dterr.KindSchemaError, owner, rm.Name,
					"document %d: unrecognized inline type %q", docIndex, rm.Type.Type)
			}

			if !inlineAllowed(inlineKind) {
				return nil, dterr.New(dterr.KindSchemaError, owner, rm.Name,
					"document %d: kind %s cannot be declared inline", docIndex, inlineKind)
			}

			if rm.Type.Name == "" {
				rm.Type.Name = owner + "." + rm.Name
			}

			inlineDef, err := buildSkeleton(rm.Type, docIndex)
			if err != nil {
				return nil, err
			}

			m.InlineType = inlineDef
		}

		members = append(members, m)
	}

	return members, nil
}

// inlineAllowed reports whether kind may be declared as an anonymous inline
// member type rather than referenced by name.
func inlineAllowed(kind definitions.Kind) bool {
	switch kind {
	case definitions.KindConstant, definitions.KindEnumeration,
		definitions.KindFormat, definitions.KindStructure:
		return false
	default:
		return true
	}
}
