package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"dtfabric/internal/common"
)

// stringOrArray accepts either a single YAML scalar or a sequence of
// scalars, used for the "aliases" and "urls" attributes every kind shares.
type stringOrArray []string

func (s *stringOrArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string
		if err := node.Decode(&str); err != nil {
			return err
		}

		if str == "" {
			*s = nil
			return nil
		}

		*s = stringOrArray{str}

		return nil

	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}

		*s = arr

		return nil

	default:
		return fmt.Errorf("expected string or array, got yaml kind %v", node.Kind)
	}
}

func (s stringOrArray) strings() []string {
	if common.IsEmpty(s) {
		return nil
	}

	return []string(s)
}

// sizeValue accepts either an integer byte count or the literal string
// "native".
type sizeValue struct {
	native bool
	size   int
	set    bool
}

func (v *sizeValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "native" {
		*v = sizeValue{native: true, set: true}
		return nil
	}

	var n int
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("invalid size %q: %w", node.Value, err)
	}

	*v = sizeValue{size: n, set: true}

	return nil
}

// pinnedValues accepts the member "value" (single scalar) or "values" (a
// list of accepted scalars) attribute, always normalized to a slice.
type pinnedValues []any

func (p *pinnedValues) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var arr []any
		if err := node.Decode(&arr); err != nil {
			return err
		}

		*p = arr

		return nil

	default:
		var single any
		if err := node.Decode(&single); err != nil {
			return err
		}

		*p = pinnedValues{single}

		return nil
	}
}

// rawEnumValue is one entry of an enumeration's "values" list.
type rawEnumValue struct {
	Name        string        `yaml:"name"`
	Number      int64         `yaml:"number"`
	Aliases     stringOrArray `yaml:"aliases,omitempty"`
	Description string        `yaml:"description,omitempty"`
}

// rawLayoutEntry is one entry of a format's "layout" list.
type rawLayoutEntry struct {
	DataType string `yaml:"data_type"`
	Offset   int    `yaml:"offset"`
}

// rawMember is one entry of a structure's or union's "members" list.
type rawMember struct {
	Name        string        `yaml:"name,omitempty"`
	Aliases     stringOrArray `yaml:"aliases,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Condition   string        `yaml:"condition,omitempty"`

	DataType string  `yaml:"data_type,omitempty"`
	Type     *rawDoc `yaml:"type,omitempty"`

	Value  pinnedValues `yaml:"value,omitempty"`
	Values pinnedValues `yaml:"values,omitempty"`
}

// UnmarshalYAML lets a structure-family's or structure-group's "members"
// entry be written as a bare name reference ("point3d_v2") in addition to a
// full member mapping; the bare form is a name-only rawMember consulted via
// its DataType field by the family/group resolution code.
func (m *rawMember) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}

		*m = rawMember{DataType: name}

		return nil
	}

	type plain rawMember

	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}

	*m = rawMember(p)

	return nil
}

// rawDoc is the union of every attribute any top-level YAML document (or
// inline member "type" attribute) may carry. Per-kind validation rejects
// whichever subset does not belong to the document's declared kind.
type rawDoc struct {
	Type        string        `yaml:"type"`
	Name        string        `yaml:"name,omitempty"`
	Aliases     stringOrArray `yaml:"aliases,omitempty"`
	Description string        `yaml:"description,omitempty"`
	URLs        stringOrArray `yaml:"urls,omitempty"`

	// fixed-size
	ByteOrder  string     `yaml:"byte_order,omitempty"`
	Size       *sizeValue `yaml:"size,omitempty"`
	Units      string     `yaml:"units,omitempty"`
	Format     string     `yaml:"format,omitempty"`
	FalseValue *uint64    `yaml:"false_value,omitempty"`
	TrueValue  *uint64    `yaml:"true_value,omitempty"`

	// sequence / stream / string / padding
	ElementDataType    string  `yaml:"element_data_type,omitempty"`
	NumberOfElements   string  `yaml:"number_of_elements,omitempty"`
	ElementsDataSize   string  `yaml:"elements_data_size,omitempty"`
	ElementsTerminator *uint64 `yaml:"elements_terminator,omitempty"`
	Encoding           string  `yaml:"encoding,omitempty"`
	AlignmentSize      int     `yaml:"alignment_size,omitempty"`

	// structure / union
	Members []rawMember `yaml:"members,omitempty"`

	// constant / enumeration
	Value  any            `yaml:"value,omitempty"`
	Values []rawEnumValue `yaml:"values,omitempty"`

	// format
	Layout   []rawLayoutEntry `yaml:"layout,omitempty"`
	Metadata map[string]any   `yaml:"metadata,omitempty"`

	// structure-family / structure-group: Members holds bare name
	// references (see rawMember.UnmarshalYAML) to the variant structures.
	Base       string `yaml:"base,omitempty"`
	Identifier string `yaml:"identifier,omitempty"`
	Default    string `yaml:"default,omitempty"`
}
