package definitions

import "dtfabric/expr"

// Member is one field of a structure or union: a name bound to a data type,
// optionally gated by a condition and optionally pinned to one or more
// expected values (a constant-value check performed at decode time).
type Member struct {
	Name        string
	Aliases     []string
	Description string

	DataType    string // name reference
	DataTypeDef Definition
	// InlineType holds an anonymously-declared data type attribute (a member
	// whose type is defined inline rather than by reference); mutually
	// exclusive with DataType.
	InlineType Definition

	// Condition, when non-nil, gates whether this member is present at all;
	// a false condition skips the member entirely during decode.
	Condition *expr.Expr

	// PinnedValues holds the value(s) a decoded member is checked against.
	// A schema's singular "value" attribute becomes a one-element slice; its
	// plural "values" attribute is carried through unchanged. A mismatch at
	// decode time is a ConstantMismatch.
	PinnedValues []any
}

// ResolvedType returns the member's effective data type, preferring an
// inline declaration over a name reference.
func (m Member) ResolvedType() Definition {
	if m.InlineType != nil {
		return m.InlineType
	}

	return m.DataTypeDef
}

// MemberSection groups a run of members under an optional heading, purely
// for documentation; it carries no decode semantics of its own.
type MemberSection struct {
	Name    string
	Members []*Member
}
