package definitions

import "dtfabric/dterr"

// Constant is a named, typed literal value with no storage of its own; it
// exists to be referenced from expressions and pinned-value checks.
type Constant struct {
	Base
	Value any
}

func (Constant) Kind() Kind         { return KindConstant }
func (Constant) IsComposite() bool  { return false }
func (Constant) ByteSize() (int, bool) { return 0, false }

// EnumValue is one named, numbered member of an Enumeration.
type EnumValue struct {
	Name        string
	Aliases     []string
	Number      int64
	Description string
}

// Enumeration is a closed set of named integer values. It has no storage of
// its own; it is a lookup table for labelling integer values decoded
// elsewhere.
type Enumeration struct {
	Base
	Values []EnumValue

	byName   map[string]*EnumValue
	byNumber map[int64]*EnumValue
	byAlias  map[string]*EnumValue
}

func (Enumeration) Kind() Kind            { return KindEnumeration }
func (Enumeration) IsComposite() bool     { return false }
func (Enumeration) ByteSize() (int, bool) { return 0, false }

// AddValue registers ev, rejecting a name, number or alias already claimed
// by an earlier value in this enumeration.
func (e *Enumeration) AddValue(ev EnumValue) error {
	if e.byName == nil {
		e.byName = make(map[string]*EnumValue)
		e.byNumber = make(map[int64]*EnumValue)
		e.byAlias = make(map[string]*EnumValue)
	}

	if _, ok := e.byName[ev.Name]; ok {
		return dterr.New(dterr.KindDuplicateName, e.Name(), ev.Name,
			"enumeration %q already has a value named %q", e.Name(), ev.Name)
	}

	if _, ok := e.byNumber[ev.Number]; ok {
		return dterr.New(dterr.KindDuplicateName, e.Name(), ev.Name,
			"enumeration %q already has a value numbered %d", e.Name(), ev.Number)
	}

	for _, alias := range ev.Aliases {
		if _, ok := e.byAlias[alias]; ok {
			return dterr.New(dterr.KindDuplicateName, e.Name(), ev.Name,
				"enumeration %q already has a value aliased %q", e.Name(), alias)
		}
	}

	e.Values = append(e.Values, ev)

	stored := &e.Values[len(e.Values)-1]
	e.byName[ev.Name] = stored
	e.byNumber[ev.Number] = stored

	for _, alias := range ev.Aliases {
		e.byAlias[alias] = stored
	}

	return nil
}

// ValueByNumber looks up the enumeration member declared with number n.
func (e *Enumeration) ValueByNumber(n int64) (*EnumValue, bool) {
	v, ok := e.byNumber[n]
	return v, ok
}

// ValueByName looks up a member by its declared name or one of its aliases.
func (e *Enumeration) ValueByName(name string) (*EnumValue, bool) {
	if v, ok := e.byName[name]; ok {
		return v, true
	}

	v, ok := e.byAlias[name]

	return v, ok
}
