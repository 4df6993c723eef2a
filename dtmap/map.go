// Package dtmap is the runtime mapper: given a resolved definitions.
// Definition, it builds an immutable Map that decodes a byte buffer into a
// value, or reports the fixed encoded size when one exists.
package dtmap

import (
	"fmt"

	"dtfabric/definitions"
	"dtfabric/mapctx"
)

// Map decodes bytes into a value per the Definition it was built from. A
// Map is immutable after construction and safe for concurrent use provided
// each call is given its own MapContext.
type Map interface {
	// MapByteStream decodes starting at offset in data, using ctx as the
	// evaluation environment for any size/count/condition expressions, and
	// returns the decoded value and the number of bytes consumed.
	MapByteStream(data []byte, offset int, ctx *mapctx.Context) (value any, consumed int, err error)

	// GetByteSize returns the fixed encoded size in bytes, and true, when
	// the underlying Definition is entirely fixed-size. Otherwise it
	// returns (0, false); callers must decode to learn the size.
	GetByteSize() (int, bool)
}

// OrderedMap is the decoded value of a structure, union, or format: a
// mapping from member (or layout entry) name to decoded value that
// preserves declaration order.
type OrderedMap struct {
	Keys   []string
	Values map[string]any
}

// Get returns the value stored under name, and whether it was present.
func (o OrderedMap) Get(name string) (any, bool) {
	v, ok := o.Values[name]
	return v, ok
}

func newOrderedMap() *OrderedMap {
	return &OrderedMap{Values: make(map[string]any)}
}

func (o *OrderedMap) set(name string, value any) {
	if _, exists := o.Values[name]; !exists {
		o.Keys = append(o.Keys, name)
	}

	o.Values[name] = value
}

// Factory builds Maps from Definitions, caching by Definition identity so
// that repeated requests for the same named Definition within one registry
// return the same Map instance.
type Factory struct {
	cache map[string]Map
}

// NewFactory returns an empty Factory.
func NewFactory() *Factory {
	return &Factory{cache: make(map[string]Map)}
}

// Build returns the Map for def, constructing and caching it on first
// request. The schema resolver already rejects ownership cycles, so
// Definitions form a DAG and a plain memoizing cache is sufficient.
func (f *Factory) Build(def definitions.Definition) (Map, error) {
	if m, ok := f.cache[def.Name()]; ok {
		return m, nil
	}

	m, err := f.build(def)
	if err != nil {
		return nil, err
	}

	f.cache[def.Name()] = m

	return m, nil
}

func (f *Factory) build(def definitions.Definition) (Map, error) {
	switch d := def.(type) {
	case definitions.Boolean:
		return newBooleanMap(d), nil
	case definitions.Character:
		return newCharacterMap(d), nil
	case definitions.Integer:
		return newIntegerMap(d), nil
	case definitions.FloatingPoint:
		return newFloatingPointMap(d), nil
	case definitions.UUID:
		return newUUIDMap(d), nil

	case *definitions.Sequence:
		return f.buildElementSequence(d.Name(), &d.ElementSequence, definitions.KindSequence)
	case *definitions.Stream:
		return f.buildElementSequence(d.Name(), &d.ElementSequence, definitions.KindStream)
	case *definitions.String:
		sm, err := f.buildElementSequence(d.Name(), &d.ElementSequence, definitions.KindString)
		if err != nil {
			return nil, err
		}

		sm.(*sequenceMap).encoding = d.Encoding

		return sm, nil

	case *definitions.Padding:
		return &paddingMap{alignment: d.AlignmentSize}, nil

	case *definitions.Structure:
		return f.buildStructure(d)
	case *definitions.Union:
		return f.buildUnion(d)

	case *definitions.Format:
		return f.buildFormat(d)
	case *definitions.StructureFamily:
		return f.buildFamily(d)
	case *definitions.StructureGroup:
		return f.buildGroup(d)

	case *definitions.Constant:
		return &constantMap{value: d.Value}, nil
	case *definitions.Enumeration:
		return &enumerationMap{def: d}, nil

	default:
		return nil, fmt.Errorf("dtmap: no runtime map for definition kind %v", def.Kind())
	}
}
