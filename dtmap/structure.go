package dtmap

import (
	"dtfabric/definitions"
	"dtfabric/dterr"
	"dtfabric/expr"
	"dtfabric/internal/common"
	"dtfabric/mapctx"
)

type structureMember struct {
	name   string
	m      Map
	cond   *expr.Expr
	pinned []any
}

type structureMap struct {
	def     *definitions.Structure
	members []structureMember
}

func (f *Factory) buildStructure(def *definitions.Structure) (Map, error) {
	members := make([]structureMember, 0, len(def.Members))

	for _, member := range def.Members {
		t := member.ResolvedType()
		if t == nil {
			continue // schema reader guarantees resolution; defensive only
		}

		m, err := f.Build(t)
		if err != nil {
			return nil, err
		}

		members = append(members, structureMember{
			name:   member.Name,
			m:      m,
			cond:   member.Condition,
			pinned: member.PinnedValues,
		})
	}

	return &structureMap{def: def, members: members}, nil
}

func (s *structureMap) GetByteSize() (int, bool) { return s.def.ByteSize() }

func (s *structureMap) MapByteStream(data []byte, offset int, ctx *mapctx.Context) (any, int, error) {
	child := ctx.Child(s.def.Name())
	result := newOrderedMap()

	cur := offset

	for _, member := range s.members {
		if member.cond != nil {
			ok, err := expr.EvalBool(*member.cond, child)
			if err != nil {
				return nil, 0, err
			}

			if !ok {
				continue
			}
		}

		child.Set(structOffsetKey, int64(cur-offset))

		value, consumed, err := member.m.MapByteStream(data, cur, child)
		if err != nil {
			return nil, 0, err
		}

		if len(member.pinned) > 0 && !matchesPinned(value, member.pinned) {
			return nil, 0, dterr.NewAt(dterr.KindConstantMismatch, s.def.Name(), member.name, cur,
				"decoded value %v does not match pinned value(s) %v", value, member.pinned)
		}

		if member.name != "" {
			child.Set(member.name, value)
			result.set(member.name, value)
		}

		cur += consumed
	}

	return *result, cur - offset, nil
}

func matchesPinned(value any, pinned []any) bool {
	// A lone pinned value (the schema's singular "value" attribute) is the
	// overwhelmingly common case; skip the loop for it.
	if single, ok := common.First(pinned); ok && common.IsSingle(pinned) {
		return singleValueMatches(value, single)
	}

	n, isInt := toComparableInt(value)

	for _, p := range pinned {
		if p == value {
			return true
		}

		if isInt {
			if pn, ok := toComparableInt(p); ok && pn == n {
				return true
			}
		}
	}

	return false
}

func singleValueMatches(value, pinned any) bool {
	if pinned == value {
		return true
	}

	n, isInt := toComparableInt(value)
	if !isInt {
		return false
	}

	pn, ok := toComparableInt(pinned)

	return ok && pn == n
}

func toComparableInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	case rune:
		return int64(n), true
	default:
		return 0, false
	}
}

type unionMember struct {
	name string
	m    Map
}

type unionMap struct {
	def     *definitions.Union
	members []unionMember
}

func (f *Factory) buildUnion(def *definitions.Union) (Map, error) {
	members := make([]unionMember, 0, len(def.Members))

	for i, member := range def.Members {
		t := member.ResolvedType()
		if t == nil {
			continue
		}

		m, err := f.Build(t)
		if err != nil {
			return nil, err
		}

		name := member.Name
		if name == "" {
			name = member.DataType
		}

		if name == "" {
			name = unionMemberFallbackName(i)
		}

		members = append(members, unionMember{name: name, m: m})
	}

	return &unionMap{def: def, members: members}, nil
}

func unionMemberFallbackName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if i < len(letters) {
		return string(letters[i])
	}

	return "member"
}

func (u *unionMap) GetByteSize() (int, bool) { return u.def.ByteSize() }

func (u *unionMap) MapByteStream(data []byte, offset int, ctx *mapctx.Context) (any, int, error) {
	child := ctx.Child(u.def.Name())
	result := newOrderedMap()

	maxConsumed := 0

	for _, member := range u.members {
		value, consumed, err := member.m.MapByteStream(data, offset, child)
		if err != nil {
			return nil, 0, err
		}

		result.set(member.name, value)

		if consumed > maxConsumed {
			maxConsumed = consumed
		}
	}

	return *result, maxConsumed, nil
}
