package definitions

// Structure is an ordered sequence of members decoded one after another.
// Its byte size is cached lazily and invalidated whenever a member is
// added, mirroring the original runtime's GetByteSize/_byte_size
// invalidation on AddMemberDefinition.
type Structure struct {
	Base
	ByteOrder ByteOrder
	Members   []*Member
	Sections  []MemberSection

	cachedSize    int
	cachedSizeOK  bool
	cachedSizeSet bool
}

func (Structure) Kind() Kind          { return KindStructure }
func (Structure) IsComposite() bool   { return true }

// AddMember appends a member and invalidates the cached byte size.
func (s *Structure) AddMember(m *Member) {
	s.Members = append(s.Members, m)
	s.cachedSizeSet = false
}

// ByteSize is fixed only when every member is unconditional and has a fixed
// byte size of its own; the result is cached until the next AddMember call.
func (s *Structure) ByteSize() (int, bool) {
	if s.cachedSizeSet {
		return s.cachedSize, s.cachedSizeOK
	}

	total := 0

	for _, m := range s.Members {
		if m.Condition != nil {
			s.cachedSize, s.cachedSizeOK, s.cachedSizeSet = 0, false, true
			return 0, false
		}

		t := m.ResolvedType()
		if t == nil {
			s.cachedSize, s.cachedSizeOK, s.cachedSizeSet = 0, false, true
			return 0, false
		}

		size, ok := t.ByteSize()
		if !ok {
			s.cachedSize, s.cachedSizeOK, s.cachedSizeSet = 0, false, true
			return 0, false
		}

		total += size
	}

	s.cachedSize, s.cachedSizeOK, s.cachedSizeSet = total, true, true

	return total, true
}

// Union decodes every member at the same starting offset and keeps every
// member's decoded value; its byte size is the maximum of its members', not
// their sum.
type Union struct {
	Base
	ByteOrder ByteOrder
	Members   []*Member
}

func (Union) Kind() Kind        { return KindUnion }
func (Union) IsComposite() bool { return true }

func (u Union) ByteSize() (int, bool) {
	max := 0

	for _, m := range u.Members {
		t := m.ResolvedType()
		if t == nil {
			return 0, false
		}

		size, ok := t.ByteSize()
		if !ok {
			return 0, false
		}

		if size > max {
			max = size
		}
	}

	return max, true
}
