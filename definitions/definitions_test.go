package definitions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtfabric/definitions"
	"dtfabric/dterr"
	"dtfabric/expr"
)

func TestKindFromTag(t *testing.T) {
	k, ok := definitions.KindFromTag("structure-group")
	require.True(t, ok)
	assert.Equal(t, definitions.KindStructureGroup, k)

	_, ok = definitions.KindFromTag("nonsense")
	assert.False(t, ok)
}

func TestFixedSizeByteSize(t *testing.T) {
	i := definitions.Integer{
		FixedSize: definitions.FixedSize{
			Base:  definitions.NewBase("uint32", nil, "", nil),
			Size:  4,
			Units: definitions.UnitsBytes,
		},
		Format: definitions.FormatUnsigned,
	}

	size, ok := i.ByteSize()
	require.True(t, ok)
	assert.Equal(t, 4, size)
}

func TestNativeSizeIsNotFixed(t *testing.T) {
	i := definitions.Integer{
		FixedSize: definitions.FixedSize{
			Base:  definitions.NewBase("long", nil, "", nil),
			Size:  definitions.SizeNative,
			Units: definitions.UnitsBytes,
		},
	}

	_, ok := i.ByteSize()
	assert.False(t, ok)
}

func TestUUIDIsComposite(t *testing.T) {
	u := definitions.UUID{FixedSize: definitions.FixedSize{Size: 16, Units: definitions.UnitsBytes}}
	assert.True(t, u.IsComposite())

	size, ok := u.ByteSize()
	require.True(t, ok)
	assert.Equal(t, 16, size)
}

func TestSequenceFixedByteSizeFromLiteralCount(t *testing.T) {
	int32Def := definitions.Integer{
		FixedSize: definitions.FixedSize{Size: 4, Units: definitions.UnitsBytes},
	}

	e, err := expr.ParseArithmetic("12")
	require.NoError(t, err)

	seq := definitions.Sequence{
		ElementSequence: definitions.ElementSequence{
			Base:                definitions.NewBase("coordinates", nil, "", nil),
			ElementDataTypeDef:  int32Def,
			NumberOfElementsExpr: &e,
		},
	}

	size, ok := seq.ByteSize()
	require.True(t, ok)
	assert.Equal(t, 48, size)
}

func TestSequenceWithExpressionCountIsNotFixed(t *testing.T) {
	int32Def := definitions.Integer{
		FixedSize: definitions.FixedSize{Size: 4, Units: definitions.UnitsBytes},
	}

	e, err := expr.ParseArithmetic("sphere3d.number_of_triangles")
	require.NoError(t, err)

	seq := definitions.Sequence{
		ElementSequence: definitions.ElementSequence{
			ElementDataTypeDef:  int32Def,
			NumberOfElementsExpr: &e,
		},
	}

	_, ok := seq.ByteSize()
	assert.False(t, ok)
}

func TestStructureByteSizeSumsFixedMembers(t *testing.T) {
	float32Def := definitions.FloatingPoint{
		FixedSize: definitions.FixedSize{Size: 4, Units: definitions.UnitsBytes},
	}

	s := &definitions.Structure{Base: definitions.NewBase("point3d", nil, "", nil)}
	s.AddMember(&definitions.Member{Name: "x", DataTypeDef: float32Def})
	s.AddMember(&definitions.Member{Name: "y", DataTypeDef: float32Def})
	s.AddMember(&definitions.Member{Name: "z", DataTypeDef: float32Def})

	size, ok := s.ByteSize()
	require.True(t, ok)
	assert.Equal(t, 12, size)
}

func TestStructureByteSizeInvalidatedOnAddMember(t *testing.T) {
	float32Def := definitions.FloatingPoint{
		FixedSize: definitions.FixedSize{Size: 4, Units: definitions.UnitsBytes},
	}

	s := &definitions.Structure{Base: definitions.NewBase("point2d", nil, "", nil)}
	s.AddMember(&definitions.Member{Name: "x", DataTypeDef: float32Def})

	size, ok := s.ByteSize()
	require.True(t, ok)
	assert.Equal(t, 4, size)

	s.AddMember(&definitions.Member{Name: "y", DataTypeDef: float32Def})

	size, ok = s.ByteSize()
	require.True(t, ok)
	assert.Equal(t, 8, size)
}

func TestStructureWithConditionalMemberIsNotFixed(t *testing.T) {
	int32Def := definitions.Integer{
		FixedSize: definitions.FixedSize{Size: 4, Units: definitions.UnitsBytes},
	}

	cond, err := expr.ParseCondition("version > 1")
	require.NoError(t, err)

	s := &definitions.Structure{Base: definitions.NewBase("record", nil, "", nil)}
	s.AddMember(&definitions.Member{Name: "version", DataTypeDef: int32Def})
	s.AddMember(&definitions.Member{Name: "extra", DataTypeDef: int32Def, Condition: &cond})

	_, ok := s.ByteSize()
	assert.False(t, ok)
}

func TestUnionByteSizeIsMax(t *testing.T) {
	int32Def := definitions.Integer{FixedSize: definitions.FixedSize{Size: 4, Units: definitions.UnitsBytes}}
	int64Def := definitions.Integer{FixedSize: definitions.FixedSize{Size: 8, Units: definitions.UnitsBytes}}

	u := definitions.Union{
		Members: []*definitions.Member{
			{Name: "small", DataTypeDef: int32Def},
			{Name: "large", DataTypeDef: int64Def},
		},
	}

	size, ok := u.ByteSize()
	require.True(t, ok)
	assert.Equal(t, 8, size)
}

func TestEnumerationAddValueRejectsDuplicateNumber(t *testing.T) {
	e := &definitions.Enumeration{Base: definitions.NewBase("file_type", nil, "", nil)}

	require.NoError(t, e.AddValue(definitions.EnumValue{Name: "regular", Number: 1}))

	err := e.AddValue(definitions.EnumValue{Name: "duplicate", Number: 1})
	require.Error(t, err)
	assert.True(t, dterr.Is(err, dterr.KindDuplicateName))
}
