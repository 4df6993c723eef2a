package definitions

import "dtfabric/expr"

// ElementSequence is embedded by sequence, stream and string definitions: a
// run of elements whose extent is given by a literal/derived element count
// or a total byte size (never both), a terminator value, or a terminator
// together with one of the other two.
type ElementSequence struct {
	Base
	ByteOrder ByteOrder

	ElementDataType    string // name reference, as written in the schema
	ElementDataTypeDef Definition // resolved during the registry pass

	// At least one of these is non-nil, and NumberOfElementsExpr and
	// ElementsDataSizeExpr are never both set; the schema reader enforces
	// this (terminator may additionally co-exist with one of the other two
	// under the format-revision gate).
	NumberOfElementsExpr  *expr.Expr
	ElementsDataSizeExpr  *expr.Expr
	ElementsTerminator    *uint64
}

// HasLiteralCount reports whether the element count is a compile-time
// constant, letting ByteSize compute a fixed size without a MapContext.
func (s ElementSequence) HasLiteralCount() (int64, bool) {
	if s.NumberOfElementsExpr == nil {
		return 0, false
	}

	return expr.ConstValue(*s.NumberOfElementsExpr)
}

func (s ElementSequence) elementByteSize() (int, bool) {
	if s.ElementDataTypeDef == nil {
		return 0, false
	}

	return s.ElementDataTypeDef.ByteSize()
}

// ByteSize is fixed only when the sequence has a literal element count and a
// fixed-size element type; size-bound and terminator-bound sequences are
// variable by construction.
func (s ElementSequence) byteSize() (int, bool) {
	count, ok := s.HasLiteralCount()
	if !ok {
		return 0, false
	}

	elemSize, ok := s.elementByteSize()
	if !ok {
		return 0, false
	}

	return int(count) * elemSize, true
}

func (s ElementSequence) IsComposite() bool { return true }

// Sequence is a fixed-order run of identically-typed elements.
type Sequence struct {
	ElementSequence
}

func (Sequence) Kind() Kind              { return KindSequence }
func (s Sequence) ByteSize() (int, bool) { return s.byteSize() }

// Stream is a run of elements consumed without regard to individual element
// boundaries surviving decode (e.g. raw byte payloads).
type Stream struct {
	ElementSequence
}

func (Stream) Kind() Kind              { return KindStream }
func (s Stream) ByteSize() (int, bool) { return s.byteSize() }

// String is a sequence of character elements decoded to a Go string using
// Encoding.
type String struct {
	ElementSequence
	Encoding string
}

func (String) Kind() Kind              { return KindString }
func (s String) ByteSize() (int, bool) { return s.byteSize() }

// Padding pads the stream up to the next AlignmentSize boundary relative to
// the start of the enclosing structure; it has no fixed size of its own.
type Padding struct {
	Base
	AlignmentSize int
}

func (Padding) Kind() Kind             { return KindPadding }
func (Padding) IsComposite() bool      { return false }
func (Padding) ByteSize() (int, bool)  { return 0, false }
