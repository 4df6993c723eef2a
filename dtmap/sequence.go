package dtmap

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"dtfabric/definitions"
	"dtfabric/dterr"
	"dtfabric/expr"
	"dtfabric/mapctx"
)

// sequenceMap implements sequence, stream and string decode: a run of
// elements whose extent is given by a literal/derived count, a total byte
// budget, a terminator value, or some combination, per
// validateTerminatorCoexistence's gate at schema-read time.
type sequenceMap struct {
	name     string
	kind     definitions.Kind
	es       *definitions.ElementSequence
	element  Map
	encoding string // set only for kind == KindString
}

func (f *Factory) buildElementSequence(name string, es *definitions.ElementSequence, kind definitions.Kind) (Map, error) {
	if es.ElementDataTypeDef == nil {
		return nil, fmt.Errorf("dtmap: %q has no resolved element data type", name)
	}

	element, err := f.Build(es.ElementDataTypeDef)
	if err != nil {
		return nil, err
	}

	return &sequenceMap{name: name, kind: kind, es: es, element: element}, nil
}

func (s *sequenceMap) GetByteSize() (int, bool) {
	switch s.kind {
	case definitions.KindSequence:
		return (&definitions.Sequence{ElementSequence: *s.es}).ByteSize()
	case definitions.KindStream:
		return (&definitions.Stream{ElementSequence: *s.es}).ByteSize()
	default:
		return (&definitions.String{ElementSequence: *s.es}).ByteSize()
	}
}

func (s *sequenceMap) MapByteStream(data []byte, offset int, ctx *mapctx.Context) (any, int, error) {
	values, consumed, err := decodeElements(data, offset, s.es, s.element, ctx, s.name)
	if err != nil {
		return nil, 0, err
	}

	if s.kind != definitions.KindString {
		return values, consumed, nil
	}

	if !allowedStringEncoding(s.encoding) {
		return nil, 0, dterr.NewAt(dterr.KindInvalidEncoding, s.name, "", offset,
			"unsupported string encoding %q", s.encoding)
	}

	var b []rune

	for _, v := range values {
		switch r := v.(type) {
		case rune:
			b = append(b, r)
		case int64:
			b = append(b, rune(r))
		case uint64:
			b = append(b, rune(r))
		default:
			return nil, 0, fmt.Errorf("dtmap: %q's element type does not decode to a code point", s.name)
		}
	}

	return string(b), consumed, nil
}

func allowedStringEncoding(encoding string) bool {
	switch encoding {
	case "ascii", "utf-8", "utf-16-be", "utf-16-le":
		return true
	default:
		return false
	}
}

// decodeElements runs the shared element-run decode loop for sequence,
// stream and string: at most one of a literal count or a byte-size budget
// bounds the run, and a terminator value (which may co-exist with either)
// ends it early whenever the next element-sized slice of data matches it
// exactly.
func decodeElements(
	data []byte,
	offset int,
	es *definitions.ElementSequence,
	element Map,
	ctx *mapctx.Context,
	defName string,
) ([]any, int, error) {
	targetCount := int64(-1)

	if es.NumberOfElementsExpr != nil {
		n, err := expr.Eval(*es.NumberOfElementsExpr, ctx)
		if err != nil {
			return nil, 0, err
		}

		targetCount = n
	}

	targetSize := int64(-1)

	if es.ElementsDataSizeExpr != nil {
		n, err := expr.Eval(*es.ElementsDataSizeExpr, ctx)
		if err != nil {
			return nil, 0, err
		}

		targetSize = n
	}

	var termBytes []byte

	var elemFixedSize int

	if es.ElementsTerminator != nil {
		size, ok := element.GetByteSize()
		if !ok {
			return nil, 0, fmt.Errorf("dtmap: %q declares elements_terminator over a non-fixed-size element type", defName)
		}

		elemFixedSize = size
		termBytes = terminatorBytes(*es.ElementsTerminator, size, resolveByteOrder(es.ByteOrder))
	}

	start := offset
	cur := offset

	var values []any

	terminated := false

	for {
		if targetCount >= 0 && int64(len(values)) >= targetCount {
			break
		}

		if targetSize >= 0 && int64(cur-start) >= targetSize {
			break
		}

		if termBytes != nil && cur+elemFixedSize <= len(data) && bytes.Equal(data[cur:cur+elemFixedSize], termBytes) {
			cur += elemFixedSize
			terminated = true

			break
		}

		value, consumed, err := element.MapByteStream(data, cur, ctx)
		if err != nil {
			return nil, 0, err
		}

		values = append(values, value)
		cur += consumed
	}

	if targetSize >= 0 && !terminated && int64(cur-start) != targetSize {
		return nil, 0, dterr.NewAt(dterr.KindTrailingBytes, defName, "", cur,
			"element run of %d byte(s) did not land exactly on the declared elements_data_size of %d",
			cur-start, targetSize)
	}

	return values, cur - start, nil
}

func terminatorBytes(value uint64, size int, order binary.ByteOrder) []byte {
	buf := make([]byte, size)

	switch size {
	case 1:
		buf[0] = byte(value)
	case 2:
		order.PutUint16(buf, uint16(value))
	case 4:
		order.PutUint32(buf, uint32(value))
	case 8:
		order.PutUint64(buf, value)
	}

	return buf
}

// paddingMap advances to the next AlignmentSize boundary relative to the
// start of the enclosing structure. The structure decode loop records how
// many bytes it has consumed so far under a well-known context key before
// decoding each member; padding has no other way to learn its
// structure-relative position since MapByteStream only sees an absolute
// buffer offset.
type paddingMap struct {
	alignment int
}

const structOffsetKey = "__struct_offset"

func (p *paddingMap) GetByteSize() (int, bool) { return 0, false }

func (p *paddingMap) MapByteStream(data []byte, offset int, ctx *mapctx.Context) (any, int, error) {
	consumed, _ := ctx.Get(structOffsetKey)

	n, _ := consumed.(int64)

	pad := p.alignment - int(n%int64(p.alignment))
	if pad == p.alignment {
		pad = 0
	}

	if offset+pad > len(data) {
		return nil, 0, dterr.NewAt(dterr.KindByteStreamTooSmall, "", "", offset,
			"need %d padding byte(s), have %d", pad, len(data)-offset)
	}

	return nil, pad, nil
}
