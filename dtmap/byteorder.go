package dtmap

import (
	"encoding/binary"

	"dtfabric/definitions"
)

// resolveByteOrder resolves a schema byte order to a concrete
// encoding/binary.ByteOrder, deferring to the host's native order exactly
// once: binary.NativeEndian is itself a fixed singleton picked by the Go
// runtime at compile time, so there is nothing further to memoize here.
func resolveByteOrder(b definitions.ByteOrder) binary.ByteOrder {
	switch b {
	case definitions.ByteOrderBigEndian:
		return binary.BigEndian
	case definitions.ByteOrderLittleEndian:
		return binary.LittleEndian
	default:
		return binary.NativeEndian
	}
}

// isLittleEndian reports whether order lays out bytes least-significant
// first, used by the UUID/GUID field decode to choose the mixed-endian GUID
// layout versus the plain big-endian RFC 4122 layout.
func isLittleEndian(order binary.ByteOrder) bool {
	var probe [2]byte
	order.PutUint16(probe[:], 0x0102)

	return probe[0] == 0x02
}
