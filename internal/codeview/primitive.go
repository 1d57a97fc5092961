// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package codeview

// PrimitiveKind enumerates the CodeView "simple type" base kinds
// (the low byte of a type index below FirstUserIndex).
type PrimitiveKind uint16

// Simple-type base kinds, using the raw CV_builtin_e values.
const (
	PrimitiveNoType  PrimitiveKind = 0x0000
	PrimitiveVoid    PrimitiveKind = 0x0003
	PrimitiveHRESULT PrimitiveKind = 0x0008
	PrimitiveChar    PrimitiveKind = 0x0010
	PrimitiveShort   PrimitiveKind = 0x0011
	PrimitiveLong    PrimitiveKind = 0x0012
	PrimitiveQuad    PrimitiveKind = 0x0013
	PrimitiveUChar   PrimitiveKind = 0x0020
	PrimitiveUShort  PrimitiveKind = 0x0021
	PrimitiveULong   PrimitiveKind = 0x0022
	PrimitiveUQuad   PrimitiveKind = 0x0023
	PrimitiveBool8   PrimitiveKind = 0x0030
	PrimitiveBool32  PrimitiveKind = 0x0032
	PrimitiveReal32  PrimitiveKind = 0x0040
	PrimitiveReal64  PrimitiveKind = 0x0041
	PrimitiveReal80  PrimitiveKind = 0x0042
	PrimitiveRChar   PrimitiveKind = 0x0070 // signed char
	PrimitiveWChar   PrimitiveKind = 0x0071
	PrimitiveInt2    PrimitiveKind = 0x0072 // int16_t
	PrimitiveUInt2   PrimitiveKind = 0x0073 // uint16_t
	PrimitiveInt4    PrimitiveKind = 0x0074 // int32_t
	PrimitiveUInt4   PrimitiveKind = 0x0075 // uint32_t
	PrimitiveInt8    PrimitiveKind = 0x0076 // int64_t
	PrimitiveUInt8   PrimitiveKind = 0x0077 // uint64_t
	PrimitiveInt1    PrimitiveKind = 0x0068 // int8_t
	PrimitiveUInt1   PrimitiveKind = 0x0069 // uint8_t
	PrimitiveChar16  PrimitiveKind = 0x007a
	PrimitiveChar32  PrimitiveKind = 0x007b
)

// decodeSimpleTypeIndex splits a simple type index (ti < FirstUserIndex)
// into its base kind and, if the high bits encode a pointer mode, the
// pointer addressing kind.
func decodeSimpleTypeIndex(ti TypeIndex) (kind PrimitiveKind, indirect bool, ptrKind PointerKind) {
	mode := (ti >> 8) & 0x7
	sub := PrimitiveKind(ti & 0xff)
	if mode == 0 {
		return sub, false, 0
	}
	var pk PointerKind
	switch mode {
	case 1:
		pk = PointerNear16
	case 2:
		pk = PointerFar16
	case 3:
		pk = PointerHuge16
	case 4:
		pk = PointerNear32
	case 5:
		pk = PointerFar32
	case 6:
		pk = PointerNear64
	case 7:
		pk = PointerNear128
	}
	return sub, true, pk
}

// SizeOf returns the byte size of a primitive kind, independent of any
// pointer indirection.
func (k PrimitiveKind) SizeOf() uint64 {
	switch k {
	case PrimitiveNoType:
		return 0
	case PrimitiveVoid:
		return 0
	case PrimitiveChar, PrimitiveUChar, PrimitiveRChar, PrimitiveBool8,
		PrimitiveInt1, PrimitiveUInt1:
		return 1
	case PrimitiveShort, PrimitiveUShort, PrimitiveWChar,
		PrimitiveInt2, PrimitiveUInt2, PrimitiveChar16:
		return 2
	case PrimitiveLong, PrimitiveULong, PrimitiveBool32,
		PrimitiveInt4, PrimitiveUInt4, PrimitiveChar32,
		PrimitiveReal32, PrimitiveHRESULT:
		return 4
	case PrimitiveQuad, PrimitiveUQuad, PrimitiveInt8, PrimitiveUInt8,
		PrimitiveReal64:
		return 8
	case PrimitiveReal80:
		return 10
	default:
		return 0
	}
}
