// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package codeview

import "github.com/resymgo/resym/internal/binutil"

// Numeric-leaf prefix kinds (CV_NUMERIC_e). Values >= leafChar signal
// that what follows is a typed numeric literal rather than a bare
// uint16 value.
const (
	leafChar     = 0x8000
	leafShort    = 0x8001
	leafUShort   = 0x8002
	leafLong     = 0x8003
	leafULong    = 0x8004
	leafQuad     = 0x8009
	leafUQuad    = 0x800a
)

// decodeNumeric reads a CodeView "numeric leaf" value at off: either a
// bare uint16 (< 0x8000) or a leaf-kind-prefixed typed literal. It
// returns the decoded Variant and the offset of the first byte after
// the value.
func decodeNumeric(r *binutil.Reader, off uint32) (Variant, uint32, error) {
	tag, err := r.ReadUint16(off)
	if err != nil {
		return Variant{}, off, err
	}
	if tag < leafChar {
		return NewVariantUnsigned(VariantU16, uint64(tag)), off + 2, nil
	}

	off += 2
	switch tag {
	case leafChar:
		v, err := r.ReadUint8(off)
		if err != nil {
			return Variant{}, off, err
		}
		return NewVariantSigned(VariantI8, int64(int8(v))), off + 1, nil
	case leafShort:
		v, err := r.ReadUint16(off)
		if err != nil {
			return Variant{}, off, err
		}
		return NewVariantSigned(VariantI16, int64(int16(v))), off + 2, nil
	case leafUShort:
		v, err := r.ReadUint16(off)
		if err != nil {
			return Variant{}, off, err
		}
		return NewVariantUnsigned(VariantU16, uint64(v)), off + 2, nil
	case leafLong:
		v, err := r.ReadUint32(off)
		if err != nil {
			return Variant{}, off, err
		}
		return NewVariantSigned(VariantI32, int64(int32(v))), off + 4, nil
	case leafULong:
		v, err := r.ReadUint32(off)
		if err != nil {
			return Variant{}, off, err
		}
		return NewVariantUnsigned(VariantU32, uint64(v)), off + 4, nil
	case leafQuad:
		v, err := r.ReadUint64(off)
		if err != nil {
			return Variant{}, off, err
		}
		return NewVariantSigned(VariantI64, int64(v)), off + 8, nil
	case leafUQuad:
		v, err := r.ReadUint64(off)
		if err != nil {
			return Variant{}, off, err
		}
		return NewVariantUnsigned(VariantU64, v), off + 8, nil
	default:
		// Floating point and other exotic numeric leaves never appear
		// as enum values, array dimensions, or member offsets; treat
		// as an 4-byte opaque skip so the stream stays in sync.
		return NewVariantUnsigned(VariantU32, 0), off + 4, nil
	}
}
