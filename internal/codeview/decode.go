// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package codeview

import (
	"fmt"

	"github.com/resymgo/resym/internal/binutil"
)

// cursor is a small sequential-read helper over a binutil.Reader,
// analogous to helper.go's structUnpack/ReadUint* pattern but advancing
// its own offset as it goes, since CodeView records are variable-length
// and self-describing rather than fixed C structs.
type cursor struct {
	r   *binutil.Reader
	off uint32
}

func (c *cursor) u8() (uint8, error) {
	v, err := c.r.ReadUint8(c.off)
	if err != nil {
		return 0, err
	}
	c.off++
	return v, nil
}

func (c *cursor) u16() (uint16, error) {
	v, err := c.r.ReadUint16(c.off)
	if err != nil {
		return 0, err
	}
	c.off += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	v, err := c.r.ReadUint32(c.off)
	if err != nil {
		return 0, err
	}
	c.off += 4
	return v, nil
}

func (c *cursor) typeIndex() (TypeIndex, error) {
	v, err := c.u32()
	return TypeIndex(v), err
}

func (c *cursor) numeric() (Variant, error) {
	v, next, err := decodeNumeric(c.r, c.off)
	if err != nil {
		return Variant{}, err
	}
	c.off = next
	return v, nil
}

func (c *cursor) cstring() (RawString, error) {
	s, next, err := c.r.CString(c.off)
	if err != nil {
		return "", err
	}
	c.off = next
	return RawString(s), nil
}

func (c *cursor) skip(n uint32) { c.off += n }

func (c *cursor) remaining(end uint32) uint32 {
	if c.off >= end {
		return 0
	}
	return end - c.off
}

// decodeRecord decodes one top-level TPI record (everything but field
// entries, which decodeFieldEntries handles) whose payload spans
// [c.off, end).
func decodeRecord(kind leafKind, c *cursor, end uint32) (TypeData, error) {
	switch kind {
	case leafModifier:
		underlying, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		attr, err := c.u16()
		if err != nil {
			return nil, err
		}
		return Modifier{
			UnderlyingType: underlying,
			Constant:       attr&0x1 != 0,
			Volatile:       attr&0x2 != 0,
			Unaligned:      attr&0x4 != 0,
		}, nil

	case leafPointer:
		underlying, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		attr, err := c.u32()
		if err != nil {
			return nil, err
		}
		return Pointer{
			UnderlyingType: underlying,
			Kind:           PointerKind(attr & 0x1f),
			Mode:           PointerMode((attr >> 5) & 0x7),
			IsConst:        (attr>>10)&1 != 0,
			IsVolatile:     (attr>>9)&1 != 0,
		}, nil

	case leafArray:
		elem, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		idx, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		size, err := c.numeric()
		if err != nil {
			return nil, err
		}
		name, err := c.cstring()
		if err != nil {
			return nil, err
		}
		return Array{ElementType: elem, IndexingType: idx, Size: size.Uint64(), Name: name}, nil

	case leafBitfield:
		underlying, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		length, err := c.u8()
		if err != nil {
			return nil, err
		}
		position, err := c.u8()
		if err != nil {
			return nil, err
		}
		return Bitfield{UnderlyingType: underlying, Length: length, Position: position}, nil

	case leafProcedure:
		ret, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		c.skip(2) // calling convention + function attributes
		paramCount, err := c.u16()
		if err != nil {
			return nil, err
		}
		argList, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		return Procedure{ReturnType: ret, ParameterCount: paramCount, ArgumentList: argList}, nil

	case leafMFunction:
		ret, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		classType, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		thisType, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		c.skip(1) // calling convention (CV_call_e), unused by reconstruction
		funcAttr, err := c.u8()
		if err != nil {
			return nil, err
		}
		paramCount, err := c.u16()
		if err != nil {
			return nil, err
		}
		argList, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		adjustment, err := c.u32()
		if err != nil {
			return nil, err
		}
		return MemberFunction{
			ReturnType:      ret,
			ClassType:       classType,
			ThisPointerType: thisType,
			ParameterCount:  paramCount,
			ArgumentList:    argList,
			ThisAdjustment:  adjustment,
			FuncAttr:        FunctionAttributes(funcAttr),
		}, nil

	case leafArgList:
		count, err := c.u32()
		if err != nil {
			return nil, err
		}
		args := make([]TypeIndex, 0, count)
		for i := uint32(0); i < count; i++ {
			ti, err := c.typeIndex()
			if err != nil {
				return nil, err
			}
			args = append(args, ti)
		}
		return ArgumentList{Arguments: args}, nil

	case leafMethodList:
		var entries []MethodListEntry
		for c.off+8 <= end {
			attr, err := c.u16()
			if err != nil {
				return nil, err
			}
			c.skip(2) // padding
			mtype, err := c.typeIndex()
			if err != nil {
				return nil, err
			}
			entry := MethodListEntry{Attributes: FieldAttributes(attr), MethodType: mtype}
			if FieldAttributes(attr).IsIntroVirtual() && c.off+4 <= end {
				off, err := c.u32()
				if err != nil {
					return nil, err
				}
				entry.VTableOffset = &off
			}
			entries = append(entries, entry)
		}
		return MethodList{Methods: entries}, nil

	case leafClass, leafStructure, leafInterface:
		count, err := c.u16()
		if err != nil {
			return nil, err
		}
		_ = count
		props, err := c.u16()
		if err != nil {
			return nil, err
		}
		fieldList, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		derivedFrom, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		vtShape, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		size, err := c.numeric()
		if err != nil {
			return nil, err
		}
		name, err := c.cstring()
		if err != nil {
			return nil, err
		}
		class := Class{
			Properties:  Properties(props),
			FieldList:   fieldList,
			DerivedFrom: derivedFrom,
			VTableShape: vtShape,
			Size:        size.Uint64(),
			Name:        name,
		}
		switch kind {
		case leafStructure:
			class.Kind = ClassKindStruct
		case leafInterface:
			class.Kind = ClassKindInterface
		default:
			class.Kind = ClassKindClass
		}
		if class.Properties.HasUniqueName() && c.off < end {
			uniq, err := c.cstring()
			if err == nil {
				class.UniqueName = &uniq
			}
		}
		return class, nil

	case leafUnion:
		count, err := c.u16()
		if err != nil {
			return nil, err
		}
		_ = count
		props, err := c.u16()
		if err != nil {
			return nil, err
		}
		fieldList, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		size, err := c.numeric()
		if err != nil {
			return nil, err
		}
		name, err := c.cstring()
		if err != nil {
			return nil, err
		}
		union := Union{
			Properties: Properties(props),
			FieldList:  fieldList,
			Size:       size.Uint64(),
			Name:       name,
		}
		if union.Properties.HasUniqueName() && c.off < end {
			uniq, err := c.cstring()
			if err == nil {
				union.UniqueName = &uniq
			}
		}
		return union, nil

	case leafEnum:
		count, err := c.u16()
		if err != nil {
			return nil, err
		}
		_ = count
		props, err := c.u16()
		if err != nil {
			return nil, err
		}
		underlying, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		fieldList, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		name, err := c.cstring()
		if err != nil {
			return nil, err
		}
		enum := Enumeration{
			Properties:     Properties(props),
			UnderlyingType: underlying,
			FieldList:      fieldList,
			Name:           name,
		}
		if enum.Properties.HasUniqueName() && c.off < end {
			uniq, err := c.cstring()
			if err == nil {
				enum.UniqueName = &uniq
			}
		}
		return enum, nil

	case leafFieldList:
		fields, continuation, err := decodeFieldEntries(c, end)
		if err != nil {
			return nil, err
		}
		return FieldList{Fields: fields, Continuation: continuation}, nil

	default:
		return nil, fmt.Errorf("codeview: unsupported leaf kind 0x%04x", uint16(kind))
	}
}

// decodeFieldEntries decodes every field-list entry in [c.off, end),
// returning the continuation index (Default if none) separately.
func decodeFieldEntries(c *cursor, end uint32) ([]TypeData, TypeIndex, error) {
	var fields []TypeData
	continuation := Default
	for c.off < end {
		// Entries are aligned to 4 bytes with LF_PAD runs: a byte
		// 0xF0+n means n bytes of padding remain, counting itself.
		if err := skipPadding(c, end); err != nil {
			return nil, Default, err
		}
		if c.off+2 > end {
			break
		}
		kindRaw, err := c.r.ReadUint16(c.off)
		if err != nil {
			return nil, Default, err
		}
		c.off += 2
		kind := leafKind(kindRaw)
		entry, err := decodeFieldEntry(kind, c, end)
		if err != nil {
			return nil, Default, err
		}
		if kind == leafIndex {
			continuation = entry.(Nested).NestedType
			continue
		}
		fields = append(fields, entry)
	}
	return fields, continuation, nil
}

// skipPadding consumes an LF_PAD run at c.off, if any. A pad byte's low
// nibble is the number of bytes left in the run including itself, so a
// well-formed run is a single hop; the loop tolerates back-to-back runs.
func skipPadding(c *cursor, end uint32) error {
	for c.off < end {
		b, err := c.r.ReadUint8(c.off)
		if err != nil {
			return err
		}
		if b < 0xf0 {
			return nil
		}
		n := uint32(b & 0x0f)
		if n == 0 {
			n = 1
		}
		c.off += n
	}
	return nil
}

func decodeFieldEntry(kind leafKind, c *cursor, end uint32) (TypeData, error) {
	switch kind {
	case leafMember:
		attr, err := c.u16()
		if err != nil {
			return nil, err
		}
		fieldType, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		offset, err := c.numeric()
		if err != nil {
			return nil, err
		}
		name, err := c.cstring()
		if err != nil {
			return nil, err
		}
		return Member{Attributes: FieldAttributes(attr), FieldType: fieldType, Offset: offset.Uint64(), Name: name}, nil

	case leafSTMember:
		attr, err := c.u16()
		if err != nil {
			return nil, err
		}
		fieldType, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		name, err := c.cstring()
		if err != nil {
			return nil, err
		}
		return StaticMember{Attributes: FieldAttributes(attr), FieldType: fieldType, Name: name}, nil

	case leafOneMethod:
		attr, err := c.u16()
		if err != nil {
			return nil, err
		}
		methodType, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		fa := FieldAttributes(attr)
		var vtableOffset *uint32
		if fa.IsIntroVirtual() {
			off, err := c.u32()
			if err != nil {
				return nil, err
			}
			vtableOffset = &off
		}
		name, err := c.cstring()
		if err != nil {
			return nil, err
		}
		return Method{Attributes: fa, MethodType: methodType, VTableOffset: vtableOffset, Name: name}, nil

	case leafMethod:
		count, err := c.u16()
		if err != nil {
			return nil, err
		}
		methodList, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		name, err := c.cstring()
		if err != nil {
			return nil, err
		}
		return OverloadedMethod{Count: count, MethodList: methodList, Name: name}, nil

	case leafBClass:
		attr, err := c.u16()
		if err != nil {
			return nil, err
		}
		baseType, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		offset, err := c.numeric()
		if err != nil {
			return nil, err
		}
		return BaseClass{Attributes: FieldAttributes(attr), BaseType: baseType, Offset: offset.Uint64()}, nil

	case leafVBClass, leafIVBClass:
		attr, err := c.u16()
		if err != nil {
			return nil, err
		}
		baseType, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		basePtrType, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		basePtrOffset, err := c.numeric()
		if err != nil {
			return nil, err
		}
		virtualBaseOffset, err := c.numeric()
		if err != nil {
			return nil, err
		}
		return VirtualBaseClass{
			Attributes:        FieldAttributes(attr),
			BaseType:          baseType,
			BasePointerType:   basePtrType,
			BasePointerOffset: basePtrOffset.Uint64(),
			VirtualBaseOffset: virtualBaseOffset.Uint64(),
		}, nil

	case leafVFuncTab:
		c.skip(2) // padding
		ty, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		return VirtualFunctionTablePointer{Type: ty}, nil

	case leafNestType:
		c.skip(2) // padding
		ty, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		name, err := c.cstring()
		if err != nil {
			return nil, err
		}
		return Nested{Name: name, NestedType: ty}, nil

	case leafNestTypeEx:
		c.skip(2) // attributes (unused by reconstruction)
		ty, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		name, err := c.cstring()
		if err != nil {
			return nil, err
		}
		return Nested{Name: name, NestedType: ty}, nil

	case leafEnumerate:
		attr, err := c.u16()
		if err != nil {
			return nil, err
		}
		value, err := c.numeric()
		if err != nil {
			return nil, err
		}
		name, err := c.cstring()
		if err != nil {
			return nil, err
		}
		return Enumerate{Attributes: FieldAttributes(attr), Value: value, Name: name}, nil

	case leafIndex:
		c.skip(2) // padding
		ty, err := c.typeIndex()
		if err != nil {
			return nil, err
		}
		// Reuse Nested purely as a carrier; decodeFieldEntries special-cases
		// leafIndex and never surfaces it as a real field.
		return Nested{NestedType: ty}, nil

	default:
		return nil, fmt.Errorf("codeview: unsupported field-list entry kind 0x%04x", uint16(kind))
	}
}
