// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package pdbtypes reconstructs C++ source text from the CodeView type
// records decoded by internal/codeview: primitive spelling, recursive
// type naming, field-list walking, class/union/enumeration aggregate
// building, anonymous-aggregate inference, and final text emission.
package pdbtypes

import (
	"fmt"

	"github.com/resymgo/resym/internal/codeview"
)

// Flavor selects a primitive-type spelling convention.
type Flavor int

// Flavors.
const (
	FlavorPortable Flavor = iota
	FlavorMicrosoft
	FlavorRaw
)

func (f Flavor) String() string {
	switch f {
	case FlavorPortable:
		return "portable"
	case FlavorMicrosoft:
		return "microsoft"
	case FlavorRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// ParseFlavor parses a CLI-supplied flavor name. Unrecognized input
// surfaces as ErrParsePrimitiveFlavor.
func ParseFlavor(s string) (Flavor, error) {
	switch s {
	case "portable":
		return FlavorPortable, nil
	case "microsoft", "ms":
		return FlavorMicrosoft, nil
	case "raw":
		return FlavorRaw, nil
	default:
		return 0, newError(ErrParsePrimitiveFlavor, fmt.Sprintf("unknown primitive flavor %q", s))
	}
}

// primitiveSpelling holds, per primitive kind, the three flavors'
// non-pointer spelling and (when the flavor has a dedicated pointer
// alias, as Microsoft's P-prefixed typedefs do) the pointer spelling.
type primitiveSpelling struct {
	portable, portablePtr string
	ms, msPtr             string
	raw, rawPtr           string
}

var primitiveTable = map[codeview.PrimitiveKind]primitiveSpelling{
	codeview.PrimitiveVoid:    {"void", "", "VOID", "PVOID", "void", ""},
	codeview.PrimitiveHRESULT: {"int32_t", "", "HRESULT", "", "long", ""},
	codeview.PrimitiveChar:    {"char", "", "CHAR", "PCHAR", "char", ""},
	codeview.PrimitiveUChar:   {"unsigned char", "", "UCHAR", "PUCHAR", "unsigned char", ""},
	codeview.PrimitiveRChar:   {"char", "", "CHAR", "PCHAR", "char", ""},
	codeview.PrimitiveWChar:   {"wchar_t", "", "WCHAR", "PWCHAR", "wchar_t", ""},
	codeview.PrimitiveShort:   {"int16_t", "", "SHORT", "PSHORT", "short", ""},
	codeview.PrimitiveUShort:  {"uint16_t", "", "USHORT", "PUSHORT", "unsigned short", ""},
	codeview.PrimitiveLong:    {"int32_t", "", "LONG", "PLONG", "long", ""},
	codeview.PrimitiveULong:   {"uint32_t", "", "ULONG", "PULONG", "unsigned long", ""},
	codeview.PrimitiveQuad:    {"int64_t", "", "LONGLONG", "PLONGLONG", "__int64", ""},
	codeview.PrimitiveUQuad:   {"uint64_t", "", "ULONGLONG", "PULONGLONG", "unsigned __int64", ""},
	codeview.PrimitiveBool8:   {"bool", "", "BOOLEAN", "PBOOLEAN", "bool", ""},
	codeview.PrimitiveBool32:  {"int32_t", "", "BOOL", "PBOOL", "long", ""},
	codeview.PrimitiveReal32:  {"float", "", "FLOAT", "PFLOAT", "float", ""},
	codeview.PrimitiveReal64:  {"double", "", "DOUBLE", "", "double", ""},
	codeview.PrimitiveReal80:  {"long double", "", "DOUBLE", "", "long double", ""},
	codeview.PrimitiveInt1:    {"int8_t", "", "CHAR", "PCHAR", "char", ""},
	codeview.PrimitiveUInt1:   {"uint8_t", "", "UCHAR", "PUCHAR", "unsigned char", ""},
	codeview.PrimitiveInt2:    {"int16_t", "", "SHORT", "PSHORT", "short", ""},
	codeview.PrimitiveUInt2:   {"uint16_t", "", "USHORT", "PUSHORT", "unsigned short", ""},
	codeview.PrimitiveInt4:    {"int32_t", "", "LONG", "PLONG", "long", ""},
	codeview.PrimitiveUInt4:   {"uint32_t", "", "ULONG", "PULONG", "unsigned long", ""},
	codeview.PrimitiveInt8:    {"int64_t", "", "LONGLONG", "PLONGLONG", "__int64", ""},
	codeview.PrimitiveUInt8:   {"uint64_t", "", "ULONGLONG", "PULONGLONG", "unsigned __int64", ""},
	codeview.PrimitiveChar16:  {"char16_t", "", "char16_t", "", "char16_t", ""},
	codeview.PrimitiveChar32:  {"char32_t", "", "char32_t", "", "char32_t", ""},
}

// spellPrimitive renders p under flavor, returning a (left, right)
// split like every other Type Namer production (right is always empty
// for primitives; pointers attach to the left).
func spellPrimitive(flavor Flavor, p codeview.Primitive) (left, right string, err error) {
	if p.Kind == codeview.PrimitiveNoType {
		return "...", "", nil
	}

	entry, ok := primitiveTable[p.Kind]
	if !ok {
		return "", "", newError(ErrNotImplemented, fmt.Sprintf("primitive kind 0x%x", uint16(p.Kind)))
	}

	base, ptrAlias := flavorSpelling(flavor, entry)
	if !p.Indirect {
		return base, "", nil
	}
	if ptrAlias != "" {
		return ptrAlias, "", nil
	}
	return base + "*", "", nil
}

func flavorSpelling(flavor Flavor, e primitiveSpelling) (base, ptrAlias string) {
	switch flavor {
	case FlavorMicrosoft:
		return e.ms, e.msPtr
	case FlavorRaw:
		return e.raw, e.rawPtr
	default:
		return e.portable, e.portablePtr
	}
}

// primitiveSizeOf mirrors codeview.PrimitiveKind.SizeOf but is exposed
// here because the namer consults it while computing array dimensions
// independent of the value's flavor.
func primitiveSizeOf(p codeview.Primitive) uint64 {
	if p.Indirect {
		return p.Indirection.Size()
	}
	return p.Kind.SizeOf()
}
