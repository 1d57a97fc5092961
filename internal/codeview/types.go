// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package codeview decodes CodeView type-information records out of a
// PDB's TPI stream: Class, Union, Enumeration, Enumerate, Pointer,
// Array, Bitfield, Modifier, Procedure, MemberFunction, ArgumentList,
// FieldList (with continuation), Member, StaticMember, Method,
// OverloadedMethod, MethodList, BaseClass, VirtualBaseClass,
// VirtualFunctionTablePointer, Nested, and the simple/primitive type
// indices.
package codeview

import "fmt"

// TypeIndex is an opaque 32-bit identifier into the PDB type stream.
// The zero value is the DEFAULT/absent sentinel.
type TypeIndex uint32

// Default is the sentinel TypeIndex meaning "absent / not found".
const Default TypeIndex = 0

// FirstUserIndex is the smallest type index that refers to a record in
// the stream rather than to a simple/primitive type.
const FirstUserIndex TypeIndex = 0x1000

// RawString is a CodeView NUL-delimited string as read off the wire.
// It behaves like a plain string; the wrapper marks values that came
// straight from the stream and may still need canonicalization.
type RawString string

func (s RawString) String() string { return string(s) }

// VariantKind tags the representation of a Variant.
type VariantKind int

// Variant kinds.
const (
	VariantU8 VariantKind = iota
	VariantU16
	VariantU32
	VariantU64
	VariantI8
	VariantI16
	VariantI32
	VariantI64
)

// Variant is a numeric leaf value (an enumerator's value, a base-class
// offset, an array dimension, ...), tagged with its storage kind so
// callers can render it as hex or decimal correctly.
type Variant struct {
	Kind VariantKind
	bits uint64
}

// NewVariantUnsigned builds an unsigned Variant tagged with the
// caller-specified kind, storing v unchanged.
func NewVariantUnsigned(kind VariantKind, v uint64) Variant {
	return Variant{Kind: kind, bits: v}
}

// NewVariantSigned builds a signed Variant, storing the bit pattern.
func NewVariantSigned(kind VariantKind, v int64) Variant {
	return Variant{Kind: kind, bits: uint64(v)}
}

// Uint64 returns the value's bit pattern reinterpreted as unsigned.
func (v Variant) Uint64() uint64 { return v.bits }

// Int64 returns the value reinterpreted as signed, sign-extended from
// the Variant's declared width.
func (v Variant) Int64() int64 {
	switch v.Kind {
	case VariantI8:
		return int64(int8(v.bits))
	case VariantI16:
		return int64(int16(v.bits))
	case VariantI32:
		return int64(int32(v.bits))
	default:
		return int64(v.bits)
	}
}

// IsSigned reports whether this Variant's kind is one of the signed tags.
func (v Variant) IsSigned() bool {
	switch v.Kind {
	case VariantI8, VariantI16, VariantI32, VariantI64:
		return true
	default:
		return false
	}
}

func (v Variant) String() string {
	if v.IsSigned() {
		return fmt.Sprintf("%d", v.Int64())
	}
	return fmt.Sprintf("%d", v.Uint64())
}

// FieldAccess is the member-access specifier recovered from a field
// attribute bitfield.
type FieldAccess uint8

// Access specifiers, matching the raw CodeView attribute encoding.
const (
	AccessNone FieldAccess = iota
	AccessPrivate
	AccessProtected
	AccessPublic
)

// FieldAttributes is the raw CV_fldattr_t bitfield attached to Member,
// Method, BaseClass, and related field-list entries.
type FieldAttributes uint16

// Access returns the member's access specifier.
func (a FieldAttributes) Access() FieldAccess { return FieldAccess(a & 0x3) }

// MethodProperty is the 3-bit "method properties" sub-field of
// FieldAttributes (bits 2-4), distinguishing plain/virtual/static/etc.
type MethodProperty uint8

// Method properties.
const (
	MethodVanilla MethodProperty = iota
	MethodVirtual
	MethodStatic
	MethodFriend
	MethodIntro
	MethodPureVirtual
	MethodPureIntro
)

func (a FieldAttributes) methodProperty() MethodProperty {
	return MethodProperty((a >> 2) & 0x7)
}

// IsStatic reports the static-method bit.
func (a FieldAttributes) IsStatic() bool { return a.methodProperty() == MethodStatic }

// IsVirtual reports whether the member/method is any flavor of virtual.
func (a FieldAttributes) IsVirtual() bool {
	switch a.methodProperty() {
	case MethodVirtual, MethodIntro, MethodPureVirtual, MethodPureIntro:
		return true
	default:
		return false
	}
}

// IsPureVirtual reports whether the method is pure (`= 0`).
func (a FieldAttributes) IsPureVirtual() bool {
	switch a.methodProperty() {
	case MethodPureVirtual, MethodPureIntro:
		return true
	default:
		return false
	}
}

// IsIntroVirtual reports whether this is the first appearance of a
// virtual method in the class (an "introducing" virtual).
func (a FieldAttributes) IsIntroVirtual() bool {
	switch a.methodProperty() {
	case MethodIntro, MethodPureIntro:
		return true
	default:
		return false
	}
}

// Properties is the raw CV_prop_t bitfield attached to Class, Union,
// and Enumeration records.
type Properties uint16

// ForwardReference reports whether this record is an incomplete
// (forward-declared) type, deferring its full definition elsewhere in
// the stream.
func (p Properties) ForwardReference() bool { return p&0x80 != 0 }

// HasUniqueName reports whether a decorated/mangled unique name
// trails the display name on the wire.
func (p Properties) HasUniqueName() bool { return p&0x200 != 0 }

// ClassKind distinguishes class/struct/interface records sharing the
// same underlying layout.
type ClassKind int

// Class kinds.
const (
	ClassKindClass ClassKind = iota
	ClassKindStruct
	ClassKindInterface
)

func (k ClassKind) String() string {
	switch k {
	case ClassKindClass:
		return "class"
	case ClassKindStruct:
		return "struct"
	case ClassKindInterface:
		return "interface"
	default:
		return "class"
	}
}

// PointerMode distinguishes plain pointers from references and
// pointer-to-member forms.
type PointerMode int

// Pointer modes. Values match the raw CV_ptrmode encoding stored in
// an LF_POINTER record's attribute word.
const (
	PointerModePointer         PointerMode = 0x0
	PointerModeLValueReference PointerMode = 0x1
	PointerModeMember          PointerMode = 0x2
	PointerModeMemberFunction  PointerMode = 0x3
	PointerModeRValueReference PointerMode = 0x4
)

// PointerKind encodes the addressing form (and therefore the byte size)
// of a Pointer record, independent of its pointee.
type PointerKind int

// Pointer kinds, each with a fixed byte size. Values match the raw
// CV_ptrtype encoding stored in an LF_POINTER record's attribute word.
const (
	PointerNear16  PointerKind = 0x00
	PointerFar16   PointerKind = 0x01
	PointerHuge16  PointerKind = 0x02
	PointerNear32  PointerKind = 0x0a
	PointerFar32   PointerKind = 0x0b
	PointerNear64  PointerKind = 0x0c
	PointerNear128 PointerKind = 0x0d
)

// Size returns the pointer's byte size for this addressing kind.
func (k PointerKind) Size() uint64 {
	switch k {
	case PointerNear16, PointerFar16, PointerHuge16:
		return 2
	case PointerNear32, PointerFar32:
		return 4
	case PointerNear64:
		return 8
	case PointerNear128:
		return 16
	default:
		return 8
	}
}

// TypeData is the sum type every decoded type or field-list entry
// implements. Concrete members are all listed in this file.
type TypeData interface {
	isTypeData()
}

// ---- Aggregate-defining leaves -------------------------------------

// Class is the LF_CLASS/LF_STRUCTURE/LF_INTERFACE leaf.
type Class struct {
	Kind        ClassKind
	Properties  Properties
	FieldList   TypeIndex // Default if absent (e.g. forward reference)
	DerivedFrom TypeIndex
	VTableShape TypeIndex
	Size        uint64
	Name        RawString
	UniqueName  *RawString
}

func (Class) isTypeData() {}

// Union is the LF_UNION leaf.
type Union struct {
	Properties Properties
	FieldList  TypeIndex
	Size       uint64
	Name       RawString
	UniqueName *RawString
}

func (Union) isTypeData() {}

// Enumeration is the LF_ENUM leaf.
type Enumeration struct {
	Properties     Properties
	UnderlyingType TypeIndex
	FieldList      TypeIndex
	Name           RawString
	UniqueName     *RawString
}

func (Enumeration) isTypeData() {}

// Enumerate is one entry of an enumeration's field list (LF_ENUMERATE).
type Enumerate struct {
	Attributes FieldAttributes
	Value      Variant
	Name       RawString
}

func (Enumerate) isTypeData() {}

// ---- Type-composition leaves ----------------------------------------

// Pointer is the LF_POINTER leaf.
type Pointer struct {
	UnderlyingType TypeIndex
	Mode           PointerMode
	Kind           PointerKind
	IsConst        bool
	IsVolatile     bool
}

func (Pointer) isTypeData() {}

// Modifier is the LF_MODIFIER leaf (const/volatile/unaligned).
type Modifier struct {
	UnderlyingType TypeIndex
	Constant       bool
	Volatile       bool
	Unaligned      bool
}

func (Modifier) isTypeData() {}

// Array is a single LF_ARRAY leaf. A CodeView record carries exactly
// one dimension (its own cumulative byte size); multi-dimensional
// arrays are represented on the wire as arrays-of-arrays, chained
// through ElementType. The type namer (pdbtypes) walks that chain to
// build the full per-level dimensions list.
type Array struct {
	ElementType  TypeIndex
	IndexingType TypeIndex
	Size         uint64 // cumulative byte size of this array level
	Name         RawString
}

func (Array) isTypeData() {}

// Bitfield is the LF_BITFIELD leaf.
type Bitfield struct {
	UnderlyingType TypeIndex
	Length         uint8
	Position       uint8
}

func (Bitfield) isTypeData() {}

// Procedure is the LF_PROCEDURE leaf (a free-function signature).
type Procedure struct {
	ReturnType     TypeIndex
	ParameterCount uint16
	ArgumentList   TypeIndex
}

func (Procedure) isTypeData() {}

// FunctionAttributes is the raw CV_funcattr_t byte attached to an
// LF_MFUNCTION/LF_PROCEDURE record, carrying the constructor/
// constructor-with-virtual-bases and cxx-return-UDT flags.
type FunctionAttributes uint8

// Function-attribute bits (CV_funcattr_t).
const (
	FuncAttrCxxReturnUDT     FunctionAttributes = 1 << 0
	FuncAttrConstructor      FunctionAttributes = 1 << 1
	FuncAttrConstructorVBase FunctionAttributes = 1 << 2
)

// IsConstructor reports whether the function attributes mark this
// member function as a constructor (plain or with virtual bases).
func (a FunctionAttributes) IsConstructor() bool {
	return a&(FuncAttrConstructor|FuncAttrConstructorVBase) != 0
}

// MemberFunction is the LF_MFUNCTION leaf.
type MemberFunction struct {
	ReturnType      TypeIndex
	ClassType       TypeIndex
	ThisPointerType TypeIndex
	ParameterCount  uint16
	ArgumentList    TypeIndex
	ThisAdjustment  uint32
	FuncAttr        FunctionAttributes
}

func (MemberFunction) isTypeData() {}

// ArgumentList is the LF_ARGLIST leaf.
type ArgumentList struct {
	Arguments []TypeIndex
}

func (ArgumentList) isTypeData() {}

// Primitive is a "simple type" index (< FirstUserIndex), decoded in
// primitive.go, rather than a full leaf record.
type Primitive struct {
	Kind        PrimitiveKind
	Indirect    bool
	Indirection PointerKind
}

func (Primitive) isTypeData() {}

// ---- Field-list and its entries --------------------------------------

// FieldList is the LF_FIELDLIST leaf: an inline run of field entries
// plus an optional continuation index when the list spills past one
// record.
type FieldList struct {
	Fields       []TypeData
	Continuation TypeIndex
}

func (FieldList) isTypeData() {}

// Member is an LF_MEMBER field-list entry (a data member).
type Member struct {
	Attributes FieldAttributes
	FieldType  TypeIndex
	Offset     uint64
	Name       RawString
}

func (Member) isTypeData() {}

// StaticMember is an LF_STMEMBER field-list entry.
type StaticMember struct {
	Attributes FieldAttributes
	FieldType  TypeIndex
	Name       RawString
}

func (StaticMember) isTypeData() {}

// Method is an LF_ONEMETHOD field-list entry (a single overload); an
// LF_METHOD entry decodes to OverloadedMethod instead.
type Method struct {
	Attributes   FieldAttributes
	MethodType   TypeIndex
	VTableOffset *uint32
	Name         RawString
}

func (Method) isTypeData() {}

// OverloadedMethod is an LF_METHOD field-list entry referencing a
// MethodList of more than one overload.
type OverloadedMethod struct {
	Count      uint16
	MethodList TypeIndex
	Name       RawString
}

func (OverloadedMethod) isTypeData() {}

// MethodListEntry is one entry decoded from a standalone LF_METHODLIST
// record, referenced by OverloadedMethod.
type MethodListEntry struct {
	Attributes   FieldAttributes
	MethodType   TypeIndex
	VTableOffset *uint32
}

// MethodList is the LF_METHODLIST leaf (not itself a field-list entry;
// looked up via Finder from an OverloadedMethod.MethodList index).
type MethodList struct {
	Methods []MethodListEntry
}

func (MethodList) isTypeData() {}

// BaseClass is an LF_BCLASS field-list entry.
type BaseClass struct {
	Attributes FieldAttributes
	BaseType   TypeIndex
	Offset     uint64
}

func (BaseClass) isTypeData() {}

// VirtualBaseClass is an LF_VBCLASS/LF_IVBCLASS field-list entry.
type VirtualBaseClass struct {
	Attributes        FieldAttributes
	BaseType          TypeIndex
	BasePointerType   TypeIndex
	BasePointerOffset uint64
	VirtualBaseOffset uint64
}

func (VirtualBaseClass) isTypeData() {}

// VirtualFunctionTablePointer is an LF_VFUNCTAB field-list entry.
type VirtualFunctionTablePointer struct {
	Type TypeIndex
}

func (VirtualFunctionTablePointer) isTypeData() {}

// Nested is an LF_NESTTYPE/LF_NESTTYPEEX field-list entry (a nested
// type declaration; the nested type's full body, if any, is reached by
// directly recursing on NestedType via the enclosing FieldList, not
// through this entry).
type Nested struct {
	Name       RawString
	NestedType TypeIndex
}

func (Nested) isTypeData() {}
