// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pdbtypes

import "github.com/resymgo/resym/internal/codeview"

// Access mirrors codeview.FieldAccess at the reconstruction layer, so
// downstream rendering doesn't need to import internal/codeview.
type Access codeview.FieldAccess

// Access specifiers.
const (
	AccessNone      Access = Access(codeview.AccessNone)
	AccessPrivate   Access = Access(codeview.AccessPrivate)
	AccessProtected Access = Access(codeview.AccessProtected)
	AccessPublic    Access = Access(codeview.AccessPublic)
)

func (a Access) String() string {
	switch a {
	case AccessPrivate:
		return "private"
	case AccessProtected:
		return "protected"
	case AccessPublic:
		return "public"
	default:
		return ""
	}
}

// BitfieldInfo decorates a Field that was declared as a bitfield.
type BitfieldInfo struct {
	BitOffset uint8
	BitLength uint8
}

// Field is one data member of a Class/Struct/Union.
type Field struct {
	TypeLeft, TypeRight string
	Name                string
	Offset              uint64
	Size                uint64
	Bitfield            *BitfieldInfo
	Access              Access
}

// StaticField is one LF_STMEMBER entry.
type StaticField struct {
	TypeLeft, TypeRight string
	Name                string
	Access              Access
}

// BaseClass is one inherited base. Virtual bases are flattened here,
// carrying the virtual base-pointer offset.
type BaseClass struct {
	Name   string
	Offset uint64
	Access Access
}

// Method is one instance or static method entry.
type Method struct {
	Name          string
	ReturnLeft    string
	ReturnRight   string
	Arguments     string
	Access        Access
	IsVirtual     bool
	IsPureVirtual bool
	IsConst       bool
	IsVolatile    bool
	// IsCtor and IsDtor suppress the return type at emission: a
	// constructor is identified by the member function's own attribute
	// byte, a destructor by its name starting with '~'.
	IsCtor bool
	IsDtor bool
}

// ForwardKind distinguishes the spellings a forward declaration can
// take ("class NAME;", "struct NAME;", "union NAME;", "interface
// NAME;"; Enum forwards are not emitted as declarations but the kind
// still needs naming for completeness).
type ForwardKind int

// Forward-declaration kinds.
const (
	ForwardClass ForwardKind = iota
	ForwardStruct
	ForwardInterface
	ForwardUnion
	ForwardEnum
)

func (k ForwardKind) String() string {
	switch k {
	case ForwardStruct:
		return "struct"
	case ForwardInterface:
		return "interface"
	case ForwardUnion:
		return "union"
	case ForwardEnum:
		return "enum"
	default:
		return "class"
	}
}

func forwardKindFromClassKind(k codeview.ClassKind) ForwardKind {
	switch k {
	case codeview.ClassKindStruct:
		return ForwardStruct
	case codeview.ClassKindInterface:
		return ForwardInterface
	default:
		return ForwardClass
	}
}

// ForwardReference is emitted instead of a full aggregate when a
// Class/Union/Enum record is an incomplete forward declaration.
type ForwardReference struct {
	Kind ForwardKind
	Name string
}
