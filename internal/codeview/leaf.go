// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package codeview

// leafKind is the 2-byte discriminator prefixing every type record and
// field-list entry. Names follow the well-known CV_LEAF_e constants.
type leafKind uint16

const (
	leafModifier   leafKind = 0x1001
	leafPointer    leafKind = 0x1002
	leafProcedure  leafKind = 0x1008
	leafMFunction  leafKind = 0x1009
	leafArgList    leafKind = 0x1201
	leafFieldList  leafKind = 0x1203
	leafBitfield   leafKind = 0x1205
	leafMethodList leafKind = 0x1206
	leafBClass     leafKind = 0x1400
	leafVBClass    leafKind = 0x1401
	leafIVBClass   leafKind = 0x1402
	leafIndex      leafKind = 0x1404 // field-list continuation
	leafVFuncTab   leafKind = 0x1409
	leafEnumerate  leafKind = 0x1502
	leafArray      leafKind = 0x1503
	leafClass      leafKind = 0x1504
	leafStructure  leafKind = 0x1505
	leafUnion      leafKind = 0x1506
	leafEnum       leafKind = 0x1507
	leafMember     leafKind = 0x150d
	leafSTMember   leafKind = 0x150e
	leafMethod     leafKind = 0x150f // overloaded-method field entry
	leafNestType   leafKind = 0x1510
	leafOneMethod  leafKind = 0x1511 // single-method field entry
	leafNestTypeEx leafKind = 0x1512
	leafInterface  leafKind = 0x1519
)
