// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pdbtypes

import (
	"fmt"

	"github.com/resymgo/resym/internal/codeview"
	"github.com/resymgo/resym/log"
)

// accumulator collects the pieces a field-list walk produces, shared
// by the Class and Union builders (a union accumulates everything a
// class does except base classes).
type accumulator struct {
	fields          []Field
	staticFields    []StaticField
	baseClasses     []BaseClass
	instanceMethods []Method
	staticMethods   []Method
	nestedClasses   []*Class
	nestedUnions    []*Union
	nestedEnums     []*Enumeration
}

// Builder drives field-list walking and aggregate building together,
// since nested aggregates recurse through the same routine.
type Builder struct {
	namer  *Namer
	logger *log.Helper
}

// NewBuilder returns a Builder that names types through namer, logging
// swallowed field-list errors through logger. A nil logger falls back
// to log.Default().
func NewBuilder(namer *Namer, logger *log.Helper) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	if namer.logger == nil {
		namer.logger = logger
	}
	return &Builder{namer: namer, logger: logger}
}

// Build dispatches root on its CodeView kind, producing either a
// *ForwardReference, *Class, *Union, or *Enumeration. A non-aggregate
// record is logged and skipped (nil, nil) rather than failed, so a
// stray index in the dependency set can't abort a reconstruction.
func (b *Builder) Build(root codeview.TypeIndex) (interface{}, error) {
	data, ok := b.namer.finder.Find(root)
	if !ok {
		return nil, newError(ErrPdbParseError, fmt.Sprintf("type index 0x%x not found", uint32(root)))
	}
	switch t := data.(type) {
	case codeview.Class:
		return b.buildClass(root, t)
	case codeview.Union:
		return b.buildUnion(root, t)
	case codeview.Enumeration:
		return b.buildEnumeration(root, t)
	default:
		b.logger.Errorf("don't know how to add type 0x%x (%T)", uint32(root), data)
		return nil, nil
	}
}

// walkFieldList follows the field-list's entries, including
// continuation records, dispatching each into acc. A per-entry decode
// or dispatch failure is logged and swallowed so one bad member never
// aborts the whole reconstruction.
func (b *Builder) walkFieldList(fieldList codeview.TypeIndex, acc *accumulator) error {
	for fieldList != codeview.Default {
		data, ok := b.namer.finder.Find(fieldList)
		if !ok {
			return newError(ErrInvalidParameter, "field list type index not found")
		}
		fl, ok := data.(codeview.FieldList)
		if !ok {
			return newError(ErrInvalidParameter, "expected field list")
		}
		for _, entry := range fl.Fields {
			if err := b.dispatchField(entry, acc); err != nil {
				b.logFieldWalkError(fieldList, err)
			}
		}
		fieldList = fl.Continuation
	}
	return nil
}

func (b *Builder) dispatchField(entry codeview.TypeData, acc *accumulator) error {
	switch f := entry.(type) {
	case codeview.Member:
		field, err := b.buildField(f)
		if err != nil {
			return err
		}
		acc.fields = append(acc.fields, field)
		return nil

	case codeview.StaticMember:
		l, r, err := b.namer.Name(f.FieldType)
		if err != nil {
			return err
		}
		acc.staticFields = append(acc.staticFields, StaticField{
			TypeLeft: l, TypeRight: r, Name: string(f.Name),
			Access: Access(f.Attributes.Access()),
		})
		return nil

	case codeview.BaseClass:
		name, _, err := b.namer.Name(f.BaseType)
		if err != nil {
			return err
		}
		acc.baseClasses = append(acc.baseClasses, BaseClass{
			Name: name, Offset: f.Offset, Access: Access(f.Attributes.Access()),
		})
		return nil

	case codeview.VirtualBaseClass:
		name, _, err := b.namer.Name(f.BaseType)
		if err != nil {
			return err
		}
		// The vtable offset is intentionally ignored; bases are
		// flattened using the base-pointer offset.
		acc.baseClasses = append(acc.baseClasses, BaseClass{
			Name: name, Offset: f.BasePointerOffset, Access: Access(f.Attributes.Access()),
		})
		return nil

	case codeview.Method:
		m, err := b.buildMethod(f.Attributes, f.MethodType, f.VTableOffset, string(f.Name))
		if err != nil {
			return err
		}
		if f.Attributes.IsStatic() {
			acc.staticMethods = append(acc.staticMethods, m)
		} else {
			acc.instanceMethods = append(acc.instanceMethods, m)
		}
		return nil

	case codeview.OverloadedMethod:
		return b.dispatchOverloadedMethod(f, acc)

	case codeview.Nested:
		return b.dispatchNested(f, acc)

	case codeview.VirtualFunctionTablePointer, codeview.Primitive, codeview.Pointer,
		codeview.Procedure, codeview.Modifier:
		// Silently accepted, no contribution to the aggregate.
		return nil

	default:
		return newError(ErrInvalidParameter, fmt.Sprintf("unexpected type in field: %T", entry))
	}
}

func (b *Builder) dispatchOverloadedMethod(f codeview.OverloadedMethod, acc *accumulator) error {
	data, ok := b.namer.finder.Find(f.MethodList)
	if !ok {
		return newError(ErrInvalidParameter, "method list type index not found")
	}
	ml, ok := data.(codeview.MethodList)
	if !ok {
		return newError(ErrInvalidParameter, "expected method list")
	}
	for _, entry := range ml.Methods {
		m, err := b.buildMethod(entry.Attributes, entry.MethodType, entry.VTableOffset, string(f.Name))
		if err != nil {
			return err
		}
		if entry.Attributes.IsStatic() {
			acc.staticMethods = append(acc.staticMethods, m)
		} else {
			acc.instanceMethods = append(acc.instanceMethods, m)
		}
	}
	return nil
}

func (b *Builder) dispatchNested(f codeview.Nested, acc *accumulator) error {
	built, err := b.Build(f.NestedType)
	if err != nil {
		return err
	}
	switch v := built.(type) {
	case *Class:
		acc.nestedClasses = append([]*Class{v}, acc.nestedClasses...)
	case *Union:
		acc.nestedUnions = append([]*Union{v}, acc.nestedUnions...)
	case *Enumeration:
		acc.nestedEnums = append([]*Enumeration{v}, acc.nestedEnums...)
	case *ForwardReference:
		// A forward-declared nested type contributes nothing further.
	}
	return nil
}

func (b *Builder) buildField(f codeview.Member) (Field, error) {
	fieldType := f.FieldType
	var bitInfo *BitfieldInfo
	data, ok := b.namer.finder.Find(fieldType)
	if ok {
		if bf, isBitfield := data.(codeview.Bitfield); isBitfield {
			bitInfo = &BitfieldInfo{BitOffset: bf.Position, BitLength: bf.Length}
		}
	}
	l, r, err := b.namer.Name(fieldType)
	if err != nil {
		return Field{}, err
	}
	size, err := b.namer.Size(fieldType)
	if err != nil {
		size = 0
	}
	return Field{
		TypeLeft: l, TypeRight: r, Name: string(f.Name),
		Offset: f.Offset, Size: size, Bitfield: bitInfo,
		Access: Access(f.Attributes.Access()),
	}, nil
}

func (b *Builder) buildMethod(attr codeview.FieldAttributes, methodType codeview.TypeIndex, vtableOffset *uint32, name string) (Method, error) {
	data, ok := b.namer.finder.Find(methodType)
	if !ok {
		return Method{}, newError(ErrInvalidParameter, "method type index not found")
	}
	mf, ok := data.(codeview.MemberFunction)
	if !ok {
		return Method{}, newError(ErrInvalidParameter, "expected member function")
	}
	// A destructor's name starts with '~'; a constructor is identified
	// by the member function's own attribute byte, not by name (it
	// shares the enclosing class's name, which this layer never sees).
	// Neither carries a return type.
	isDtor := len(name) > 0 && name[0] == '~'
	isCtor := mf.FuncAttr.IsConstructor()
	isCtorDtor := isDtor || isCtor

	rl, rr := "", ""
	var err error
	if !isCtorDtor {
		rl, rr, err = b.namer.Name(mf.ReturnType)
		if err != nil {
			return Method{}, err
		}
	}
	args := ""
	if mf.ArgumentList != codeview.Default {
		if argData, ok := b.namer.finder.Find(mf.ArgumentList); ok {
			if al, ok := argData.(codeview.ArgumentList); ok {
				args, err = b.argListString(al)
				if err != nil {
					return Method{}, err
				}
			}
		}
	}

	isConst, isVolatile := false, false
	if thisMod, ok := b.namer.finder.Find(mf.ThisPointerType); ok {
		switch pt := thisMod.(type) {
		case codeview.Pointer:
			if underlying, ok := b.namer.finder.Find(pt.UnderlyingType); ok {
				if mod, isMod := underlying.(codeview.Modifier); isMod {
					isConst = mod.Constant
					isVolatile = mod.Volatile
				}
			}
		}
	}

	return Method{
		Name: name, ReturnLeft: rl, ReturnRight: rr, Arguments: args,
		Access: Access(attr.Access()), IsVirtual: attr.IsVirtual(),
		IsPureVirtual: attr.IsPureVirtual(), IsConst: isConst, IsVolatile: isVolatile,
		IsCtor: isCtor, IsDtor: isDtor,
	}, nil
}

func (b *Builder) argListString(al codeview.ArgumentList) (string, error) {
	parts := make([]string, 0, len(al.Arguments))
	for _, arg := range al.Arguments {
		l, r, err := b.namer.Name(arg)
		if err != nil {
			return "", err
		}
		parts = append(parts, trimJoin(l, r))
	}
	return joinComma(parts), nil
}

func trimJoin(l, r string) string {
	s := l + r
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// logFieldWalkError is the single seam where a field-list dispatch
// failure is swallowed rather than propagated: partial output is
// preferred over no output, so the error is logged and the caller
// continues with whatever was successfully built.
func (b *Builder) logFieldWalkError(fieldList codeview.TypeIndex, err error) {
	b.logger.Warnf("field list 0x%x: %v", uint32(fieldList), err)
}
