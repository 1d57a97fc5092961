// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pdbtypes

import "github.com/resymgo/resym/internal/codeview"

// Class is the in-memory view of a class/struct/interface record.
type Class struct {
	Kind            codeview.ClassKind
	Name            string
	Size            uint64
	BaseClasses     []BaseClass
	Fields          []Field
	StaticFields    []StaticField
	InstanceMethods []Method
	StaticMethods   []Method
	NestedClasses   []*Class
	NestedUnions    []*Union
	NestedEnums     []*Enumeration

	// Groups, populated by the anonymous-aggregate inferrer, is what
	// the text emitter renders; it does not render Fields directly, so
	// a Class with Fields but nil Groups prints no data members.
	Groups []FieldGroup
}

func (b *Builder) buildClass(root codeview.TypeIndex, c codeview.Class) (interface{}, error) {
	if c.Properties.ForwardReference() {
		return &ForwardReference{Kind: forwardKindFromClassKind(c.Kind), Name: canonicalName(c.Name, root)}, nil
	}

	class := &Class{
		Kind: c.Kind,
		Name: canonicalName(c.Name, root),
		Size: c.Size,
	}

	// DerivedFrom contributes nothing here; bases are populated
	// exclusively from BaseClass/VirtualBaseClass field-list entries
	// below.

	if c.FieldList != codeview.Default {
		acc := &accumulator{}
		if err := b.walkFieldList(c.FieldList, acc); err != nil {
			b.logFieldWalkError(c.FieldList, err)
		}
		class.BaseClasses = acc.baseClasses
		class.Fields = acc.fields
		class.StaticFields = acc.staticFields
		class.InstanceMethods = acc.instanceMethods
		class.StaticMethods = acc.staticMethods
		class.NestedClasses = acc.nestedClasses
		class.NestedUnions = acc.nestedUnions
		class.NestedEnums = acc.nestedEnums
		class.Groups = inferGroups(class.Fields, groupKindUnion)
	}

	return class, nil
}
