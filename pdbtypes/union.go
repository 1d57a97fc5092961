// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pdbtypes

import "github.com/resymgo/resym/internal/codeview"

// Union is the in-memory view of a union record: same as Class but
// without Kind and without base classes.
type Union struct {
	Name            string
	Size            uint64
	Fields          []Field
	StaticFields    []StaticField
	InstanceMethods []Method
	StaticMethods   []Method
	NestedClasses   []*Class
	NestedUnions    []*Union
	NestedEnums     []*Enumeration

	// Groups, populated by the anonymous-aggregate inferrer, holds
	// anonymous-struct groupings when non-nil (the union-frame
	// analogue of Class.Groups).
	Groups []FieldGroup
}

func (b *Builder) buildUnion(root codeview.TypeIndex, u codeview.Union) (interface{}, error) {
	if u.Properties.ForwardReference() {
		return &ForwardReference{Kind: ForwardUnion, Name: canonicalName(u.Name, root)}, nil
	}

	union := &Union{
		Name: canonicalName(u.Name, root),
		Size: u.Size,
	}

	if u.FieldList != codeview.Default {
		acc := &accumulator{}
		if err := b.walkFieldList(u.FieldList, acc); err != nil {
			b.logFieldWalkError(u.FieldList, err)
		}
		union.Fields = acc.fields
		union.StaticFields = acc.staticFields
		union.InstanceMethods = acc.instanceMethods
		union.StaticMethods = acc.staticMethods
		union.NestedClasses = acc.nestedClasses
		union.NestedUnions = acc.nestedUnions
		union.NestedEnums = acc.nestedEnums
		union.Groups = inferGroups(union.Fields, groupKindStruct)
	}

	return union, nil
}
