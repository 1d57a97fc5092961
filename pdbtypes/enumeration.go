// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pdbtypes

import "github.com/resymgo/resym/internal/codeview"

// EnumValue is one (name, value) entry of an enumeration.
type EnumValue struct {
	Name  string
	Value codeview.Variant
}

// Enumeration is the in-memory view of an enumeration record.
type Enumeration struct {
	Name                string
	UnderlyingTypeLeft  string
	UnderlyingTypeRight string
	Values              []EnumValue
}

func (b *Builder) buildEnumeration(root codeview.TypeIndex, e codeview.Enumeration) (interface{}, error) {
	if e.Properties.ForwardReference() {
		return &ForwardReference{Kind: ForwardEnum, Name: canonicalName(e.Name, root)}, nil
	}

	ul, ur, err := b.namer.Name(e.UnderlyingType)
	if err != nil {
		return nil, err
	}

	enum := &Enumeration{
		Name:                canonicalName(e.Name, root),
		UnderlyingTypeLeft:  ul,
		UnderlyingTypeRight: ur,
	}

	if e.FieldList != codeview.Default {
		data, ok := b.namer.finder.Find(e.FieldList)
		if !ok {
			b.logFieldWalkError(e.FieldList, newError(ErrInvalidParameter, "enum field list not found"))
			return enum, nil
		}
		fl, ok := data.(codeview.FieldList)
		if !ok {
			b.logFieldWalkError(e.FieldList, newError(ErrInvalidParameter, "expected field list"))
			return enum, nil
		}
		for fl2 := fl; ; {
			for _, entry := range fl2.Fields {
				enumerate, ok := entry.(codeview.Enumerate)
				if !ok {
					continue
				}
				enum.Values = append(enum.Values, EnumValue{Name: string(enumerate.Name), Value: enumerate.Value})
			}
			if fl2.Continuation == codeview.Default {
				break
			}
			next, ok := b.namer.finder.Find(fl2.Continuation)
			if !ok {
				break
			}
			nfl, ok := next.(codeview.FieldList)
			if !ok {
				break
			}
			fl2 = nfl
		}
	}

	return enum, nil
}
