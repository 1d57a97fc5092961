// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pdbtypes

import "testing"

func fieldAt(offset, size uint64) Field {
	return Field{Offset: offset, Size: size}
}

// TestInferGroupsUnionThenPlain: synthetic fields at offsets [0, 0, 4]
// with sizes [4, 4, 4] must produce one union containing the first two
// fields followed by the third as a plain member.
func TestInferGroupsUnionThenPlain(t *testing.T) {
	fields := []Field{fieldAt(0, 4), fieldAt(0, 4), fieldAt(4, 4)}

	groups := inferGroups(fields, groupKindUnion)

	if len(groups) != 2 {
		t.Fatalf("got %d top-level groups, want 2: %+v", len(groups), groups)
	}
	if groups[0].Kind != GroupUnion || len(groups[0].Members) != 2 {
		t.Fatalf("group 0 = %+v, want a union of 2 members", groups[0])
	}
	if groups[1].Kind != GroupPlain || groups[1].Field == nil || groups[1].Field.Offset != 4 {
		t.Fatalf("group 1 = %+v, want a plain field at offset 4", groups[1])
	}
}

// TestInferGroupsUnionOfStructs: offsets [0, 4, 0, 4] all size 4 (the
// classic union-of-structs layout) must produce a union containing two
// structs of two fields each. Here that union is the enclosing union
// record itself, so the
// struct-discovery pass (top == groupKindStruct) must yield exactly
// two struct groups of two fields.
func TestInferGroupsUnionOfStructs(t *testing.T) {
	fields := []Field{fieldAt(0, 4), fieldAt(4, 4), fieldAt(0, 4), fieldAt(4, 4)}

	groups := inferGroups(fields, groupKindStruct)

	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2 structs: %+v", len(groups), groups)
	}
	for i, g := range groups {
		if g.Kind != GroupStruct || len(g.Members) != 2 {
			t.Errorf("group %d = %+v, want a struct of 2 members", i, g)
		}
	}
}

// TestInferGroupsUnionOfStructsFromClassFields exercises the same
// offsets [0, 4, 0, 4] / sizes [4, 4, 4, 4] fixture as
// TestInferGroupsUnionOfStructs, but through the groupKindUnion entry
// point buildClass actually uses for a class/struct's own field list
// (class.go's "class.Groups = inferGroups(class.Fields, groupKindUnion)").
// The whole run must collapse into one top-level anonymous union, which
// then splits into two anonymous structs of two fields each.
func TestInferGroupsUnionOfStructsFromClassFields(t *testing.T) {
	fields := []Field{fieldAt(0, 4), fieldAt(4, 4), fieldAt(0, 4), fieldAt(4, 4)}

	groups := inferGroups(fields, groupKindUnion)

	if len(groups) != 1 {
		t.Fatalf("got %d top-level groups, want 1 union: %+v", len(groups), groups)
	}
	union := groups[0]
	if union.Kind != GroupUnion || len(union.Members) != 2 {
		t.Fatalf("group 0 = %+v, want a union of 2 struct members", union)
	}
	for i, m := range union.Members {
		if m.Kind != GroupStruct || len(m.Members) != 2 {
			t.Errorf("union member %d = %+v, want a struct of 2 members", i, m)
		}
	}
}

// TestInferGroupsNoOverlap checks the common case: strictly increasing
// offsets never synthesize a union, matching ordinary sequential
// members.
func TestInferGroupsNoOverlap(t *testing.T) {
	fields := []Field{fieldAt(0, 4), fieldAt(4, 4), fieldAt(8, 4)}

	groups := inferGroups(fields, groupKindUnion)

	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3 plain fields: %+v", len(groups), groups)
	}
	for i, g := range groups {
		if g.Kind != GroupPlain {
			t.Errorf("group %d = %+v, want plain", i, g)
		}
	}
}
