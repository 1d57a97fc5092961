// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pdbtypes

import (
	"testing"

	"github.com/resymgo/resym/internal/codeview"
)

// fakeFinder is a minimal in-memory Finder for tests that don't need a
// real PDB.
type fakeFinder map[codeview.TypeIndex]codeview.TypeData

func (f fakeFinder) Find(ti codeview.TypeIndex) (codeview.TypeData, bool) {
	d, ok := f[ti]
	return d, ok
}

// fakeResolver never rewrites a forward reference, the behavior a
// PDB with no forwarders at all would have.
type fakeResolver struct{}

func (fakeResolver) ResolveComplete(ti codeview.TypeIndex) codeview.TypeIndex { return ti }

func TestIsUnnamed(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"MyStruct", false},
		{"<anonymous-tag>", true},
		{"<unnamed-tag>", true},
		{"__unnamed", true},
		{"Outer::__unnamed", true},
	}
	for _, tt := range tests {
		if got := IsUnnamed(tt.name); got != tt.want {
			t.Errorf("IsUnnamed(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCanonicalName(t *testing.T) {
	if got := CanonicalName("<unnamed-tag>", 0x1234); got != "_unnamed_4660" {
		t.Errorf("CanonicalName = %q, want _unnamed_4660", got)
	}
	if got := CanonicalName("Foo", 0x1234); got != "Foo" {
		t.Errorf("CanonicalName = %q, want Foo unchanged", got)
	}
}

func TestNamerNamePrimitive(t *testing.T) {
	namer := NewNamer(fakeFinder{}, fakeResolver{}, FlavorPortable)
	left, right, err := namer.Name(codeview.TypeIndex(codeview.PrimitiveInt4))
	if err != nil {
		t.Fatalf("Name() error: %v", err)
	}
	if left != "int32_t" || right != "" {
		t.Errorf("Name() = (%q, %q), want (int32_t, \"\")", left, right)
	}
}

func TestNamerNamePointerToClass(t *testing.T) {
	const classIdx codeview.TypeIndex = 0x1000
	finder := fakeFinder{
		classIdx: codeview.Class{Name: "Widget", Size: 8},
	}
	namer := NewNamer(finder, fakeResolver{}, FlavorPortable)

	ptr := codeview.Pointer{UnderlyingType: classIdx, Mode: codeview.PointerModePointer, Kind: codeview.PointerNear64}
	ptrIdx := codeview.TypeIndex(0x1001)
	finder[ptrIdx] = ptr

	left, right, err := namer.Name(ptrIdx)
	if err != nil {
		t.Fatalf("Name() error: %v", err)
	}
	if left != "Widget*" || right != "" {
		t.Errorf("Name(pointer) = (%q, %q), want (\"Widget*\", \"\")", left, right)
	}
	if _, ok := namer.Needed()[classIdx]; !ok {
		t.Errorf("Needed() = %v, want it to include the pointee %#x", namer.Needed(), classIdx)
	}
}
