// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pdbtypes

import (
	"testing"

	"github.com/resymgo/resym/internal/codeview"
)

func TestParseFlavor(t *testing.T) {
	tests := []struct {
		in      string
		want    Flavor
		wantErr bool
	}{
		{"portable", FlavorPortable, false},
		{"microsoft", FlavorMicrosoft, false},
		{"ms", FlavorMicrosoft, false},
		{"raw", FlavorRaw, false},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseFlavor(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFlavor(%q) = nil error, want ErrParsePrimitiveFlavor", tt.in)
			} else if KindOf(err) != ErrParsePrimitiveFlavor {
				t.Errorf("ParseFlavor(%q) kind = %v, want ErrParsePrimitiveFlavor", tt.in, KindOf(err))
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFlavor(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFlavor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSpellPrimitiveFlavors(t *testing.T) {
	tests := []struct {
		flavor Flavor
		kind   codeview.PrimitiveKind
		want   string
	}{
		{FlavorPortable, codeview.PrimitiveInt4, "int32_t"},
		{FlavorMicrosoft, codeview.PrimitiveInt4, "LONG"},
		{FlavorRaw, codeview.PrimitiveInt4, "long"},
		{FlavorPortable, codeview.PrimitiveVoid, "void"},
	}
	for _, tt := range tests {
		left, right, err := spellPrimitive(tt.flavor, codeview.Primitive{Kind: tt.kind})
		if err != nil {
			t.Fatalf("spellPrimitive(%v, %v) error: %v", tt.flavor, tt.kind, err)
		}
		if left != tt.want || right != "" {
			t.Errorf("spellPrimitive(%v, %v) = (%q, %q), want (%q, \"\")", tt.flavor, tt.kind, left, right, tt.want)
		}
	}
}

func TestSpellPrimitivePointer(t *testing.T) {
	left, right, err := spellPrimitive(FlavorMicrosoft, codeview.Primitive{Kind: codeview.PrimitiveVoid, Indirect: true, Indirection: codeview.PointerNear64})
	if err != nil {
		t.Fatalf("spellPrimitive error: %v", err)
	}
	if left != "PVOID" || right != "" {
		t.Errorf("spellPrimitive(void*) = (%q, %q), want (\"PVOID\", \"\")", left, right)
	}
}
