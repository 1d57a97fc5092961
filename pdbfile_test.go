// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package resym

import (
	"testing"

	"github.com/resymgo/resym/internal/codeview"
)

// TestForwarderMapResolveIdempotent checks that resolving an
// already-resolved index is a no-op.
func TestForwarderMapResolveIdempotent(t *testing.T) {
	fwd := &ForwarderMap{m: map[codeview.TypeIndex]codeview.TypeIndex{
		codeview.TypeIndex(0x1000): codeview.TypeIndex(0x2000),
	}}

	once := fwd.ResolveComplete(0x1000)
	twice := fwd.ResolveComplete(once)
	if once != 0x2000 {
		t.Fatalf("ResolveComplete(0x1000) = %#x, want 0x2000", uint32(once))
	}
	if twice != once {
		t.Errorf("ResolveComplete is not idempotent: once=%#x twice=%#x", uint32(once), uint32(twice))
	}
}

func TestForwarderMapMissReturnsUnchanged(t *testing.T) {
	fwd := &ForwarderMap{m: map[codeview.TypeIndex]codeview.TypeIndex{}}
	if got := fwd.ResolveComplete(0x1234); got != 0x1234 {
		t.Errorf("ResolveComplete(miss) = %#x, want unchanged 0x1234", uint32(got))
	}
}

func TestForwarderMapNilReceiver(t *testing.T) {
	var fwd *ForwarderMap
	if got := fwd.ResolveComplete(0x1234); got != 0x1234 {
		t.Errorf("nil ForwarderMap.ResolveComplete = %#x, want unchanged 0x1234", uint32(got))
	}
}

func entries(names ...string) []TypeEntry {
	out := make([]TypeEntry, len(names))
	for i, n := range names {
		out[i] = TypeEntry{Name: n, Index: codeview.TypeIndex(i)}
	}
	return out
}

func TestFilterTypesRegular(t *testing.T) {
	list := entries("Widget", "widget_impl", "Gadget")

	got := filterTypesRegular(list, "Widget", false)
	if len(got) != 1 || got[0].Name != "Widget" {
		t.Errorf("filterTypesRegular(case-sensitive) = %v", got)
	}

	got = filterTypesRegular(list, "widget", true)
	if len(got) != 2 {
		t.Errorf("filterTypesRegular(case-insensitive) = %v, want 2 matches", got)
	}
}

func TestFilterTypesRegex(t *testing.T) {
	list := entries("Widget", "WidgetFactory", "Gadget")

	got := filterTypesRegex(list, "^Widget", false)
	if len(got) != 2 {
		t.Errorf("filterTypesRegex(^Widget) = %v, want 2 matches", got)
	}

	// An invalid pattern is tolerated as an empty result, not an error.
	if got := filterTypesRegex(list, "(", false); got != nil {
		t.Errorf("filterTypesRegex(invalid) = %v, want nil", got)
	}
}
