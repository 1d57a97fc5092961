// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package binutil

import "testing"

func TestReadUintBounds(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})

	tests := []struct {
		name string
		read func() (uint64, error)
		want uint64
	}{
		{"u8", func() (uint64, error) { v, err := r.ReadUint8(0); return uint64(v), err }, 0x01},
		{"u16", func() (uint64, error) { v, err := r.ReadUint16(0); return uint64(v), err }, 0x0201},
		{"u32", func() (uint64, error) { v, err := r.ReadUint32(0); return uint64(v), err }, 0x04030201},
		{"u64", func() (uint64, error) { v, err := r.ReadUint64(0); return v, err }, 0x0807060504030201},
	}
	for _, tt := range tests {
		got, err := tt.read()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s = %#x, want %#x", tt.name, got, tt.want)
		}
	}

	if _, err := r.ReadUint32(6); err != ErrOutsideBoundary {
		t.Errorf("ReadUint32 past end: err = %v, want ErrOutsideBoundary", err)
	}
	if _, err := r.ReadUint64(0xFFFFFFFC); err != ErrOutsideBoundary {
		t.Errorf("ReadUint64 overflowing offset: err = %v, want ErrOutsideBoundary", err)
	}
}

func TestCString(t *testing.T) {
	r := NewReader([]byte{'a', 'b', 0, 'c', 0})

	s, next, err := r.CString(0)
	if err != nil {
		t.Fatalf("CString(0) error: %v", err)
	}
	if s != "ab" || next != 3 {
		t.Errorf("CString(0) = (%q, %d), want (\"ab\", 3)", s, next)
	}

	s, next, err = r.CString(3)
	if err != nil {
		t.Fatalf("CString(3) error: %v", err)
	}
	if s != "c" || next != 5 {
		t.Errorf("CString(3) = (%q, %d), want (\"c\", 5)", s, next)
	}

	if _, _, err := r.CString(5); err != ErrOutsideBoundary {
		t.Errorf("CString past end: err = %v, want ErrOutsideBoundary", err)
	}
}

func TestStructUnpack(t *testing.T) {
	r := NewReader([]byte{0x34, 0x12, 0x78, 0x56})
	var v struct {
		A uint16
		B uint16
	}
	if err := r.StructUnpack(&v, 0, 4); err != nil {
		t.Fatalf("StructUnpack error: %v", err)
	}
	if v.A != 0x1234 || v.B != 0x5678 {
		t.Errorf("StructUnpack = %+v, want {A:0x1234 B:0x5678}", v)
	}
	if err := r.StructUnpack(&v, 2, 4); err != ErrOutsideBoundary {
		t.Errorf("StructUnpack past end: err = %v, want ErrOutsideBoundary", err)
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct{ off, align, want uint32 }{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 4, 8},
		{100, 64, 128},
	}
	for _, tt := range tests {
		if got := AlignUp(tt.off, tt.align); got != tt.want {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", tt.off, tt.align, got, tt.want)
		}
	}
}
