// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package codeview

import (
	"testing"

	"github.com/resymgo/resym/internal/binutil"
)

func u16le(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }
func u32le(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// memberBytes encodes one LF_MEMBER field-list entry: kind, attributes,
// field type, offset (bare uint16 numeric leaf), NUL-terminated name.
func memberBytes(attr uint16, fieldType uint32, offset uint16, name string) []byte {
	b := u16le(uint16(leafMember))
	b = append(b, u16le(attr)...)
	b = append(b, u32le(fieldType)...)
	b = append(b, u16le(offset)...)
	b = append(b, name...)
	return append(b, 0)
}

// TestDecodeFieldEntriesWithPadding checks that LF_PAD runs between
// entries are consumed rather than mistaken for an end-of-list marker:
// a 13-byte member entry is followed by 3 pad bytes (0xf3 0xf2 0xf1)
// before the next entry starts on a 4-byte boundary.
func TestDecodeFieldEntriesWithPadding(t *testing.T) {
	var data []byte
	data = append(data, memberBytes(3, uint32(PrimitiveInt4), 0, "ab")...)
	data = append(data, 0xf3, 0xf2, 0xf1)
	data = append(data, memberBytes(3, uint32(PrimitiveInt4), 4, "cd")...)
	data = append(data, 0xf3, 0xf2, 0xf1)

	c := &cursor{r: binutil.NewReader(data)}
	fields, continuation, err := decodeFieldEntries(c, uint32(len(data)))
	if err != nil {
		t.Fatalf("decodeFieldEntries() error: %v", err)
	}
	if continuation != Default {
		t.Errorf("continuation = %#x, want Default", uint32(continuation))
	}
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2: %+v", len(fields), fields)
	}
	first, ok := fields[0].(Member)
	if !ok || first.Name != "ab" || first.Offset != 0 {
		t.Errorf("fields[0] = %+v, want Member ab at offset 0", fields[0])
	}
	second, ok := fields[1].(Member)
	if !ok || second.Name != "cd" || second.Offset != 4 {
		t.Errorf("fields[1] = %+v, want Member cd at offset 4", fields[1])
	}
}

// TestDecodeFieldEntriesContinuation checks that an LF_INDEX entry is
// surfaced as the list's continuation index instead of as a field.
func TestDecodeFieldEntriesContinuation(t *testing.T) {
	var data []byte
	data = append(data, memberBytes(3, uint32(PrimitiveUInt4), 0, "x")...)
	data = append(data, 0xf2, 0xf1) // stray pad run, tolerated anywhere
	data = append(data, u16le(uint16(leafIndex))...)
	data = append(data, 0, 0) // padding field of LF_INDEX
	data = append(data, u32le(0x1234)...)

	c := &cursor{r: binutil.NewReader(data)}
	fields, continuation, err := decodeFieldEntries(c, uint32(len(data)))
	if err != nil {
		t.Fatalf("decodeFieldEntries() error: %v", err)
	}
	if continuation != TypeIndex(0x1234) {
		t.Errorf("continuation = %#x, want 0x1234", uint32(continuation))
	}
	if len(fields) != 1 {
		t.Fatalf("got %d fields, want 1: %+v", len(fields), fields)
	}
}

// TestTypeStreamIterate walks a minimal synthetic TPI stream: its
// 20-byte header followed by one LF_MODIFIER record, checking the
// record is numbered from TypeIndexBegin and decodes to a const
// modifier over int32_t.
func TestTypeStreamIterate(t *testing.T) {
	var data []byte
	data = append(data, u32le(20160404)...) // Version
	data = append(data, u32le(20)...)       // HeaderSize
	data = append(data, u32le(0x1000)...)   // TypeIndexBegin
	data = append(data, u32le(0x1001)...)   // TypeIndexEnd
	data = append(data, u32le(10)...)       // TypeRecordBytes

	data = append(data, u16le(8)...) // record length (kind + payload)
	data = append(data, u16le(uint16(leafModifier))...)
	data = append(data, u32le(uint32(PrimitiveInt4))...)
	data = append(data, u16le(0x1)...) // const

	s, err := NewTypeStream(data)
	if err != nil {
		t.Fatalf("NewTypeStream() error: %v", err)
	}
	var visited []TypeIndex
	if err := s.Iterate(func(idx TypeIndex, d TypeData) error {
		visited = append(visited, idx)
		mod, ok := d.(Modifier)
		if !ok {
			t.Fatalf("record = %T, want Modifier", d)
		}
		if mod.UnderlyingType != TypeIndex(PrimitiveInt4) || !mod.Constant || mod.Volatile {
			t.Errorf("Modifier = %+v, want const int32_t", mod)
		}
		return nil
	}); err != nil {
		t.Fatalf("Iterate() error: %v", err)
	}
	if len(visited) != 1 || visited[0] != 0x1000 {
		t.Fatalf("visited = %v, want [0x1000]", visited)
	}

	finder := s.Finder()
	if _, ok := finder.Find(0x1000); !ok {
		t.Error("Finder.Find(0x1000) missed a decoded record")
	}
}
