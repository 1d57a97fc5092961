// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package codeview

import (
	"fmt"

	"github.com/resymgo/resym/internal/binutil"
)

// tpiHeader is the fixed-size header prefixing the TPI (type info)
// stream, ahead of the length-prefixed record run.
type tpiHeader struct {
	Version         uint32
	HeaderSize      uint32
	TypeIndexBegin  uint32
	TypeIndexEnd    uint32
	TypeRecordBytes uint32
	// Remaining hash-stream fields aren't needed to walk type records
	// and are skipped via HeaderSize rather than unpacked.
}

func parseTPIHeader(r *binutil.Reader) (tpiHeader, error) {
	var h tpiHeader
	if err := r.StructUnpack(&h, 0, 20); err != nil {
		return tpiHeader{}, err
	}
	if h.HeaderSize < 20 {
		return tpiHeader{}, fmt.Errorf("codeview: implausible TPI header size %d", h.HeaderSize)
	}
	return h, nil
}

// TypeStream is a decoded view over a PDB's TPI stream: a sequential
// run of length-prefixed CodeView type records, each implicitly
// numbered starting at the stream's TypeIndexBegin.
type TypeStream struct {
	r       *binutil.Reader
	header  tpiHeader
	records map[TypeIndex]TypeData
	order   []TypeIndex
}

// NewTypeStream parses the TPI stream header and prepares for
// sequential iteration; it does not decode any records yet.
func NewTypeStream(data []byte) (*TypeStream, error) {
	r := binutil.NewReader(data)
	h, err := parseTPIHeader(r)
	if err != nil {
		return nil, err
	}
	return &TypeStream{
		r:       r,
		header:  h,
		records: make(map[TypeIndex]TypeData),
	}, nil
}

// TypeIndexBegin is the index assigned to the first record in the
// stream.
func (s *TypeStream) TypeIndexBegin() TypeIndex { return TypeIndex(s.header.TypeIndexBegin) }

// TypeIndexEnd is one past the index assigned to the last record.
func (s *TypeStream) TypeIndexEnd() TypeIndex { return TypeIndex(s.header.TypeIndexEnd) }

// Iterate walks every record in the stream in order, decoding each and
// invoking fn with its assigned TypeIndex. It also populates the
// stream's internal Finder records, so a subsequent Find call resolves
// without re-scanning. Iteration stops at the first decode error.
func (s *TypeStream) Iterate(fn func(TypeIndex, TypeData) error) error {
	off := s.header.HeaderSize
	end := s.r.Len()
	idx := TypeIndex(s.header.TypeIndexBegin)
	for off < end {
		length, err := s.r.ReadUint16(off)
		if err != nil {
			return err
		}
		if length < 2 {
			return fmt.Errorf("codeview: implausible record length %d at offset %d", length, off)
		}
		recEnd := off + 2 + uint32(length)
		kindRaw, err := s.r.ReadUint16(off + 2)
		if err != nil {
			return err
		}
		c := &cursor{r: s.r, off: off + 4}
		data, err := decodeRecord(leafKind(kindRaw), c, recEnd)
		if err != nil {
			return fmt.Errorf("codeview: type 0x%x: %w", uint32(idx), err)
		}
		s.records[idx] = data
		s.order = append(s.order, idx)
		if err := fn(idx, data); err != nil {
			return err
		}
		off = recEnd
		idx++
	}
	return nil
}

// ParseAll decodes every record in the stream up front and returns a
// ready-to-query Finder. Most callers (pdbtypes' PDB Index) want this
// rather than driving Iterate themselves.
func (s *TypeStream) ParseAll() (*Finder, error) {
	if err := s.Iterate(func(TypeIndex, TypeData) error { return nil }); err != nil {
		return nil, err
	}
	return s.Finder(), nil
}

// Finder returns a Finder over whatever records Iterate has decoded so
// far. A caller that drives Iterate itself (to observe each record as
// it's decoded, as the PDB Index's single-pass load does) calls this
// once iteration completes instead of re-scanning via ParseAll.
func (s *TypeStream) Finder() *Finder {
	return &Finder{records: s.records, order: s.order, begin: s.TypeIndexBegin()}
}

// Finder resolves a TypeIndex to its decoded TypeData: a progressively
// (here, fully) populated index built from the type stream, needed
// because the stream is sequential and not randomly addressable until
// observed.
type Finder struct {
	records map[TypeIndex]TypeData
	order   []TypeIndex
	begin   TypeIndex
}

// Find resolves ti to its TypeData. Indices below FirstUserIndex are
// simple/primitive types and are not present in the map; callers
// should check ti < FirstUserIndex and use DecodePrimitive instead.
func (f *Finder) Find(ti TypeIndex) (TypeData, bool) {
	d, ok := f.records[ti]
	return d, ok
}

// All returns every decoded type index in stream order.
func (f *Finder) All() []TypeIndex {
	return f.order
}

// DecodePrimitive resolves a simple type index (ti < FirstUserIndex)
// into a Primitive TypeData value.
func DecodePrimitive(ti TypeIndex) Primitive {
	kind, indirect, ptrKind := decodeSimpleTypeIndex(ti)
	return Primitive{Kind: kind, Indirect: indirect, Indirection: ptrKind}
}
