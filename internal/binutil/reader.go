// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package binutil provides bounds-checked little-endian decoding helpers
// shared by the MSF and CodeView readers.
package binutil

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// ErrOutsideBoundary is returned when a read would reach past the end of
// the underlying buffer.
var ErrOutsideBoundary = errors.New("reading data outside boundary")

// Reader wraps an in-memory buffer (typically a memory-mapped file) and
// exposes bounds-checked little-endian accessors.
type Reader struct {
	data []byte
}

// NewReader wraps data for bounds-checked access. The slice is not copied.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the size of the underlying buffer.
func (r *Reader) Len() uint32 {
	return uint32(len(r.data))
}

// ReadUint64 reads a uint64 at offset.
func (r *Reader) ReadUint64(offset uint32) (uint64, error) {
	if offset+8 < offset || offset+8 > r.Len() {
		return 0, ErrOutsideBoundary
	}
	return binary.LittleEndian.Uint64(r.data[offset:]), nil
}

// ReadUint32 reads a uint32 at offset.
func (r *Reader) ReadUint32(offset uint32) (uint32, error) {
	if offset+4 < offset || offset+4 > r.Len() {
		return 0, ErrOutsideBoundary
	}
	return binary.LittleEndian.Uint32(r.data[offset:]), nil
}

// ReadUint16 reads a uint16 at offset.
func (r *Reader) ReadUint16(offset uint32) (uint16, error) {
	if offset+2 < offset || offset+2 > r.Len() {
		return 0, ErrOutsideBoundary
	}
	return binary.LittleEndian.Uint16(r.data[offset:]), nil
}

// ReadUint8 reads a single byte at offset.
func (r *Reader) ReadUint8(offset uint32) (uint8, error) {
	if offset >= r.Len() {
		return 0, ErrOutsideBoundary
	}
	return r.data[offset], nil
}

// ReadBytesAtOffset returns a sub-slice of size bytes starting at offset.
func (r *Reader) ReadBytesAtOffset(offset, size uint32) ([]byte, error) {
	totalSize := offset + size
	if (totalSize > offset) != (size > 0) {
		return nil, ErrOutsideBoundary
	}
	if offset >= r.Len() && size > 0 {
		return nil, ErrOutsideBoundary
	}
	if totalSize > r.Len() {
		return nil, ErrOutsideBoundary
	}
	return r.data[offset:totalSize], nil
}

// StructUnpack decodes a fixed-size little-endian struct from offset into iface.
func (r *Reader) StructUnpack(iface interface{}, offset, size uint32) error {
	totalSize := offset + size
	if (totalSize > offset) != (size > 0) {
		return ErrOutsideBoundary
	}
	if offset >= r.Len() || totalSize > r.Len() {
		return ErrOutsideBoundary
	}
	buf := bytes.NewReader(r.data[offset:totalSize])
	return binary.Read(buf, binary.LittleEndian, iface)
}

// CString returns the NUL-terminated string starting at offset, along with
// the offset of the byte immediately following the terminator.
func (r *Reader) CString(offset uint32) (string, uint32, error) {
	data := r.data
	end := offset
	for {
		if end >= uint32(len(data)) {
			return "", 0, ErrOutsideBoundary
		}
		if data[end] == 0 {
			break
		}
		end++
	}
	return string(data[offset:end]), end + 1, nil
}

// AlignUp rounds offset up to the next multiple of align (align must be a
// power of two).
func AlignUp(offset, align uint32) uint32 {
	return (offset + align - 1) &^ (align - 1)
}
