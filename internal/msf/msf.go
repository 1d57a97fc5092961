// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package msf reads the Multi-Stream File (MSF) container that backs a
// Microsoft Program Database (PDB), recovering the stream directory,
// the PDB info stream (signature/age/GUID), and the DBI stream's
// machine-type header. The file is memory-mapped read-only for the
// handle's lifetime.
package msf

import (
	"encoding/binary"
	"errors"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/resymgo/resym/internal/binutil"
	"github.com/resymgo/resym/log"
)

// bigMSFMagicLen is the length in bytes of the "Microsoft C/C++ MSF
// 7.00..." signature prefix shared by every modern PDB.
const bigMSFMagicLen = 32

const (
	streamPDBInfo = 1
	streamDBI     = 3
)

// ErrNotAnMSFFile is returned when the file does not start with the
// expected MSF signature.
var ErrNotAnMSFFile = errors.New("msf: not a Multi-Stream File (bad signature)")

// ErrStreamNotPresent is returned when a well-known stream index is
// absent from the directory (a null/zero-length stream).
var ErrStreamNotPresent = errors.New("msf: required stream is not present")

// superblock is the MSF file header (after the 32-byte magic).
type superblock struct {
	BlockSize    uint32
	FreeBlockMap uint32
	NumBlocks    uint32
	NumDirBytes  uint32
	Unknown      uint32
	BlockMapAddr uint32
}

// File is a read-only handle onto an MSF container (a PDB file).
type File struct {
	data   mmap.MMap
	f      *os.File
	reader *binutil.Reader
	sb     superblock
	// streamBlocks[i] holds the ordered list of block indices for stream i.
	streamBlocks [][]uint32
	streamSizes  []uint32
	logger       *log.Helper
}

// Open memory-maps path read-only and parses its MSF superblock and
// stream directory.
func Open(path string, logger *log.Helper) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	file, err := newFromBytes(data, logger)
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}
	file.f = f
	return file, nil
}

// OpenBytes parses an MSF container already resident in memory, without
// owning a backing *os.File.
func OpenBytes(data []byte, logger *log.Helper) (*File, error) {
	return newFromBytes(data, logger)
}

func newFromBytes(data []byte, logger *log.Helper) (*File, error) {
	if logger == nil {
		logger = log.Default()
	}
	if len(data) < bigMSFMagicLen+28 {
		return nil, ErrNotAnMSFFile
	}
	// We don't compare the full vendor string byte-for-byte (PDB 2.0 vs
	// 7.0 magics differ in their trailing bytes); it's enough that this
	// looks like an MSF container for our purposes.
	if data[0] != 'M' || data[1] != 'i' || data[2] != 'c' || data[3] != 'r' {
		return nil, ErrNotAnMSFFile
	}

	r := binutil.NewReader(data)
	file := &File{data: data, reader: r, logger: logger}

	off := uint32(bigMSFMagicLen)
	var err error
	if file.sb.BlockSize, err = r.ReadUint32(off); err != nil {
		return nil, err
	}
	if file.sb.FreeBlockMap, err = r.ReadUint32(off + 4); err != nil {
		return nil, err
	}
	if file.sb.NumBlocks, err = r.ReadUint32(off + 8); err != nil {
		return nil, err
	}
	if file.sb.NumDirBytes, err = r.ReadUint32(off + 12); err != nil {
		return nil, err
	}
	if file.sb.Unknown, err = r.ReadUint32(off + 16); err != nil {
		return nil, err
	}
	if file.sb.BlockMapAddr, err = r.ReadUint32(off + 20); err != nil {
		return nil, err
	}

	if err := file.readStreamDirectory(); err != nil {
		return nil, err
	}
	return file, nil
}

// blockOffset returns the file offset of the start of block n.
func (f *File) blockOffset(n uint32) uint32 {
	return n * f.sb.BlockSize
}

func (f *File) numDirBlocks() uint32 {
	return binutil.AlignUp(f.sb.NumDirBytes, f.sb.BlockSize) / f.sb.BlockSize
}

// readStreamDirectory decodes the (possibly multi-block) stream
// directory: a block-index list for the directory itself (stored in the
// "block map"), followed by the directory's own contents (stream count,
// stream sizes, then each stream's block-index list).
func (f *File) readStreamDirectory() error {
	numDirBlocks := f.numDirBlocks()

	// The block map is an array of block indices, one per directory
	// block, stored starting at BlockMapAddr.
	dirBlocks := make([]uint32, numDirBlocks)
	for i := uint32(0); i < numDirBlocks; i++ {
		v, err := f.reader.ReadUint32(f.blockOffset(f.sb.BlockMapAddr) + i*4)
		if err != nil {
			return err
		}
		dirBlocks[i] = v
	}

	dir := f.gatherBlocks(dirBlocks, f.sb.NumDirBytes)
	dirReader := binutil.NewReader(dir)

	numStreams, err := dirReader.ReadUint32(0)
	if err != nil {
		return err
	}
	cursor := uint32(4)

	sizes := make([]uint32, numStreams)
	for i := uint32(0); i < numStreams; i++ {
		sz, err := dirReader.ReadUint32(cursor)
		if err != nil {
			return err
		}
		sizes[i] = sz
		cursor += 4
	}

	blocks := make([][]uint32, numStreams)
	for i := uint32(0); i < numStreams; i++ {
		size := sizes[i]
		// A stream of size 0xFFFFFFFF ("nonexistent") has zero blocks.
		if size == 0xFFFFFFFF {
			blocks[i] = nil
			sizes[i] = 0
			continue
		}
		n := binutil.AlignUp(size, f.sb.BlockSize) / f.sb.BlockSize
		list := make([]uint32, n)
		for b := uint32(0); b < n; b++ {
			v, err := dirReader.ReadUint32(cursor)
			if err != nil {
				return err
			}
			list[b] = v
			cursor += 4
		}
		blocks[i] = list
	}

	f.streamBlocks = blocks
	f.streamSizes = sizes
	return nil
}

// gatherBlocks concatenates the content of the given blocks into one
// contiguous buffer truncated to totalSize bytes.
func (f *File) gatherBlocks(blockIdx []uint32, totalSize uint32) []byte {
	out := make([]byte, 0, totalSize)
	remaining := totalSize
	for _, b := range blockIdx {
		n := f.sb.BlockSize
		if n > remaining {
			n = remaining
		}
		start := f.blockOffset(b)
		out = append(out, f.data[start:start+n]...)
		remaining -= n
		if remaining == 0 {
			break
		}
	}
	return out
}

// Stream returns the reassembled contents of stream index idx.
func (f *File) Stream(idx uint32) ([]byte, error) {
	if idx >= uint32(len(f.streamBlocks)) {
		return nil, ErrStreamNotPresent
	}
	if len(f.streamBlocks[idx]) == 0 && f.streamSizes[idx] == 0 {
		return nil, ErrStreamNotPresent
	}
	return f.gatherBlocks(f.streamBlocks[idx], f.streamSizes[idx]), nil
}

// Close unmaps the file and releases the underlying descriptor.
func (f *File) Close() error {
	var err error
	if f.data != nil {
		err = f.data.Unmap()
	}
	if f.f != nil {
		if cerr := f.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Info is the decoded PDB info stream header: signature, age, and the
// GUID that ties a PDB to the binary it describes.
type Info struct {
	Version   uint32
	Signature uint32
	Age       uint32
	GUID      GUID
}

// GUID is the Windows GUID layout used by the PDB info stream's unique
// identifier field.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

func (g GUID) String() string {
	return formatGUID(g)
}

func formatGUID(g GUID) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 0, 36)
	appendHex := func(v uint64, digits int) {
		for i := digits - 1; i >= 0; i-- {
			buf = append(buf, hexDigits[(v>>(uint(i)*4))&0xf])
		}
	}
	appendHex(uint64(g.Data1), 8)
	buf = append(buf, '-')
	appendHex(uint64(g.Data2), 4)
	buf = append(buf, '-')
	appendHex(uint64(g.Data3), 4)
	buf = append(buf, '-')
	appendHex(uint64(g.Data4[0])<<8|uint64(g.Data4[1]), 4)
	buf = append(buf, '-')
	for _, b := range g.Data4[2:] {
		appendHex(uint64(b), 2)
	}
	return string(buf)
}

// PDBInfo decodes and returns the PDB info stream (stream 1).
func (f *File) PDBInfo() (Info, error) {
	data, err := f.Stream(streamPDBInfo)
	if err != nil {
		return Info{}, err
	}
	r := binutil.NewReader(data)
	var info Info
	if info.Version, err = r.ReadUint32(0); err != nil {
		return Info{}, err
	}
	if info.Signature, err = r.ReadUint32(4); err != nil {
		return Info{}, err
	}
	if info.Age, err = r.ReadUint32(8); err != nil {
		return Info{}, err
	}
	if err := r.StructUnpack(&info.GUID, 12, uint32(binary.Size(info.GUID))); err != nil {
		return Info{}, err
	}
	return info, nil
}

// dbiHeader mirrors the fixed portion of the DBI stream header needed
// to recover the image's machine type.
type dbiHeader struct {
	VersionSignature int32
	VersionHeader    uint32
	Age              uint32
	GSSyms           uint16
	BuildNumber      uint16
	PSSyms           uint16
	PDBVersion       uint16
	SymRecords       uint16
	RBLD             uint16
	ModInfoSize      int32
	SectionContrSize int32
	SectionMapSize   int32
	SrcInfoSize      int32
	TypeServerSize   int32
	MFCTypeServIndex uint32
	OptDbgHdrSize    int32
	ECSubstrSize     int32
	Flags            uint16
	Machine          uint16
	Reserved         uint32
}

// MachineType returns the image architecture recorded in the DBI
// stream header.
func (f *File) MachineType() (MachineType, error) {
	data, err := f.Stream(streamDBI)
	if err != nil {
		return MachineUnknown, err
	}
	r := binutil.NewReader(data)
	var hdr dbiHeader
	if err := r.StructUnpack(&hdr, 0, uint32(binary.Size(hdr))); err != nil {
		return MachineUnknown, err
	}
	return MachineType(hdr.Machine), nil
}

// TypeStreamIndex is the well-known MSF stream carrying the CodeView
// type-information records (TPI stream).
const TypeStreamIndex = 2
