// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package msf

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildContainer assembles a minimal in-memory MSF container with four
// streams: the old directory (absent), the PDB info stream, a TPI
// stream carrying tpi, and a DBI stream whose header reports machine.
func buildContainer(t *testing.T, tpi []byte, machine uint16) []byte {
	t.Helper()

	const blockSize = 256
	if len(tpi) > blockSize {
		t.Fatalf("test TPI stream too large: %d bytes", len(tpi))
	}

	info := make([]byte, 28)
	binary.LittleEndian.PutUint32(info[0:], 20000404) // version
	binary.LittleEndian.PutUint32(info[4:], 0x1234)   // signature
	binary.LittleEndian.PutUint32(info[8:], 1)        // age

	var dbi bytes.Buffer
	if err := binary.Write(&dbi, binary.LittleEndian, dbiHeader{
		VersionSignature: -1,
		VersionHeader:    19990903,
		Age:              1,
		Machine:          machine,
	}); err != nil {
		t.Fatalf("encoding DBI header: %v", err)
	}

	// Directory: stream count, per-stream sizes, then each stream's
	// block list. Streams 1/2/3 each fit a single block (3/4/5).
	var dir bytes.Buffer
	binary.Write(&dir, binary.LittleEndian, uint32(4))
	binary.Write(&dir, binary.LittleEndian, uint32(0))
	binary.Write(&dir, binary.LittleEndian, uint32(len(info)))
	binary.Write(&dir, binary.LittleEndian, uint32(len(tpi)))
	binary.Write(&dir, binary.LittleEndian, uint32(dbi.Len()))
	binary.Write(&dir, binary.LittleEndian, uint32(3))
	binary.Write(&dir, binary.LittleEndian, uint32(4))
	binary.Write(&dir, binary.LittleEndian, uint32(5))

	data := make([]byte, 6*blockSize)
	copy(data, "Microsoft C/C++ MSF 7.00\r\n\x1aDS\x00\x00\x00")
	binary.LittleEndian.PutUint32(data[32:], blockSize)
	binary.LittleEndian.PutUint32(data[36:], 0)                  // free block map
	binary.LittleEndian.PutUint32(data[40:], 6)                  // block count
	binary.LittleEndian.PutUint32(data[44:], uint32(dir.Len()))  // directory bytes
	binary.LittleEndian.PutUint32(data[48:], 0)                  // unknown
	binary.LittleEndian.PutUint32(data[52:], 1)                  // block map address
	binary.LittleEndian.PutUint32(data[1*blockSize:], 2)         // directory lives in block 2
	copy(data[2*blockSize:], dir.Bytes())
	copy(data[3*blockSize:], info)
	copy(data[4*blockSize:], tpi)
	copy(data[5*blockSize:], dbi.Bytes())
	return data
}

func emptyTPI() []byte {
	tpi := make([]byte, 20)
	binary.LittleEndian.PutUint32(tpi[0:], 20040203)
	binary.LittleEndian.PutUint32(tpi[4:], 20)
	binary.LittleEndian.PutUint32(tpi[8:], 0x1000)
	binary.LittleEndian.PutUint32(tpi[12:], 0x1000)
	binary.LittleEndian.PutUint32(tpi[16:], 0)
	return tpi
}

func TestOpenBytesBadMagic(t *testing.T) {
	if _, err := OpenBytes(make([]byte, 128), nil); err != ErrNotAnMSFFile {
		t.Errorf("OpenBytes(zeroes) = %v, want ErrNotAnMSFFile", err)
	}
}

func TestOpenBytesStreams(t *testing.T) {
	data := buildContainer(t, emptyTPI(), uint16(MachineAMD64))

	f, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes() error: %v", err)
	}

	tpi, err := f.Stream(TypeStreamIndex)
	if err != nil {
		t.Fatalf("Stream(TPI) error: %v", err)
	}
	if len(tpi) != 20 {
		t.Errorf("Stream(TPI) length = %d, want 20", len(tpi))
	}

	if _, err := f.Stream(0); err != ErrStreamNotPresent {
		t.Errorf("Stream(0) = %v, want ErrStreamNotPresent", err)
	}
	if _, err := f.Stream(99); err != ErrStreamNotPresent {
		t.Errorf("Stream(99) = %v, want ErrStreamNotPresent", err)
	}
}

func TestMachineType(t *testing.T) {
	data := buildContainer(t, emptyTPI(), uint16(MachineARM64))

	f, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes() error: %v", err)
	}
	mt, err := f.MachineType()
	if err != nil {
		t.Fatalf("MachineType() error: %v", err)
	}
	if mt != MachineARM64 {
		t.Errorf("MachineType() = %v, want ARM64", mt)
	}
	if mt.String() != "ARM64" {
		t.Errorf("MachineType().String() = %q, want ARM64", mt.String())
	}
}

func TestPDBInfo(t *testing.T) {
	data := buildContainer(t, emptyTPI(), uint16(MachineI386))

	f, err := OpenBytes(data, nil)
	if err != nil {
		t.Fatalf("OpenBytes() error: %v", err)
	}
	info, err := f.PDBInfo()
	if err != nil {
		t.Fatalf("PDBInfo() error: %v", err)
	}
	if info.Signature != 0x1234 || info.Age != 1 {
		t.Errorf("PDBInfo() = %+v, want signature 0x1234, age 1", info)
	}
}

func TestGUIDString(t *testing.T) {
	g := GUID{
		Data1: 0x0123abcd,
		Data2: 0x4567,
		Data3: 0x89ab,
		Data4: [8]byte{0xcd, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab},
	}
	want := "0123abcd-4567-89ab-cdef-0123456789ab"
	if got := g.String(); got != want {
		t.Errorf("GUID.String() = %q, want %q", got, want)
	}
}
