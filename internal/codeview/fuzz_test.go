// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package codeview

import "testing"

// FuzzTypeStream feeds arbitrary bytes through the TPI header parse
// and full-stream decode, the only two entry points that see untrusted
// input directly off the wire.
func FuzzTypeStream(f *testing.F) {
	f.Add([]byte{})
	f.Add(make([]byte, 19))
	f.Add(fuzzSeedTPIHeader())

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := NewTypeStream(data)
		if err != nil {
			return
		}
		_, _ = s.ParseAll()
	})
}

func fuzzSeedTPIHeader() []byte {
	buf := make([]byte, 20)
	// Version, HeaderSize=20, TypeIndexBegin=0x1000, TypeIndexEnd=0x1000,
	// TypeRecordBytes=0 — a well-formed, empty TPI stream.
	putUint32(buf[0:], 20160404)
	putUint32(buf[4:], 20)
	putUint32(buf[8:], 0x1000)
	putUint32(buf[12:], 0x1000)
	putUint32(buf[16:], 0)
	return buf
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
