// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package resym

import "github.com/resymgo/resym/pdbtypes"

// Error and Kind are aliased from pdbtypes rather than redefined: the
// naming/building layer (pdbtypes) already raises these, and a PDB
// load or diff failure should carry the exact same taxonomy without a
// second, parallel enum to keep in sync.
type (
	Error = pdbtypes.Error
	Kind  = pdbtypes.Kind
)

// Error kinds.
const (
	ErrIoError              = pdbtypes.ErrIoError
	ErrPdbParseError        = pdbtypes.ErrPdbParseError
	ErrIntConversionError   = pdbtypes.ErrIntConversionError
	ErrInvalidParameter     = pdbtypes.ErrInvalidParameter
	ErrTypeNameNotFound     = pdbtypes.ErrTypeNameNotFound
	ErrNotImplemented       = pdbtypes.ErrNotImplemented
	ErrParsePrimitiveFlavor = pdbtypes.ErrParsePrimitiveFlavor
	ErrChannelError         = pdbtypes.ErrChannelError
)

// KindOf reports the Kind of err, defaulting to PdbParseError for
// opaque (non-*Error) errors.
func KindOf(err error) Kind { return pdbtypes.KindOf(err) }
