// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package resym reconstructs C++ source text from Microsoft PDB debug
// files and diffs that reconstruction across two PDBs, tying together
// internal/msf (container), internal/codeview (record decoding), and
// pdbtypes (naming, building, emission).
package resym

// Version is embedded in reconstruction and diff header comments.
const Version = "0.1.0"
