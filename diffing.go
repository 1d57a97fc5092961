// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package resym

import (
	"fmt"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/resymgo/resym/pdbtypes"
)

// ChangeTag classifies one line of a diff as equal, inserted, or
// deleted.
type ChangeTag int

const (
	ChangeEqual ChangeTag = iota
	ChangeInsert
	ChangeDelete
)

func (t ChangeTag) prefix() byte {
	switch t {
	case ChangeInsert:
		return '+'
	case ChangeDelete:
		return '-'
	default:
		return ' '
	}
}

// DiffLine is one line of a diff: its change tag, the 1:1-aligned
// index into the "from"/"to" reconstructions (-1 for the side a line
// doesn't exist on), and the line text without the +/-/space prefix.
type DiffLine struct {
	OldIndex int
	NewIndex int
	Change   ChangeTag
	Line     string
}

// DiffResult carries the per-line metadata plus the single assembled
// text whose per-line prefix byte makes it directly renderable by a
// frontend that colorizes by prefix.
type DiffResult struct {
	Lines []DiffLine
	Text  string
}

// DiffTypeByName reconstructs typeName from both PdbFiles and computes
// a line-level Myers-style diff. Reconstruction failures on either
// side are tolerated as empty text; only if BOTH sides come back empty
// does this return ErrTypeNameNotFound.
func DiffTypeByName(from, to *PdbFile, typeName string, params ReconstructParams) (*DiffResult, error) {
	diffStart := time.Now()

	fromText, _ := from.ReconstructTypeByName(typeName, params.Options)
	toText, _ := to.ReconstructTypeByName(typeName, params.Options)
	if fromText == "" && toText == "" {
		return nil, pdbtypes.NewError(pdbtypes.ErrTypeNameNotFound, typeName)
	}

	if params.Options.PrintHeader {
		header := GenerateDiffHeader(from, to, params.Flavor)
		fromText = header + fromText
		toText = header + toText
	}

	result := diffLines(fromText, toText)

	fromLogger := from.logger
	if fromLogger != nil {
		fromLogger.Debugf("Type diffing took %s", time.Since(diffStart))
	}
	return result, nil
}

// diffLines computes the line-level diff between from and to with
// go-difflib's SequenceMatcher. A 'replace' opcode is split into its
// delete-then-insert pair so the output stream only ever carries the
// three ChangeTag values.
func diffLines(from, to string) *DiffResult {
	fromLines := splitKeepingLineEnds(from)
	toLines := splitKeepingLineEnds(to)

	matcher := difflib.NewMatcher(fromLines, toLines)
	opCodes := matcher.GetOpCodes()

	var lines []DiffLine
	var text strings.Builder

	emit := func(tag ChangeTag, oldIdx, newIdx int, line string) {
		lines = append(lines, DiffLine{OldIndex: oldIdx, NewIndex: newIdx, Change: tag, Line: line})
		text.WriteByte(tag.prefix())
		text.WriteString(line)
	}

	for _, op := range opCodes {
		switch op.Tag {
		case 'e':
			for k := 0; k < op.I2-op.I1; k++ {
				emit(ChangeEqual, op.I1+k, op.J1+k, fromLines[op.I1+k])
			}
		case 'd':
			for i := op.I1; i < op.I2; i++ {
				emit(ChangeDelete, i, -1, fromLines[i])
			}
		case 'i':
			for j := op.J1; j < op.J2; j++ {
				emit(ChangeInsert, -1, j, toLines[j])
			}
		case 'r':
			for i := op.I1; i < op.I2; i++ {
				emit(ChangeDelete, i, -1, fromLines[i])
			}
			for j := op.J1; j < op.J2; j++ {
				emit(ChangeInsert, -1, j, toLines[j])
			}
		}
	}

	return &DiffResult{Lines: lines, Text: text.String()}
}

// splitKeepingLineEnds splits s into lines, each retaining its
// trailing "\n" (when present), so re-joining the slice reproduces s
// exactly. difflib.SplitLines does almost this but additionally
// appends "\n" to its last element, which yields a spurious final
// "\n" element when s already ends in "\n";
// a reconstructed type's text always does, so that quirk would show
// up as a phantom trailing Equal/Insert/Delete record on every diff.
func splitKeepingLineEnds(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s)
			return lines
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
		if s == "" {
			return lines
		}
	}
}

// GenerateDiffHeader renders the dual-PDB header comment block: both
// file paths and machine types, plus the tool version.
func GenerateDiffHeader(from, to *PdbFile, flavor pdbtypes.Flavor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "//\n// Showing differences between two PDB files:\n//\n")
	fmt.Fprintf(&b, "// Reference PDB file: %s\n// Image architecture: %s\n//\n", from.filePath, from.machineType)
	fmt.Fprintf(&b, "// New PDB file: %s\n// Image architecture: %s\n//\n", to.filePath, to.machineType)
	fmt.Fprintf(&b, "// Information extracted with resym v%s\n//\n", Version)
	return b.String()
}
