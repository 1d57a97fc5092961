// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pdbtypes

import (
	"fmt"
	"strings"

	"github.com/resymgo/resym/internal/codeview"
	"github.com/resymgo/resym/log"
)

// Finder resolves a TypeIndex to its decoded record; satisfied by
// *codeview.Finder.
type Finder interface {
	Find(ti codeview.TypeIndex) (codeview.TypeData, bool)
}

// Resolver maps a forward-reference index to its complete counterpart;
// satisfied by the PDB Index's forwarder map (resym.ForwarderMap).
type Resolver interface {
	ResolveComplete(ti codeview.TypeIndex) codeview.TypeIndex
}

// Namer produces the split (left, right) C++ spelling of an arbitrary
// type index, given a Finder and a forwarder Resolver, and tracks
// every class, union and enumeration index it names in a needed set,
// seeding dependency closure.
type Namer struct {
	finder   Finder
	resolver Resolver
	flavor   Flavor
	needed   map[codeview.TypeIndex]struct{}
	logger   *log.Helper
}

// NewNamer builds a Namer over finder/resolver, spelling primitives
// under flavor.
func NewNamer(finder Finder, resolver Resolver, flavor Flavor) *Namer {
	return &Namer{finder: finder, resolver: resolver, flavor: flavor, needed: make(map[codeview.TypeIndex]struct{})}
}

// Needed returns every class, union and enumeration index this Namer
// has named, directly or while recursing, since construction.
func (n *Namer) Needed() map[codeview.TypeIndex]struct{} { return n.needed }

func (n *Namer) markNeeded(ti codeview.TypeIndex) { n.needed[ti] = struct{}{} }

// resolve follows the forwarder map before any non-primitive lookup,
// so spellings always refer to fully defined types.
func (n *Namer) resolve(ti codeview.TypeIndex) codeview.TypeIndex {
	if n.resolver == nil {
		return ti
	}
	return n.resolver.ResolveComplete(ti)
}

// Name produces the (left, right) spelling of ti.
func (n *Namer) Name(ti codeview.TypeIndex) (left, right string, err error) {
	if ti < codeview.FirstUserIndex {
		p := codeview.DecodePrimitive(ti)
		return spellPrimitive(n.flavor, p)
	}

	resolved := n.resolve(ti)

	data, ok := n.finder.Find(resolved)
	if !ok {
		return "", "", newError(ErrPdbParseError, fmt.Sprintf("type index 0x%x not found", uint32(resolved)))
	}

	// Only aggregate indices enter the needed set; composite records
	// (pointers, modifiers, arrays, procedures) are spelled inline and
	// never need a standalone declaration of their own.
	switch t := data.(type) {
	case codeview.Class:
		n.markNeeded(resolved)
		return canonicalName(t.Name, resolved), "", nil
	case codeview.Union:
		n.markNeeded(resolved)
		return canonicalName(t.Name, resolved), "", nil
	case codeview.Enumeration:
		n.markNeeded(resolved)
		return canonicalName(t.Name, resolved), "", nil

	case codeview.Pointer:
		return n.namePointer(t)

	case codeview.Modifier:
		return n.nameModifier(t)

	case codeview.Array:
		return n.nameArray(resolved)

	case codeview.Bitfield:
		return n.nameBitfield(t)

	case codeview.Procedure:
		return n.nameProcedure(t)

	case codeview.MemberFunction:
		return n.nameMemberFunction(t)

	case codeview.ArgumentList:
		parts := make([]string, 0, len(t.Arguments))
		for _, arg := range t.Arguments {
			l, r, err := n.Name(arg)
			if err != nil {
				return "", "", err
			}
			parts = append(parts, strings.TrimSpace(l+r))
		}
		return strings.Join(parts, ", "), "", nil

	default:
		return "", "", newError(ErrNotImplemented, fmt.Sprintf("naming record kind %T", data))
	}
}

// Size returns the byte size of ti, needed by the anonymous-aggregate
// inference and by array-dimension decomposition.
func (n *Namer) Size(ti codeview.TypeIndex) (uint64, error) {
	if ti < codeview.FirstUserIndex {
		return primitiveSizeOf(codeview.DecodePrimitive(ti)), nil
	}
	resolved := n.resolve(ti)
	data, ok := n.finder.Find(resolved)
	if !ok {
		return 0, newError(ErrPdbParseError, fmt.Sprintf("type index 0x%x not found", uint32(resolved)))
	}
	switch t := data.(type) {
	case codeview.Class:
		return t.Size, nil
	case codeview.Union:
		return t.Size, nil
	case codeview.Pointer:
		return t.Kind.Size(), nil
	case codeview.Modifier:
		return n.Size(t.UnderlyingType)
	case codeview.Array:
		return t.Size, nil
	case codeview.Bitfield:
		return n.Size(t.UnderlyingType)
	case codeview.Enumeration:
		return n.Size(t.UnderlyingType)
	default:
		return 0, newError(ErrNotImplemented, fmt.Sprintf("size of record kind %T", data))
	}
}

func (n *Namer) namePointer(p codeview.Pointer) (left, right string, err error) {
	pl, pr, err := n.Name(p.UnderlyingType)
	if err != nil {
		return "", "", err
	}
	sigil := "*"
	switch p.Mode {
	case codeview.PointerModeLValueReference:
		sigil = "&"
	case codeview.PointerModeRValueReference:
		sigil = "&&"
	}
	return pl + sigil, pr, nil
}

func (n *Namer) nameModifier(m codeview.Modifier) (left, right string, err error) {
	ul, ur, err := n.Name(m.UnderlyingType)
	if err != nil {
		return "", "", err
	}
	prefix := ""
	if m.Constant {
		prefix = "const "
	} else if m.Volatile {
		prefix = "volatile "
	}
	return prefix + ul, ur, nil
}

// nameArray decomposes multi-dimensional arrays: CodeView chains
// nested LF_ARRAY records through ElementType, each carrying its own
// *cumulative* byte size. Walking that chain collects one cumulative
// size per dimension, outermost first; each dimension's element count
// is its own cumulative size divided by the next level's (or, for the
// innermost dimension, by the base element's size).
func (n *Namer) nameArray(ti codeview.TypeIndex) (left, right string, err error) {
	var cumulative []uint64
	cur := ti
	var elem codeview.TypeIndex
	for {
		if cur < codeview.FirstUserIndex {
			elem = cur
			break
		}
		data, ok := n.finder.Find(cur)
		if !ok {
			return "", "", newError(ErrPdbParseError, fmt.Sprintf("array element 0x%x not found", uint32(cur)))
		}
		arr, isArray := data.(codeview.Array)
		if !isArray {
			elem = cur
			break
		}
		cumulative = append(cumulative, arr.Size)
		cur = n.resolve(arr.ElementType)
	}

	baseLeft, baseRight, err := n.Name(elem)
	if err != nil {
		return "", "", err
	}
	elemSize, err := n.Size(elem)
	if err != nil {
		return "", "", err
	}
	if elemSize == 0 {
		n.logger.Warnf("array element 0x%x reports zero size, using 1", uint32(elem))
		elemSize = 1
	}

	var b strings.Builder
	for i, sz := range cumulative {
		divisor := elemSize
		if i+1 < len(cumulative) {
			divisor = cumulative[i+1]
		}
		if divisor == 0 {
			divisor = 1
		}
		fmt.Fprintf(&b, "[%d]", sz/divisor)
	}
	return baseLeft, b.String() + baseRight, nil
}

func (n *Namer) nameBitfield(bf codeview.Bitfield) (left, right string, err error) {
	ul, ur, err := n.Name(bf.UnderlyingType)
	if err != nil {
		return "", "", err
	}
	return ul, fmt.Sprintf(" : %d%s", bf.Length, ur), nil
}

func (n *Namer) nameProcedure(p codeview.Procedure) (left, right string, err error) {
	rl, rr, err := n.Name(p.ReturnType)
	if err != nil {
		return "", "", err
	}
	args := ""
	if p.ArgumentList != codeview.Default {
		args, err = n.argListString(p.ArgumentList)
		if err != nil {
			return "", "", err
		}
	}
	return rl + rr + " (", ")(" + args + ")", nil
}

func (n *Namer) nameMemberFunction(m codeview.MemberFunction) (left, right string, err error) {
	rl, rr, err := n.Name(m.ReturnType)
	if err != nil {
		return "", "", err
	}
	owner, _, err := n.Name(m.ClassType)
	if err != nil {
		return "", "", err
	}
	args := ""
	if m.ArgumentList != codeview.Default {
		args, err = n.argListString(m.ArgumentList)
		if err != nil {
			return "", "", err
		}
	}
	return rl + rr + " (" + owner + "::", ")(" + args + ")", nil
}

func (n *Namer) argListString(ti codeview.TypeIndex) (string, error) {
	data, ok := n.finder.Find(ti)
	if !ok {
		return "", newError(ErrInvalidParameter, "argument list type index not found")
	}
	al, ok := data.(codeview.ArgumentList)
	if !ok {
		return "", newError(ErrInvalidParameter, "expected argument list")
	}
	parts := make([]string, 0, len(al.Arguments))
	for _, arg := range al.Arguments {
		l, r, err := n.Name(arg)
		if err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimSpace(l+r))
	}
	return strings.Join(parts, ", "), nil
}

// canonicalName rewrites CodeView's unnamed-tag markers to
// _unnamed_<index>, so anonymous names never leak into output.
func canonicalName(name codeview.RawString, ti codeview.TypeIndex) string {
	s := string(name)
	if IsUnnamed(s) {
		return fmt.Sprintf("_unnamed_%d", uint32(ti))
	}
	return s
}

// IsUnnamed reports whether name carries one of CodeView's
// anonymous-tag markers.
func IsUnnamed(name string) bool {
	return strings.Contains(name, "<anonymous-") || strings.Contains(name, "<unnamed-") || strings.Contains(name, "__unnamed")
}

// CanonicalName applies the same anonymous-tag rewrite canonicalName
// uses internally, exported so the loader can build its complete-type
// list with identical rules.
func CanonicalName(name string, ti codeview.TypeIndex) string {
	return canonicalName(codeview.RawString(name), ti)
}
