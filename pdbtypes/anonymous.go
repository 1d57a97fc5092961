// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pdbtypes

import "sort"

// GroupKind tags a FieldGroup node as a plain member or a synthesized
// anonymous aggregate.
type GroupKind int

// Group kinds.
const (
	GroupPlain GroupKind = iota
	GroupUnion
	GroupStruct
)

// groupKind distinguishes which wrapper gets synthesized for an
// overlapping run of fields, depending on whether inferGroups is
// applied from a struct frame or a union frame.
type groupKind int

const (
	groupKindUnion  groupKind = iota // used inside a struct/class frame
	groupKindStruct                  // used inside a union frame
)

// FieldGroup is one node of the tree the emitter walks to render a
// class or union body: either a single field, or a synthesized
// anonymous union / anonymous struct wrapping a nested run of fields.
type FieldGroup struct {
	Kind    GroupKind
	Field   *Field
	Members []FieldGroup
}

// run is a maximal contiguous subsequence of fields whose offsets are
// non-decreasing; a run boundary marks where the next field's offset
// drops below the previous one, the signal that closes an open
// anonymous struct.
type run struct {
	start  uint64
	fields []Field
}

func splitRuns(fields []Field) []run {
	var runs []run
	var cur *run
	for i, f := range fields {
		if cur == nil || f.Offset < fields[i-1].Offset {
			runs = append(runs, run{start: f.Offset})
			cur = &runs[len(runs)-1]
		}
		cur.fields = append(cur.fields, f)
	}
	return runs
}

// maxGroupDepth bounds the union-of-structs-of-unions-... recursion.
// Real CodeView field lists never approach this; it exists so a
// degenerate input (duplicate fields at an identical offset and size,
// which re-derive the same single grouping at every depth) can't
// recurse forever between the two discovery passes.
const maxGroupDepth = 16

// inferGroups recovers anonymous union/struct groupings from the
// overlapping member offsets of an aggregate's stream-ordered field
// list.
//
// Inside a union frame (top == groupKindStruct), fields are split into
// maximal non-decreasing-offset runs (a run boundary is exactly where
// a later field's offset drops below the previous field's) and each
// run becomes one anonymous-struct member.
//
// Inside a struct/class frame (top == groupKindUnion), the grouping
// instead follows an offset-range sweep (see unionDiscoverySweep): a
// run of non-decreasing offsets is not enough, since two fields can
// share the exact same offset without being adjacent in a monotonic
// run once a third field follows at a higher offset.
//
// Each multi-field grouping recurses into the opposite discovery pass
// over its own members, so a union nested inside a struct nested
// inside a union (and so on) is recovered at every depth, not just the
// outermost level.
func inferGroups(fields []Field, top groupKind) []FieldGroup {
	return inferGroupsAt(fields, top, 0)
}

func inferGroupsAt(fields []Field, top groupKind, depth int) []FieldGroup {
	if top == groupKindStruct {
		// Inside a union frame, the whole field list already shares
		// one overlapping range by construction; only the struct
		// sub-grouping within it is inferred.
		runs := splitRuns(fields)
		var out []FieldGroup
		for _, r := range runs {
			out = append(out, runAsGroup(r, GroupStruct, groupKindUnion, depth))
		}
		return out
	}
	return unionDiscoverySweep(fields, depth)
}

// unionRange tracks one candidate anonymous-union grouping during the
// sweep by the field-INDEX range [start, end) it has absorbed, not by
// byte offset: a zero-width range (start == end) means the candidate
// was registered but never revisited, so it covers exactly the single
// field at that index; a wider range covers fields[start:end].
type unionRange struct {
	start, end int
}

// unionDiscoverySweep discovers anonymous unions inside a struct frame
// with a single shared "current union offset range" sweep: fields are
// walked left to right tracking one active byte-offset range at a
// time. A field whose offset
// falls inside the active range extends the union currently open at
// that range's start. A field whose offset matches an EARLIER,
// no-longer-active candidate reopens it, and the candidate's index
// range is extended through the current field's index — absorbing
// every intervening field by position, regardless of offset — then the
// active range is recomputed by rescanning that whole absorbed span.
// This index-based absorption, not a byte-offset containment check, is
// what lets a "union of structs" pattern (e.g. offsets 0,4,0,4) collapse
// every field into one top-level union. Anything else becomes a new
// candidate. Finally, a candidate whose index range is strictly
// contained in another's is discarded, keeping only top-level groupings.
func unionDiscoverySweep(fields []Field, depth int) []FieldGroup {
	found := make(map[uint64]*unionRange)
	var offsets []uint64

	var currStart, currEnd uint64
	for i, f := range fields {
		if f.Offset >= currStart && f.Offset < currEnd {
			info := found[currStart]
			info.end = i + 1
			if end := f.Offset + f.Size; end > currEnd {
				currEnd = end
			}
			continue
		}
		if info, ok := found[f.Offset]; ok {
			info.end = i + 1
			currStart = f.Offset
			for _, pf := range fields[info.start:info.end] {
				if end := pf.Offset + pf.Size; end > currEnd {
					currEnd = end
				}
			}
			continue
		}
		found[f.Offset] = &unionRange{start: i, end: i}
		offsets = append(offsets, f.Offset)
	}

	sort.Slice(offsets, func(a, b int) bool { return offsets[a] < offsets[b] })

	var out []FieldGroup
	for _, offset := range offsets {
		r := found[offset]
		if unionRangeContained(offset, r, found) {
			continue
		}
		out = append(out, unionRangeAsGroup(fields, *r, depth))
	}
	return out
}

func unionRangeContained(offset uint64, r *unionRange, found map[uint64]*unionRange) bool {
	for otherOffset, other := range found {
		if otherOffset == offset {
			continue
		}
		if r.start >= other.start && r.end < other.end {
			return true
		}
	}
	return false
}

func unionRangeAsGroup(fields []Field, r unionRange, depth int) FieldGroup {
	if r.start == r.end {
		field := fields[r.start]
		return FieldGroup{Kind: GroupPlain, Field: &field}
	}
	return runAsGroup(run{start: fields[r.start].Offset, fields: fields[r.start:r.end]}, GroupUnion, groupKindStruct, depth)
}

// runAsGroup wraps a candidate run/union as a FieldGroup. A multi-field
// grouping recurses into the opposite discovery pass over its own
// members (bounded by maxGroupDepth) so nested anonymous aggregates are
// recovered at every level; a pass that makes no progress (returns one
// group spanning every member, same as its input) stops recursing
// rather than ping-ponging between the two passes forever.
func runAsGroup(r run, multiKind GroupKind, nested groupKind, depth int) FieldGroup {
	if len(r.fields) == 1 {
		field := r.fields[0]
		return FieldGroup{Kind: GroupPlain, Field: &field}
	}

	members := plainMembers(r.fields)
	if depth < maxGroupDepth {
		sub := inferGroupsAt(r.fields, nested, depth+1)
		if !isNoProgress(sub, len(r.fields)) {
			members = sub
		}
	}
	return FieldGroup{Kind: multiKind, Members: members}
}

func plainMembers(fields []Field) []FieldGroup {
	members := make([]FieldGroup, 0, len(fields))
	for _, f := range fields {
		field := f
		members = append(members, FieldGroup{Kind: GroupPlain, Field: &field})
	}
	return members
}

// isNoProgress reports whether a nested discovery pass collapsed right
// back into a single grouping spanning every input field, the signal
// that recursing further would repeat forever without refining
// anything.
func isNoProgress(sub []FieldGroup, total int) bool {
	if len(sub) != 1 || sub[0].Kind == GroupPlain {
		return false
	}
	return len(sub[0].Members) == total
}
