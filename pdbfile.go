// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package resym

import (
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/resymgo/resym/internal/codeview"
	"github.com/resymgo/resym/internal/msf"
	"github.com/resymgo/resym/log"
	"github.com/resymgo/resym/pdbtypes"
)

// TypeEntry is one (display name, type index) pair of the
// complete-type list.
type TypeEntry struct {
	Name  string
	Index codeview.TypeIndex
}

// ForwarderMap maps a forward-reference type index to its
// complete-definition counterpart, built once at load time and
// read-only afterward. It implements pdbtypes.Resolver.
type ForwarderMap struct {
	m map[codeview.TypeIndex]codeview.TypeIndex
}

// ResolveComplete returns the complete-type index fwd's name resolves
// to, or fwd unchanged if no forwarder entry exists for it. Resolving
// an already-complete index is a no-op, since the map's image only
// ever contains complete indices, so resolution is idempotent by
// construction.
func (f *ForwarderMap) ResolveComplete(ti codeview.TypeIndex) codeview.TypeIndex {
	if f == nil {
		return ti
	}
	if c, ok := f.m[ti]; ok {
		return c
	}
	return ti
}

// Options configures a PdbFile load.
type Options struct {
	// Logger receives non-fatal diagnostics (forwarder misses, field
	// decode failures). A nil Logger falls back to a stderr logger
	// filtered to error level, matching file.go's default construction.
	Logger log.Logger
}

func (o *Options) helper() *log.Helper {
	if o == nil || o.Logger == nil {
		return log.Default()
	}
	return log.NewHelper(o.Logger)
}

// PdbFile is a loaded PDB handle: the CodeView type finder, the
// complete-type list, and the forwarder map, all built once at load
// time and read-only for the handle's lifetime.
type PdbFile struct {
	filePath         string
	machineType      msf.MachineType
	container        *msf.File
	finder           *codeview.Finder
	completeTypeList []TypeEntry
	forwarders       *ForwarderMap
	logger           *log.Helper
}

// Load opens the PDB at path, memory-maps it for the handle's lifetime,
// and indexes its type stream in a single pass: the complete-type list,
// the forwarder map, and the populated type finder.
func Load(path string, opts *Options) (*PdbFile, error) {
	logger := opts.helper()

	container, err := msf.Open(path, logger)
	if err != nil {
		return nil, pdbtypes.WrapError(pdbtypes.ErrIoError, fmt.Sprintf("opening %q", path), err)
	}

	pf, err := loadFromContainer(container, path, logger)
	if err != nil {
		container.Close()
		return nil, err
	}
	return pf, nil
}

func loadFromContainer(container *msf.File, path string, logger *log.Helper) (*PdbFile, error) {
	machineType, err := container.MachineType()
	if err != nil {
		return nil, pdbtypes.WrapError(pdbtypes.ErrPdbParseError, "reading DBI machine type", err)
	}

	typeStreamData, err := container.Stream(msf.TypeStreamIndex)
	if err != nil {
		return nil, pdbtypes.WrapError(pdbtypes.ErrPdbParseError, "reading TPI stream", err)
	}
	typeStream, err := codeview.NewTypeStream(typeStreamData)
	if err != nil {
		return nil, pdbtypes.WrapError(pdbtypes.ErrPdbParseError, "parsing TPI header", err)
	}

	pdbStart := time.Now()

	nameToComplete := make(map[string]codeview.TypeIndex)
	type forwarderEntry struct {
		name string
		idx  codeview.TypeIndex
	}
	var forwarderList []forwarderEntry
	var completeTypeList []TypeEntry

	finder, err := typeStreamIterate(typeStream, func(idx codeview.TypeIndex, data codeview.TypeData) {
		name, properties, isAggregate := aggregateNameAndProperties(data)
		if !isAggregate {
			return
		}
		if properties.ForwardReference() {
			forwarderList = append(forwarderList, forwarderEntry{name: name, idx: idx})
			return
		}
		nameToComplete[name] = idx
		completeTypeList = append(completeTypeList, TypeEntry{
			Name:  pdbtypes.CanonicalName(name, idx),
			Index: idx,
		})
	})
	if err != nil {
		return nil, pdbtypes.WrapError(pdbtypes.ErrPdbParseError, "walking type stream", err)
	}
	logger.Debugf("PDB loading took %s", time.Since(pdbStart))

	// Resolve forwarders to their complete counterpart in parallel;
	// each entry is independent, so the list fans out over a bounded
	// worker group.
	fwdStart := time.Now()
	forwarders := &ForwarderMap{m: make(map[codeview.TypeIndex]codeview.TypeIndex, len(forwarderList))}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, fe := range forwarderList {
		fe := fe
		g.Go(func() error {
			if complete, ok := nameToComplete[fe.name]; ok {
				mu.Lock()
				forwarders.m[fe.idx] = complete
				mu.Unlock()
			} else {
				logger.Debugf("%q's type definition wasn't found", fe.name)
			}
			return nil
		})
	}
	_ = g.Wait()
	logger.Debugf("Forwarder resolution took %s", time.Since(fwdStart))

	return &PdbFile{
		filePath:         path,
		machineType:      machineType,
		container:        container,
		finder:           finder,
		completeTypeList: completeTypeList,
		forwarders:       forwarders,
		logger:           logger,
	}, nil
}

// typeStreamIterate drives TypeStream.Iterate and returns the resulting
// Finder, factored out so Load's single pass both builds the name/
// forwarder indexes above and populates the Finder exactly once.
func typeStreamIterate(ts *codeview.TypeStream, visit func(codeview.TypeIndex, codeview.TypeData)) (*codeview.Finder, error) {
	if err := ts.Iterate(func(idx codeview.TypeIndex, data codeview.TypeData) error {
		visit(idx, data)
		return nil
	}); err != nil {
		return nil, err
	}
	return ts.Finder(), nil
}

// aggregateNameAndProperties extracts the CodeView name/properties pair
// from a Class/Union/Enumeration record; other record kinds are not
// candidates for the complete-type list or forwarder map.
func aggregateNameAndProperties(data codeview.TypeData) (name string, properties codeview.Properties, ok bool) {
	switch t := data.(type) {
	case codeview.Class:
		return string(t.Name), t.Properties, true
	case codeview.Union:
		return string(t.Name), t.Properties, true
	case codeview.Enumeration:
		return string(t.Name), t.Properties, true
	default:
		return "", 0, false
	}
}

// Close unmaps the underlying PDB file.
func (p *PdbFile) Close() error {
	if p.container == nil {
		return nil
	}
	return p.container.Close()
}

// FilePath returns the path the PDB was loaded from.
func (p *PdbFile) FilePath() string { return p.filePath }

// MachineType returns the image architecture reported by the PDB's DBI
// stream.
func (p *PdbFile) MachineType() msf.MachineType { return p.machineType }

// List returns every (display name, type index) pair known to this
// PDB, in stream-discovery order.
func (p *PdbFile) List() []TypeEntry { return p.completeTypeList }

// Find resolves a type index to its decoded record.
func (p *PdbFile) Find(ti codeview.TypeIndex) (codeview.TypeData, bool) { return p.finder.Find(ti) }

// ResolveComplete exposes the forwarder map's resolution step.
func (p *PdbFile) ResolveComplete(ti codeview.TypeIndex) codeview.TypeIndex {
	return p.forwarders.ResolveComplete(ti)
}

// ListTypes scans the complete-type list with a substring or
// regular-expression predicate, then stable-sorts the matches by type
// index so the result order is deterministic regardless of discovery
// order.
func (p *PdbFile) ListTypes(pattern string, useRegex, caseInsensitive bool) []TypeEntry {
	if pattern == "" {
		out := make([]TypeEntry, len(p.completeTypeList))
		copy(out, p.completeTypeList)
		return out
	}
	var out []TypeEntry
	if useRegex {
		out = filterTypesRegex(p.completeTypeList, pattern, caseInsensitive)
	} else {
		out = filterTypesRegular(p.completeTypeList, pattern, caseInsensitive)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ReconstructTypeByIndex reconstructs the type at root, optionally
// expanding its transitive dependency closure first.
func (p *PdbFile) ReconstructTypeByIndex(root codeview.TypeIndex, opts pdbtypes.ReconstructOptions) (string, error) {
	return p.reconstructInternal(root, opts)
}

// ReconstructTypeByName resolves typeName to a type index by scanning
// the complete-type list (matching on the canonicalized display name,
// exactly as the forwarder-free complete list already stores it) and
// reconstructs it. A miss surfaces ErrTypeNameNotFound.
func (p *PdbFile) ReconstructTypeByName(typeName string, opts pdbtypes.ReconstructOptions) (string, error) {
	idx := p.findTypeIndexByName(typeName)
	if idx == codeview.Default {
		return "", pdbtypes.NewError(pdbtypes.ErrTypeNameNotFound, typeName)
	}
	return p.reconstructInternal(idx, opts)
}

func (p *PdbFile) findTypeIndexByName(typeName string) codeview.TypeIndex {
	for _, entry := range p.completeTypeList {
		if entry.Name == typeName {
			return entry.Index
		}
	}
	return codeview.Default
}

func (p *PdbFile) reconstructInternal(root codeview.TypeIndex, opts pdbtypes.ReconstructOptions) (string, error) {
	namer := pdbtypes.NewNamer(p.finder, p.forwarders, opts.PrimitivesFlavor)
	builder := pdbtypes.NewBuilder(namer, p.logger)

	rootBundle, err := p.addToBundle(builder, &pdbtypes.Bundle{}, root)
	if err != nil {
		return "", err
	}

	if !opts.ReconstructDependencies {
		return rootBundle.Render(opts), nil
	}

	depStart := time.Now()
	depsBundle := &pdbtypes.Bundle{}
	processed := map[codeview.TypeIndex]struct{}{root: {}}
	for {
		next, ok := firstUnprocessed(namer.Needed(), processed)
		if !ok {
			break
		}
		depsBundle, err = p.addToBundle(builder, depsBundle, next)
		if err != nil {
			return "", err
		}
		processed[next] = struct{}{}
	}
	p.logger.Debugf("Dependencies reconstruction took %s", time.Since(depStart))

	return depsBundle.Render(opts) + rootBundle.Render(opts), nil
}

// firstUnprocessed returns the smallest element of needed not yet in
// processed. Picking the minimum (rather than relying on Go's
// non-deterministic map iteration order) keeps repeated
// reconstructions of the same type byte-identical.
func firstUnprocessed(needed map[codeview.TypeIndex]struct{}, processed map[codeview.TypeIndex]struct{}) (codeview.TypeIndex, bool) {
	var min codeview.TypeIndex
	found := false
	for ti := range needed {
		if _, done := processed[ti]; done {
			continue
		}
		if !found || ti < min {
			min = ti
			found = true
		}
	}
	return min, found
}

// addToBundle builds root into its aggregate view and prepends it to
// bundle's class, union or enum accumulator, so that dependencies
// discovered later appear first in the output (defined-before-used
// ordering). A forward reference is appended to ForwardRefs instead.
func (p *PdbFile) addToBundle(builder *pdbtypes.Builder, bundle *pdbtypes.Bundle, root codeview.TypeIndex) (*pdbtypes.Bundle, error) {
	built, err := builder.Build(root)
	if err != nil {
		return bundle, err
	}
	switch v := built.(type) {
	case *pdbtypes.ForwardReference:
		bundle.ForwardRefs = append(bundle.ForwardRefs, *v)
	case *pdbtypes.Class:
		bundle.Classes = append([]*pdbtypes.Class{v}, bundle.Classes...)
	case *pdbtypes.Union:
		bundle.Unions = append([]*pdbtypes.Union{v}, bundle.Unions...)
	case *pdbtypes.Enumeration:
		bundle.Enums = append([]*pdbtypes.Enumeration{v}, bundle.Enums...)
	}
	return bundle, nil
}

// GenerateFileHeader renders the optional header comment block
// prepended to a single-PDB reconstruction: source path, image
// architecture, and tool version.
func GenerateFileHeader(p *PdbFile, flavor pdbtypes.Flavor, includeHeaderFiles bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "//\n// PDB file: %s\n// Image architecture: %s\n//\n// Information extracted with resym v%s\n//\n", p.filePath, p.machineType, Version)
	if includeHeaderFiles {
		b.WriteByte('\n')
		b.WriteString(pdbtypes.IncludeHeaderForFlavor(flavor))
	}
	return b.String()
}

func filterTypesRegular(list []TypeEntry, pattern string, caseInsensitive bool) []TypeEntry {
	var out []TypeEntry
	needle := pattern
	if caseInsensitive {
		needle = strings.ToLower(pattern)
	}
	for _, e := range list {
		name := e.Name
		if caseInsensitive {
			name = strings.ToLower(name)
		}
		if strings.Contains(name, needle) {
			out = append(out, e)
		}
	}
	return out
}

// filterTypesRegex implements the regex branch of list filtering. An
// invalid pattern is tolerated as an empty result rather than
// propagated as an error.
func filterTypesRegex(list []TypeEntry, pattern string, caseInsensitive bool) []TypeEntry {
	expr := pattern
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	var out []TypeEntry
	for _, e := range list {
		if re.MatchString(e.Name) {
			out = append(out, e)
		}
	}
	return out
}
