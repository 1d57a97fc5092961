// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package resym

import (
	"context"
	"sync"

	"github.com/resymgo/resym/internal/codeview"
	"github.com/resymgo/resym/log"
	"github.com/resymgo/resym/pdbtypes"
)

// Slot is the opaque small integer identifying a loaded PDB handle.
type Slot int

// ReconstructParams bundles the options shared by every
// reconstruct-style command: the primitive spelling flavor plus the
// header/dependency/access-specifier switches.
type ReconstructParams struct {
	Flavor  pdbtypes.Flavor
	Options pdbtypes.ReconstructOptions
}

// Backend is a single serialized command-queue worker: one background
// goroutine owns every loaded PdbFile and processes commands strictly
// in issue order.
//
// Reconstruction of a single type stays single-threaded (its Builder's
// state is never shared); only forwarder resolution at load time runs
// with internal bounded parallelism, inside PdbFile itself. Filter and
// sort scans run sequentially.
type Backend struct {
	commands chan func()
	logger   *log.Helper

	mu    sync.Mutex
	slots map[Slot]*PdbFile

	closeOnce sync.Once
	done      chan struct{}
}

// NewBackend starts the worker goroutine and returns a Backend ready to
// accept commands. queueSize bounds how many in-flight commands may be
// enqueued before Submit blocks the caller; callers that want an
// effectively unbounded producer/worker pipe should pass a large
// queueSize (0 still works, but serializes producer and worker
// lock-step).
func NewBackend(queueSize int, logger log.Logger) *Backend {
	helper := log.Default()
	if logger != nil {
		helper = log.NewHelper(logger)
	}
	b := &Backend{
		commands: make(chan func(), queueSize),
		logger:   helper,
		slots:    make(map[Slot]*PdbFile),
		done:     make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Backend) run() {
	for cmd := range b.commands {
		cmd()
	}
	close(b.done)
}

// Close stops accepting new commands and waits for the worker to drain
// its queue and exit. It does not close any loaded PdbFile; callers
// that loaded slots are responsible for Unload-ing them first if they
// want the underlying mmap released.
func (b *Backend) Close() {
	b.closeOnce.Do(func() {
		close(b.commands)
	})
	<-b.done
}

// submit enqueues fn on the worker queue and blocks until it has run,
// returning whatever error fn produced. ctx cancellation only affects
// the caller's wait, not whether fn eventually runs — the queue has no
// cancellation points; an enqueued command always runs to completion
// and late results are simply discarded by the caller.
func submit[T any](ctx context.Context, b *Backend, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	resCh := make(chan result, 1)
	select {
	case b.commands <- func() {
		v, err := fn()
		resCh <- result{v, err}
	}:
	case <-ctx.Done():
		var zero T
		return zero, pdbtypes.WrapError(pdbtypes.ErrChannelError, "submitting command", ctx.Err())
	}
	select {
	case r := <-resCh:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, pdbtypes.WrapError(pdbtypes.ErrChannelError, "awaiting command result", ctx.Err())
	}
}

// Load opens the PDB at path and assigns it to slot, replacing whatever
// handle (if any) previously occupied it. The new PDB is opened first;
// the previous handle, if present, is closed only once that succeeds,
// so a failed Load leaves the slot unchanged.
func (b *Backend) Load(ctx context.Context, slot Slot, path string, opts *Options) error {
	_, err := submit(ctx, b, func() (struct{}, error) {
		pf, err := Load(path, opts)
		if err != nil {
			return struct{}{}, err
		}
		b.mu.Lock()
		if old, ok := b.slots[slot]; ok {
			old.Close()
		}
		b.slots[slot] = pf
		b.mu.Unlock()
		return struct{}{}, nil
	})
	return err
}

// Unload closes and evicts the PdbFile occupying slot, if any.
// Unloading an empty slot is a no-op.
func (b *Backend) Unload(ctx context.Context, slot Slot) error {
	_, err := submit(ctx, b, func() (struct{}, error) {
		b.mu.Lock()
		pf, ok := b.slots[slot]
		delete(b.slots, slot)
		b.mu.Unlock()
		if !ok {
			return struct{}{}, nil
		}
		return struct{}{}, pf.Close()
	})
	return err
}

func (b *Backend) at(slot Slot) (*PdbFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pf, ok := b.slots[slot]
	if !ok {
		return nil, pdbtypes.NewError(pdbtypes.ErrInvalidParameter, "no PDB loaded in this slot")
	}
	return pf, nil
}

// ListTypes filters the complete-type list of the PdbFile in slot and
// stable-sorts the matches by type index.
func (b *Backend) ListTypes(ctx context.Context, slot Slot, pattern string, useRegex, caseInsensitive bool) ([]TypeEntry, error) {
	return submit(ctx, b, func() ([]TypeEntry, error) {
		pf, err := b.at(slot)
		if err != nil {
			return nil, err
		}
		return pf.ListTypes(pattern, useRegex, caseInsensitive), nil
	})
}

// ReconstructByIndex runs the `reconstruct_by_index` command against
// the PdbFile in slot, optionally prepending the file header.
func (b *Backend) ReconstructByIndex(ctx context.Context, slot Slot, index codeview.TypeIndex, params ReconstructParams) (string, error) {
	return submit(ctx, b, func() (string, error) {
		pf, err := b.at(slot)
		if err != nil {
			return "", err
		}
		return b.reconstructAndHeader(pf, func() (string, error) {
			return pf.ReconstructTypeByIndex(index, params.Options)
		}, params)
	})
}

// ReconstructByName runs the `reconstruct_by_name` command against the
// PdbFile in slot, optionally prepending the file header.
func (b *Backend) ReconstructByName(ctx context.Context, slot Slot, name string, params ReconstructParams) (string, error) {
	return submit(ctx, b, func() (string, error) {
		pf, err := b.at(slot)
		if err != nil {
			return "", err
		}
		return b.reconstructAndHeader(pf, func() (string, error) {
			return pf.ReconstructTypeByName(name, params.Options)
		}, params)
	})
}

func (b *Backend) reconstructAndHeader(pf *PdbFile, reconstruct func() (string, error), params ReconstructParams) (string, error) {
	text, err := reconstruct()
	if err != nil {
		return "", err
	}
	if !params.Options.PrintHeader {
		return text, nil
	}
	return GenerateFileHeader(pf, params.Flavor, true) + text, nil
}

// DiffByName reconstructs typeName from both slots and computes a
// line-level diff between the two renditions.
func (b *Backend) DiffByName(ctx context.Context, slotFrom, slotTo Slot, name string, params ReconstructParams) (*DiffResult, error) {
	return submit(ctx, b, func() (*DiffResult, error) {
		from, err := b.at(slotFrom)
		if err != nil {
			return nil, err
		}
		to, err := b.at(slotTo)
		if err != nil {
			return nil, err
		}
		return DiffTypeByName(from, to, name, params)
	})
}
