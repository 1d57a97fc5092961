// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package resym

import (
	"context"
	"testing"

	"github.com/resymgo/resym/pdbtypes"
)

func TestBackendUnloadEmptySlotIsNoOp(t *testing.T) {
	b := NewBackend(4, nil)
	defer b.Close()

	if err := b.Unload(context.Background(), Slot(0)); err != nil {
		t.Fatalf("Unload(empty slot) error: %v", err)
	}
}

func TestBackendListTypesOnEmptySlot(t *testing.T) {
	b := NewBackend(4, nil)
	defer b.Close()

	_, err := b.ListTypes(context.Background(), Slot(0), "", false, false)
	if err == nil {
		t.Fatal("ListTypes on an empty slot: want error, got nil")
	}
	if pdbtypes.KindOf(err) != pdbtypes.ErrInvalidParameter {
		t.Errorf("ListTypes error kind = %v, want ErrInvalidParameter", pdbtypes.KindOf(err))
	}
}

func TestBackendLoadMissingFile(t *testing.T) {
	b := NewBackend(4, nil)
	defer b.Close()

	err := b.Load(context.Background(), Slot(0), "/nonexistent/path.pdb", nil)
	if err == nil {
		t.Fatal("Load(nonexistent path): want error, got nil")
	}
}

// TestBackendConcurrentSubmissionsComplete submits commands from many
// goroutines at once and checks that every one of them returns.
func TestBackendConcurrentSubmissionsComplete(t *testing.T) {
	b := NewBackend(0, nil)
	defer b.Close()

	const n = 20
	results := make(chan int, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			_, _ = b.ListTypes(context.Background(), Slot(0), "", false, false)
			results <- i
		}()
	}
	for i := 0; i < n; i++ {
		<-results
	}
}
