// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import "fmt"

// Stats summarizes an Allocator's lifetime activity.
type Stats struct {
	Mallocs   uint64 // successful Malloc/Calloc calls
	Frees     uint64 // Free calls that released a block
	Reallocs  uint64 // Realloc calls that resized a still-live block
	Mmaps     uint64 // map_pages calls
	Munmaps   uint64 // unmap_pages calls
}

// Stats returns a snapshot of the allocator's counters.
func (a *Allocator) Stats() Stats { return a.stats }

// Verify walks the block list checking the invariants the allocator is
// supposed to maintain at all times: no two adjacent FREE heap blocks,
// ascending address order among heap blocks, and every MAPPED block
// sitting ahead of every heap block. It's meant for tests and
// diagnostics, not the allocation hot path.
func (a *Allocator) Verify() error {
	var prev *header
	seenHeap := false
	for b := a.list.head; b != nil; b = b.next {
		if b.status == statusMapped {
			if seenHeap {
				return fmt.Errorf("mapped block %#x follows a heap block", addr(b))
			}
		} else {
			seenHeap = true
			if prev != nil && prev.status != statusMapped && addr(prev) >= addr(b) {
				return fmt.Errorf("heap blocks out of address order: %#x >= %#x", addr(prev), addr(b))
			}
			if prev != nil && prev.status == statusFree && b.status == statusFree {
				return fmt.Errorf("adjacent free blocks at %#x and %#x were not coalesced", addr(prev), addr(b))
			}
		}
		prev = b
	}
	return nil
}
