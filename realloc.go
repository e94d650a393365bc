// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import "unsafe"

// Realloc resizes the allocation backing the []byte view b to size
// bytes, preserving the lesser of the old and new sizes worth of
// content, and returns the (possibly moved) new view. A nil/empty b
// behaves like Malloc(size); size == 0 behaves like Free(b) and returns
// nil.
func (a *Allocator) Realloc(b []byte, size uintptr) []byte {
	if len(b) == 0 {
		return a.Malloc(size)
	}
	nb := a.realloc(headerOf(unsafe.Pointer(&b[0])), size)
	if nb == nil {
		return nil
	}
	return nb.payload()
}

// UnsafeRealloc is Realloc for the raw-pointer API.
func (a *Allocator) UnsafeRealloc(p unsafe.Pointer, size uintptr) unsafe.Pointer {
	if p == nil {
		return a.UnsafeMalloc(size)
	}
	b := a.realloc(headerOf(p), size)
	if b == nil {
		return nil
	}
	return payloadOf(b)
}

// physicalCapacity reports the usable byte count at b without moving
// it: for a MAPPED block that's simply its advertised size, since the
// mapping is sized exactly to the request; for a heap block it's the
// gap to the next block's address, or to the current break when b is
// the last heap block, which may exceed b.size when b has unclaimed
// trailing slack.
func physicalCapacity(a *Allocator, b *header) uintptr {
	if b.status == statusMapped {
		return b.size
	}
	var end uintptr
	if b.next != nil {
		end = addr(b.next)
	} else {
		end = a.arena.breakAddr()
	}
	return end - addr(b) - headerSize
}

func (a *Allocator) realloc(b *header, size uintptr) *header {
	if size == 0 {
		a.free(b)
		return nil
	}
	if b.status == statusFree {
		return nil
	}
	a.stats.Reallocs++

	if b.status == statusMapped {
		return a.reallocMapped(b, size)
	}
	if footprint(size) > mmapThreshold {
		return a.migrateToMapped(b, size)
	}
	return a.reallocHeap(b, size)
}

// reallocMapped handles a block currently backed by its own map_pages
// region. A mapping can't be resized in place, so unless the request
// drops below mmapThreshold and is worth migrating to the heap, this
// always relocates to a fresh mapping.
func (a *Allocator) reallocMapped(b *header, size uintptr) *header {
	if footprint(size) <= mmapThreshold {
		dst := a.reuseOrExtend(size)
		copyPayload(dst, b)
		a.unmapBlock(b)
		return dst
	}
	dst := a.mapBlock(size)
	copyPayload(dst, b)
	a.unmapBlock(b)
	return dst
}

// migrateToMapped handles a heap-resident block whose new size has
// grown past mmapThreshold: it no longer belongs on the heap at all.
func (a *Allocator) migrateToMapped(b *header, size uintptr) *header {
	dst := a.mapBlock(size)
	copyPayload(dst, b)
	a.retireHeapBlock(b)
	return dst
}

// reallocHeap handles the common case: both the old and new size keep
// the block on the heap. It tries, in order, truncating or widening in
// place using capacity the block already physically owns (computed from
// Recovered Capacity, not from b's possibly-stale size field), growing
// the heap when the block sits at the break, absorbing a free neighbor,
// and finally relocating to a new block as a last resort.
func (a *Allocator) reallocHeap(b *header, size uintptr) *header {
	capacity := physicalCapacity(a, b)

	if size <= capacity {
		if alignUp(capacity) >= alignUp(size)+minSplitRemainder {
			a.splitHeapBlock(b, size, capacity)
		} else {
			b.size = size
		}
		return b
	}

	if a.list.lastHeap() == b {
		extra := footprint(size) - footprint(capacity)
		if _, err := a.arena.grow(extra); err == nil {
			b.size = size
			return b
		}
	}

	if a.list.coalesceForward(b) {
		capacity = b.size
		if alignUp(capacity) >= size {
			if alignUp(capacity) >= alignUp(size)+minSplitRemainder {
				a.splitHeapBlock(b, size, capacity)
			}
			return b
		}
		// Coalescing wasn't enough; keep the merged slack rather than
		// splitting it back off, and fall through to relocation below.
	}

	dst := a.reuseOrExtend(size)
	copyPayload(dst, b)
	a.retireHeapBlock(b)
	return dst
}

// splitHeapBlock carves size bytes out of b, whose true physical
// payload capacity is capacity, and immediately coalesces the new
// trailing remainder forward into whatever FREE block already follows
// it. Without that second coalesce, a shrink or a partial grow that
// stops just short of a pre-existing free neighbor would leave two
// adjacent FREE blocks on the list.
func (a *Allocator) splitHeapBlock(b *header, size, capacity uintptr) {
	a.list.split(b, size, capacity)
	a.list.coalesceForward(b.next)
}

// copyPayload copies min(src.size, dst.size) bytes from src into dst.
func copyPayload(dst, src *header) {
	n := src.size
	if dst.size < n {
		n = dst.size
	}
	copy(dst.payloadBytes(n), src.payloadBytes(n))
}

// unmapBlock extracts and releases a MAPPED block during relocation.
func (a *Allocator) unmapBlock(b *header) {
	a.list.extract(b)
	if err := unmapPages(addr(b), footprint(b.size)); err != nil {
		a.fatal("unmap_pages", err)
	}
	a.stats.Munmaps++
}

// retireHeapBlock marks a heap block FREE and coalesces it with its
// neighbors during relocation, without touching mapped bookkeeping.
func (a *Allocator) retireHeapBlock(b *header) {
	b.status = statusFree
	b = a.list.coalesceBackward(b)
	a.list.coalesceForward(b)
}
