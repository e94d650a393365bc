// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

const (
	// mmapThreshold is the footprint (header plus aligned payload) above
	// which Malloc and Realloc bypass the heap entirely and go straight
	// to map_pages; a footprint equal to it still stays on the heap.
	mmapThreshold = 128 * 1024

	// preallocSize is the size of the single grow_heap call made on the
	// first Malloc or Calloc call, before that call's own request is
	// serviced. The preallocation happens even when that first request
	// is itself served by map_pages rather than from the heap.
	preallocSize = 128 * 1024
)

// findBestFit scans the heap-resident run of the list for the smallest
// FREE block able to hold requested bytes, returning nil if none
// qualifies. Ties keep the first (lowest-address) candidate encountered,
// since heap blocks are threaded in ascending address order.
func (l *blockList) findBestFit(requested uintptr) *header {
	var best *header
	for b := l.firstHeap(); b != nil; b = b.next {
		if b.status != statusFree || alignUp(b.size) < alignUp(requested) {
			continue
		}
		if best == nil || b.size < best.size {
			best = b
		}
	}
	return best
}

// reuseOrExtend is the heap half of the allocation policy: prefer
// splitting or handing over an existing FREE block, extend the block
// that currently sits at the break when it's FREE but short, and fall
// back to growing the heap by a fresh block only when neither applies.
// It never touches map_pages; the caller is responsible for routing
// requests whose footprint exceeds mmapThreshold elsewhere.
func (a *Allocator) reuseOrExtend(requested uintptr) *header {
	if b := a.list.findBestFit(requested); b != nil {
		if alignUp(b.size) >= alignUp(requested)+minSplitRemainder {
			a.list.split(b, requested, b.size)
		} else {
			b.status = statusHeapAlloc
		}
		return b
	}

	if tail := a.list.lastHeap(); tail != nil && tail.status == statusFree {
		extra := footprint(requested) - footprint(tail.size)
		if _, err := a.arena.grow(extra); err != nil {
			a.fatal("grow_heap", err)
		}
		tail.size = requested
		tail.status = statusHeapAlloc
		return tail
	}

	return a.growNewBlock(requested)
}

// growNewBlock extends the heap by exactly enough to host a fresh
// HEAP_ALLOC block of requested bytes, appending it to the list.
func (a *Allocator) growNewBlock(requested uintptr) *header {
	base, err := a.arena.grow(footprint(requested))
	if err != nil {
		a.fatal("grow_heap", err)
	}
	b := blockAt(base)
	b.size = requested
	b.status = statusHeapAlloc
	a.list.insertHeap(b)
	return b
}

// preallocate performs the one-shot heap preallocation: a single
// grow_heap call for preallocSize bytes, recorded as one large FREE
// block so the very first small allocation is served from it via the
// ordinary reuse path instead of growing the heap again immediately.
func (a *Allocator) preallocate() {
	base, err := a.arena.grow(preallocSize)
	if err != nil {
		a.fatal("grow_heap", err)
	}
	b := blockAt(base)
	b.size = preallocSize - headerSize
	b.status = statusFree
	a.list.insertHeap(b)
	a.preallocDone = true
}
