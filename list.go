// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

// blockList is the single doubly linked list threading every live block,
// both heap-resident and page-mapped. Ordering invariant: every MAPPED
// block precedes every heap block, and heap blocks appear in ascending
// address order.
type blockList struct {
	head *header
}

// insertHeap appends b at the tail of the list. Heap blocks always go
// last, so appending at the absolute tail preserves the MAPPED-then-heap
// ordering invariant without needing to search for the boundary.
func (l *blockList) insertHeap(b *header) {
	b.prev = nil
	b.next = nil
	tail := l.last()
	if tail == nil {
		l.head = b
		return
	}
	tail.next = b
	b.prev = tail
}

// insertMapped inserts b at the front of the mapped prefix (or at the
// list head if there is none yet), ahead of the first heap block. Since
// mapped blocks have no meaningful ordering relative to each other, the
// simplest placement that keeps the invariant is to always make the new
// block the new head.
func (l *blockList) insertMapped(b *header) {
	b.prev = nil
	b.next = l.head
	if l.head != nil {
		l.head.prev = b
	}
	l.head = b
}

// extract unlinks b from the list, fixing the head pointer if necessary.
func (l *blockList) extract(b *header) {
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		l.head = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	}
	b.prev = nil
	b.next = nil
}

// last returns the tail of the whole list, or nil if the list is empty.
func (l *blockList) last() *header {
	b := l.head
	if b == nil {
		return nil
	}
	for b.next != nil {
		b = b.next
	}
	return b
}

// lastHeap returns the last heap-resident block (FREE or HEAP_ALLOC), or
// nil if there is none. Because heap blocks are always the list's
// trailing run, this is simply the list's tail when the tail isn't
// mapped and the list has a heap portion at all.
func (l *blockList) lastHeap() *header {
	b := l.last()
	if b == nil || b.status == statusMapped {
		return nil
	}
	return b
}

// firstHeap returns the first heap-resident block in address order, or
// nil if none exists.
func (l *blockList) firstHeap() *header {
	for b := l.head; b != nil; b = b.next {
		if b.status != statusMapped {
			return b
		}
	}
	return nil
}

// lastMapped returns the last block of the mapped prefix, or nil if
// there is no mapped block.
func (l *blockList) lastMapped() *header {
	var last *header
	for b := l.head; b != nil && b.status == statusMapped; b = b.next {
		last = b
	}
	return last
}

// coalesceForward merges b.next into b when b.next exists, is FREE, and
// is heap-resident (mapped blocks never sit after a heap block, so this
// is implied once b itself is a heap block). It does not require b to be
// FREE — realloc uses it to grow a still-allocated block in place.
// b's resulting size is computed from the address gap to n's end rather
// than from b's previous size field, so this stays correct even when b
// had unclaimed trailing slack (b.size smaller than its true physical
// capacity) going in. Reports whether a merge happened.
func (l *blockList) coalesceForward(b *header) bool {
	n := b.next
	if n == nil || n.status != statusFree {
		return false
	}
	end := addr(n) + footprint(n.size)
	b.size = end - addr(b) - headerSize
	b.next = n.next
	if n.next != nil {
		n.next.prev = b
	}
	return true
}

// coalesceBackward merges b into b.prev when b.prev is FREE, returning
// the block that now represents the merged region (b.prev on success,
// b unchanged otherwise).
func (l *blockList) coalesceBackward(b *header) *header {
	p := b.prev
	if p == nil || p.status != statusFree {
		return b
	}
	p.size = alignUp(p.size) + footprint(b.size)
	p.next = b.next
	if b.next != nil {
		b.next.prev = p
	}
	return p
}

// split carves a new FREE block from the trailing portion of b,
// truncating b to hold newPayload bytes as HEAP_ALLOC. capacity is b's
// true physical payload capacity before the split — the caller supplies
// it explicitly rather than having split assume it equals b.size,
// because an allocated block's size field can be smaller than its real
// footprint (realloc may grow a block into slack it owns without
// recording a split). The caller must ensure
// alignUp(capacity) >= alignUp(newPayload) + minSplitRemainder.
func (l *blockList) split(b *header, newPayload, capacity uintptr) {
	oldFootprint := headerSize + alignUp(capacity)
	newFootprint := footprint(newPayload)

	remainder := blockAt(addr(b) + newFootprint)
	remainder.size = (oldFootprint - newFootprint) - headerSize
	remainder.status = statusFree
	remainder.prev = b
	remainder.next = b.next
	if b.next != nil {
		b.next.prev = remainder
	}

	b.next = remainder
	b.size = newPayload
	b.status = statusHeapAlloc
}
