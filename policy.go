// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import "unsafe"

// Malloc returns size bytes of uninitialized memory as a []byte view,
// or nil if size is zero. Requests whose footprint exceeds
// mmapThreshold are served by a dedicated map_pages call; everything
// else is served from the heap, which is preallocated on the first
// call of any kind.
func (a *Allocator) Malloc(size uintptr) []byte {
	b := a.malloc(size)
	if b == nil {
		return nil
	}
	return b.payload()
}

// UnsafeMalloc is Malloc with the payload returned as a raw pointer
// instead of a []byte view.
func (a *Allocator) UnsafeMalloc(size uintptr) unsafe.Pointer {
	b := a.malloc(size)
	if b == nil {
		return nil
	}
	return payloadOf(b)
}

func (a *Allocator) malloc(size uintptr) *header {
	if size == 0 {
		return nil
	}
	if !a.preallocDone {
		a.preallocate()
	}
	var b *header
	if footprint(size) > mmapThreshold {
		b = a.mapBlock(size)
	} else {
		b = a.reuseOrExtend(size)
	}
	a.stats.Mallocs++
	tracef("malloc(%d) -> %#x", size, addr(b))
	return b
}

// mapBlock serves a request directly via map_pages, bypassing the heap
// and the free list's heap-resident run entirely.
func (a *Allocator) mapBlock(size uintptr) *header {
	base, err := mapPages(footprint(size))
	if err != nil {
		a.fatal("map_pages", err)
	}
	b := blockAt(base)
	b.size = size
	b.status = statusMapped
	a.list.insertMapped(b)
	a.stats.Mmaps++
	tracef("map_pages(%d) -> %#x", size, base)
	return b
}

// Calloc returns memory for count elements of elemSize bytes each,
// zeroed, as a []byte view, or nil if count or elemSize is zero or
// their product overflows uintptr.
func (a *Allocator) Calloc(count, elemSize uintptr) []byte {
	b := a.calloc(count, elemSize)
	if b == nil {
		return nil
	}
	return b.payload()
}

// UnsafeCalloc is Calloc with the payload returned as a raw pointer.
func (a *Allocator) UnsafeCalloc(count, elemSize uintptr) unsafe.Pointer {
	b := a.calloc(count, elemSize)
	if b == nil {
		return nil
	}
	return payloadOf(b)
}

func (a *Allocator) calloc(count, elemSize uintptr) *header {
	if count == 0 || elemSize == 0 {
		return nil
	}
	size, overflow := mulOverflows(count, elemSize)
	if overflow {
		return nil
	}
	if !a.preallocDone {
		a.preallocate()
	}

	var b *header
	if footprint(size) > osPageSize() {
		b = a.mapBlock(size)
	} else {
		b = a.reuseOrExtend(size)
	}
	if b == nil {
		return nil
	}
	zero(b.payload())
	a.stats.Mallocs++
	tracef("calloc(%d, %d) -> %#x", count, elemSize, addr(b))
	return b
}

// mulOverflows reports whether count*elemSize overflows uintptr, and
// returns the product when it doesn't.
func mulOverflows(count, elemSize uintptr) (uintptr, bool) {
	if count == 0 || elemSize == 0 {
		return 0, false
	}
	product := count * elemSize
	return product, product/count != elemSize
}

func zero(p []byte) {
	for i := range p {
		p[i] = 0
	}
}

// Free releases the block backing the []byte view b, as returned by
// Malloc, Calloc or Realloc. A nil/empty slice, or one whose block is
// already FREE, is a silent no-op. Whether b came from this allocator
// is not checked: the header just before b[0] is read and acted on
// as-is.
func (a *Allocator) Free(b []byte) {
	if len(b) == 0 {
		return
	}
	a.free(headerOf(unsafe.Pointer(&b[0])))
}

// UnsafeFree is Free taking the raw pointer returned by UnsafeMalloc,
// UnsafeCalloc or UnsafeRealloc.
func (a *Allocator) UnsafeFree(p unsafe.Pointer) {
	if p == nil {
		return
	}
	a.free(headerOf(p))
}

func (a *Allocator) free(b *header) {
	if b == nil || b.status == statusFree {
		return
	}
	tracef("free(%#x)", addr(b))
	a.stats.Frees++

	if b.status == statusMapped {
		a.list.extract(b)
		if err := unmapPages(addr(b), footprint(b.size)); err != nil {
			a.fatal("unmap_pages", err)
		}
		a.stats.Munmaps++
		return
	}

	b.status = statusFree
	b = a.list.coalesceBackward(b)
	a.list.coalesceForward(b)
}

// UsableSize reports the number of bytes actually available in the
// []byte view b without reallocating, which may exceed the size
// originally requested.
func (a *Allocator) UsableSize(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return physicalCapacity(a, headerOf(unsafe.Pointer(&b[0])))
}

// UnsafeUsableSize is UsableSize for the raw-pointer API.
func (a *Allocator) UnsafeUsableSize(p unsafe.Pointer) uintptr {
	if p == nil {
		return 0
	}
	return physicalCapacity(a, headerOf(p))
}
