// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memory implements a small, single-threaded dynamic memory
// allocator on top of a simulated program break and the operating
// system's page mapping facility. It is not a replacement for the Go
// runtime's own allocator: it exists to hand out and reclaim raw,
// unmanaged byte regions the way a C allocator would, for code that
// needs that exact discipline (custom arenas, interop buffers, tests
// exercising allocator behavior directly).
//
// An Allocator is not safe for concurrent use; callers that share one
// across goroutines must serialize their own access.
package memory

// Allocator owns one simulated heap and the set of live blocks carved
// out of it or mapped alongside it.
type Allocator struct {
	arena        *heapArena
	list         blockList
	preallocDone bool
	stats        Stats
}

// NewAllocator reserves the address space an Allocator needs and
// returns a ready-to-use instance. The reservation happens once, up
// front; later OS primitive failures go through fatal, which ends the
// process, rather than being returned as an error.
func NewAllocator() (*Allocator, error) {
	arena, err := newHeapArena()
	if err != nil {
		return nil, err
	}
	return &Allocator{arena: arena}, nil
}

// Close releases the allocator's entire address space reservation,
// including every block still live within it. Using the Allocator
// afterward is undefined.
func (a *Allocator) Close() error {
	return a.arena.release()
}

// defaultAllocator is the package-level allocator backing the
// convenience functions below. defaultAlloc creates it lazily on first
// use.
var defaultAllocator *Allocator

func defaultAlloc() *Allocator {
	if defaultAllocator == nil {
		a, err := NewAllocator()
		if err != nil {
			panic(err)
		}
		defaultAllocator = a
	}
	return defaultAllocator
}

// Malloc allocates size bytes from the package-level default Allocator.
func Malloc(size uintptr) []byte { return defaultAlloc().Malloc(size) }

// Calloc allocates zeroed memory for count elements of elemSize bytes
// from the package-level default Allocator.
func Calloc(count, elemSize uintptr) []byte { return defaultAlloc().Calloc(count, elemSize) }

// Free releases memory obtained from Malloc, Calloc or Realloc on the
// package-level default Allocator.
func Free(b []byte) { defaultAlloc().Free(b) }

// Realloc resizes memory obtained from the package-level default
// Allocator.
func Realloc(b []byte, size uintptr) []byte {
	return defaultAlloc().Realloc(b, size)
}
