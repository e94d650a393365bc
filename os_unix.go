// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

package memory

import (
	"fmt"
	"reflect"
	"unsafe"

	"golang.org/x/sys/unix"
)

// heapArenaSize bounds the simulated program break. galloc cannot issue
// a real brk(2) against the process — the Go runtime's own page
// allocator already owns that resource — so grow_heap is implemented as
// a logical cursor into a single large anonymous reservation, the same
// trick the Go runtime itself uses to keep its arenas contiguous.
const heapArenaSize = 1 << 30 // 1 GiB of reserved address space.

// heapArena owns galloc's simulated program break.
type heapArena struct {
	base uintptr
	brk  uintptr
}

func newHeapArena() (*heapArena, error) {
	b, err := unix.Mmap(-1, 0, heapArenaSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("reserve heap arena: %w", err)
	}
	return &heapArena{base: uintptr(unsafe.Pointer(&b[0]))}, nil
}

// breakAddr returns the current (absolute) program break.
func (h *heapArena) breakAddr() uintptr { return h.base + h.brk }

// grow extends the simulated break by n bytes, returning the address of
// the previous break (the start of the newly added region), mirroring
// sbrk(2)'s return convention.
func (h *heapArena) grow(n uintptr) (uintptr, error) {
	if h.brk+n > heapArenaSize {
		return 0, fmt.Errorf("heap arena exhausted: requested %d bytes beyond %d byte reservation", n, heapArenaSize)
	}
	prev := h.base + h.brk
	h.brk += n
	return prev, nil
}

func (h *heapArena) release() error {
	if h.base == 0 {
		return nil
	}
	err := unmapPages(h.base, heapArenaSize)
	h.base, h.brk = 0, 0
	return err
}

// mapPages requests n fresh bytes from the OS via anonymous mmap.
func mapPages(n uintptr) (uintptr, error) {
	b, err := unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, fmt.Errorf("mmap: %w", err)
	}
	return uintptr(unsafe.Pointer(&b[0])), nil
}

// unmapPages releases a region obtained from mapPages or newHeapArena.
func unmapPages(base, n uintptr) error {
	var b []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&b))
	sh.Data = base
	sh.Len = int(n)
	sh.Cap = int(n)
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

func osPageSize() uintptr {
	return uintptr(unix.Getpagesize())
}
