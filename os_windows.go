// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.

//go:build windows

package memory

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

const heapArenaSize = 1 << 30 // 1 GiB of reserved address space.

var (
	modkernel32          = syscall.NewLazyDLL("kernel32.dll")
	procVirtualAlloc     = modkernel32.NewProc("VirtualAlloc")
	procVirtualFree      = modkernel32.NewProc("VirtualFree")
	procGetSystemInfoRef = modkernel32.NewProc("GetSystemInfo")
)

const (
	memReserve  = 0x2000
	memCommit   = 0x1000
	memRelease  = 0x8000
	pageReadwrite = 0x04
)

// heapArena simulates a program break the same way os_unix.go does,
// adapted to VirtualAlloc's reserve/commit model instead of a single
// PROT_READ|PROT_WRITE mmap.
type heapArena struct {
	base uintptr
	brk  uintptr
}

func newHeapArena() (*heapArena, error) {
	// Reserve the full range up front, then commit it in one shot: on
	// Windows, unlike POSIX mmap, reserved-but-uncommitted pages fault on
	// first touch, so a single reserve+commit pair keeps this symmetric
	// with the unix implementation's one-shot PROT_READ|PROT_WRITE mmap.
	addr, _, err := procVirtualAlloc.Call(0, uintptr(heapArenaSize), memReserve, pageReadwrite)
	if addr == 0 {
		return nil, fmt.Errorf("VirtualAlloc reserve: %w", err)
	}
	if committed, _, cerr := procVirtualAlloc.Call(addr, uintptr(heapArenaSize), memCommit, pageReadwrite); committed == 0 {
		procVirtualFree.Call(addr, 0, memRelease)
		return nil, fmt.Errorf("VirtualAlloc commit: %w", cerr)
	}
	return &heapArena{base: addr}, nil
}

func (h *heapArena) breakAddr() uintptr { return h.base + h.brk }

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
	ok, _, err := procVirtualFree.Call(h.base, 0, memRelease)
	h.base, h.brk = 0, 0
	if ok == 0 {
		return fmt.Errorf("VirtualFree: %w", err)
	}
	return nil
}

func mapPages(n uintptr) (uintptr, error) {
	addr, _, err := procVirtualAlloc.Call(0, n, memReserve|memCommit, pageReadwrite)
	if addr == 0 {
		return 0, fmt.Errorf("VirtualAlloc: %w", err)
	}
	return addr, nil
}

func unmapPages(base, _ uintptr) error {
	ok, _, err := procVirtualFree.Call(base, 0, memRelease)
	if ok == 0 {
		return fmt.Errorf("VirtualFree: %w", err)
	}
	return nil
}

type systemInfo struct {
	anon                        [4]byte
	pageSize                    uint32
	minAppAddr, maxAppAddr      uintptr
	activeProcessorMask         uintptr
	numberOfProcessors          uint32
	processorType               uint32
	allocGranularity            uint32
	processorLevel, rev         uint16
}

func osPageSize() uintptr {
	var si systemInfo
	procGetSystemInfoRef.Call(uintptr(unsafe.Pointer(&si)))
	if si.pageSize == 0 {
		return uintptr(os.Getpagesize())
	}
	return uintptr(si.pageSize)
}
