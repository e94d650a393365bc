// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"reflect"
	"unsafe"
)

// blockStatus tags the three kinds of block a header can describe.
type blockStatus uint8

const (
	statusFree blockStatus = iota
	statusHeapAlloc
	statusMapped
)

func (s blockStatus) String() string {
	switch s {
	case statusFree:
		return "FREE"
	case statusHeapAlloc:
		return "HEAP_ALLOC"
	case statusMapped:
		return "MAPPED"
	default:
		return "INVALID"
	}
}

// header is the fixed-layout metadata record placed immediately before
// every payload. It is not a Go-owned object: it's an interpreted view
// over raw memory obtained from grow_heap or map_pages, addressed by
// pointer arithmetic rather than by reference. prev/next thread it into
// the single global blockList.
type header struct {
	size   uintptr
	status blockStatus
	prev   *header
	next   *header
}

const alignment = 8

// headerSize and minSplitRemainder are computed once; both are themselves
// multiples of alignment so that payload addresses stay 8-aligned.
var (
	headerSize        = alignUp(unsafe.Sizeof(header{}))
	minSplitRemainder = headerSize + alignUp(1)
)

// alignUp rounds n up to the next multiple of alignment. alignment is a
// power of two, so this is a mask-and-add.
func alignUp(n uintptr) uintptr {
	return (n + alignment - 1) &^ (alignment - 1)
}

// footprint is the total physical size a block occupies: its header plus
// its aligned payload capacity.
func footprint(payload uintptr) uintptr {
	return headerSize + alignUp(payload)
}

// payloadOf returns the address immediately following b's header.
func payloadOf(b *header) unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(b)) + headerSize)
}

// headerOf recovers the header preceding a payload address.
func headerOf(p unsafe.Pointer) *header {
	return (*header)(unsafe.Pointer(uintptr(p) - headerSize))
}

// blockAt interprets the raw address p (as returned by grow_heap or
// map_pages) as a header.
func blockAt(p uintptr) *header {
	return (*header)(unsafe.Pointer(p))
}

func addr(b *header) uintptr {
	return uintptr(unsafe.Pointer(b))
}

// payloadBytes returns the first n bytes of b's payload as a slice backed
// by the block's own memory, built by hand via reflect.SliceHeader
// rather than copying.
func (b *header) payloadBytes(n uintptr) []byte {
	var s []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&s))
	sh.Data = uintptr(payloadOf(b))
	sh.Len = int(n)
	sh.Cap = int(n)
	return s
}

// payload returns the block's full advertised payload.
func (b *header) payload() []byte {
	return b.payloadBytes(b.size)
}
