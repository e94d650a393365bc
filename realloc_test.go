// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func fillPattern(b []byte, start byte) {
	for i := range b {
		b[i] = start + byte(i)
	}
}

func headerPtr(b []byte) unsafe.Pointer { return unsafe.Pointer(&b[0]) }

func TestReallocNilActsLikeMalloc(t *testing.T) {
	a := newTestAllocator(t)
	b := a.Realloc(nil, 64)
	require.NotNil(t, b)
}

func TestReallocZeroActsLikeFree(t *testing.T) {
	a := newTestAllocator(t)
	b := a.Malloc(64)
	require.Nil(t, a.Realloc(b, 0))
	require.NoError(t, a.Verify())
}

func TestReallocShrinkInPlaceSplitsRemainder(t *testing.T) {
	a := newTestAllocator(t)
	b := a.Malloc(512)
	fillPattern(b, 1)

	shrunk := a.Realloc(b, 16)
	require.Len(t, shrunk, 16)
	for i := 0; i < 16; i++ {
		require.Equal(t, byte(1+i), shrunk[i])
	}

	hb := headerOf(headerPtr(shrunk))
	require.Equal(t, uintptr(16), hb.size)
	require.NotNil(t, hb.next)
	require.Equal(t, statusFree, hb.next.status)
}

func TestReallocShrinkDoesNotLeaveAdjacentFreeBlocks(t *testing.T) {
	a := newTestAllocator(t)
	// Malloc(512) splits the one-shot preallocated block, so b is
	// immediately followed by a FREE remainder before Realloc even runs.
	b := a.Malloc(512)

	shrunk := a.Realloc(b, 16)
	require.NotNil(t, shrunk)
	require.NoError(t, a.Verify())

	hb := headerOf(headerPtr(shrunk))
	require.NotNil(t, hb.next)
	require.Equal(t, statusFree, hb.next.status, "the new remainder should have merged with the free block already following it, not sit beside it")
}

func TestReallocGrowTailExtendsHeap(t *testing.T) {
	a := newTestAllocator(t)
	// Take the whole preallocated block first, so b is carved from fresh
	// heap growth and sits at the break instead of ahead of a FREE
	// remainder.
	a.Malloc(mmapThreshold - headerSize)
	b := a.Malloc(64)
	require.True(t, a.list.lastHeap() == headerOf(headerPtr(b)))

	grown := a.Realloc(b, 4096)
	require.Len(t, grown, 4096)
	require.NoError(t, a.Verify())
}

func TestReallocForwardCoalescesFreeNeighbor(t *testing.T) {
	a := newTestAllocator(t)
	first := a.Malloc(64)
	second := a.Malloc(64)
	a.Free(second)

	grown := a.Realloc(first, 100)
	require.Len(t, grown, 100)
	require.True(t, headerPtr(grown) == headerPtr(first), "should grow in place by absorbing the freed neighbor")
	require.NoError(t, a.Verify())
}

func TestReallocForwardCoalesceLeavesNoAdjacentFreeBlocks(t *testing.T) {
	a := newTestAllocator(t)
	first := a.Malloc(64)
	second := a.Malloc(8)
	a.Free(second)

	grown := a.Realloc(first, 72)
	require.NotNil(t, grown)
	require.NoError(t, a.Verify())
}

func TestReallocMigratesToMappedAboveThreshold(t *testing.T) {
	a := newTestAllocator(t)
	small := a.Malloc(64)
	fillPattern(small, 7)

	big := a.Realloc(small, mmapThreshold)
	require.Len(t, big, mmapThreshold)
	hb := headerOf(headerPtr(big))
	require.Equal(t, statusMapped, hb.status)
	for i := 0; i < 64; i++ {
		require.Equal(t, byte(7+i), big[i])
	}
}

func TestReallocMigratesFromMappedBelowThreshold(t *testing.T) {
	a := newTestAllocator(t)
	big := a.Malloc(mmapThreshold)
	fillPattern(big[:32], 3)

	small := a.Realloc(big, 32)
	require.Len(t, small, 32)
	hb := headerOf(headerPtr(small))
	require.NotEqual(t, statusMapped, hb.status)
	for i := 0; i < 32; i++ {
		require.Equal(t, byte(3+i), small[i])
	}
}

func TestReallocRelocatesWhenNoRoomInPlace(t *testing.T) {
	a := newTestAllocator(t)
	first := a.Malloc(64)
	pinned := a.Malloc(64) // keeps first from growing in place or forward-coalescing
	_ = pinned
	fillPattern(first, 9)

	grown := a.Realloc(first, 256)
	require.Len(t, grown, 256)
	for i := 0; i < 64; i++ {
		require.Equal(t, byte(9+i), grown[i])
	}
	require.NoError(t, a.Verify())
}
