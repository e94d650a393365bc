// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"testing"
	"unsafe"

	"github.com/cznic/mathutil"
	"github.com/stretchr/testify/require"
)

// sizeCycle wraps a full-cycle generator along with the bounds it was
// built from, so it can be reseeded once a cycle is exhausted without
// needing to interrogate the generator for its own range.
type sizeCycle struct {
	gen      *mathutil.FC32
	lo, hi   int
}

// newSizeCycle returns a full-cycle generator over [lo, hi] seeded
// deterministically, so a failing run is reproducible without needing
// to print the seed separately.
func newSizeCycle(t *testing.T, lo, hi int) *sizeCycle {
	t.Helper()
	g, err := mathutil.NewFC32(lo, hi, true)
	require.NoError(t, err)
	return &sizeCycle{gen: g, lo: lo, hi: hi}
}

func nextSize(t *testing.T, c *sizeCycle) uintptr {
	t.Helper()
	n, ok := c.gen.Next()
	if !ok {
		g, err := mathutil.NewFC32(c.lo, c.hi, true)
		require.NoError(t, err)
		c.gen = g
		n, _ = c.gen.Next()
	}
	return uintptr(n)
}

// runStress drives a fixed Malloc, Malloc, Free rotation with
// pseudo-random sizes through a fresh Allocator, checking after every
// step that no invariant has been broken. It's the randomized counterpart to the table-driven property
// tests: the teacher's own test suite leaned on the same full-cycle
// generator to cover a wide, non-repeating spread of sizes cheaply.
func runStress(t *testing.T, iterations int, lo, hi int) {
	t.Helper()
	a := newTestAllocator(t)
	sizes := newSizeCycle(t, lo, hi)

	var live []unsafe.Pointer
	for i := 0; i < iterations; i++ {
		switch op := i % 3; op {
		case 0, 1:
			size := nextSize(t, sizes)
			p := a.UnsafeMalloc(size)
			require.NotNil(t, p)
			live = append(live, p)
		case 2:
			if len(live) == 0 {
				continue
			}
			idx := i % len(live)
			a.UnsafeFree(live[idx])
			live = append(live[:idx], live[idx+1:]...)
		}
		require.NoErrorf(t, a.Verify(), "invariant broken after step %d", i)
	}

	for _, p := range live {
		a.UnsafeFree(p)
	}
	require.NoError(t, a.Verify())
}

func TestStressSmallSizes(t *testing.T) {
	runStress(t, 500, 1, 256)
}

func TestStressMixedSizes(t *testing.T) {
	runStress(t, 300, 1, 8192)
}

func TestStressCrossesMmapThreshold(t *testing.T) {
	runStress(t, 100, 64, 2*mmapThreshold)
}

func TestStressReallocSequence(t *testing.T) {
	a := newTestAllocator(t)
	sizes := newSizeCycle(t, 1, 4096)

	p := a.UnsafeMalloc(1)
	require.NotNil(t, p)
	for i := 0; i < 200; i++ {
		size := nextSize(t, sizes)
		p = a.UnsafeRealloc(p, size)
		if size == 0 {
			require.Nil(t, p)
			p = a.UnsafeMalloc(1)
			require.NotNil(t, p)
			continue
		}
		require.NotNil(t, p)
		require.NoErrorf(t, a.Verify(), "invariant broken after realloc step %d", i)
	}
	a.UnsafeFree(p)
}
