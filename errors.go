// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"fmt"
	"os"
)

// trace gates the optional per-call diagnostic logging enabled by
// GALLOC_TRACE=1. It is read once at init and never toggled at
// runtime.
var trace = os.Getenv("GALLOC_TRACE") != ""

func tracef(format string, args ...interface{}) {
	if !trace {
		return
	}
	fmt.Fprintf(os.Stderr, "galloc: "+format+"\n", args...)
}

// fatal reports an unrecoverable failure from an OS memory primitive and
// terminates the process. A failed grow_heap or map_pages call leaves
// the allocator's bookkeeping in a state it has no sane way to back out
// of, so there is nothing to return to the caller.
func (a *Allocator) fatal(op string, err error) {
	fmt.Fprintf(os.Stderr, "galloc: %s: %v\n", op, err)
	os.Exit(1)
}
