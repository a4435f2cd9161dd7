// Package builtin implements the built-in value layer and print surface
// that compiled code relies on: owned/slice strings, closures, and the
// primitive stdout helpers. Everything here is a collaborator of the heap
// package's collector, not part of its core: each operation allocates
// through heap.Manager.Alloc and registers a heap.TypeInfo (or, for
// closures, a per-instance hook) that reports outgoing pointers back to
// the collector via heap.Manager.MarkChild.
package builtin

import "errors"

// ErrIndexOutOfBounds is returned by Slice and Repeat for an invalid
// range, rather than panicking or exiting the process.
var ErrIndexOutOfBounds = errors.New("builtin: index out of bounds")
