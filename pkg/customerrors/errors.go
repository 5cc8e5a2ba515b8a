// Package customerrors defines the errors shared by the arena provider and
// the allocator.
package customerrors

import (
	"github.com/pkg/errors"
)

var (
	// ErrOutOfMemory is returned when the arena cannot grow because the
	// configured maximum size would be exceeded. It is the only error a
	// caller of Alloc/Realloc is expected to recover from.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrInvalidPointer marks a pointer that was not returned by the
	// allocator or was already freed. Only reported in debug mode.
	ErrInvalidPointer = errors.New("invalid pointer")

	// ErrCorruptHeap is wrapped by every finding of the heap checker.
	ErrCorruptHeap = errors.New("corrupt heap")

	// ErrOverflow is returned when encoded data does not fit the payload.
	ErrOverflow = errors.New("payload overflow")

	ErrUnsupported = errors.New("not supported")
)
