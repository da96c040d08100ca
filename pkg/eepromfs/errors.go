package eepromfs

import "errors"

// Error kinds returned by package eepromfs. See spec.md §7.
//
// Callers classify with errors.Is; operations that wrap one of these for
// context do so with fmt.Errorf("%w: ...", ...), so errors.Is continues
// to match through the wrapping.
var (
	// ErrOutOfRangeBlock indicates an operation attempted to read,
	// write, or relink a block outside [0, NumBlocks).
	ErrOutOfRangeBlock = errors.New("eepromfs: block out of range")

	// ErrInvalidHandle indicates a read was attempted against a handle
	// whose FirstBlock is NullLBA.
	ErrInvalidHandle = errors.New("eepromfs: invalid handle")

	// ErrWriteToReadOnly indicates a write was attempted against a
	// handle opened with OpenForRead.
	ErrWriteToReadOnly = errors.New("eepromfs: write to read-only handle")

	// ErrFileNotFound indicates OpenForRead was called against a name
	// with no allocation entry.
	ErrFileNotFound = errors.New("eepromfs: file not found")

	// ErrTruncated indicates a write exceeded MaxBlocksPerFile; the
	// payload was silently truncated to the limit. Non-fatal: the
	// handle still reflects the truncated, committed size.
	ErrTruncated = errors.New("eepromfs: write truncated")

	// ErrNoSpace indicates allocation failed: either the file is
	// already at its block cap, leaving zero blocks to allocate, or the
	// free chain is exhausted.
	ErrNoSpace = errors.New("eepromfs: no space available")
)
