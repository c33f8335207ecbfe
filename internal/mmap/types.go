package mmap

import "errors"

// AccessPattern is a read-ahead hint for a mapping.
type AccessPattern int

const (
	// AccessDefault leaves read-ahead to the kernel.
	AccessDefault AccessPattern = iota
	// AccessSequential suits parsers that scan a file front to back.
	AccessSequential
	// AccessRandom suits ranged reads at scattered offsets.
	AccessRandom
	// AccessWillNeed asks the kernel to fault the whole file in early.
	AccessWillNeed
)

var (
	// ErrClosed is returned by every accessor after Close.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for files that do not fit in an int.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrOutOfBounds is returned by Slice for ranges past the end.
	ErrOutOfBounds = errors.New("mmap: out of bounds")
	// ErrInvalidOffset is returned for negative offsets or lengths.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
