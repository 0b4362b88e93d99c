package mmap

import "errors"

// AccessPattern is a kernel hint for how mapped bytes will be read.
type AccessPattern int

const (
	// AccessDefault leaves paging behavior alone.
	AccessDefault AccessPattern = iota
	// AccessSequential suits whole-payload decodes.
	AccessSequential
	// AccessRandom suits scattered block reads.
	AccessRandom
	// AccessWillNeed asks for eager read-ahead.
	AccessWillNeed
	// AccessDontNeed marks bytes as reclaimable.
	AccessDontNeed
)

var (
	// ErrClosed reports access to a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize reports a file whose size cannot be mapped.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrOutOfBounds reports a region outside the mapping.
	ErrOutOfBounds = errors.New("mmap: out of bounds")
	// ErrInvalidOffset reports a negative read offset.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
