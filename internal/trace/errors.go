package trace

import "errors"

var (
	// ErrSyntax indicates a malformed trace line.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrUnknownID indicates a FREE of an id that is not live.
	ErrUnknownID = errors.New("trace: free of unknown id")

	// ErrDuplicateID indicates a REQUEST reusing an id that is still live.
	ErrDuplicateID = errors.New("trace: id already live")

	// ErrDataCorrupt indicates a block's contents changed while it was live.
	ErrDataCorrupt = errors.New("trace: block data corrupted")
)
