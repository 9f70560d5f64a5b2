package database

import "errors"

// Error taxonomy, spec.md §7 CommandError categories. Wire text matches
// the spec verbatim.
var (
	ErrUnknownCommand = errors.New("ERR unknown command")
	ErrWrongType      = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	ErrWrongInteger   = errors.New("ERR value is not an integer or out of range")
	ErrNoSuchKey      = errors.New("ERR no such key")
)
