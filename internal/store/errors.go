package store

import "errors"

// Sentinel errors every operation in this package can return. The
// dispatcher in internal/server maps these to their canonical RESP
// error text; this package never renders wire text itself.
var (
	// ErrWrongType is returned when a key exists with a variant other
	// than the one the operation expects. The value and its expiry are
	// left untouched.
	ErrWrongType = errors.New("wrong type")

	// ErrOutOfRange is returned by LSet when the (normalized) index
	// falls outside the list.
	ErrOutOfRange = errors.New("index out of range")

	// ErrBadArgs is returned for arity or numeric-parse failures. It is
	// always detected before any state is touched.
	ErrBadArgs = errors.New("bad arguments")
)
