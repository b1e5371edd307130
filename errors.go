package ordcon

import "errors"

// ErrNotFound is returned by At when the requested key is not present.
var ErrNotFound = errors.New("ordcon: key not found")

// ErrInvalidIterator is returned when a caller dereferences or mutates
// through an iterator that is not positioned on a readable node (e.g. the
// end sentinel of a map, or the end sentinel of a sequence).
var ErrInvalidIterator = errors.New("ordcon: iterator not dereferenceable")

// ErrEmpty is returned by operations that require a non-empty container.
var ErrEmpty = errors.New("ordcon: container is empty")
