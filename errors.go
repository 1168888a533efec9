package memlist

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// ErrInvalidIndex is returned when an index argument falls outside of the range an operation accepts. Node
// access accepts the one-past-end position, block access and removal do not.
var ErrInvalidIndex error = errors.New("index out of range")

// ErrNullArgument is returned when a required node or block reference is nil
var ErrNullArgument error = errors.New("required argument was nil")

// ErrNoSuchElement is returned by iterators that are advanced past the end of their list
var ErrNoSuchElement error = errors.New("no more elements")

// ErrConcurrentModification is returned by iterators whose list was modified after the iterator was created
var ErrConcurrentModification error = errors.New("list was modified during iteration")

// ErrInvalidLength is returned when a size or length argument is not positive
var ErrInvalidLength error = errors.New("length must be greater than zero")
