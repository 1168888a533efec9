package memlist

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint
}

func CheckPow2[T Number](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// CheckIndex returns ErrInvalidIndex, annotated with the offending value, unless 0 <= index < limit
func CheckIndex(index, limit int) error {
	if index < 0 || index >= limit {
		return cerrors.Wrapf(ErrInvalidIndex, "index %d is not in [0, %d)", index, limit)
	}
	return nil
}

// CheckLength returns ErrInvalidLength, annotated with the parameter name, unless length > 0
func CheckLength(length int, name string) error {
	if length <= 0 {
		return cerrors.Wrapf(ErrInvalidLength, "%s is %d", name, length)
	}
	return nil
}

func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}

func AlignDown(value int, alignment uint) int {
	return value & int(^(alignment - 1))
}
