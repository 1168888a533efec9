package block

import (
	"fmt"

	cerrors "github.com/cockroachdb/errors"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/memlist"
)

// ErrNotAdjacent is returned from Absorb when the absorbed block does not begin where the receiver ends
var ErrNotAdjacent error = errors.New("memory blocks are not adjacent")

// MemoryBlock describes the region of memory [BaseAddress(), End()). Lists and memory managers hold
// *MemoryBlock values and compare them by pointer, so two MemoryBlock objects describing the same
// region are still different blocks.
type MemoryBlock struct {
	baseAddress int
	length      int
}

// New creates a MemoryBlock covering length bytes starting at baseAddress
func New(baseAddress, length int) *MemoryBlock {
	return &MemoryBlock{
		baseAddress: baseAddress,
		length:      length,
	}
}

// BaseAddress is the address of the first byte in the block
func (b *MemoryBlock) BaseAddress() int { return b.baseAddress }

// Length is the size of the block in bytes
func (b *MemoryBlock) Length() int { return b.length }

// End is the address immediately after the last byte in the block
func (b *MemoryBlock) End() int { return b.baseAddress + b.length }

// Contains returns true if address falls inside the block
func (b *MemoryBlock) Contains(address int) bool {
	return address >= b.baseAddress && address < b.End()
}

// Adjoins returns true if other begins exactly where this block ends
func (b *MemoryBlock) Adjoins(other *MemoryBlock) bool {
	return other != nil && b.End() == other.baseAddress
}

// Overlaps returns true if the two blocks share at least one address
func (b *MemoryBlock) Overlaps(other *MemoryBlock) bool {
	return b.baseAddress < other.End() && other.baseAddress < b.End()
}

// Split carves length bytes off the front of this block and returns them as a new block. The receiver
// shrinks to cover what remains. length must be positive and strictly less than the block's length.
func (b *MemoryBlock) Split(length int) (*MemoryBlock, error) {
	err := memlist.CheckLength(length, "length")
	if err != nil {
		return nil, err
	}

	if length >= b.length {
		return nil, cerrors.Wrapf(memlist.ErrInvalidLength, "cannot split %d bytes from block %s", length, b.String())
	}

	carved := New(b.baseAddress, length)
	b.baseAddress += length
	b.length -= length
	return carved, nil
}

// Absorb grows this block to also cover other, which must begin where this block ends
func (b *MemoryBlock) Absorb(other *MemoryBlock) error {
	if other == nil {
		return errors.Wrap(memlist.ErrNullArgument, "absorbed block must not be nil")
	}

	if !b.Adjoins(other) {
		return cerrors.Wrapf(ErrNotAdjacent, "block %s does not end where %s begins", b.String(), other.String())
	}

	b.length += other.length
	return nil
}

func (b *MemoryBlock) String() string {
	return fmt.Sprintf("(%d , %d)", b.baseAddress, b.length)
}
