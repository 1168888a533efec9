package memspace

import (
	"context"
	"fmt"

	cerrors "github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/memlist"
	"github.com/vkngwrapper/memlist/block"
	"github.com/vkngwrapper/memlist/internal/utils"
	"github.com/vkngwrapper/memlist/list"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

// ErrOutOfMemory is returned from Malloc when no free block can satisfy the requested length
var ErrOutOfMemory error = errors.New("no free block is large enough for the allocation")

// ErrUnknownAddress is returned from Free when the address is not the base address of a live
// allocation
var ErrUnknownAddress error = errors.New("address does not belong to a live allocation")

// MemorySpace is a free-list memory manager. It tracks the free and allocated regions of a
// contiguous address space [0, maxSize) as two lists of blocks. The regions themselves are never
// touched: a MemorySpace only hands out and takes back addresses.
type MemorySpace struct {
	mutex       utils.OptionalMutex
	logger      *slog.Logger
	flags       CreateFlags
	maxSize     int
	granularity uint
	strategy    FitStrategy

	freeList             list.List[*block.MemoryBlock]
	allocatedList        list.List[*block.MemoryBlock]
	allocationsByAddress *swiss.Map[int, *block.MemoryBlock]
}

type validateFunc func() error

func (f validateFunc) Validate() error { return f() }

// MaxSize returns the number of bytes managed by this memory space
func (s *MemorySpace) MaxSize() int {
	return s.maxSize
}

// Malloc allocates length bytes, rounded up to the memory space's granularity, and returns the base
// address of the allocation. If the selected free block is exactly the right length, the block
// itself moves to the allocated list; otherwise the allocation is split off the front of it.
func (s *MemorySpace) Malloc(length int) (int, error) {
	err := memlist.CheckLength(length, "length")
	if err != nil {
		return 0, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	size := memlist.AlignUp(length, s.granularity)

	index, err := s.strategy.SelectFreeBlock(&s.freeList, size)
	if err != nil {
		return 0, cerrors.Wrap(err, "failed to select a free block")
	}

	if index == list.NotFound {
		s.logger.Debug("MemorySpace::Malloc out of memory",
			slog.Int("Length", size),
			slog.Int("FreeRanges", s.freeList.Size()),
		)
		return 0, cerrors.Wrapf(ErrOutOfMemory, "requested %d bytes", size)
	}

	free, err := s.freeList.BlockAt(index)
	if err != nil {
		return 0, cerrors.Wrapf(err, "fit strategy selected free block %d", index)
	}

	if free.Length() < size {
		return 0, errors.Errorf("fit strategy selected free block %s, which cannot hold %d bytes", free.String(), size)
	}

	allocation := free
	if free.Length() == size {
		err = s.freeList.RemoveAt(index)
	} else {
		allocation, err = free.Split(size)
	}
	if err != nil {
		return 0, err
	}

	s.allocatedList.InsertLast(allocation)
	s.allocationsByAddress.Put(allocation.BaseAddress(), allocation)

	s.logger.Debug("MemorySpace::Malloc",
		slog.Int("BaseAddress", allocation.BaseAddress()),
		slog.Int("Length", size),
	)

	memlist.DebugValidate(validateFunc(s.validate))
	return allocation.BaseAddress(), nil
}

// Free returns the allocation whose base address is address to the end of the free list. Adjacent
// free blocks are not merged until Defrag is called.
func (s *MemorySpace) Free(address int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	allocation, ok := s.allocationsByAddress.Get(address)
	if !ok {
		return cerrors.Wrapf(ErrUnknownAddress, "address %d", address)
	}

	err := s.allocatedList.RemoveBlock(allocation)
	if err != nil {
		return cerrors.Wrapf(err, "allocation %s is indexed but not in the allocated list", allocation.String())
	}

	s.allocationsByAddress.Delete(address)
	s.freeList.InsertLast(allocation)

	s.logger.Debug("MemorySpace::Free",
		slog.Int("BaseAddress", allocation.BaseAddress()),
		slog.Int("Length", allocation.Length()),
	)

	memlist.DebugValidate(validateFunc(s.validate))
	return nil
}

// Defrag sorts the free list by base address and merges free blocks that adjoin one another. It
// returns the number of merges performed.
func (s *MemorySpace) Defrag() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	blocks := s.freeList.Blocks()
	slices.SortFunc(blocks, func(left, right *block.MemoryBlock) bool {
		return left.BaseAddress() < right.BaseAddress()
	})

	s.freeList.Clear()

	merges := 0
	var current *block.MemoryBlock
	for _, next := range blocks {
		if current != nil && current.Adjoins(next) {
			err := current.Absorb(next)
			if err != nil {
				panic(fmt.Sprintf("failed to merge adjoining free blocks: %+v", err))
			}
			merges++
			continue
		}

		if current != nil {
			s.freeList.InsertLast(current)
		}
		current = next
	}

	if current != nil {
		s.freeList.InsertLast(current)
	}

	s.logger.Debug("MemorySpace::Defrag",
		slog.Int("Merges", merges),
		slog.Int("FreeRanges", s.freeList.Size()),
	)

	memlist.DebugValidate(validateFunc(s.validate))
	return merges
}

// FreeList returns the free blocks in free list order
func (s *MemorySpace) FreeList() []*block.MemoryBlock {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.freeList.Blocks()
}

// AllocatedList returns the allocated blocks in allocation order
func (s *MemorySpace) AllocatedList() []*block.MemoryBlock {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.allocatedList.Blocks()
}

// IsEmpty returns true if there are no live allocations
func (s *MemorySpace) IsEmpty() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.allocatedList.IsEmpty()
}

// Destroy verifies that every allocation has been freed. Each allocation that has not is logged,
// and an error is returned.
func (s *MemorySpace) Destroy() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.allocatedList.IsEmpty() {
		return nil
	}

	err := s.allocatedList.Visit(func(index int, allocation *block.MemoryBlock) error {
		s.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unfreed allocation",
			slog.Int("baseAddress", allocation.BaseAddress()),
			slog.Int("length", allocation.Length()),
		)
		return nil
	})
	if err != nil {
		s.logger.LogAttrs(context.Background(),
			slog.LevelError,
			"[UNRELEASED MEMORY] error while iterating unreleased memory",
			slog.Any("error", err))
	}

	return errors.Errorf("%d allocations were not freed before the destruction of this memory space", s.allocatedList.Size())
}

// Validate performs internal consistency checks on the memory space: every block must lie inside the
// address space, no two blocks may overlap, free and allocated bytes must add up to the size of the
// memory space, and the address index must agree with the allocated list.
func (s *MemorySpace) Validate() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.validate()
}

func (s *MemorySpace) validate() error {
	err := s.freeList.Validate()
	if err != nil {
		return cerrors.Wrap(err, "free list")
	}

	err = s.allocatedList.Validate()
	if err != nil {
		return cerrors.Wrap(err, "allocated list")
	}

	if s.allocationsByAddress.Count() != s.allocatedList.Size() {
		return errors.Errorf("the address index has %d entries but there are %d allocations", s.allocationsByAddress.Count(), s.allocatedList.Size())
	}

	blocks := make([]*block.MemoryBlock, 0, s.freeList.Size()+s.allocatedList.Size())
	blocks = append(blocks, s.freeList.Blocks()...)

	for _, allocation := range s.allocatedList.Blocks() {
		indexed, ok := s.allocationsByAddress.Get(allocation.BaseAddress())
		if !ok || indexed != allocation {
			return errors.Errorf("allocation %s is missing from the address index", allocation.String())
		}
		blocks = append(blocks, allocation)
	}

	slices.SortFunc(blocks, func(left, right *block.MemoryBlock) bool {
		return left.BaseAddress() < right.BaseAddress()
	})

	total := 0
	for i, current := range blocks {
		if current.Length() <= 0 {
			return errors.Errorf("block %s has a non-positive length", current.String())
		}

		if current.BaseAddress() < 0 || current.End() > s.maxSize {
			return errors.Errorf("block %s lies outside of the memory space [0, %d)", current.String(), s.maxSize)
		}

		if i > 0 && blocks[i-1].Overlaps(current) {
			return errors.Errorf("block %s overlaps block %s", blocks[i-1].String(), current.String())
		}

		total += current.Length()
	}

	if total != s.maxSize {
		return errors.Errorf("blocks account for %d bytes but the memory space holds %d", total, s.maxSize)
	}

	return nil
}

// String renders the free list and the allocated list on separate lines, for diagnostics
func (s *MemorySpace) String() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.freeList.String() + "\n" + s.allocatedList.String()
}
