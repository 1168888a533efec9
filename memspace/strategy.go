package memspace

import (
	"github.com/pkg/errors"
	"github.com/vkngwrapper/memlist/block"
	"github.com/vkngwrapper/memlist/list"
)

//go:generate mockgen -destination mocks/fit_strategy.go -package mock_memspace github.com/vkngwrapper/memlist/memspace FitStrategy

// FitStrategy decides which free block an allocation is carved from. SelectFreeBlock receives the
// free list and the allocation length, already rounded up to the memory space's granularity, and
// returns the index of a free block at least that long, or list.NotFound if none is suitable.
//
// The free list must not be modified.
type FitStrategy interface {
	SelectFreeBlock(freeList *list.List[*block.MemoryBlock], length int) (int, error)
}

// AllocationStrategy exposes several built-in options for choosing the free block a new
// allocation is carved from. You can choose several and the memory space will select one of
// them based on its own preferences: MinMemory wins over MinOffset, which wins over MinTime.
// If none is chosen, MinTime is used.
type AllocationStrategy uint32

const (
	// AllocationStrategyMinMemory selects the smallest free block that fits (best fit), to minimize
	// fragmentation at the expense of always scanning the whole free list
	AllocationStrategyMinMemory AllocationStrategy = 1 << iota
	// AllocationStrategyMinTime selects the first free block that fits (first fit)
	AllocationStrategyMinTime
	// AllocationStrategyMinOffset selects the fitting free block with the lowest base address, which
	// keeps allocations packed toward the start of the memory space
	AllocationStrategyMinOffset
)

var allocationStrategyMapping = map[AllocationStrategy]string{
	AllocationStrategyMinMemory: "AllocationStrategyMinMemory",
	AllocationStrategyMinTime:   "AllocationStrategyMinTime",
	AllocationStrategyMinOffset: "AllocationStrategyMinOffset",
}

func (s AllocationStrategy) String() string {
	str, ok := allocationStrategyMapping[s]
	if !ok {
		return "AllocationStrategyUnknown"
	}
	return str
}

var _ FitStrategy = AllocationStrategyMinTime

func (s AllocationStrategy) SelectFreeBlock(freeList *list.List[*block.MemoryBlock], length int) (int, error) {
	if freeList == nil {
		return list.NotFound, errors.New("free list must not be nil")
	}

	switch {
	case s&AllocationStrategyMinMemory != 0:
		return bestFit(freeList, length)
	case s&AllocationStrategyMinOffset != 0:
		return lowestOffsetFit(freeList, length)
	default:
		return firstFit(freeList, length)
	}
}

func firstFit(freeList *list.List[*block.MemoryBlock], length int) (int, error) {
	it := freeList.Iterator()
	for index := 0; it.HasNext(); index++ {
		free, err := it.Next()
		if err != nil {
			return list.NotFound, err
		}

		if free.Length() >= length {
			return index, nil
		}
	}

	return list.NotFound, nil
}

func bestFit(freeList *list.List[*block.MemoryBlock], length int) (int, error) {
	bestIndex := list.NotFound
	bestLength := 0

	it := freeList.Iterator()
	for index := 0; it.HasNext(); index++ {
		free, err := it.Next()
		if err != nil {
			return list.NotFound, err
		}

		if free.Length() == length {
			return index, nil
		}

		if free.Length() > length && (bestIndex == list.NotFound || free.Length() < bestLength) {
			bestIndex = index
			bestLength = free.Length()
		}
	}

	return bestIndex, nil
}

func lowestOffsetFit(freeList *list.List[*block.MemoryBlock], length int) (int, error) {
	bestIndex := list.NotFound
	bestOffset := 0

	err := freeList.Visit(func(index int, free *block.MemoryBlock) error {
		if free.Length() >= length && (bestIndex == list.NotFound || free.BaseAddress() < bestOffset) {
			bestIndex = index
			bestOffset = free.BaseAddress()
		}
		return nil
	})
	if err != nil {
		return list.NotFound, err
	}

	return bestIndex, nil
}
