package list

import (
	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/memlist"
)

// Iterator is a forward cursor over the blocks of a List. It observes the list live but is fail-fast:
// once the list is modified, Next returns memlist.ErrConcurrentModification. An Iterator does not
// restart; call List.Iterator again for a fresh one.
type Iterator[B Block] struct {
	list       *List[B]
	next       *Node[B]
	generation uint64
}

// HasNext returns true if a call to Next would yield another block
func (it *Iterator[B]) HasNext() bool {
	return it.next != nil
}

// Next returns the next block and advances the cursor. memlist.ErrNoSuchElement is returned when the
// iterator is exhausted.
func (it *Iterator[B]) Next() (B, error) {
	var zero B

	if it.generation != it.list.generation {
		return zero, cerrors.Wrapf(memlist.ErrConcurrentModification, "iterator created at generation %d, list is at generation %d", it.generation, it.list.generation)
	}

	if it.next == nil {
		return zero, memlist.ErrNoSuchElement
	}

	block := it.next.block
	it.next = it.next.next
	return block, nil
}
