// Package list provides an ordered, indexable singly-linked list of memory block references, used as
// the bookkeeping layer of a memory manager. Insertion at either end is O(1), positional access and
// interior insertion are O(index), and lookup by block is a linear scan.
//
// A List is not safe for concurrent use. Callers that share a List between goroutines must supply
// their own mutual exclusion.
package list

import (
	"strings"

	cerrors "github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/memlist"
)

// NotFound is returned by IndexOf when a block is not present in the list
const NotFound int = -1

// List is a singly-linked list of blocks. The zero value is an empty list ready to use.
type List[B Block] struct {
	first *Node[B]
	last  *Node[B]
	size  int

	// generation is bumped by every mutation so that iterators can detect that they are stale
	generation uint64
}

// New creates an empty list
func New[B Block]() *List[B] {
	return &List[B]{}
}

// First returns the head node of the list, or nil if the list is empty
func (l *List[B]) First() *Node[B] {
	return l.first
}

// Last returns the tail node of the list, or nil if the list is empty
func (l *List[B]) Last() *Node[B] {
	return l.last
}

// Size returns the number of blocks in the list
func (l *List[B]) Size() int {
	return l.size
}

// IsEmpty returns true if the list contains no blocks
func (l *List[B]) IsEmpty() bool {
	return l.size == 0
}

// NodeAt returns the node at the provided index. Unlike BlockAt, index may be equal to Size(), the
// position before which an appended block would be inserted; in that case the returned node is nil.
// An index outside of [0, Size()] returns memlist.ErrInvalidIndex.
func (l *List[B]) NodeAt(index int) (*Node[B], error) {
	err := memlist.CheckIndex(index, l.size+1)
	if err != nil {
		return nil, err
	}

	return l.walk(index), nil
}

func (l *List[B]) walk(hops int) *Node[B] {
	current := l.first
	for i := 0; i < hops && current != nil; i++ {
		current = current.next
	}
	return current
}

// InsertAt creates a node for the provided block and inserts it before the node currently at index,
// so that BlockAt(index) returns block afterward. Index 0 and index Size() are O(1), other positions
// require walking to the predecessor. An index outside of [0, Size()] returns memlist.ErrInvalidIndex
// and leaves the list unchanged.
func (l *List[B]) InsertAt(index int, block B) error {
	err := memlist.CheckIndex(index, l.size+1)
	if err != nil {
		return err
	}

	switch index {
	case 0:
		l.InsertFirst(block)
	case l.size:
		l.InsertLast(block)
	default:
		prev := l.walk(index - 1)
		node := newNode(block)
		node.next = prev.next
		prev.next = node
		l.inserted()
	}

	return nil
}

// InsertFirst makes block the new head of the list in O(1)
func (l *List[B]) InsertFirst(block B) {
	node := newNode(block)
	node.next = l.first
	l.first = node
	if l.last == nil {
		l.last = node
	}
	l.inserted()
}

// InsertLast makes block the new tail of the list in O(1)
func (l *List[B]) InsertLast(block B) {
	node := newNode(block)
	if l.last == nil {
		l.first = node
	} else {
		l.last.next = node
	}
	l.last = node
	l.inserted()
}

func (l *List[B]) inserted() {
	l.size++
	l.generation++
	memlist.DebugValidate(l)
}

// BlockAt returns the block at the provided index. An index outside of [0, Size()) returns
// memlist.ErrInvalidIndex.
func (l *List[B]) BlockAt(index int) (B, error) {
	var zero B
	err := memlist.CheckIndex(index, l.size)
	if err != nil {
		return zero, err
	}

	node, err := l.NodeAt(index)
	if err != nil {
		return zero, err
	}
	return node.block, nil
}

// IndexOf returns the index of the first node holding block, or NotFound.
func (l *List[B]) IndexOf(block B) int {
	index := 0
	for current := l.first; current != nil; current = current.next {
		if current.block == block {
			return index
		}
		index++
	}

	return NotFound
}

// RemoveNode unlinks a node from the list. The node is located by looking up its block with IndexOf,
// so if the same block is present more than once, the first occurrence is the one removed. Removing
// from an empty list, or removing a node whose block is not present, does nothing.
//
// A nil node returns memlist.ErrNullArgument.
func (l *List[B]) RemoveNode(node *Node[B]) error {
	if node == nil {
		return errors.Wrap(memlist.ErrNullArgument, "node must not be nil")
	}

	if l.size == 0 {
		return nil
	}

	index := l.IndexOf(node.block)
	if index == NotFound {
		return nil
	}

	l.unlink(index)
	return nil
}

// RemoveAt removes the node at the provided index. An index outside of [0, Size()) returns
// memlist.ErrInvalidIndex and leaves the list unchanged.
func (l *List[B]) RemoveAt(index int) error {
	err := memlist.CheckIndex(index, l.size)
	if err != nil {
		return err
	}

	node, err := l.NodeAt(index)
	if err != nil {
		return err
	}
	return l.RemoveNode(node)
}

// RemoveBlock removes the first node holding block. If block is not present, memlist.ErrInvalidIndex
// is returned and the list is left unchanged.
func (l *List[B]) RemoveBlock(block B) error {
	index := l.IndexOf(block)
	if index == NotFound {
		return cerrors.Wrapf(memlist.ErrInvalidIndex, "block %s is not present in the list", block.String())
	}

	return l.RemoveAt(index)
}

func (l *List[B]) unlink(index int) {
	var removed *Node[B]

	if index == 0 {
		removed = l.first
		l.first = removed.next
		if l.first == nil {
			l.last = nil
		}
	} else {
		prev := l.walk(index - 1)
		removed = prev.next
		prev.next = removed.next
		if removed == l.last {
			l.last = prev
		}
	}

	removed.next = nil
	l.size--
	l.generation++
	memlist.DebugValidate(l)
}

// Clear removes every node from the list
func (l *List[B]) Clear() {
	l.first = nil
	l.last = nil
	l.size = 0
	l.generation++
}

// Iterator returns a cursor over the list's blocks, starting with the first one. The iterator fails
// with memlist.ErrConcurrentModification if the list is modified after it was created.
func (l *List[B]) Iterator() *Iterator[B] {
	return &Iterator[B]{
		list:       l,
		next:       l.first,
		generation: l.generation,
	}
}

// Visit calls visitor once for each block in list order. It stops at the first error returned by the
// visitor and returns it. If the visitor modifies the list, Visit stops and returns
// memlist.ErrConcurrentModification.
func (l *List[B]) Visit(visitor func(index int, block B) error) error {
	generation := l.generation
	index := 0
	for current := l.first; current != nil; current = current.next {
		err := visitor(index, current.block)
		if err != nil {
			return err
		}

		if l.generation != generation {
			return errors.Wrapf(memlist.ErrConcurrentModification, "list changed while visiting index %d", index)
		}
		index++
	}

	return nil
}

// Blocks returns the list's blocks, in order, as a new slice
func (l *List[B]) Blocks() []B {
	blocks := make([]B, 0, l.size)
	for current := l.first; current != nil; current = current.next {
		blocks = append(blocks, current.block)
	}
	return blocks
}

// Validate performs internal consistency checks on the list. When the list is functioning correctly
// it should not be possible for this method to return an error.
func (l *List[B]) Validate() error {
	if l.size < 0 {
		return errors.Errorf("list has a negative size (%d)", l.size)
	}

	if l.size == 0 {
		if l.first != nil || l.last != nil {
			return errors.New("list is empty but has a first or last node")
		}
		return nil
	}

	if l.first == nil || l.last == nil {
		return errors.Errorf("list has size %d but is missing its first or last node", l.size)
	}

	if l.last.next != nil {
		return errors.New("the last node in the list has a successor")
	}

	count := 1
	current := l.first
	for current != l.last {
		current = current.next
		if current == nil {
			return errors.Errorf("the chain ended after %d nodes without reaching the last node", count)
		}

		count++
		if count > l.size {
			return errors.Errorf("the chain is longer than the listed size (%d)", l.size)
		}
	}

	if count != l.size {
		return errors.Errorf("the listed number of nodes in the list (%d) does not match the actual number of nodes (%d)", l.size, count)
	}

	return nil
}

// String returns each block's text followed by a space, in list order. It is intended for diagnostics.
func (l *List[B]) String() string {
	var sb strings.Builder
	for current := l.first; current != nil; current = current.next {
		sb.WriteString(current.block.String())
		sb.WriteByte(' ')
	}
	return sb.String()
}

// WriteJSON writes the list to writer as a json array of block strings
func (l *List[B]) WriteJSON(writer *jwriter.Writer) {
	arr := writer.Array()
	defer arr.End()

	for current := l.first; current != nil; current = current.next {
		arr.String(current.block.String())
	}
}
