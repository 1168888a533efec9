package list

import "fmt"

// Block is the capability the list needs from the values it stores. Blocks are compared with ==, so
// pointer types compare by identity, which is what a memory manager tracking regions wants. String is
// only used for diagnostics.
type Block interface {
	comparable
	fmt.Stringer
}

// Node is a single link in a List. It holds the block it was created with and the node that follows
// it, if any.
type Node[B Block] struct {
	block B
	next  *Node[B]
}

func newNode[B Block](block B) *Node[B] {
	return &Node[B]{block: block}
}

// Block returns the block this node was created with
func (n *Node[B]) Block() B {
	return n.block
}

// Next returns the node following this one, or nil if this is the last node in its list
func (n *Node[B]) Next() *Node[B] {
	return n.next
}
