// Package tracker allocates queue nodes out of an arena and keeps the set of
// every node that is currently live, independent of whether it is linked.
//
// Nodes are addressed by Handle, an index plus a generation. Freeing a node
// bumps the generation of its slot, so a handle kept past Destroy can never
// alias whatever node reuses the slot later. Any use of such a stale handle
// panics.
//
// An Arena has no internal synchronization. It is meant to be owned by a
// single structure and touched only under that structure's lock.
package tracker

import (
	"errors"
	"fmt"
)

// ErrInvalidHandle is the panic value (wrapped) for a destroy or access
// through a handle that is not currently live.
var ErrInvalidHandle = errors.New("tracker: invalid or released handle")

// Handle identifies one allocation. The zero Handle is Nil.
type Handle struct {
	index uint32
	gen   uint32
}

// Nil never refers to a live node.
var Nil Handle

// IsNil reports whether h is the zero handle.
func (h Handle) IsNil() bool { return h == Nil }

func (h Handle) String() string {
	if h.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("#%d@%d", h.index, h.gen)
}

type slot[T any] struct {
	value T
	next  Handle
	gen   uint32
	live  bool
}

// Arena owns node storage and the live set.
type Arena[T any] struct {
	// slot 0 is reserved so that the zero Handle stays invalid.
	slots []slot[T]
	free  []uint32
	live  map[Handle]struct{}
}

// New returns an empty arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{
		slots: make([]slot[T], 1),
		live:  make(map[Handle]struct{}),
	}
}

// Create allocates a node carrying value with no successor and registers it.
func (a *Arena[T]) Create(value T) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot[T]{})
		idx = uint32(len(a.slots) - 1)
	}

	s := &a.slots[idx]
	s.gen++
	s.value = value
	s.next = Nil
	s.live = true

	h := Handle{index: idx, gen: s.gen}
	a.live[h] = struct{}{}
	return h
}

// Destroy deregisters h and releases its slot. Destroying a handle that is
// not live is a programming error and panics.
func (a *Arena[T]) Destroy(h Handle) {
	s := a.mustSlot(h, "destroy")

	var zero T
	s.value = zero
	s.next = Nil
	s.live = false
	delete(a.live, h)
	a.free = append(a.free, h.index)
}

// Snapshot returns a copy of the live set.
func (a *Arena[T]) Snapshot() map[Handle]struct{} {
	out := make(map[Handle]struct{}, len(a.live))
	for h := range a.live {
		out[h] = struct{}{}
	}
	return out
}

// Live reports whether h currently refers to an allocated node.
func (a *Arena[T]) Live(h Handle) bool {
	_, ok := a.live[h]
	return ok
}

// Len returns the number of live nodes.
func (a *Arena[T]) Len() int { return len(a.live) }

// Value returns the payload of h.
func (a *Arena[T]) Value(h Handle) T { return a.mustSlot(h, "read").value }

// Next returns the successor of h, or Nil.
func (a *Arena[T]) Next(h Handle) Handle { return a.mustSlot(h, "read").next }

// SetNext links next as the successor of h. next is not validated here so
// that a broken link can be observed by a structural checker.
func (a *Arena[T]) SetNext(h, next Handle) { a.mustSlot(h, "link").next = next }

func (a *Arena[T]) mustSlot(h Handle, op string) *slot[T] {
	if h.IsNil() || int(h.index) >= len(a.slots) {
		panic(fmt.Errorf("%s %v: %w", op, h, ErrInvalidHandle))
	}
	s := &a.slots[h.index]
	if !s.live || s.gen != h.gen {
		panic(fmt.Errorf("%s %v: %w", op, h, ErrInvalidHandle))
	}
	return s
}
