package array

import (
	"errors"
	"fmt"
)

// ErrDisposed is returned when storing into an array after Dispose.
var ErrDisposed = errors.New("array: disposed")

// Element is one value-bearing node of an Array. Elements are linked in a
// circle through the array's sentinel head.
type Element struct {
	Index int64
	Value string

	prev, next *Element
	owner      *Array
}

// Next returns the following element. The sentinel head follows the last
// element.
func (e *Element) Next() *Element { return e.next }

// Prev returns the preceding element.
func (e *Element) Prev() *Element { return e.prev }

// Owner returns the array e belongs to, or nil once e has been unlinked.
func (e *Element) Owner() *Array { return e.owner }

// IsHead reports whether e is the sentinel of its array.
func (e *Element) IsHead() bool {
	return e.owner != nil && e == e.owner.head
}

// Array is a sparse, position-ordered sequence of string values stored as
// a circular doubly-linked list.
//
// Any change that moves or removes existing elements bumps Version, so
// holders of element references can detect that their references went
// stale. Appending past the last position and replacing a value in place
// leave the version untouched.
type Array struct {
	head     *Element
	count    int
	maxIndex int64
	version  uint64
	disposed bool
	held     []string
}

// New returns an empty array.
func New() *Array {
	a := &Array{maxIndex: -1}
	a.head = &Element{Index: -1, owner: a}
	a.head.prev, a.head.next = a.head, a.head
	return a
}

// FromValues returns an array holding values at positions 0..n-1.
func FromValues(values ...string) *Array {
	a := New()
	for _, v := range values {
		a.push(v)
	}
	return a
}

// Len returns the number of elements.
func (a *Array) Len() int { return a.count }

// MaxIndex returns the highest position in use, or -1 when empty.
func (a *Array) MaxIndex() int64 { return a.maxIndex }

// Version returns the structural version counter.
func (a *Array) Version() uint64 { return a.version }

// Disposed reports whether the array has been released by its owner.
func (a *Array) Disposed() bool { return a.disposed }

// Held returns a copy of the values set aside by SetHeld. They are not
// elements of the array.
func (a *Array) Held() []string {
	return append([]string(nil), a.held...)
}

// SetHeld replaces the values set aside for a later append.
func (a *Array) SetHeld(values []string) {
	a.held = append(a.held[:0:0], values...)
}

// Head returns the sentinel element.
func (a *Array) Head() *Element { return a.head }

// First returns the first element, or nil when the array is empty.
func (a *Array) First() *Element {
	if a.count == 0 {
		return nil
	}
	return a.head.next
}

// Last returns the last element, or nil when the array is empty.
func (a *Array) Last() *Element {
	if a.count == 0 {
		return nil
	}
	return a.head.prev
}

// Insert stores v at position idx. An existing value at idx is replaced.
func (a *Array) Insert(idx int64, v string) error {
	if idx < 0 {
		return fmt.Errorf("array: negative index %d", idx)
	}
	if a.disposed {
		return fmt.Errorf("%w: insert at %d", ErrDisposed, idx)
	}

	if idx > a.maxIndex {
		e := &Element{Index: idx, Value: v, owner: a}
		a.link(a.head.prev, e)
		a.count++
		a.maxIndex = idx
		return nil
	}

	for e := a.head.next; e != a.head; e = e.next {
		if e.Index == idx {
			e.Value = v
			return nil
		}
		if e.Index > idx {
			n := &Element{Index: idx, Value: v, owner: a}
			a.link(e.prev, n)
			a.count++
			a.version++
			return nil
		}
	}

	// Positions out of order after a splice; treat as an append.
	e := &Element{Index: idx, Value: v, owner: a}
	a.link(a.head.prev, e)
	a.count++
	a.version++
	return nil
}

// Append stores values at the positions following MaxIndex. Nothing is
// stored once the array has been disposed.
func (a *Array) Append(values ...string) error {
	if a.disposed {
		return fmt.Errorf("%w: append of %d values", ErrDisposed, len(values))
	}
	for _, v := range values {
		a.push(v)
	}
	return nil
}

func (a *Array) push(v string) {
	a.maxIndex++
	e := &Element{Index: a.maxIndex, Value: v, owner: a}
	a.link(a.head.prev, e)
	a.count++
}

// Get returns the value at position idx.
func (a *Array) Get(idx int64) (string, bool) {
	if e := a.find(idx); e != nil {
		return e.Value, true
	}
	return "", false
}

// Remove deletes the element at position idx and returns its value.
func (a *Array) Remove(idx int64) (string, bool) {
	e := a.find(idx)
	if e == nil {
		return "", false
	}
	a.Unlink(e)
	return e.Value, true
}

// Values returns the values in link order.
func (a *Array) Values() []string {
	out := make([]string, 0, a.count)
	for e := a.head.next; e != a.head; e = e.next {
		out = append(out, e.Value)
	}
	return out
}

// Each calls fn for every element in link order until fn returns false.
func (a *Array) Each(fn func(e *Element) bool) {
	for e := a.head.next; e != a.head; {
		next := e.next
		if !fn(e) {
			return
		}
		e = next
	}
}

// Flush removes every element.
func (a *Array) Flush() {
	for e := a.head.next; e != a.head; {
		next := e.next
		e.prev, e.next, e.owner = nil, nil, nil
		e = next
	}
	a.head.prev, a.head.next = a.head, a.head
	a.count = 0
	a.maxIndex = -1
	a.held = nil
	a.version++
}

// Dispose releases every element and marks the array unusable.
func (a *Array) Dispose() {
	a.Flush()
	a.disposed = true
}

// NewElement returns a detached element owned by a. It becomes part of the
// sequence once passed to InsertAfter.
func (a *Array) NewElement(v string) *Element {
	return &Element{Index: -1, Value: v, owner: a}
}

// InsertAfter splices els, in order, directly after at. The new elements
// share the position of at until Relink assigns fresh positions.
func (a *Array) InsertAfter(at *Element, els ...*Element) error {
	if at == nil || at.owner != a {
		return fmt.Errorf("array: splice point does not belong to array")
	}
	if len(els) == 0 {
		return nil
	}
	prev := at
	for _, e := range els {
		if e.owner != a || e.next != nil || e.prev != nil {
			return fmt.Errorf("array: element is not a detached element of this array")
		}
		e.Index = at.Index
		a.link(prev, e)
		prev = e
	}
	a.count += len(els)
	a.version++
	return nil
}

// Unlink detaches e from the sequence.
func (a *Array) Unlink(e *Element) {
	if e == nil || e.owner != a || e == a.head {
		return
	}
	wasLast := e == a.head.prev
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next, e.owner = nil, nil, nil
	a.count--
	if wasLast {
		a.maxIndex = a.head.prev.Index
	}
	a.version++
}

// Relink rebuilds the chain so that it follows order exactly, then assigns
// positions 0..n-1. order must hold every element of the array once.
func (a *Array) Relink(order []*Element) error {
	if len(order) != a.count {
		return fmt.Errorf("array: relink of %d elements in an array of %d", len(order), a.count)
	}
	seen := make(map[*Element]struct{}, len(order))
	for _, e := range order {
		if e == nil || e.owner != a || e == a.head {
			return fmt.Errorf("array: relink with a foreign element")
		}
		if _, dup := seen[e]; dup {
			return fmt.Errorf("array: element listed twice in relink order")
		}
		seen[e] = struct{}{}
	}

	prev := a.head
	for i, e := range order {
		e.Index = int64(i)
		prev.next = e
		e.prev = prev
		prev = e
	}
	prev.next = a.head
	a.head.prev = prev
	a.maxIndex = int64(len(order)) - 1
	a.version++
	return nil
}

func (a *Array) link(prev, e *Element) {
	e.prev = prev
	e.next = prev.next
	prev.next.prev = e
	prev.next = e
}

func (a *Array) find(idx int64) *Element {
	if idx < 0 || idx > a.maxIndex {
		return nil
	}
	for e := a.head.next; e != a.head; e = e.next {
		if e.Index == idx {
			return e
		}
	}
	return nil
}
