package lod

// Array is a growable typed buffer. The slice length is the filled size and
// its capacity is the allocated store.
type Array[T any] struct {
	data []T
}

// newArray returns an array with n zeroed elements.
func newArray[T any](n int) Array[T] {
	var a Array[T]
	a.Extend(n)
	return a
}

// Len returns the filled size in elements.
func (a *Array[T]) Len() int { return len(a.data) }

// Cap returns the allocated size in elements.
func (a *Array[T]) Cap() int { return cap(a.data) }

// At returns element i.
func (a *Array[T]) At(i int) T { return a.data[i] }

// Set stores v at element i.
func (a *Array[T]) Set(i int, v T) { a.data[i] = v }

// Ptr returns a pointer to element i. It is invalidated by the next
// reallocating Extend.
func (a *Array[T]) Ptr(i int) *T { return &a.data[i] }

// Slice exposes the filled elements. The slice aliases the store.
func (a *Array[T]) Slice() []T { return a.data }

// Extend grows the filled size by n elements and reports whether the store
// was reallocated.
//
// When the current store already holds the new size and is at most twice as
// large, only the filled size moves and the exposed tail is zeroed.
// Otherwise a new store of 1.5x the new size is allocated and the filled
// elements are copied over, which also releases oversized stores after a
// Truncate.
func (a *Array[T]) Extend(n int) bool {
	if n <= 0 {
		return false
	}
	old := len(a.data)
	size := old + n
	if c := cap(a.data); c >= size && c <= 2*size {
		a.data = a.data[:size]
		clear(a.data[old:])
		return false
	}

	store := make([]T, size, size+size/2)
	copy(store, a.data)
	a.data = store
	return true
}

// Reserve grows the store to hold at least n elements. Extend keeps its 2x
// bound, so a reservation more than twice the next filled size is released
// by that Extend.
func (a *Array[T]) Reserve(n int) {
	if n <= cap(a.data) {
		return
	}
	store := make([]T, len(a.data), n)
	copy(store, a.data)
	a.data = store
}

// Truncate shrinks the filled size to n. The store is kept.
func (a *Array[T]) Truncate(n int) {
	if n < len(a.data) {
		a.data = a.data[:n]
	}
}

// Clone returns a deep copy with a store sized to the filled length.
func (a *Array[T]) Clone() Array[T] {
	return Array[T]{data: append([]T(nil), a.data...)}
}
