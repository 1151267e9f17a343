package core

import "sync"

// Handle is a weak, generation-checked reference into a Registry.
// The zero Handle never resolves.
type Handle struct {
	Index      uint32
	Generation uint32
}

// IsZero reports whether the handle was never issued
func (h Handle) IsZero() bool {
	return h.Generation == 0
}

type slot[T any] struct {
	value      T
	generation uint32
	alive      bool
}

// Registry stores values behind generation-checked handles. Removing a value
// bumps the slot generation so every outstanding handle to it goes stale.
// Safe for concurrent use.
type Registry[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
	count int
}

// NewRegistry creates an empty registry
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Insert stores value and returns a handle to it
func (r *Registry[T]) Insert(value T) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		index = uint32(len(r.slots))
		r.slots = append(r.slots, slot[T]{})
	}

	s := &r.slots[index]
	s.generation++
	s.value = value
	s.alive = true
	r.count++
	return Handle{Index: index, Generation: s.generation}
}

// Get resolves a handle. Stale or unknown handles return false.
func (r *Registry[T]) Get(h Handle) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	if h.IsZero() || int(h.Index) >= len(r.slots) {
		return zero, false
	}
	s := r.slots[h.Index]
	if !s.alive || s.generation != h.Generation {
		return zero, false
	}
	return s.value, true
}

// Set replaces the value behind a live handle
func (r *Registry[T]) Set(h Handle, value T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h.IsZero() || int(h.Index) >= len(r.slots) {
		return false
	}
	s := &r.slots[h.Index]
	if !s.alive || s.generation != h.Generation {
		return false
	}
	s.value = value
	return true
}

// Remove invalidates the handle. Returns false if it was already stale.
func (r *Registry[T]) Remove(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h.IsZero() || int(h.Index) >= len(r.slots) {
		return false
	}
	s := &r.slots[h.Index]
	if !s.alive || s.generation != h.Generation {
		return false
	}
	var zero T
	s.value = zero
	s.alive = false
	r.free = append(r.free, h.Index)
	r.count--
	return true
}

// Len returns the number of live entries
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}
