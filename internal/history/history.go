// Package history provides a bounded, linear undo/redo store over deep
// snapshots of an arbitrary state type.
//
// The store is generic over the snapshot type; callers supply the clone
// function. Every snapshot handed in or out is cloned, so history entries
// never share mutable sub-objects with the live state.
package history

import "log/slog"

// DefaultCap is the default maximum number of entries per stack.
const DefaultCap = 50

// History holds two bounded stacks (past, future) of deep-cloned
// snapshots with standard linear-history semantics: any push after an
// undo discards the entire future stack, no redo branches are preserved.
//
// Thread-safety: History is NOT safe for concurrent use. The document
// store serializes access under its own mutex.
type History[T any] struct {
	cap    int
	clone  func(T) T
	past   []T
	future []T
}

// Option configures a History.
type Option[T any] func(*History[T])

// WithCap sets the maximum number of entries per stack.
// Values below 1 are ignored.
func WithCap[T any](n int) Option[T] {
	return func(h *History[T]) {
		if n >= 1 {
			h.cap = n
		}
	}
}

// New creates a History with the given clone function.
//
// The clone function must produce a fully reference-free copy; the
// undo/redo round-trip guarantee depends on it.
func New[T any](clone func(T) T, opts ...Option[T]) *History[T] {
	h := &History[T]{
		cap:   DefaultCap,
		clone: clone,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Push deep-clones the snapshot and appends it to the past stack.
// Pushing past the cap evicts the oldest entry. The future stack is
// cleared: a new action after an undo invalidates redo.
//
// Callers push the PRE-mutation snapshot before applying a discrete
// structural action. Continuous manipulations (drag, resize, sliders)
// must not push - they would flood the stack with intermediate states of
// a single logical gesture.
func (h *History[T]) Push(snapshot T) {
	h.past = append(h.past, h.clone(snapshot))
	if len(h.past) > h.cap {
		// Evict oldest. Copy down rather than re-slicing so the backing
		// array does not pin evicted snapshots.
		n := copy(h.past, h.past[len(h.past)-h.cap:])
		for i := n; i < len(h.past); i++ {
			var zero T
			h.past[i] = zero
		}
		h.past = h.past[:n]
	}
	if len(h.future) > 0 {
		slog.Debug("history: push clears future stack", "discarded", len(h.future))
		h.future = h.future[:0]
	}
}

// Undo pops the most recent past snapshot, pushing a clone of current
// onto the future stack. Returns (zero, false) if there is nothing to
// undo.
func (h *History[T]) Undo(current T) (T, bool) {
	if len(h.past) == 0 {
		var zero T
		return zero, false
	}
	top := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]

	h.future = append(h.future, h.clone(current))
	if len(h.future) > h.cap {
		n := copy(h.future, h.future[len(h.future)-h.cap:])
		h.future = h.future[:n]
	}
	return top, true
}

// Redo pops the most recent future snapshot, pushing a clone of current
// onto the past stack. Returns (zero, false) if there is nothing to redo.
func (h *History[T]) Redo(current T) (T, bool) {
	if len(h.future) == 0 {
		var zero T
		return zero, false
	}
	top := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]

	h.past = append(h.past, h.clone(current))
	if len(h.past) > h.cap {
		n := copy(h.past, h.past[len(h.past)-h.cap:])
		h.past = h.past[:n]
	}
	return top, true
}

// PastLen returns the number of entries in the past stack.
// Used for diagnostics and tests.
func (h *History[T]) PastLen() int {
	return len(h.past)
}

// FutureLen returns the number of entries in the future stack.
// Used for diagnostics and tests.
func (h *History[T]) FutureLen() int {
	return len(h.future)
}

// Cap returns the configured per-stack entry cap.
func (h *History[T]) Cap() int {
	return h.cap
}

// Clear drops both stacks. Used when a whole new document is loaded.
func (h *History[T]) Clear() {
	h.past = nil
	h.future = nil
}
