package scene

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/easelhq/easel/internal/doc"
)

// Session is the single-writer event loop tying the document store to
// the reconciler.
//
// External callers (UI collaborators, generation completions) submit
// commits via Enqueue; the loop applies them in FIFO order. Every store
// change marks the session dirty, and a reconcile pass runs when the
// commit queue drains - rapid successive mutations are thereby batched
// into one pass. Batching is safe because reconciliation is idempotent
// and always computed from the latest model snapshot, never from the
// mutation that triggered it.
//
// Thread-safety model:
//   - Enqueue, Invalidate: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Session struct {
	store *doc.Store
	rec   *Reconciler
	queue *commitQueue
	dirty atomic.Bool
	wake  chan struct{}
}

// NewSession wires a store and reconciler into a session. The session
// subscribes to store changes and to reconciler settle events; both mark
// it dirty.
func NewSession(store *doc.Store, rec *Reconciler) *Session {
	s := &Session{
		store: store,
		rec:   rec,
		queue: newCommitQueue(),
		wake:  make(chan struct{}, 1),
	}
	store.OnChange(s.Invalidate)
	rec.SetOnSettle(s.Invalidate)
	return s
}

// Enqueue submits a commit for processing by the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the session has been stopped.
func (s *Session) Enqueue(commit func() error) bool {
	return s.queue.Enqueue(commit)
}

// Invalidate marks the model as changed so the loop schedules a
// reconcile pass. Coalescing: any number of invalidations before the
// next idle tick produce a single pass.
func (s *Session) Invalidate() {
	s.dirty.Store(true)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run starts the event loop. Blocks until the context is cancelled or
// Stop is called.
//
// Commits drain before any reconcile pass runs; reconciliation is
// deferred to the loop's idle tick. Commit errors are logged and the
// loop continues - a rejected commit indicates a caller bug, never a
// reason to stop rendering.
func (s *Session) Run(ctx context.Context) error {
	slog.Info("session starting")

	for {
		commit, ok := s.queue.TryDequeue()
		if ok {
			if err := commit(); err != nil {
				slog.Error("commit rejected", "error", err)
			}
			continue
		}

		if s.dirty.Swap(false) {
			s.rec.Sync(s.store.Frames())
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("session stopping: context cancelled")
			s.queue.Close()
			return ctx.Err()

		case <-s.wake:
			// Dirty flag set - loop back to reconcile.

		case <-s.queue.Wait():
			if s.queue.Len() == 0 && s.queue.Closed() && !s.dirty.Load() {
				slog.Info("session stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the session. Closes the commit queue, which
// causes Run to return once drained.
func (s *Session) Stop() {
	s.queue.Close()
}

// QueueLen returns the number of pending commits.
// Useful for monitoring and testing.
func (s *Session) QueueLen() int {
	return s.queue.Len()
}

// commitQueue is a thread-safe FIFO queue of commit closures.
//
// Unbounded: generation completions and UI collaborators may enqueue
// bursts without blocking. A buffered signal channel of size one
// coalesces wakeups for the Run loop.
type commitQueue struct {
	mu      sync.Mutex
	commits []func() error
	closed  bool
	signal  chan struct{}
}

func newCommitQueue() *commitQueue {
	return &commitQueue{
		commits: make([]func() error, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds a commit to the back of the queue.
// Returns false if the queue is closed.
func (q *commitQueue) Enqueue(commit func() error) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.commits = append(q.commits, commit)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue attempts to dequeue without blocking.
func (q *commitQueue) TryDequeue() (func() error, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.commits) == 0 {
		return nil, false
	}
	c := q.commits[0]

	// Nil out the slot so the backing array does not pin the closure.
	q.commits[0] = nil
	if len(q.commits) == 1 {
		q.commits = q.commits[:0]
	} else {
		q.commits = q.commits[1:]
	}
	return c, true
}

// Wait returns a channel that signals when commits may be available.
// The channel closes when the queue closes.
func (q *commitQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *commitQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commits)
}

// Closed reports whether Close has been called.
func (q *commitQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that no more commits will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *commitQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
