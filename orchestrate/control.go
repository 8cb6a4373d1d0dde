package orchestrate

import (
	"context"
	"sync/atomic"
	"time"
)

// ControlHandle carries the pause/cancel signals shared between a running
// session and its external controller. The flags are the only state the
// two sides share; both are atomic, so no additional locking is needed.
//
// The handle is local to one session instance. It is never ambient or
// global, so unrelated sessions cannot observe each other's flags.
type ControlHandle struct {
	paused    atomic.Bool
	cancelled atomic.Bool
}

// NewControlHandle creates a handle with both flags cleared.
func NewControlHandle() *ControlHandle {
	return &ControlHandle{}
}

// Pause sets the pause flag. A running session suspends at its next poll.
func (h *ControlHandle) Pause() { h.paused.Store(true) }

// Resume clears the pause flag.
func (h *ControlHandle) Resume() { h.paused.Store(false) }

// Cancel sets the cancel flag. Cancellation is cooperative: it is
// observed at step boundaries and inside the pause loop, and an in-flight
// external call is not interrupted, only its result discarded.
func (h *ControlHandle) Cancel() { h.cancelled.Store(true) }

// Paused reports whether the pause flag is set.
func (h *ControlHandle) Paused() bool { return h.paused.Load() }

// Cancelled reports whether the cancel flag is set.
func (h *ControlHandle) Cancelled() bool { return h.cancelled.Load() }

// Reset clears both flags. The scheduler calls this at session
// termination so flags never leak into a later run.
func (h *ControlHandle) Reset() {
	h.paused.Store(false)
	h.cancelled.Store(false)
}

// WaitWhilePaused blocks in fixed-interval increments while the pause
// flag is set. It returns false when the wait was broken by cancellation
// (flag or context), true when execution may proceed.
func (h *ControlHandle) WaitWhilePaused(ctx context.Context, poll time.Duration) bool {
	if poll <= 0 {
		poll = time.Second
	}
	for h.Paused() {
		if h.Cancelled() {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(poll):
		}
	}
	return !h.Cancelled() && ctx.Err() == nil
}
