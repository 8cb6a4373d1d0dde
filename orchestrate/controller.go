package orchestrate

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/roundtable-ai/roundtable/types"
)

// Snapshot is one observable view of a running session, emitted after
// every transcript change and once more at termination. Persisting
// snapshots to durable storage is the consumer's responsibility.
type Snapshot struct {
	Conversation types.Transcript `json:"conversation"`
	Context      types.ContextSet `json:"context"`
	// Terminal is empty while the session is still running.
	Terminal TerminalState `json:"terminal,omitempty"`
}

// Controller exposes one session's run to an external caller: start it,
// pause/resume/cancel it, and watch its snapshot stream. The control
// flags are the only state shared with the running scheduler.
type Controller struct {
	scheduler *Scheduler
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
	result  *RunResult
	runErr  error
}

// NewController wraps a scheduler.
func NewController(scheduler *Scheduler, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		scheduler: scheduler,
		logger:    logger.With(zap.String("component", "session_controller")),
	}
}

// Start runs the session on a background goroutine and returns its
// snapshot stream. The channel is closed once the session reaches a
// terminal state; the final element carries that state. A controller
// drives one run at a time.
func (c *Controller) Start(ctx context.Context, s *Session) (<-chan Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil, types.NewError(types.ErrInvalidSession, "controller already driving a session")
	}
	c.running = true
	c.result = nil
	c.runErr = nil

	snapshots := make(chan Snapshot, 16)
	c.scheduler.SetSnapshotFunc(func(snap Snapshot) {
		select {
		case snapshots <- snap:
		default:
			// A slow consumer never stalls the turn loop.
		}
	})

	go func() {
		defer close(snapshots)
		result, err := c.scheduler.Run(ctx, s)

		c.mu.Lock()
		c.running = false
		c.result = result
		c.runErr = err
		c.mu.Unlock()

		if err != nil {
			c.logger.Error("session run failed to start", zap.Error(err))
		}
	}()
	return snapshots, nil
}

// Pause suspends the session at its next poll point.
func (c *Controller) Pause() { c.scheduler.Control().Pause() }

// Resume lifts a pause.
func (c *Controller) Resume() { c.scheduler.Control().Resume() }

// Cancel requests cooperative cancellation; the session terminates at the
// next step boundary.
func (c *Controller) Cancel() { c.scheduler.Control().Cancel() }

// Running reports whether a session is currently in flight.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Result returns the finished run's result, once available.
func (c *Controller) Result() (*RunResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || (c.result == nil && c.runErr == nil) {
		return nil, false
	}
	return c.result, true
}

// Err returns the startup error of the last run, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runErr
}
