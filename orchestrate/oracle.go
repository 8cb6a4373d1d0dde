package orchestrate

import (
	"context"
	"errors"
	"time"

	"github.com/roundtable-ai/roundtable/types"
)

// RoutingQuery is the input to a routing decision.
type RoutingQuery struct {
	Message    types.Message
	History    types.Transcript
	SourceRole types.Role
	Roster     types.Roster
	Context    types.ContextSet
}

// RoutingDecision is the oracle's judgment on how the conversation should
// proceed. All fields are concrete; exhaustive handling at the call site
// turns missing-field bugs into compile-time errors.
type RoutingDecision struct {
	NextParticipant        string `json:"next_participant"`
	RedirectToUser         bool   `json:"redirect_to_user"`
	WorkflowComplete       bool   `json:"workflow_complete"`
	ContextUpdateRequested bool   `json:"context_update_requested"`
	RewrittenMessage       string `json:"rewritten_message,omitempty"`
	IsInfoRequest          bool   `json:"is_info_request"`
}

// CompactionQuery is the input to a transcript summarization call.
type CompactionQuery struct {
	History        types.Transcript
	InitialMessage string
	Context        types.ContextSet
}

// CompactionResult is the oracle's synopsis of the conversation so far.
type CompactionResult struct {
	Summary         string `json:"summary"`
	Resolved        bool   `json:"resolved"`
	NeedsUserInfo   bool   `json:"needs_user_info"`
	NeedsUserAction bool   `json:"needs_user_action"`
}

// Classification collapses the result flags into one terminal judgment.
// needsUserInfo pre-empts needsUserAction, which pre-empts resolved.
type Classification string

const (
	ClassNeedsUserInfo   Classification = "needs_user_info"
	ClassNeedsUserAction Classification = "needs_user_action"
	ClassResolved        Classification = "resolved"
	ClassOngoing         Classification = "ongoing"
)

// Classify applies the canonical precedence to the result flags.
func (r CompactionResult) Classify() Classification {
	switch {
	case r.NeedsUserInfo:
		return ClassNeedsUserInfo
	case r.NeedsUserAction:
		return ClassNeedsUserAction
	case r.Resolved:
		return ClassResolved
	}
	return ClassOngoing
}

// ExtractionQuery is the input to a context extraction call.
type ExtractionQuery struct {
	History  types.Transcript
	Existing types.ContextSet
}

// InfoRequestQuery asks the oracle to derive a structured input request
// from the message that blocked on missing information.
type InfoRequestQuery struct {
	Message types.Message
	History types.Transcript
}

// InfoField is one field of a structured input request form.
type InfoField struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// InfoRequest is a minimal form-shaped request for human input.
type InfoRequest struct {
	Title  string      `json:"title"`
	Fields []InfoField `json:"fields"`
}

// Oracle is the external decision oracle: a black box that, given
// conversation state, returns routing or resolution judgments. Every
// method is treated as a fallible, potentially slow remote call; callers
// wrap each invocation with CallWithTimeout.
type Oracle interface {
	// DecideRoute picks the next participant and related routing flags.
	DecideRoute(ctx context.Context, q RoutingQuery) (RoutingDecision, error)
	// Summarize produces a bounded synopsis plus resolution flags.
	Summarize(ctx context.Context, q CompactionQuery) (CompactionResult, error)
	// ExtractContext mines durable facts out of the transcript. An empty
	// result means no new durable information exists and is not an error.
	ExtractContext(ctx context.Context, q ExtractionQuery) ([]types.ContextItem, error)
	// BuildInfoRequest derives a form-shaped input request from a message.
	BuildInfoRequest(ctx context.Context, q InfoRequestQuery) (InfoRequest, error)
}

// CallWithTimeout runs fn under a deadline composed with the session's
// cancellation context. Deadline expiry maps to ORACLE_TIMEOUT; a failed
// call is never treated as success with empty data.
func CallWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if d <= 0 {
		return fn(ctx)
	}

	cctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(cctx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		switch {
		case errors.Is(out.err, context.DeadlineExceeded):
			return zero, types.NewError(types.ErrOracleTimeout, "external call exceeded deadline").
				WithCause(out.err).WithRetryable(true)
		case errors.Is(out.err, context.Canceled):
			return zero, types.NewError(types.ErrCancelled, "external call abandoned by cancellation").
				WithCause(out.err)
		}
		return out.value, out.err
	case <-cctx.Done():
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return zero, types.NewError(types.ErrOracleTimeout, "external call exceeded deadline").
				WithCause(cctx.Err()).WithRetryable(true)
		}
		return zero, types.NewError(types.ErrCancelled, "external call abandoned by cancellation").
			WithCause(cctx.Err())
	}
}
