package orchestrate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roundtable-ai/roundtable/internal/metrics"
	"github.com/roundtable-ai/roundtable/types"
)

// GenerateRequest is the input handed to the external turn executor.
type GenerateRequest struct {
	Prompt      string
	History     types.Transcript
	Participant types.Participant
	Context     types.ContextSet
}

// GenerateResult is the executor's output for one turn. A non-nil
// UpdatedContext replaces the session's context set wholesale.
type GenerateResult struct {
	Response       string
	UpdatedContext types.ContextSet
}

// TurnExecutor produces one participant message per turn. It is opaque to
// the engine and may call any number of AI or tool services internally.
// Retry policy, if any, lives behind this interface; the engine never
// retries a failed turn.
type TurnExecutor interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}

// TurnExecutorFunc adapts a function to the TurnExecutor interface.
type TurnExecutorFunc func(ctx context.Context, req GenerateRequest) (GenerateResult, error)

func (f TurnExecutorFunc) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	return f(ctx, req)
}

// TurnProcessor executes exactly one participant's turn: it assembles the
// outbound prompt, delegates generation to the executor, and appends the
// resulting prompt/response message pair to the transcript.
type TurnProcessor struct {
	executor TurnExecutor
	control  *ControlHandle
	timeout  time.Duration
	poll     time.Duration
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewTurnProcessor creates a turn processor. timeout bounds each
// executor call; poll is the pause loop interval.
func NewTurnProcessor(executor TurnExecutor, control *ControlHandle, timeout, poll time.Duration, logger *zap.Logger, collector *metrics.Collector) *TurnProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TurnProcessor{
		executor: executor,
		control:  control,
		timeout:  timeout,
		poll:     poll,
		logger:   logger.With(zap.String("component", "turn_processor")),
		metrics:  collector,
	}
}

// ExecuteTurn runs one turn for the given participant. On success the
// transcript gains two messages: a synthetic prompt attributed to the
// participant being asked, and the generated response from the same
// participant. Failures come back as structured errors; nothing is
// thrown past this boundary and nothing is retried here.
func (p *TurnProcessor) ExecuteTurn(ctx context.Context, participant types.Participant, s *Session) error {
	// Pause is honored before any work and again immediately before
	// dispatch, so an operator pause between steps never loses a turn.
	if !p.control.WaitWhilePaused(ctx, p.poll) {
		return types.NewError(types.ErrCancelled, "cancelled while waiting on pause flag")
	}

	prompt, history := p.buildPrompt(s)

	if p.control.Cancelled() {
		return types.NewError(types.ErrCancelled, "cancelled before dispatch")
	}
	if !p.control.WaitWhilePaused(ctx, p.poll) {
		return types.NewError(types.ErrCancelled, "cancelled while waiting on pause flag")
	}

	start := time.Now()
	result, err := CallWithTimeout(ctx, p.timeout, func(cctx context.Context) (GenerateResult, error) {
		return p.executor.Generate(cctx, GenerateRequest{
			Prompt:      prompt,
			History:     history,
			Participant: participant,
			Context:     s.Context.VisibleTo(participant.Name),
		})
	})
	p.metrics.RecordTurn(participant.Name, statusOf(err), time.Since(start))
	if err != nil {
		p.logger.Warn("turn execution failed",
			zap.String("participant", participant.Name),
			zap.Error(err),
		)
		if types.IsCode(err, types.ErrCancelled) {
			return err
		}
		return types.NewError(types.ErrTurnExecution,
			fmt.Sprintf("turn for %s did not complete", participant.Name)).WithCause(err)
	}

	s.Append(
		types.NewUserMessage(participant.Name, prompt),
		types.NewAssistantMessage(participant.Name, result.Response),
	)
	if result.UpdatedContext != nil {
		s.Context = result.UpdatedContext
	}
	s.RecordTurn(participant.Name)

	p.logger.Debug("turn completed",
		zap.String("participant", participant.Name),
		zap.Int("transcript_len", len(s.Transcript)),
	)
	return nil
}

// buildPrompt derives the outbound content and the history slice for the
// next turn. The very first turn of a session sends the raw initial
// request with the full history; later turns forward the previous
// author's message and drop the trailing prompt/response pair from the
// history so the forwarded content is not present twice.
func (p *TurnProcessor) buildPrompt(s *Session) (string, types.Transcript) {
	if s.FirstTurn() {
		return s.InitialMessage, s.Transcript
	}
	history := s.Transcript
	if last, ok := s.Transcript.Last(); ok {
		if len(history) >= 2 {
			history = history[:len(history)-2]
		}
		return fmt.Sprintf("From %s: %s", last.AuthorName, last.Content), history
	}
	return s.InitialMessage, history
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
