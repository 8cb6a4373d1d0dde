package orchestrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/roundtable-ai/roundtable/internal/metrics"
	"github.com/roundtable-ai/roundtable/internal/tokencount"
	"github.com/roundtable-ai/roundtable/types"
)

// OrchestratorAuthor is the synthetic author of operator-visible engine
// messages (failure explanations, action prompts).
const OrchestratorAuthor = "orchestrator"

const infoRequestSetName = "user-info-request"

// RunResult records the outcome of one orchestration run.
type RunResult struct {
	SessionID string           `json:"session_id"`
	State     TerminalState    `json:"state"`
	Reason    string           `json:"reason"`
	Rounds    int              `json:"rounds"`
	Messages  types.Transcript `json:"messages"`
	Context   types.ContextSet `json:"context"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
}

// Scheduler is the top-level orchestration state machine. It owns the
// round and cycle counters and drives the compactor, reorderer, turn
// processor, router and extractor in sequence. One scheduler drives one
// session at a time; there is no parallel turn execution.
type Scheduler struct {
	policy    Policy
	control   *ControlHandle
	turns     *TurnProcessor
	router    *DynamicRouter
	reorderer *Reorderer
	compactor *Compactor
	extractor *Extractor
	oracle    Oracle
	logger    *zap.Logger
	metrics   *metrics.Collector
	tracer    trace.Tracer

	onSnapshot func(Snapshot)
}

// NewScheduler wires a scheduler from its collaborators. counter may be
// nil (transcript size falls back to character count); collector may be
// nil (metrics disabled).
func NewScheduler(executor TurnExecutor, oracle Oracle, control *ControlHandle, policy Policy, counter tokencount.Counter, logger *zap.Logger, collector *metrics.Collector) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if control == nil {
		control = NewControlHandle()
	}
	return &Scheduler{
		policy:  policy,
		control: control,
		oracle:  oracle,
		turns: NewTurnProcessor(executor, control,
			policy.TurnTimeout, policy.PausePollInterval, logger, collector),
		router: NewDynamicRouter(oracle, policy.RoutingTimeout,
			policy.CompactionThreshold, counter, logger, collector),
		reorderer: NewReorderer(oracle, policy.RoutingTimeout,
			policy.PerRoundTurnCap, policy.ReinsertionCap, logger, collector),
		compactor: NewCompactor(oracle, policy.CompactionTimeout,
			policy.SummaryLimit, logger, collector),
		extractor: NewExtractor(oracle, policy.ExtractionTimeout, logger, collector),
		logger:    logger.With(zap.String("component", "scheduler")),
		metrics:   collector,
		tracer:    otel.Tracer("roundtable/orchestrate"),
	}
}

// Control returns the session control handle.
func (sch *Scheduler) Control() *ControlHandle { return sch.control }

// SetSnapshotFunc installs a hook invoked after every transcript change
// and at termination. The hook must not block.
func (sch *Scheduler) SetSnapshotFunc(fn func(Snapshot)) { sch.onSnapshot = fn }

// Run drives the session to a terminal state. The control flags are
// reset on the way out so they never leak into a later session.
func (sch *Scheduler) Run(ctx context.Context, s *Session) (*RunResult, error) {
	if len(s.Roster.Enabled()) == 0 {
		return nil, types.NewError(types.ErrInvalidSession, "no enabled participants in roster")
	}

	ctx, span := sch.tracer.Start(ctx, "orchestrate.run",
		trace.WithAttributes(
			attribute.String("session.id", s.ID),
			attribute.String("session.mode", string(s.Mode)),
		))
	defer span.End()
	defer sch.control.Reset()

	start := time.Now()
	sch.logger.Info("orchestration started",
		zap.String("session", s.ID),
		zap.String("mode", string(s.Mode)),
		zap.Int("participants", len(s.Roster.Enabled())),
		zap.Int("rounds_requested", s.RoundsRequested),
	)

	state, reason := sch.runLoop(ctx, s)

	result := &RunResult{
		SessionID: s.ID,
		State:     state,
		Reason:    reason,
		Rounds:    s.RoundIndex(),
		Messages:  s.Transcript.Clone(),
		Context:   s.Context.Clone(),
		StartTime: start,
		EndTime:   time.Now(),
	}
	sch.metrics.RecordSession(string(state), time.Since(start))
	span.SetAttributes(attribute.String("session.terminal_state", string(state)))
	sch.emit(s, state)

	sch.logger.Info("orchestration ended",
		zap.String("session", s.ID),
		zap.String("state", string(state)),
		zap.String("reason", reason),
		zap.Int("rounds", s.RoundIndex()),
		zap.Int("messages", len(s.Transcript)),
	)
	return result, nil
}

// runLoop is the ROUND_START → CYCLE_RUNNING → ROUND_END machine.
func (sch *Scheduler) runLoop(ctx context.Context, s *Session) (TerminalState, string) {
	for {
		if sch.control.Cancelled() {
			return StateCancelled, "cancelled_by_operator"
		}
		if s.RoundsRequested > 0 && s.RoundIndex() >= s.RoundsRequested {
			return StateComplete, "rounds_completed"
		}
		if sch.policy.MaxRounds > 0 && s.RoundIndex() >= sch.policy.MaxRounds {
			return StateComplete, "max_rounds"
		}

		// ROUND_START: every round but the first opens with compaction.
		if s.RoundIndex() > 0 {
			result, err := sch.compactor.Compact(ctx, s)
			if err != nil {
				sch.appendFailure(s, err)
				return StateFailed, "compaction_failed"
			}
			switch result.Classify() {
			case ClassNeedsUserInfo:
				sch.appendInfoRequest(ctx, s)
				return StateAwaitingUser, "needs_user_info"
			case ClassNeedsUserAction:
				s.Append(types.NewAssistantMessage(OrchestratorAuthor,
					"Operator action required before the team can continue: "+result.Summary))
				return StateAwaitingUser, "needs_user_action"
			case ClassResolved:
				if s.RoundsRequested == 0 {
					return StateComplete, "resolved"
				}
			}
			sch.emit(s, "")
		}

		state, reason, done := sch.runCycle(ctx, s)
		if done {
			return state, reason
		}

		// ROUND_END: static ordering harvests durable facts once per round.
		if s.Mode.IsStatic() {
			sch.extractor.Extract(ctx, s)
		}
		s.FinishRound()
		sch.emit(s, "")
	}
}

// runCycle iterates the participant sequence for one round.
func (sch *Scheduler) runCycle(ctx context.Context, s *Session) (TerminalState, string, bool) {
	ctx, span := sch.tracer.Start(ctx, "orchestrate.round",
		trace.WithAttributes(attribute.Int("round.index", s.RoundIndex())))
	defer span.End()

	roundStart := time.Now()
	defer func() { sch.metrics.RecordRound(time.Since(roundStart)) }()

	s.BeginRound()
	if s.Mode == ModeDynamic {
		if state, reason, done := sch.seedDynamicRound(ctx, s); done {
			return state, reason, true
		}
	}

	for s.StepIndex() < len(s.Sequence()) {
		// Cancellation is observed at every step boundary.
		if sch.control.Cancelled() {
			return StateCancelled, "cancelled_by_operator", true
		}

		name := s.Sequence()[s.StepIndex()]

		// Mid-sequence redirect, static ordering only, from the second
		// step of a round onward.
		if s.Mode.IsStatic() && s.StepIndex() > 0 && !s.FirstTurn() {
			if last, ok := s.Transcript.Last(); ok {
				rr := sch.reorderer.MaybeReorder(ctx, last, s)
				if rr.Redirected {
					s.SetSequence(rr.Sequence)
					name = s.Sequence()[s.StepIndex()]
				}
			}
		}

		participant, ok := s.Roster.ByName(name)
		if !ok || !participant.Enabled {
			s.AdvanceStep()
			continue
		}
		if s.Mode.IsStatic() && sch.policy.PerRoundTurnCap > 0 &&
			s.TurnsThisRound(name) >= sch.policy.PerRoundTurnCap {
			sch.logger.Debug("per-round turn cap reached, skipping",
				zap.String("participant", name))
			s.AdvanceStep()
			continue
		}

		if state, reason, done := sch.runTurn(ctx, participant, s); done {
			return state, reason, true
		}

		if s.Mode == ModeDynamic {
			state, reason, done, compactDue := sch.routeAfterTurn(ctx, s)
			if done {
				return state, reason, true
			}
			s.AdvanceStep()
			if compactDue || s.StepIndex() >= len(s.Roster.Enabled()) {
				// End the round early: compaction runs at the next
				// ROUND_START, and one full pass bounds a dynamic round.
				break
			}
			continue
		}

		s.AdvanceStep()
	}
	return "", "", false
}

// runTurn executes one participant turn and converts failures into a
// terminal FAILED state with an operator-visible transcript message.
func (sch *Scheduler) runTurn(ctx context.Context, participant types.Participant, s *Session) (TerminalState, string, bool) {
	ctx, span := sch.tracer.Start(ctx, "orchestrate.turn",
		trace.WithAttributes(attribute.String("participant", participant.Name)))
	defer span.End()

	if err := sch.turns.ExecuteTurn(ctx, participant, s); err != nil {
		if types.IsCode(err, types.ErrCancelled) {
			return StateCancelled, "cancelled_by_operator", true
		}
		// Transcript integrity: the operator must see the turn did not
		// happen. Never retry, never skip to the next participant.
		sch.appendFailure(s, err)
		return StateFailed, "turn_failed", true
	}
	sch.emit(s, "")
	return "", "", false
}

// seedDynamicRound chooses the round's first speaker. The pending message
// is the latest transcript entry, or the initial request when the
// transcript is still empty; in both cases the user/system safety rule in
// the router guarantees the manager handles raw user input.
func (sch *Scheduler) seedDynamicRound(ctx context.Context, s *Session) (TerminalState, string, bool) {
	msg, ok := s.Transcript.Last()
	if !ok {
		msg = types.NewUserMessage("", s.InitialMessage)
	}
	decision, _, err := sch.router.DecideNext(ctx, RoutingQuery{
		Message:    msg,
		History:    s.Transcript,
		SourceRole: msg.Role,
		Roster:     s.Roster,
		Context:    s.Context,
	})
	if err != nil {
		sch.appendFailure(s, err)
		return StateFailed, "routing_failed", true
	}
	next := decision.NextParticipant
	if next == "" {
		next = s.Roster.Enabled().Names()[0]
	}
	s.AppendToSequence(next)
	return "", "", false
}

// routeAfterTurn consults the oracle about the message a dynamic turn
// just produced, applies its judgments, and appends the successor to the
// plan. The fourth return value reports that compaction is due before the
// next step.
func (sch *Scheduler) routeAfterTurn(ctx context.Context, s *Session) (TerminalState, string, bool, bool) {
	last, ok := s.Transcript.Last()
	if !ok {
		return "", "", false, false
	}

	if sch.isTerminator(last.Content) {
		return StateComplete, "terminated_by_agent", true, false
	}

	decision, compactDue, err := sch.router.DecideNext(ctx, RoutingQuery{
		Message:    last,
		History:    s.Transcript,
		SourceRole: last.Role,
		Roster:     s.Roster,
		Context:    s.Context,
	})
	if err != nil {
		sch.appendFailure(s, err)
		return StateFailed, "routing_failed", true, false
	}

	if decision.RewrittenMessage != "" {
		// Strip addressing artifacts so the next reader sees a clean ask.
		s.Transcript[len(s.Transcript)-1].Content = decision.RewrittenMessage
	}
	if decision.WorkflowComplete {
		return StateComplete, "workflow_complete", true, false
	}
	if decision.IsInfoRequest {
		sch.appendInfoRequest(ctx, s)
		return StateAwaitingUser, "needs_user_info", true, false
	}
	if decision.RedirectToUser {
		return StateAwaitingUser, "redirected_to_user", true, false
	}
	if decision.ContextUpdateRequested {
		sch.extractor.Extract(ctx, s)
	}

	next := decision.NextParticipant
	if next == "" {
		next = sch.rotateAfter(s, last.AuthorName)
	}
	if sch.policy.ReinsertionCap > 0 && s.Reinsertions(next) >= sch.policy.ReinsertionCap {
		sch.logger.Debug("successor over reinsertion cap, dropped",
			zap.String("participant", next),
			zap.String("code", string(types.ErrSequenceCapExceeded)),
		)
		next = sch.firstUnderCap(s, next)
		if next == "" {
			// Everyone is over budget; close the round and let the next
			// ROUND_START classification decide.
			return "", "", false, true
		}
	}
	s.RecordReinsertion(next)
	s.AppendToSequence(next)
	return "", "", false, compactDue
}

// rotateAfter returns the enabled participant following name in roster
// order, wrapping around.
func (sch *Scheduler) rotateAfter(s *Session, name string) string {
	names := s.Roster.Enabled().Names()
	for i, n := range names {
		if n == name {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

// firstUnderCap scans roster order for a participant still under the
// reinsertion cap, excluding the rejected candidate.
func (sch *Scheduler) firstUnderCap(s *Session, rejected string) string {
	for _, n := range s.Roster.Enabled().Names() {
		if n == rejected {
			continue
		}
		if s.Reinsertions(n) < sch.policy.ReinsertionCap {
			return n
		}
	}
	return ""
}

// appendInfoRequest renders a form-shaped input request, appends it to
// the transcript, and records it as a context item hidden from every
// participant (the implicit user channel alone sees it). The item is
// appended at most once per session.
func (sch *Scheduler) appendInfoRequest(ctx context.Context, s *Session) {
	last, _ := s.Transcript.Last()
	req, err := CallWithTimeout(ctx, sch.policy.RoutingTimeout, func(cctx context.Context) (InfoRequest, error) {
		return sch.oracle.BuildInfoRequest(cctx, InfoRequestQuery{Message: last, History: s.Transcript})
	})
	if err != nil {
		sch.logger.Warn("info request generation failed, using generic form", zap.Error(err))
		req = InfoRequest{Title: "Additional information required to continue"}
	}

	rendered := renderInfoRequest(req)
	s.Append(types.NewAssistantMessage(OrchestratorAuthor, rendered))

	for _, item := range s.Context {
		if item.SetName == infoRequestSetName {
			return
		}
	}
	item := types.NewContextItem(infoRequestSetName, rendered).
		HideFrom(s.Roster.Names()...)
	s.Context = append(s.Context, item)
}

// appendFailure surfaces a terminal error as an operator-visible
// assistant message, so the transcript remains self-explanatory.
func (sch *Scheduler) appendFailure(s *Session, err error) {
	s.Append(types.NewAssistantMessage(OrchestratorAuthor,
		fmt.Sprintf("The session stopped because a step failed: %v", err)))
}

func (sch *Scheduler) isTerminator(content string) bool {
	trimmed := strings.TrimSpace(content)
	for _, w := range sch.policy.TerminationWords {
		if trimmed == w {
			return true
		}
	}
	return false
}

func (sch *Scheduler) emit(s *Session, terminal TerminalState) {
	if sch.onSnapshot == nil {
		return
	}
	sch.onSnapshot(Snapshot{
		Conversation: s.Transcript.Clone(),
		Context:      s.Context.Clone(),
		Terminal:     terminal,
	})
}

func renderInfoRequest(req InfoRequest) string {
	var b strings.Builder
	title := req.Title
	if title == "" {
		title = "Additional information required to continue"
	}
	b.WriteString(title)
	for _, f := range req.Fields {
		b.WriteString("\n- ")
		b.WriteString(f.Name)
		if f.Required {
			b.WriteString(" (required)")
		}
		if f.Description != "" {
			b.WriteString(": ")
			b.WriteString(f.Description)
		}
	}
	return b.String()
}
