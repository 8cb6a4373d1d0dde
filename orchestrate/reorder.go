package orchestrate

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/roundtable-ai/roundtable/internal/metrics"
	"github.com/roundtable-ai/roundtable/types"
)

// Reorderer decides whether the next static-ordering turn should jump to
// a different participant than the plan dictates. A redirect fires only
// when the message explicitly names another participant, or when the
// oracle confirms the message requires a capability only another
// participant holds. "Might be better suited" is never enough.
type Reorderer struct {
	oracle         Oracle
	timeout        time.Duration
	perRoundCap    int
	reinsertionCap int
	logger         *zap.Logger
	metrics        *metrics.Collector
}

// NewReorderer creates a reorderer with the given policy caps.
func NewReorderer(oracle Oracle, timeout time.Duration, perRoundCap, reinsertionCap int, logger *zap.Logger, collector *metrics.Collector) *Reorderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reorderer{
		oracle:         oracle,
		timeout:        timeout,
		perRoundCap:    perRoundCap,
		reinsertionCap: reinsertionCap,
		logger:         logger.With(zap.String("component", "reorderer")),
		metrics:        collector,
	}
}

// ReorderResult carries the possibly-respliced sequence.
type ReorderResult struct {
	Sequence   []string
	Redirected bool
	Target     string
}

// MaybeReorder inspects the most recent message and, when a redirect is
// warranted, splices the target participant to run immediately next,
// followed by the authoring participant again so it can resume, followed
// by the remainder of the original plan. Participants over the per-round
// turn cap or the session reinsertion cap are dropped from the splice
// silently.
//
// Never called for the very first turn; there is nothing to redirect from.
func (r *Reorderer) MaybeReorder(ctx context.Context, msg types.Message, s *Session) ReorderResult {
	unchanged := ReorderResult{Sequence: s.Sequence()}
	if s.FirstTurn() {
		return unchanged
	}

	author := msg.AuthorName
	target := r.mentionedParticipant(msg, s.Roster, author)

	if target == "" {
		target = r.capabilityTarget(ctx, msg, s, author)
	}
	if target == "" || target == author {
		return unchanged
	}
	planned := r.plannedNext(s)
	if target == planned {
		return unchanged
	}

	seq := r.splice(s, target, author)
	if len(seq) == 0 {
		return unchanged
	}

	r.metrics.RecordRedirect("static")
	r.logger.Info("sequence respliced",
		zap.String("target", target),
		zap.String("resumes", author),
	)
	return ReorderResult{Sequence: seq, Redirected: true, Target: target}
}

// mentionedParticipant scans the message for an explicit mention of
// another participant's name or title.
func (r *Reorderer) mentionedParticipant(msg types.Message, roster types.Roster, author string) string {
	content := strings.ToLower(msg.Content)
	for _, p := range roster.Enabled() {
		if p.Name == author {
			continue
		}
		if containsWord(content, strings.ToLower(p.Name)) {
			return p.Name
		}
		if p.Title != "" && containsWord(content, strings.ToLower(p.Title)) {
			return p.Name
		}
	}
	return ""
}

// capabilityTarget consults the oracle for a capability-driven redirect.
// The call is advisory: any failure means no redirect. The oracle's
// choice is honored only when it is corroborated by the message text, or
// when the chosen participant is the roster's sole tool operator and the
// message asks for tool use.
func (r *Reorderer) capabilityTarget(ctx context.Context, msg types.Message, s *Session, author string) string {
	start := time.Now()
	decision, err := CallWithTimeout(ctx, r.timeout, func(cctx context.Context) (RoutingDecision, error) {
		return r.oracle.DecideRoute(cctx, RoutingQuery{
			Message:    msg,
			History:    s.Transcript,
			SourceRole: msg.Role,
			Roster:     s.Roster,
			Context:    s.Context,
		})
	})
	r.metrics.RecordOracleCall("reorder", statusOf(err), time.Since(start))
	if err != nil {
		r.logger.Debug("reorder oracle call failed, keeping planned order", zap.Error(err))
		return ""
	}
	if decision.NextParticipant == "" || decision.NextParticipant == author {
		return ""
	}

	chosen, ok := s.Roster.ByName(decision.NextParticipant)
	if !ok {
		return ""
	}
	content := strings.ToLower(msg.Content)
	if containsWord(content, strings.ToLower(chosen.Name)) ||
		(chosen.Title != "" && containsWord(content, strings.ToLower(chosen.Title))) {
		return chosen.Name
	}
	if chosen.Role == types.RoleToolOperator && strings.Contains(content, "tool") && r.soleToolOperator(s.Roster, chosen.Name) {
		return chosen.Name
	}
	return ""
}

func (r *Reorderer) soleToolOperator(roster types.Roster, name string) bool {
	for _, p := range roster.Enabled() {
		if p.Role == types.RoleToolOperator && p.Name != name {
			return false
		}
	}
	return true
}

// plannedNext returns the name the static plan would run next, or "".
func (r *Reorderer) plannedNext(s *Session) string {
	seq := s.Sequence()
	if s.StepIndex() < len(seq) {
		return seq[s.StepIndex()]
	}
	return ""
}

// splice builds the new sequence: everything already executed, then the
// target, then the author again, then the untouched remainder. Names over
// either cap are excluded rather than failing the run.
func (r *Reorderer) splice(s *Session, target, author string) []string {
	seq := s.Sequence()
	idx := s.StepIndex()
	if idx > len(seq) {
		idx = len(seq)
	}

	out := append([]string(nil), seq[:idx]...)
	for _, name := range []string{target, author} {
		if !r.admit(s, name) {
			continue
		}
		out = append(out, name)
		s.RecordReinsertion(name)
	}
	if len(out) == idx {
		// Neither name survived the caps; keep the original plan.
		return nil
	}
	out = append(out, seq[idx:]...)
	return out
}

// admit applies both caps to a splice candidate.
func (r *Reorderer) admit(s *Session, name string) bool {
	if r.perRoundCap > 0 && s.TurnsThisRound(name) >= r.perRoundCap {
		r.logger.Debug("splice candidate over per-round cap",
			zap.String("participant", name),
			zap.String("code", string(types.ErrSequenceCapExceeded)),
		)
		return false
	}
	if r.reinsertionCap > 0 && s.Reinsertions(name) >= r.reinsertionCap {
		r.logger.Debug("splice candidate over reinsertion cap",
			zap.String("participant", name),
			zap.String("code", string(types.ErrSequenceCapExceeded)),
		)
		return false
	}
	return true
}

// containsWord reports whether text contains needle on word boundaries.
func containsWord(text, needle string) bool {
	if needle == "" {
		return false
	}
	for start := 0; ; {
		i := strings.Index(text[start:], needle)
		if i < 0 {
			return false
		}
		i += start
		before := i == 0 || !isWordByte(text[i-1])
		afterIdx := i + len(needle)
		after := afterIdx >= len(text) || !isWordByte(text[afterIdx])
		if before && after {
			return true
		}
		start = i + len(needle)
	}
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
