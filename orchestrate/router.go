package orchestrate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/roundtable-ai/roundtable/internal/metrics"
	"github.com/roundtable-ai/roundtable/internal/tokencount"
	"github.com/roundtable-ai/roundtable/types"
)

// DynamicRouter integrates the decision oracle into dynamic ordering:
// after each turn it picks the successor participant and surfaces the
// oracle's completion, hand-off and rewrite judgments.
type DynamicRouter struct {
	oracle    Oracle
	timeout   time.Duration
	threshold int
	counter   tokencount.Counter
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// NewDynamicRouter creates a router. threshold is the transcript size
// above which the router flags that compaction is due; counter measures
// that size (nil falls back to plain character count).
func NewDynamicRouter(oracle Oracle, timeout time.Duration, threshold int, counter tokencount.Counter, logger *zap.Logger, collector *metrics.Collector) *DynamicRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DynamicRouter{
		oracle:    oracle,
		timeout:   timeout,
		threshold: threshold,
		counter:   counter,
		logger:    logger.With(zap.String("component", "dynamic_router")),
		metrics:   collector,
	}
}

// DecideNext returns the routing decision for the message that just
// arrived, plus whether the transcript has grown past the compaction
// threshold.
//
// Two safety rules hold regardless of oracle output: a message whose
// source role is user or system always routes to the manager with
// redirect-to-user forced off, and an info request always implies a
// redirect to the user (never the reverse).
func (r *DynamicRouter) DecideNext(ctx context.Context, q RoutingQuery) (RoutingDecision, bool, error) {
	summarize := r.pastThreshold(q.History)

	if q.SourceRole == types.RoleUser || q.SourceRole == types.RoleSystem {
		manager, ok := q.Roster.Manager()
		if !ok {
			return RoutingDecision{}, summarize,
				types.NewError(types.ErrInvalidSession, "roster has no enabled manager participant")
		}
		r.logger.Debug("routing user/system message to manager",
			zap.String("manager", manager.Name))
		return RoutingDecision{NextParticipant: manager.Name}, summarize, nil
	}

	start := time.Now()
	decision, err := CallWithTimeout(ctx, r.timeout, func(cctx context.Context) (RoutingDecision, error) {
		return r.oracle.DecideRoute(cctx, q)
	})
	r.metrics.RecordOracleCall("route", statusOf(err), time.Since(start))
	if err != nil {
		// Advisory call: recover with conservative defaults and let the
		// scheduler continue with the statically planned successor.
		r.logger.Warn("routing decision failed, continuing with planned order", zap.Error(err))
		return RoutingDecision{}, summarize, nil
	}

	decision = r.sanitize(decision, q.Roster)
	return decision, summarize, nil
}

// sanitize enforces the closed-decision invariants on raw oracle output.
func (r *DynamicRouter) sanitize(d RoutingDecision, roster types.Roster) RoutingDecision {
	if d.IsInfoRequest {
		d.RedirectToUser = true
	}
	if d.NextParticipant != "" {
		if _, ok := roster.ByName(d.NextParticipant); !ok {
			r.logger.Warn("oracle chose unknown participant, dropping",
				zap.String("participant", d.NextParticipant))
			d.NextParticipant = ""
		}
	}
	return d
}

// pastThreshold reports whether the joined transcript exceeds the
// configured compaction trigger size.
func (r *DynamicRouter) pastThreshold(history types.Transcript) bool {
	if r.threshold <= 0 {
		return false
	}
	joined := history.Join()
	size := len(joined)
	if r.counter != nil {
		size = r.counter.Count(joined)
	}
	return size > r.threshold
}
