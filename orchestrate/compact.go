package orchestrate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roundtable-ai/roundtable/internal/metrics"
	"github.com/roundtable-ai/roundtable/types"
)

// SummarizerAuthor is the synthetic author name attached to the two
// messages a compaction leaves behind.
const SummarizerAuthor = "summarizer"

// Compactor bounds transcript growth across rounds by replacing the live
// transcript with a continuation prompt plus a fresh summary. This is the
// engine's one destructive transcript operation and is always logged.
type Compactor struct {
	oracle       Oracle
	timeout      time.Duration
	summaryLimit int
	logger       *zap.Logger
	metrics      *metrics.Collector
}

// NewCompactor creates a compactor. summaryLimit caps the summary length
// in characters.
func NewCompactor(oracle Oracle, timeout time.Duration, summaryLimit int, logger *zap.Logger, collector *metrics.Collector) *Compactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compactor{
		oracle:       oracle,
		timeout:      timeout,
		summaryLimit: summaryLimit,
		logger:       logger.With(zap.String("component", "compactor")),
		metrics:      collector,
	}
}

// Compact summarizes the session transcript and replaces it with exactly
// two messages attributed to the summarizer author. The oracle is asked
// to reference existing context items by set name instead of restating
// them, so no fact lives in two places.
//
// This call is load-bearing: a failure here surfaces to the caller, which
// must terminate the run rather than guess at resolution status.
func (c *Compactor) Compact(ctx context.Context, s *Session) (CompactionResult, error) {
	start := time.Now()
	result, err := CallWithTimeout(ctx, c.timeout, func(cctx context.Context) (CompactionResult, error) {
		return c.oracle.Summarize(cctx, CompactionQuery{
			History:        s.Transcript,
			InitialMessage: s.InitialMessage,
			Context:        s.Context,
		})
	})
	c.metrics.RecordOracleCall("compact", statusOf(err), time.Since(start))
	if err != nil {
		return CompactionResult{}, types.NewError(types.ErrCompactionFailed,
			"transcript summarization did not complete").WithCause(err)
	}
	if result.Summary == "" {
		return CompactionResult{}, types.NewError(types.ErrOracleMalformed,
			"summarization returned an empty summary")
	}
	if c.summaryLimit > 0 && len(result.Summary) > c.summaryLimit {
		result.Summary = result.Summary[:c.summaryLimit]
	}

	replaced := len(s.Transcript)
	continuation := fmt.Sprintf(
		"Continue working on the original request: %s\nThe conversation so far is summarized below.",
		s.InitialMessage,
	)
	s.ReplaceTranscript(
		types.NewMessage(types.RoleUser, SummarizerAuthor, continuation),
		types.NewMessage(types.RoleAssistant, SummarizerAuthor, result.Summary),
	)
	s.CurrentSummary = result.Summary
	c.metrics.RecordCompaction()

	c.logger.Info("transcript compacted",
		zap.Int("messages_replaced", replaced),
		zap.Int("summary_len", len(result.Summary)),
		zap.String("classification", string(result.Classify())),
	)
	return result, nil
}
