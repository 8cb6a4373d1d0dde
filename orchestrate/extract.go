package orchestrate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/roundtable-ai/roundtable/internal/metrics"
	"github.com/roundtable-ai/roundtable/types"
)

// Extractor opportunistically mines durable facts out of a round's
// transcript into reusable context items. The oracle is asked to return
// nothing when no new durable information exists; an empty result is a
// no-op, not an error, and any failure is advisory.
type Extractor struct {
	oracle  Oracle
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewExtractor creates an extractor.
func NewExtractor(oracle Oracle, timeout time.Duration, logger *zap.Logger, collector *metrics.Collector) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		oracle:  oracle,
		timeout: timeout,
		logger:  logger.With(zap.String("component", "extractor")),
		metrics: collector,
	}
}

// Extract appends newly discovered context items to the session. Items
// whose set name already exists are dropped; existing items are never
// silently overwritten.
func (e *Extractor) Extract(ctx context.Context, s *Session) {
	start := time.Now()
	items, err := CallWithTimeout(ctx, e.timeout, func(cctx context.Context) ([]types.ContextItem, error) {
		return e.oracle.ExtractContext(cctx, ExtractionQuery{
			History:  s.Transcript,
			Existing: s.Context,
		})
	})
	e.metrics.RecordOracleCall("extract", statusOf(err), time.Since(start))
	if err != nil {
		e.logger.Warn("context extraction failed, skipping", zap.Error(err))
		return
	}
	if len(items) == 0 {
		return
	}

	existing := make(map[string]struct{}, len(s.Context))
	for _, item := range s.Context {
		existing[item.SetName] = struct{}{}
	}

	added := 0
	for _, item := range items {
		if _, dup := existing[item.SetName]; dup {
			continue
		}
		s.Context = append(s.Context, item)
		existing[item.SetName] = struct{}{}
		added++
	}
	if added > 0 {
		e.logger.Info("context items extracted", zap.Int("added", added))
	}
}
