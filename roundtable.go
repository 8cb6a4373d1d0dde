// Package roundtable provides a top-level convenience entry point for
// creating a session controller with minimal boilerplate.
//
// Usage:
//
//	import "github.com/roundtable-ai/roundtable"
//
//	ctrl, err := roundtable.New(
//	    roundtable.WithExecutor(myExecutor),
//	    roundtable.WithOracle(myOracle),
//	)
//	stream, err := ctrl.Start(ctx, orchestrate.NewSession(
//	    orchestrate.ModeSequential, roster, "draft a haiku"))
package roundtable

import (
	"github.com/roundtable-ai/roundtable/config"
	"github.com/roundtable-ai/roundtable/internal/metrics"
	"github.com/roundtable-ai/roundtable/internal/tokencount"
	"github.com/roundtable-ai/roundtable/orchestrate"
	"github.com/roundtable-ai/roundtable/types"
	"go.uber.org/zap"
)

// Option configures the controller created by [New].
type Option func(*builder)

type builder struct {
	executor orchestrate.TurnExecutor
	oracle   orchestrate.Oracle
	cfg      *config.Config
	logger   *zap.Logger
}

// WithExecutor sets the external agent turn executor. Required.
func WithExecutor(executor orchestrate.TurnExecutor) Option {
	return func(b *builder) { b.executor = executor }
}

// WithOracle sets the external decision oracle. Required.
func WithOracle(oracle orchestrate.Oracle) Option {
	return func(b *builder) { b.oracle = oracle }
}

// WithConfig overrides the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(b *builder) { b.cfg = cfg }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *builder) { b.logger = logger }
}

// New creates an [orchestrate.Controller] wired from the options.
func New(opts ...Option) (*orchestrate.Controller, error) {
	b := &builder{cfg: config.DefaultConfig()}
	for _, opt := range opts {
		opt(b)
	}
	if b.executor == nil {
		return nil, types.NewError(types.ErrInvalidSession, "a turn executor is required")
	}
	if b.oracle == nil {
		return nil, types.NewError(types.ErrInvalidSession, "a decision oracle is required")
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	logger := b.logger
	if logger == nil {
		var err error
		logger, err = config.NewLogger(b.cfg.Log)
		if err != nil {
			return nil, err
		}
	}

	var counter tokencount.Counter = tokencount.Chars{}
	if enc := b.cfg.Compaction.TokenEncoding; enc != "" {
		counter = tokencount.NewTiktoken(enc, logger)
	}

	var collector *metrics.Collector
	if b.cfg.Metrics.Enabled {
		collector = metrics.NewCollector(b.cfg.Metrics.Namespace, logger)
	}

	scheduler := orchestrate.NewScheduler(
		b.executor, b.oracle, orchestrate.NewControlHandle(),
		b.cfg.Policy(), counter, logger, collector,
	)
	return orchestrate.NewController(scheduler, logger), nil
}
