package config

import (
	"fmt"
	"time"

	"github.com/roundtable-ai/roundtable/orchestrate"
)

// Config is the complete roundtable configuration.
type Config struct {
	// Scheduling holds the orchestration policy knobs.
	Scheduling SchedulingConfig `yaml:"scheduling"`

	// Oracle holds the external-call timeouts.
	Oracle OracleConfig `yaml:"oracle"`

	// Compaction holds the summarization trigger settings.
	Compaction CompactionConfig `yaml:"compaction"`

	// Log holds the logging configuration.
	Log LogConfig `yaml:"log"`

	// Metrics holds the metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// SchedulingConfig tunes the turn scheduler.
type SchedulingConfig struct {
	// PerRoundTurnCap bounds one participant's turns within a round
	// under static ordering.
	PerRoundTurnCap int `yaml:"per_round_turn_cap"`
	// ReinsertionCap bounds session-wide re-insertions of a participant.
	ReinsertionCap int `yaml:"reinsertion_cap"`
	// MaxRounds is a hard ceiling on rounds.
	MaxRounds int `yaml:"max_rounds"`
	// PausePollInterval is the pause loop sleep increment.
	PausePollInterval time.Duration `yaml:"pause_poll_interval"`
	// TerminationWords end a dynamic run when a response equals one exactly.
	TerminationWords []string `yaml:"termination_words"`
}

// OracleConfig bounds the external decision oracle and turn executor.
type OracleConfig struct {
	RoutingTimeout    time.Duration `yaml:"routing_timeout"`
	CompactionTimeout time.Duration `yaml:"compaction_timeout"`
	ExtractionTimeout time.Duration `yaml:"extraction_timeout"`
	TurnTimeout       time.Duration `yaml:"turn_timeout"`
}

// CompactionConfig tunes the summarization trigger.
type CompactionConfig struct {
	// TriggerSize is the transcript size past which compaction is due,
	// in counter units (tokens or characters).
	TriggerSize int `yaml:"trigger_size"`
	// SummaryLimit caps summary length in characters.
	SummaryLimit int `yaml:"summary_limit"`
	// TokenEncoding selects a tiktoken encoding for size measurement;
	// empty means plain character count.
	TokenEncoding string `yaml:"token_encoding"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// MetricsConfig configures metrics collection.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Scheduling.PerRoundTurnCap < 0 {
		return fmt.Errorf("scheduling.per_round_turn_cap must not be negative")
	}
	if c.Scheduling.ReinsertionCap < 0 {
		return fmt.Errorf("scheduling.reinsertion_cap must not be negative")
	}
	if c.Scheduling.MaxRounds < 0 {
		return fmt.Errorf("scheduling.max_rounds must not be negative")
	}
	if c.Compaction.SummaryLimit <= 0 {
		return fmt.Errorf("compaction.summary_limit must be positive")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// Policy converts the configuration into a scheduler policy.
func (c *Config) Policy() orchestrate.Policy {
	return orchestrate.Policy{
		PerRoundTurnCap:     c.Scheduling.PerRoundTurnCap,
		ReinsertionCap:      c.Scheduling.ReinsertionCap,
		MaxRounds:           c.Scheduling.MaxRounds,
		PausePollInterval:   c.Scheduling.PausePollInterval,
		RoutingTimeout:      c.Oracle.RoutingTimeout,
		CompactionTimeout:   c.Oracle.CompactionTimeout,
		ExtractionTimeout:   c.Oracle.ExtractionTimeout,
		TurnTimeout:         c.Oracle.TurnTimeout,
		CompactionThreshold: c.Compaction.TriggerSize,
		SummaryLimit:        c.Compaction.SummaryLimit,
		TerminationWords:    c.Scheduling.TerminationWords,
	}
}
