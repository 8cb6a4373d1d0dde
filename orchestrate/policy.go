package orchestrate

import "time"

// Policy collects the tunable scheduling parameters. The turn caps were
// fixed constants in earlier revisions; they are policy knobs here.
type Policy struct {
	// PerRoundTurnCap bounds how often one participant may speak within
	// a single round under static ordering.
	PerRoundTurnCap int
	// ReinsertionCap bounds how often one participant may be put back
	// into the plan across the whole session (dynamic selection and
	// static resplicing both count).
	ReinsertionCap int
	// MaxRounds is a hard ceiling on rounds regardless of mode.
	MaxRounds int

	// PausePollInterval is the pause loop sleep increment.
	PausePollInterval time.Duration
	// RoutingTimeout bounds routing/classification oracle calls.
	RoutingTimeout time.Duration
	// CompactionTimeout bounds summarization calls.
	CompactionTimeout time.Duration
	// ExtractionTimeout bounds context extraction calls.
	ExtractionTimeout time.Duration
	// TurnTimeout bounds one turn executor call.
	TurnTimeout time.Duration

	// CompactionThreshold is the transcript size (in estimator units)
	// past which the router flags that compaction is due.
	CompactionThreshold int
	// SummaryLimit caps the compaction summary length in characters.
	SummaryLimit int

	// TerminationWords end a dynamic-mode run when a response equals one
	// of them exactly.
	TerminationWords []string
}

// DefaultPolicy returns the default scheduling policy.
func DefaultPolicy() Policy {
	return Policy{
		PerRoundTurnCap:     2,
		ReinsertionCap:      3,
		MaxRounds:           20,
		PausePollInterval:   time.Second,
		RoutingTimeout:      6 * time.Second,
		CompactionTimeout:   8 * time.Second,
		ExtractionTimeout:   6 * time.Second,
		TurnTimeout:         2 * time.Minute,
		CompactionThreshold: 10000,
		SummaryLimit:        1000,
		TerminationWords:    []string{"TERMINATE"},
	}
}
