package config

import "time"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scheduling: DefaultSchedulingConfig(),
		Oracle:     DefaultOracleConfig(),
		Compaction: DefaultCompactionConfig(),
		Log:        DefaultLogConfig(),
		Metrics:    DefaultMetricsConfig(),
	}
}

// DefaultSchedulingConfig returns the default scheduling policy.
func DefaultSchedulingConfig() SchedulingConfig {
	return SchedulingConfig{
		PerRoundTurnCap:   2,
		ReinsertionCap:    3,
		MaxRounds:         20,
		PausePollInterval: time.Second,
		TerminationWords:  []string{"TERMINATE"},
	}
}

// DefaultOracleConfig returns the default external-call timeouts.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{
		RoutingTimeout:    6 * time.Second,
		CompactionTimeout: 8 * time.Second,
		ExtractionTimeout: 6 * time.Second,
		TurnTimeout:       2 * time.Minute,
	}
}

// DefaultCompactionConfig returns the default compaction settings.
func DefaultCompactionConfig() CompactionConfig {
	return CompactionConfig{
		TriggerSize:  10000,
		SummaryLimit: 1000,
	}
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "json",
	}
}

// DefaultMetricsConfig returns the default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "roundtable",
	}
}
