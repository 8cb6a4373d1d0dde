package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Scheduling.PerRoundTurnCap)
	assert.Equal(t, 3, cfg.Scheduling.ReinsertionCap)
	assert.Equal(t, time.Second, cfg.Scheduling.PausePollInterval)
	assert.Equal(t, 6*time.Second, cfg.Oracle.RoutingTimeout)
	assert.Equal(t, 10000, cfg.Compaction.TriggerSize)
	assert.Equal(t, 1000, cfg.Compaction.SummaryLimit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtable.yaml")
	content := `
scheduling:
  per_round_turn_cap: 4
  max_rounds: 7
  termination_words: ["DONE"]
oracle:
  routing_timeout: 5s
compaction:
  trigger_size: 2048
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Scheduling.PerRoundTurnCap)
	assert.Equal(t, 7, cfg.Scheduling.MaxRounds)
	assert.Equal(t, []string{"DONE"}, cfg.Scheduling.TerminationWords)
	assert.Equal(t, 5*time.Second, cfg.Oracle.RoutingTimeout)
	assert.Equal(t, 2048, cfg.Compaction.TriggerSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched values keep their defaults.
	assert.Equal(t, 3, cfg.Scheduling.ReinsertionCap)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().WithConfigPath("/nonexistent/roundtable.yaml").Load()
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ROUNDTABLE_SCHEDULING_MAX_ROUNDS", "11")
	t.Setenv("ROUNDTABLE_ORACLE_ROUTING_TIMEOUT", "7s")
	t.Setenv("ROUNDTABLE_LOG_LEVEL", "warn")
	t.Setenv("ROUNDTABLE_METRICS_ENABLED", "false")
	t.Setenv("ROUNDTABLE_SCHEDULING_TERMINATION_WORDS", "DONE, FINISHED")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 11, cfg.Scheduling.MaxRounds)
	assert.Equal(t, 7*time.Second, cfg.Oracle.RoutingTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, []string{"DONE", "FINISHED"}, cfg.Scheduling.TerminationWords)
}

func TestEnvOverrideBadValue(t *testing.T) {
	t.Setenv("ROUNDTABLE_SCHEDULING_MAX_ROUNDS", "eleven")
	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "negative cap", mutate: func(c *Config) { c.Scheduling.PerRoundTurnCap = -1 }, wantErr: true},
		{name: "negative reinsertion cap", mutate: func(c *Config) { c.Scheduling.ReinsertionCap = -2 }, wantErr: true},
		{name: "zero summary limit", mutate: func(c *Config) { c.Compaction.SummaryLimit = 0 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "verbose" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolicyConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheduling.PerRoundTurnCap = 5
	cfg.Compaction.TriggerSize = 42

	p := cfg.Policy()
	assert.Equal(t, 5, p.PerRoundTurnCap)
	assert.Equal(t, 42, p.CompactionThreshold)
	assert.Equal(t, cfg.Oracle.TurnTimeout, p.TurnTimeout)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = NewLogger(LogConfig{Level: "nope"})
	assert.Error(t, err)
}
