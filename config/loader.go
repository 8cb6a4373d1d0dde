package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration with the precedence
// defaults → YAML file → environment variables.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a loader with no file and the ROUNDTABLE env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "ROUNDTABLE"}
}

// WithConfigPath sets the YAML file to load. Missing files are not an
// error when the path was never set; an explicitly set path must exist.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load resolves the final configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", l.configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", l.configPath, err)
		}
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides individual settings from the environment, e.g.
// ROUNDTABLE_SCHEDULING_MAX_ROUNDS=5 or ROUNDTABLE_LOG_LEVEL=debug.
func (l *Loader) applyEnv(cfg *Config) error {
	var firstErr error
	lookInt := func(key string, dst *int) {
		if v, ok := l.lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("env %s: %w", l.key(key), err)
				return
			}
			*dst = n
		}
	}
	lookDur := func(key string, dst *time.Duration) {
		if v, ok := l.lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("env %s: %w", l.key(key), err)
				return
			}
			*dst = d
		}
	}
	lookStr := func(key string, dst *string) {
		if v, ok := l.lookup(key); ok {
			*dst = v
		}
	}
	lookBool := func(key string, dst *bool) {
		if v, ok := l.lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("env %s: %w", l.key(key), err)
				return
			}
			*dst = b
		}
	}

	lookInt("SCHEDULING_PER_ROUND_TURN_CAP", &cfg.Scheduling.PerRoundTurnCap)
	lookInt("SCHEDULING_REINSERTION_CAP", &cfg.Scheduling.ReinsertionCap)
	lookInt("SCHEDULING_MAX_ROUNDS", &cfg.Scheduling.MaxRounds)
	lookDur("SCHEDULING_PAUSE_POLL_INTERVAL", &cfg.Scheduling.PausePollInterval)
	if v, ok := l.lookup("SCHEDULING_TERMINATION_WORDS"); ok {
		cfg.Scheduling.TerminationWords = splitNonEmpty(v)
	}

	lookDur("ORACLE_ROUTING_TIMEOUT", &cfg.Oracle.RoutingTimeout)
	lookDur("ORACLE_COMPACTION_TIMEOUT", &cfg.Oracle.CompactionTimeout)
	lookDur("ORACLE_EXTRACTION_TIMEOUT", &cfg.Oracle.ExtractionTimeout)
	lookDur("ORACLE_TURN_TIMEOUT", &cfg.Oracle.TurnTimeout)

	lookInt("COMPACTION_TRIGGER_SIZE", &cfg.Compaction.TriggerSize)
	lookInt("COMPACTION_SUMMARY_LIMIT", &cfg.Compaction.SummaryLimit)
	lookStr("COMPACTION_TOKEN_ENCODING", &cfg.Compaction.TokenEncoding)

	lookStr("LOG_LEVEL", &cfg.Log.Level)
	lookStr("LOG_FORMAT", &cfg.Log.Format)

	lookBool("METRICS_ENABLED", &cfg.Metrics.Enabled)
	lookStr("METRICS_NAMESPACE", &cfg.Metrics.Namespace)

	return firstErr
}

func (l *Loader) key(suffix string) string {
	if l.envPrefix == "" {
		return suffix
	}
	return l.envPrefix + "_" + suffix
}

func (l *Loader) lookup(suffix string) (string, bool) {
	return os.LookupEnv(l.key(suffix))
}

func splitNonEmpty(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
