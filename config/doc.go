// Package config provides unified configuration loading for the
// roundtable engine: defaults, YAML file, then environment variable
// overrides, in that precedence order.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("roundtable.yaml").
//	    WithEnvPrefix("ROUNDTABLE").
//	    Load()
package config
