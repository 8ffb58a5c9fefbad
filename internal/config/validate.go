package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks a Config for out-of-range values. All problems are
// collected into one error.
func Validate(cfg *Config) error {
	var problems []string

	checkUnit := func(name string, v float64) {
		if v < 0 || v > 1 {
			problems = append(problems, fmt.Sprintf("%s must be in [0,1], got %g", name, v))
		}
	}

	checkUnit("scoring.threshold", cfg.Scoring.Threshold)
	checkUnit("scoring.bypass_weight", cfg.Scoring.BypassWeight)
	checkUnit("scoring.semantic_weight", cfg.Scoring.SemanticWeight)
	checkUnit("scoring.whitelist_weight", cfg.Scoring.WhitelistWeight)

	if !validLogLevels[cfg.Log.Level] {
		problems = append(problems, fmt.Sprintf("log.level must be one of debug, info, warn, error; got %q", cfg.Log.Level))
	}

	if cfg.Server.Addr == "" {
		problems = append(problems, "server.addr must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}
