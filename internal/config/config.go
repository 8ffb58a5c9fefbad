// Package config loads guard configuration with the precedence
// defaults < user config < project config < environment < flag overrides.
// All values are read once at initialization; there is no hot reload.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the full guard configuration.
type Config struct {
	Scoring   ScoringConfig   `mapstructure:"scoring" json:"scoring"`
	Normalize NormalizeConfig `mapstructure:"normalize" json:"normalize"`
	Rules     RulesConfig     `mapstructure:"rules" json:"rules"`
	Audit     AuditConfig     `mapstructure:"audit" json:"audit"`
	Server    ServerConfig    `mapstructure:"server" json:"server"`
	Log       LogConfig       `mapstructure:"log" json:"log"`
}

// ScoringConfig holds the confidence threshold and per-evidence penalties.
type ScoringConfig struct {
	Threshold       float64 `mapstructure:"threshold" json:"threshold"`
	BypassWeight    float64 `mapstructure:"bypass_weight" json:"bypass_weight"`
	SemanticWeight  float64 `mapstructure:"semantic_weight" json:"semantic_weight"`
	WhitelistWeight float64 `mapstructure:"whitelist_weight" json:"whitelist_weight"`
}

// NormalizeConfig controls the normalizer.
type NormalizeConfig struct {
	LeetEnabled bool `mapstructure:"leet_enabled" json:"leet_enabled"`
}

// RulesConfig carries operator-supplied patterns merged into the builtin
// tables at load time.
type RulesConfig struct {
	ExtraCritical []string `mapstructure:"extra_critical" json:"extra_critical"`
	ExtraConfirm  []string `mapstructure:"extra_confirm" json:"extra_confirm"`
}

// AuditConfig locates the audit sinks. An empty DatabasePath resolves to the
// project-local default at startup.
type AuditConfig struct {
	DatabasePath string `mapstructure:"database_path" json:"database_path"`
	LogPath      string `mapstructure:"log_path" json:"log_path"`
}

// ServerConfig configures the optional HTTP service.
type ServerConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

// DefaultConfig returns the builtin defaults.
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Threshold:       0.5,
			BypassWeight:    0.2,
			SemanticWeight:  0.1,
			WhitelistWeight: 0.05,
		},
		Normalize: NormalizeConfig{LeetEnabled: true},
		Rules:     RulesConfig{ExtraCritical: []string{}, ExtraConfirm: []string{}},
		Audit:     AuditConfig{},
		Server:    ServerConfig{Addr: "127.0.0.1:8750"},
		Log:       LogConfig{Level: "info"},
	}
}

// LoadOptions controls Load.
type LoadOptions struct {
	// ProjectDir is the directory whose .guard/config.toml is merged;
	// empty means the current working directory.
	ProjectDir string
	// UserConfigPath overrides the default ~/.guard/config.toml.
	UserConfigPath string
	// ProjectConfigPath overrides the project config location.
	ProjectConfigPath string
	// FlagOverrides are highest-precedence values keyed by config key.
	FlagOverrides map[string]any
}

// Load reads configuration with full precedence and validates the result.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	projectDir := opts.ProjectDir
	if projectDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			projectDir = cwd
		}
	}

	userPath, projectPath := ConfigPaths(projectDir, opts.ProjectConfigPath)
	if opts.UserConfigPath != "" {
		userPath = opts.UserConfigPath
	}

	if err := mergeConfigFile(v, userPath); err != nil {
		return nil, err
	}
	if err := mergeConfigFile(v, projectPath); err != nil {
		return nil, err
	}

	for key, value := range opts.FlagOverrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		// Environment values arrive as strings; decode them weakly so
		// "0.7" becomes a float and garbage becomes an error.
		dc.WeaklyTypedInput = true
		dc.ErrorUnused = false
	})
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigPaths returns the user and project config file paths.
func ConfigPaths(projectDir, projectOverride string) (string, string) {
	home, _ := os.UserHomeDir()
	userPath := filepath.Join(home, ".guard", "config.toml")
	return userPath, projectConfigPath(projectDir, projectOverride)
}

func projectConfigPath(projectDir, override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(projectDir, ".guard", "config.toml")
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("scoring.threshold", def.Scoring.Threshold)
	v.SetDefault("scoring.bypass_weight", def.Scoring.BypassWeight)
	v.SetDefault("scoring.semantic_weight", def.Scoring.SemanticWeight)
	v.SetDefault("scoring.whitelist_weight", def.Scoring.WhitelistWeight)
	v.SetDefault("normalize.leet_enabled", def.Normalize.LeetEnabled)
	v.SetDefault("rules.extra_critical", def.Rules.ExtraCritical)
	v.SetDefault("rules.extra_confirm", def.Rules.ExtraConfirm)
	v.SetDefault("audit.database_path", def.Audit.DatabasePath)
	v.SetDefault("audit.log_path", def.Audit.LogPath)
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("log.level", def.Log.Level)
}

func bindEnv(v *viper.Viper) {
	binds := map[string]string{
		"scoring.threshold":        "GUARD_CONFIDENCE_THRESHOLD",
		"scoring.bypass_weight":    "GUARD_BYPASS_WEIGHT",
		"scoring.semantic_weight":  "GUARD_SEMANTIC_WEIGHT",
		"scoring.whitelist_weight": "GUARD_WHITELIST_WEIGHT",
		"normalize.leet_enabled":   "GUARD_LEET_ENABLED",
		"audit.database_path":      "GUARD_AUDIT_DB",
		"audit.log_path":           "GUARD_AUDIT_LOG",
		"server.addr":              "GUARD_SERVER_ADDR",
		"log.level":                "GUARD_LOG_LEVEL",
	}
	for key, env := range binds {
		_ = v.BindEnv(key, env)
	}
}

// mergeConfigFile merges a TOML file into v. A missing file is a no-op.
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merging config %s: %w", path, err)
	}
	return nil
}

// valueKind describes the type a config key accepts.
type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindFloat
	kindStringSlice
)

// keyKinds registers every settable config key.
var keyKinds = map[string]valueKind{
	"scoring.threshold":        kindFloat,
	"scoring.bypass_weight":    kindFloat,
	"scoring.semantic_weight":  kindFloat,
	"scoring.whitelist_weight": kindFloat,
	"normalize.leet_enabled":   kindBool,
	"rules.extra_critical":     kindStringSlice,
	"rules.extra_confirm":      kindStringSlice,
	"audit.database_path":      kindString,
	"audit.log_path":           kindString,
	"server.addr":              kindString,
	"log.level":                kindString,
}

// ParseValue parses a raw string into the registered type for key.
func ParseValue(key, raw string) (any, error) {
	kind, ok := keyKinds[key]
	if !ok {
		return nil, fmt.Errorf("unsupported config key %q", key)
	}
	return parseValueByKind(raw, kind)
}

func parseValueByKind(raw string, kind valueKind) (any, error) {
	switch kind {
	case kindString:
		return raw, nil
	case kindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing bool %q: %w", raw, err)
		}
		return b, nil
	case kindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing float %q: %w", raw, err)
		}
		return f, nil
	case kindStringSlice:
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value kind %d", kind)
	}
}

// GetValue resolves a dotted key against a Config.
func GetValue(cfg *Config, key string) (any, bool) {
	switch key {
	case "scoring":
		return cfg.Scoring, true
	case "scoring.threshold":
		return cfg.Scoring.Threshold, true
	case "scoring.bypass_weight":
		return cfg.Scoring.BypassWeight, true
	case "scoring.semantic_weight":
		return cfg.Scoring.SemanticWeight, true
	case "scoring.whitelist_weight":
		return cfg.Scoring.WhitelistWeight, true
	case "normalize":
		return cfg.Normalize, true
	case "normalize.leet_enabled":
		return cfg.Normalize.LeetEnabled, true
	case "rules":
		return cfg.Rules, true
	case "rules.extra_critical":
		return cfg.Rules.ExtraCritical, true
	case "rules.extra_confirm":
		return cfg.Rules.ExtraConfirm, true
	case "audit":
		return cfg.Audit, true
	case "audit.database_path":
		return cfg.Audit.DatabasePath, true
	case "audit.log_path":
		return cfg.Audit.LogPath, true
	case "server":
		return cfg.Server, true
	case "server.addr":
		return cfg.Server.Addr, true
	case "log":
		return cfg.Log, true
	case "log.level":
		return cfg.Log.Level, true
	default:
		return nil, false
	}
}

// WriteValue sets a single dotted key in a TOML config file, creating the
// file and parent directories as needed.
func WriteValue(path, key string, value any) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}

	tree := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("decode config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	segments := strings.Split(key, ".")
	node := tree
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg]
		if !ok {
			next := map[string]any{}
			node[seg] = next
			node = next
			continue
		}
		table, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("config key %s: %q is not a table", key, seg)
		}
		node = table
	}
	node[segments[len(segments)-1]] = value

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(tree); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}
