package cli

import (
	"github.com/charmbracelet/log"

	"github.com/codefactory/guard/internal/audit"
	"github.com/codefactory/guard/internal/config"
	"github.com/codefactory/guard/internal/db"
	"github.com/codefactory/guard/internal/guard"
	"github.com/codefactory/guard/internal/normalize"
	"github.com/codefactory/guard/internal/rules"
)

// buildEngine assembles a guard engine from configuration. The returned
// cleanup closes the audit database; callers must invoke it when done.
func buildEngine(cfg *config.Config, logger *log.Logger) (*guard.Engine, func(), error) {
	set, err := rules.Builtin().WithExtra(cfg.Rules.ExtraCritical, cfg.Rules.ExtraConfirm)
	if err != nil {
		return nil, nil, err
	}

	sink, cleanup, err := buildSink(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	engine := guard.New(
		guard.WithRules(set),
		guard.WithNormalizer(normalize.New(normalize.WithLeet(cfg.Normalize.LeetEnabled))),
		guard.WithWeights(guard.Weights{
			Bypass:    cfg.Scoring.BypassWeight,
			Semantic:  cfg.Scoring.SemanticWeight,
			Whitelist: cfg.Scoring.WhitelistWeight,
		}),
		guard.WithThreshold(cfg.Scoring.Threshold),
		guard.WithAuditSink(sink),
		guard.WithLogger(logger),
	)

	return engine, cleanup, nil
}

// buildSink wires the SQLite sink with an optional JSONL fallback.
func buildSink(cfg *config.Config, logger *log.Logger) (guard.AuditSink, func(), error) {
	database, err := db.OpenAndMigrate(GetDB())
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = database.Close() }

	var primary guard.AuditSink = audit.NewSQLiteSink(database)
	if cfg.Audit.LogPath == "" {
		return primary, cleanup, nil
	}

	fallback, err := audit.NewJSONLSink(cfg.Audit.LogPath)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return audit.NewFallbackSink(primary, fallback, logger), cleanup, nil
}
