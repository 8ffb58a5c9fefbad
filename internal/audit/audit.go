// Package audit implements the append-only sinks that receive one record
// per evaluation. Sinks are safe for concurrent appenders; each record is
// written as one atomic unit (one row, one line). A sink failure must never
// fail the evaluation that produced the record.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/codefactory/guard/internal/db"
	"github.com/codefactory/guard/internal/guard"
)

// SQLiteSink appends records to the audit database.
type SQLiteSink struct {
	db *db.DB
}

// NewSQLiteSink creates a sink over an already-migrated database.
func NewSQLiteSink(database *db.DB) *SQLiteSink {
	return &SQLiteSink{db: database}
}

// Append implements guard.AuditSink.
func (s *SQLiteSink) Append(rec *guard.AuditRecord) error {
	return s.db.InsertRecord(rec)
}

// JSONLSink appends records as JSON lines to a file. The mutex keeps
// concurrent appends from interleaving within a line; O_APPEND keeps
// separate processes from clobbering each other.
type JSONLSink struct {
	mu   sync.Mutex
	path string
}

// NewJSONLSink creates a line-oriented file sink at path, creating parent
// directories as needed.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if path == "" {
		return nil, fmt.Errorf("audit log path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating audit log directory: %w", err)
		}
	}
	return &JSONLSink{path: path}, nil
}

// Append implements guard.AuditSink.
func (s *JSONLSink) Append(rec *guard.AuditRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding audit record: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("appending audit record: %w", err)
	}
	return nil
}

// FallbackSink tries the primary sink first and falls back to a secondary
// one when the primary fails, logging the failure. It fails only when both
// sinks fail.
type FallbackSink struct {
	primary  guard.AuditSink
	fallback guard.AuditSink
	logger   *log.Logger
}

// NewFallbackSink composes two sinks. Either may be nil.
func NewFallbackSink(primary, fallback guard.AuditSink, logger *log.Logger) *FallbackSink {
	if logger == nil {
		logger = log.Default()
	}
	return &FallbackSink{primary: primary, fallback: fallback, logger: logger}
}

// Append implements guard.AuditSink.
func (s *FallbackSink) Append(rec *guard.AuditRecord) error {
	if s.primary != nil {
		err := s.primary.Append(rec)
		if err == nil {
			return nil
		}
		s.logger.Warn("primary audit sink failed", "id", rec.ID, "err", err)
		if s.fallback == nil {
			return err
		}
	}
	if s.fallback == nil {
		return nil
	}
	return s.fallback.Append(rec)
}
