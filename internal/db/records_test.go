package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/codefactory/guard/internal/guard"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := OpenAndMigrate(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("OpenAndMigrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func sampleRecord() *guard.AuditRecord {
	return &guard.AuditRecord{
		Description:         "hack the server",
		NormalizedText:      "hack the server",
		PatternsMatched:     []string{"hack"},
		BypassAttempts:      []string{},
		SemanticFlags:       []string{"no-approved-operation"},
		WhitelistViolations: []string{"unrecognized operation \"hack\" leads the request"},
		ConfidenceScore:     0.85,
		Approved:            false,
	}
}

func TestInsertRecord_RoundTrip(t *testing.T) {
	database := newTestDB(t)

	rec := sampleRecord()
	if err := database.InsertRecord(rec); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if rec.ID == "" {
		t.Fatalf("InsertRecord did not assign an ID")
	}
	if rec.Timestamp.IsZero() {
		t.Fatalf("InsertRecord did not assign a timestamp")
	}

	got, err := database.GetRecord(rec.ID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}

	if got.Description != rec.Description {
		t.Fatalf("description = %q, want %q", got.Description, rec.Description)
	}
	if got.NormalizedText != rec.NormalizedText {
		t.Fatalf("normalized = %q, want %q", got.NormalizedText, rec.NormalizedText)
	}
	if len(got.PatternsMatched) != 1 || got.PatternsMatched[0] != "hack" {
		t.Fatalf("patterns = %v", got.PatternsMatched)
	}
	if len(got.BypassAttempts) != 0 {
		t.Fatalf("bypass = %v, want empty", got.BypassAttempts)
	}
	if len(got.SemanticFlags) != 1 || len(got.WhitelistViolations) != 1 {
		t.Fatalf("flags = %v, violations = %v", got.SemanticFlags, got.WhitelistViolations)
	}
	if got.ConfidenceScore != 0.85 {
		t.Fatalf("confidence = %v, want 0.85", got.ConfidenceScore)
	}
	if got.Approved {
		t.Fatalf("approved = true, want false")
	}
	if !got.Timestamp.Equal(rec.Timestamp) {
		t.Fatalf("timestamp = %v, want %v", got.Timestamp, rec.Timestamp)
	}
}

func TestInsertRecord_PreservesExplicitID(t *testing.T) {
	database := newTestDB(t)

	rec := sampleRecord()
	rec.ID = "explicit-id"
	rec.Timestamp = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := database.InsertRecord(rec); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}

	got, err := database.GetRecord("explicit-id")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if !got.Timestamp.Equal(rec.Timestamp) {
		t.Fatalf("timestamp = %v, want %v", got.Timestamp, rec.Timestamp)
	}
}

func TestGetRecord_NotFound(t *testing.T) {
	database := newTestDB(t)

	_, err := database.GetRecord("missing")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestListRecords_NewestFirst(t *testing.T) {
	database := newTestDB(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := sampleRecord()
		rec.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if err := database.InsertRecord(rec); err != nil {
			t.Fatalf("InsertRecord: %v", err)
		}
	}

	records, err := database.ListRecords(0)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp.After(records[i-1].Timestamp) {
			t.Fatalf("records not newest first: %v before %v",
				records[i-1].Timestamp, records[i].Timestamp)
		}
	}

	limited, err := database.ListRecords(2)
	if err != nil {
		t.Fatalf("ListRecords(2): %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited len = %d, want 2", len(limited))
	}
}

func TestCountRecords(t *testing.T) {
	database := newTestDB(t)

	count, err := database.CountRecords()
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}

	if err := database.InsertRecord(sampleRecord()); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}

	count, err = database.CountRecords()
	if err != nil {
		t.Fatalf("CountRecords: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestOpenAndMigrate_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "audit.db")

	database, err := OpenAndMigrate(path)
	if err != nil {
		t.Fatalf("OpenAndMigrate: %v", err)
	}
	defer database.Close()

	if err := database.InsertRecord(sampleRecord()); err != nil {
		t.Fatalf("InsertRecord after nested create: %v", err)
	}
}
