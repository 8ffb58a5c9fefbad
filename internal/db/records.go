package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codefactory/guard/internal/guard"
)

// ErrRecordNotFound is returned when an audit record is not found.
var ErrRecordNotFound = errors.New("audit record not found")

const recordColumns = `id, created_at, description, normalized_text,
	patterns_matched, bypass_attempts, semantic_flags, whitelist_violations,
	confidence_score, approved`

// InsertRecord appends one audit record. List fields are stored as JSON
// arrays; timestamps as RFC3339 text.
func (db *DB) InsertRecord(rec *guard.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	patterns, err := marshalList(rec.PatternsMatched)
	if err != nil {
		return err
	}
	bypass, err := marshalList(rec.BypassAttempts)
	if err != nil {
		return err
	}
	flags, err := marshalList(rec.SemanticFlags)
	if err != nil {
		return err
	}
	violations, err := marshalList(rec.WhitelistViolations)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO audit_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.Description,
		rec.NormalizedText, patterns, bypass, flags, violations,
		rec.ConfidenceScore, boolToInt(rec.Approved))
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}

	return nil
}

// GetRecord retrieves an audit record by ID.
func (db *DB) GetRecord(id string) (*guard.AuditRecord, error) {
	row := db.QueryRow(`
		SELECT `+recordColumns+` FROM audit_records WHERE id = ?
	`, id)
	return scanRecord(row)
}

// ListRecords returns the most recent records, newest first. A limit of 0
// means no limit.
func (db *DB) ListRecords(limit int) ([]*guard.AuditRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM audit_records ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit records: %w", err)
	}
	defer rows.Close()

	var records []*guard.AuditRecord
	for rows.Next() {
		rec, err := scanRecordRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit records: %w", err)
	}

	return records, nil
}

// CountRecords returns the total number of stored records.
func (db *DB) CountRecords() (int, error) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM audit_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting audit records: %w", err)
	}
	return count, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row *sql.Row) (*guard.AuditRecord, error) {
	rec, err := scanInto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

func scanRecordRow(rows *sql.Rows) (*guard.AuditRecord, error) {
	return scanInto(rows)
}

func scanInto(src scannable) (*guard.AuditRecord, error) {
	rec := &guard.AuditRecord{}
	var createdAt, patterns, bypass, flags, violations string
	var approved int

	err := src.Scan(&rec.ID, &createdAt, &rec.Description, &rec.NormalizedText,
		&patterns, &bypass, &flags, &violations, &rec.ConfidenceScore, &approved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning audit record: %w", err)
	}

	rec.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if rec.PatternsMatched, err = unmarshalList(patterns); err != nil {
		return nil, err
	}
	if rec.BypassAttempts, err = unmarshalList(bypass); err != nil {
		return nil, err
	}
	if rec.SemanticFlags, err = unmarshalList(flags); err != nil {
		return nil, err
	}
	if rec.WhitelistViolations, err = unmarshalList(violations); err != nil {
		return nil, err
	}
	rec.Approved = approved != 0

	return rec, nil
}

func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encoding list column: %w", err)
	}
	return string(data), nil
}

func unmarshalList(data string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("decoding list column: %w", err)
	}
	return list, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
