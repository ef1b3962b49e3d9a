// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

// Package history persists gateway telemetry to a local SQLite database so
// boiler behavior can be inspected after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dlbogdan/otgwctl/pkg/opentherm"
)

const sqliteDriverName = "sqlite"

const schemaSamples = `
CREATE TABLE IF NOT EXISTS samples (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    recorded_at TIMESTAMP NOT NULL,
    source TEXT NOT NULL,
    data_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    raw INTEGER NOT NULL,
    value REAL
);
`

const schemaEvents = `
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    occurred_at TIMESTAMP NOT NULL,
    kind TEXT NOT NULL,
    detail TEXT NOT NULL
);
`

const schemaSampleIndex = `
CREATE INDEX IF NOT EXISTS idx_samples_data_id_time
    ON samples (data_id, recorded_at);
`

// timeLayout is the SQLite TIMESTAMP literal format.
const timeLayout = "2006-01-02 15:04:05"

// Store is a telemetry archive backed by one SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// SQLite degrades with concurrent writers; a single connection keeps
	// the recorder simple.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", strings.TrimSuffix(pragma, ";"), err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{schemaSamples, schemaEvents, schemaSampleIndex} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Sample is one archived telemetry reading.
type Sample struct {
	RecordedAt time.Time
	Source     string
	DataID     int
	Name       string
	Raw        int
	// Value is set for numeric encodings; flag and raw-only frames store
	// only the raw word.
	Value *float64
}

// Event is one archived session event, e.g. a fault edge or a takeover.
type Event struct {
	OccurredAt time.Time
	Kind       string
	Detail     string
}

// RecordSample archives one decoded status record.
func (s *Store) RecordSample(ctx context.Context, dataID byte, rec opentherm.StatusRecord) error {
	var value *float64
	switch v := rec.Value.(type) {
	case opentherm.Float88:
		f := float64(v)
		value = &f
	case opentherm.Signed16:
		f := float64(v)
		value = &f
	case opentherm.Unsigned16:
		f := float64(v)
		value = &f
	case opentherm.ByteValue:
		f := float64(v)
		value = &f
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO samples (recorded_at, source, data_id, name, raw, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		rec.Timestamp.UTC().Format(timeLayout),
		string(rec.Source),
		int(dataID),
		opentherm.DataIDName(dataID),
		int(rec.Raw),
		value,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// RecordEvent archives a session event.
func (s *Store) RecordEvent(ctx context.Context, kind, detail string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (occurred_at, kind, detail)
		VALUES (?, ?, ?)
	`,
		time.Now().UTC().Format(timeLayout),
		kind,
		detail,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Samples returns the archived readings for one data id, oldest first,
// optionally bounded by [from, to].
func (s *Store) Samples(ctx context.Context, dataID byte, from, to time.Time) ([]Sample, error) {
	conds := []string{"data_id = ?"}
	args := []any{int(dataID)}

	if !from.IsZero() {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, from.UTC().Format(timeLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "recorded_at <= ?")
		args = append(args, to.UTC().Format(timeLayout))
	}

	q := `SELECT recorded_at, source, data_id, name, raw, value FROM samples WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY recorded_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	out := make([]Sample, 0, 64)
	for rows.Next() {
		var (
			sm Sample
			ts string
			v  sql.NullFloat64
		)
		if err := rows.Scan(&ts, &sm.Source, &sm.DataID, &sm.Name, &sm.Raw, &v); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sm.RecordedAt, err = time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse sample timestamp %q: %w", ts, err)
		}
		if v.Valid {
			f := v.Float64
			sm.Value = &f
		}
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Events returns archived events, oldest first, optionally filtered by kind.
func (s *Store) Events(ctx context.Context, kind string) ([]Event, error) {
	q := `SELECT occurred_at, kind, detail FROM events`
	var args []any
	if kind != "" {
		q += ` WHERE kind = ?`
		args = append(args, kind)
	}
	q += ` ORDER BY occurred_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev Event
			ts string
		)
		if err := rows.Scan(&ts, &ev.Kind, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.OccurredAt, err = time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse event timestamp %q: %w", ts, err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
