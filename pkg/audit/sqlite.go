// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists audit events in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at dsn and returns a store backed by it.
// The caller owns closing the store.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("sqlite dsn is empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore creates a SQLite-backed audit store and ensures schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record stores a single audit event.
func (s *SQLiteStore) Record(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stage_audit_events (
			run_id, task_id, task_name, agent_role, status, error_text, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.RunID,
		event.TaskID,
		event.TaskName,
		event.AgentRole,
		event.Status,
		event.Error,
		normalizeTime(event.StartedAt),
		normalizeTime(event.FinishedAt),
	)
	return err
}

// List returns audit events matching the filter, oldest first.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Event, error) {
	query := `
		SELECT run_id, task_id, task_name, agent_role, status, error_text, started_at, finished_at
		FROM stage_audit_events
	`
	var (
		clauses []string
		args    []any
	)
	if filter.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.TaskName != "" {
		clauses = append(clauses, "task_name = ?")
		args = append(args, filter.TaskName)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event    Event
			errText  sql.NullString
			started  sql.NullTime
			finished sql.NullTime
		)
		if err := rows.Scan(
			&event.RunID,
			&event.TaskID,
			&event.TaskName,
			&event.AgentRole,
			&event.Status,
			&errText,
			&started,
			&finished,
		); err != nil {
			return nil, err
		}
		event.Error = errText.String
		if started.Valid {
			event.StartedAt = started.Time
		}
		if finished.Valid {
			event.FinishedAt = finished.Time
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS stage_audit_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			task_name TEXT NOT NULL,
			agent_role TEXT NOT NULL,
			status TEXT NOT NULL,
			error_text TEXT,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_stage_audit_run ON stage_audit_events(run_id);
		CREATE INDEX IF NOT EXISTS idx_stage_audit_task ON stage_audit_events(task_name);
	`)
	return err
}
