//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package sqlite provides a SQLite-backed execution store. Executions are
// stored as rows with the checkpoint serialized as a JSON blob, suitable
// for production usage when paired with a persistent database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/flowkit-ai/flowkit/execution"
)

const (
	sqliteCreateExecutions = "CREATE TABLE IF NOT EXISTS executions (" +
		"id TEXT PRIMARY KEY, " +
		"agentflow_id TEXT NOT NULL, " +
		"session_id TEXT NOT NULL, " +
		"state TEXT NOT NULL, " +
		"execution_data BLOB, " +
		"created_date INTEGER NOT NULL, " +
		"stopped_date INTEGER" +
		")"

	sqliteCreateSessionIndex = "CREATE INDEX IF NOT EXISTS idx_executions_session " +
		"ON executions (agentflow_id, session_id, created_date)"

	sqliteInsertExecution = "INSERT INTO executions (" +
		"id, agentflow_id, session_id, state, execution_data, created_date) " +
		"VALUES (?, ?, ?, ?, ?, ?)"

	sqliteSelectByID = "SELECT id, agentflow_id, session_id, state, execution_data, created_date, stopped_date " +
		"FROM executions WHERE id = ? LIMIT 1"

	sqliteSelectLatest = "SELECT id, agentflow_id, session_id, state, execution_data, created_date, stopped_date " +
		"FROM executions WHERE agentflow_id = ? AND session_id = ? " +
		"ORDER BY created_date DESC, rowid DESC LIMIT 1"
)

// Store is a SQLite-backed execution.Store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a store at the given database path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return New(db)
}

// New wraps an initialized *sql.DB and creates the required schema.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	for _, stmt := range []string{sqliteCreateExecutions, sqliteCreateSessionIndex} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("create execution schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create implements execution.Store.
func (s *Store) Create(ctx context.Context, agentflowID, sessionID string, data json.RawMessage) (*execution.Execution, error) {
	exec := &execution.Execution{
		ID:            uuid.NewString(),
		AgentflowID:   agentflowID,
		SessionID:     sessionID,
		State:         execution.StatusInProgress,
		ExecutionData: data,
		CreatedDate:   time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, sqliteInsertExecution,
		exec.ID, exec.AgentflowID, exec.SessionID, string(exec.State),
		[]byte(exec.ExecutionData), exec.CreatedDate.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("insert execution: %w", err)
	}
	return exec, nil
}

// Update implements execution.Store.
func (s *Store) Update(ctx context.Context, id string, upd execution.Update) error {
	query := "UPDATE executions SET "
	var (
		sets []string
		args []any
	)
	if upd.State != nil {
		sets = append(sets, "state = ?")
		args = append(args, string(*upd.State))
		if *upd.State == execution.StatusStopped {
			sets = append(sets, "stopped_date = ?")
			args = append(args, time.Now().UTC().UnixMilli())
		}
	}
	if upd.ExecutionData != nil {
		sets = append(sets, "execution_data = ?")
		args = append(args, []byte(upd.ExecutionData))
	}
	if len(sets) == 0 {
		return nil
	}
	for i, set := range sets {
		if i > 0 {
			query += ", "
		}
		query += set
	}
	query += " WHERE id = ?"
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update execution: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return execution.ErrNotFound
	}
	return nil
}

// Get implements execution.Store.
func (s *Store) Get(ctx context.Context, id string) (*execution.Execution, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, sqliteSelectByID, id))
}

// LatestBySession implements execution.Store.
func (s *Store) LatestBySession(ctx context.Context, agentflowID, sessionID string) (*execution.Execution, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, sqliteSelectLatest, agentflowID, sessionID))
}

func (s *Store) scanOne(row *sql.Row) (*execution.Execution, error) {
	var (
		exec        execution.Execution
		state       string
		data        []byte
		createdMs   int64
		stoppedMs   sql.NullInt64
	)
	err := row.Scan(&exec.ID, &exec.AgentflowID, &exec.SessionID, &state, &data, &createdMs, &stoppedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, execution.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan execution: %w", err)
	}
	exec.State = execution.Status(state)
	exec.ExecutionData = json.RawMessage(data)
	exec.CreatedDate = time.UnixMilli(createdMs).UTC()
	if stoppedMs.Valid {
		d := time.UnixMilli(stoppedMs.Int64).UTC()
		exec.StoppedDate = &d
	}
	return &exec, nil
}
