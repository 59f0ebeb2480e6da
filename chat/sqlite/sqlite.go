//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package sqlite provides a SQLite-backed chat-message store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/flowkit-ai/flowkit/chat"
)

const (
	sqliteCreateMessages = "CREATE TABLE IF NOT EXISTS chat_messages (" +
		"id TEXT PRIMARY KEY, " +
		"chatflow_id TEXT NOT NULL, " +
		"chat_id TEXT NOT NULL, " +
		"session_id TEXT, " +
		"role TEXT NOT NULL, " +
		"content TEXT NOT NULL, " +
		"action TEXT, " +
		"execution_id TEXT, " +
		"source_documents BLOB, " +
		"used_tools BLOB, " +
		"file_annotations BLOB, " +
		"artifacts BLOB, " +
		"created_date INTEGER NOT NULL" +
		")"

	sqliteCreateChatIndex = "CREATE INDEX IF NOT EXISTS idx_chat_messages_chat " +
		"ON chat_messages (chatflow_id, chat_id, created_date)"

	sqliteInsertMessage = "INSERT INTO chat_messages (" +
		"id, chatflow_id, chat_id, session_id, role, content, action, execution_id, " +
		"source_documents, used_tools, file_annotations, artifacts, created_date) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	sqliteSelectMessages = "SELECT id, chatflow_id, chat_id, session_id, role, content, action, execution_id, " +
		"source_documents, used_tools, file_annotations, artifacts, created_date " +
		"FROM chat_messages WHERE chatflow_id = ? AND chat_id = ? ORDER BY created_date ASC, rowid ASC"

	sqliteSelectLatestAction = "SELECT id FROM chat_messages " +
		"WHERE chatflow_id = ? AND chat_id = ? AND action IS NOT NULL AND action != '' " +
		"ORDER BY created_date DESC, rowid DESC LIMIT 1"

	sqliteClearAction = "UPDATE chat_messages SET action = '' WHERE id = ?"
)

// Store is a SQLite-backed chat.Store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a store at the given database path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite chat store: %w", err)
	}
	return New(db)
}

// New wraps an initialized *sql.DB and creates the required schema.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	for _, stmt := range []string{sqliteCreateMessages, sqliteCreateChatIndex} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("create chat schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save implements chat.Store.
func (s *Store) Save(ctx context.Context, msg *chat.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedDate.IsZero() {
		msg.CreatedDate = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, sqliteInsertMessage,
		msg.ID, msg.ChatflowID, msg.ChatID, msg.SessionID, msg.Role, msg.Content,
		msg.Action, msg.ExecutionID,
		[]byte(msg.SourceDocuments), []byte(msg.UsedTools),
		[]byte(msg.FileAnnotations), []byte(msg.Artifacts),
		msg.CreatedDate.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// List implements chat.Store.
func (s *Store) List(ctx context.Context, chatflowID, chatID string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectMessages, chatflowID, chatID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var (
			m         chat.Message
			sessionID sql.NullString
			action    sql.NullString
			execID    sql.NullString
			src, used sql.RawBytes
			ann, art  sql.RawBytes
			createdMs int64
		)
		if err := rows.Scan(&m.ID, &m.ChatflowID, &m.ChatID, &sessionID, &m.Role, &m.Content,
			&action, &execID, &src, &used, &ann, &art, &createdMs); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.SessionID = sessionID.String
		m.Action = action.String
		m.ExecutionID = execID.String
		m.SourceDocuments = append([]byte(nil), src...)
		m.UsedTools = append([]byte(nil), used...)
		m.FileAnnotations = append([]byte(nil), ann...)
		m.Artifacts = append([]byte(nil), art...)
		m.CreatedDate = time.UnixMilli(createdMs).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// ClearLatestAction implements chat.Store.
func (s *Store) ClearLatestAction(ctx context.Context, chatflowID, chatID string) error {
	var id string
	err := s.db.QueryRowContext(ctx, sqliteSelectLatestAction, chatflowID, chatID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find pending action: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqliteClearAction, id); err != nil {
		return fmt.Errorf("clear action: %w", err)
	}
	return nil
}
