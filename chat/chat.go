//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package chat defines chat-message persistence. The engine writes two
// rows per run: the user message and the api message carrying the flow's
// final answer.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Message roles written by the engine.
const (
	RoleUser = "userMessage"
	RoleAPI  = "apiMessage"
)

// ErrNotFound is returned when no message matches the query.
var ErrNotFound = errors.New("chat message not found")

// Message is one persisted chat-message row.
type Message struct {
	// ID is the unique message identifier.
	ID string `json:"id"`
	// ChatflowID is the id of the flow the message belongs to.
	ChatflowID string `json:"chatflowid"`
	// ChatID identifies the client conversation.
	ChatID string `json:"chatId"`
	// SessionID scopes the message to a session.
	SessionID string `json:"sessionId,omitempty"`
	// Role is RoleUser or RoleAPI.
	Role string `json:"role"`
	// Content is the message text.
	Content string `json:"content"`
	// Action holds a pending human-input action descriptor, empty when
	// none is outstanding.
	Action string `json:"action,omitempty"`
	// ExecutionID links the message to the run that produced it.
	ExecutionID string `json:"executionId,omitempty"`
	// SourceDocuments, UsedTools, FileAnnotations and Artifacts are
	// pass-through payloads from the final node output.
	SourceDocuments json.RawMessage `json:"sourceDocuments,omitempty"`
	UsedTools       json.RawMessage `json:"usedTools,omitempty"`
	FileAnnotations json.RawMessage `json:"fileAnnotations,omitempty"`
	Artifacts       json.RawMessage `json:"artifacts,omitempty"`
	// CreatedDate is when the message was written.
	CreatedDate time.Time `json:"createdDate"`
}

// Store persists chat messages.
type Store interface {
	// Save inserts a message. An empty ID is filled in by the store.
	Save(ctx context.Context, msg *Message) error
	// List returns the messages of a conversation in insertion order.
	List(ctx context.Context, chatflowID, chatID string) ([]Message, error)
	// ClearLatestAction clears the action field of the most recent message
	// in the conversation that has one. Used on resume so a consumed
	// approval prompt is not replayed.
	ClearLatestAction(ctx context.Context, chatflowID, chatID string) error
}
