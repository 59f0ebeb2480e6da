//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package execution defines the persisted execution record and the store
// interface the engine checkpoints through. The store is the system of
// record between runs; the engine owns a record only while a run is in
// flight.
package execution

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Status is the lifecycle state of an execution and of individual
// checkpoint entries.
type Status string

// Execution lifecycle states.
const (
	StatusInProgress Status = "INPROGRESS"
	StatusFinished   Status = "FINISHED"
	StatusStopped    Status = "STOPPED"
	StatusError      Status = "ERROR"
	StatusTerminated Status = "TERMINATED"
)

// ErrNotFound is returned when no execution matches the query.
var ErrNotFound = errors.New("execution not found")

// Execution is one persisted flow run.
type Execution struct {
	// ID is the unique execution identifier.
	ID string `json:"id"`
	// AgentflowID is the id of the flow definition that was run.
	AgentflowID string `json:"agentflowId"`
	// SessionID scopes the run to a chat session.
	SessionID string `json:"sessionId"`
	// State is the current lifecycle state.
	State Status `json:"state"`
	// ExecutionData is the serialized checkpoint (ordered per-node
	// execution records).
	ExecutionData json.RawMessage `json:"executionData,omitempty"`
	// CreatedDate is when the run started.
	CreatedDate time.Time `json:"createdDate"`
	// StoppedDate is set when the run pauses for human input.
	StoppedDate *time.Time `json:"stoppedDate,omitempty"`
}

// Update describes a partial execution update. Nil fields are left
// untouched.
type Update struct {
	State         *Status
	ExecutionData json.RawMessage
}

// Store persists executions across runs. Implementations must be safe for
// concurrent use by executions of distinct sessions.
type Store interface {
	// Create inserts a fresh INPROGRESS execution.
	Create(ctx context.Context, agentflowID, sessionID string, data json.RawMessage) (*Execution, error)
	// Update applies a partial update. A transition to STOPPED records the
	// stopped date.
	Update(ctx context.Context, id string, upd Update) error
	// Get returns the execution with the given id.
	Get(ctx context.Context, id string) (*Execution, error)
	// LatestBySession returns the most recent execution for the
	// (agentflowID, sessionID) pair, or ErrNotFound.
	LatestBySession(ctx context.Context, agentflowID, sessionID string) (*Execution, error)
}
