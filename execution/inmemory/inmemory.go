//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory execution store, suitable for
// tests and single-process deployments without durability requirements.
package inmemory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowkit-ai/flowkit/execution"
)

// Store is an in-memory execution.Store.
type Store struct {
	mu   sync.RWMutex
	rows map[string]*execution.Execution
	// order preserves insertion order so LatestBySession is deterministic
	// even when CreatedDate timestamps collide.
	order []string
}

// New creates an empty store.
func New() *Store {
	return &Store{rows: make(map[string]*execution.Execution)}
}

// Create implements execution.Store.
func (s *Store) Create(ctx context.Context, agentflowID, sessionID string, data json.RawMessage) (*execution.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exec := &execution.Execution{
		ID:            uuid.NewString(),
		AgentflowID:   agentflowID,
		SessionID:     sessionID,
		State:         execution.StatusInProgress,
		ExecutionData: append(json.RawMessage(nil), data...),
		CreatedDate:   time.Now().UTC(),
	}
	s.rows[exec.ID] = exec
	s.order = append(s.order, exec.ID)
	return clone(exec), nil
}

// Update implements execution.Store.
func (s *Store) Update(ctx context.Context, id string, upd execution.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exec, ok := s.rows[id]
	if !ok {
		return execution.ErrNotFound
	}
	if upd.State != nil {
		exec.State = *upd.State
		if *upd.State == execution.StatusStopped {
			now := time.Now().UTC()
			exec.StoppedDate = &now
		}
	}
	if upd.ExecutionData != nil {
		exec.ExecutionData = append(json.RawMessage(nil), upd.ExecutionData...)
	}
	return nil
}

// Get implements execution.Store.
func (s *Store) Get(ctx context.Context, id string) (*execution.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exec, ok := s.rows[id]
	if !ok {
		return nil, execution.ErrNotFound
	}
	return clone(exec), nil
}

// LatestBySession implements execution.Store.
func (s *Store) LatestBySession(ctx context.Context, agentflowID, sessionID string) (*execution.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.order) - 1; i >= 0; i-- {
		exec := s.rows[s.order[i]]
		if exec.AgentflowID == agentflowID && exec.SessionID == sessionID {
			return clone(exec), nil
		}
	}
	return nil, execution.ErrNotFound
}

func clone(exec *execution.Execution) *execution.Execution {
	cp := *exec
	cp.ExecutionData = append(json.RawMessage(nil), exec.ExecutionData...)
	if exec.StoppedDate != nil {
		d := *exec.StoppedDate
		cp.StoppedDate = &d
	}
	return &cp
}
