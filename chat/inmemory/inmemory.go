//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides an in-memory chat-message store.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowkit-ai/flowkit/chat"
)

// Store is an in-memory chat.Store.
type Store struct {
	mu   sync.RWMutex
	rows []chat.Message
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Save implements chat.Store.
func (s *Store) Save(ctx context.Context, msg *chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedDate.IsZero() {
		msg.CreatedDate = time.Now().UTC()
	}
	s.rows = append(s.rows, *msg)
	return nil
}

// List implements chat.Store.
func (s *Store) List(ctx context.Context, chatflowID, chatID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []chat.Message
	for _, m := range s.rows {
		if m.ChatflowID == chatflowID && m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ClearLatestAction implements chat.Store.
func (s *Store) ClearLatestAction(ctx context.Context, chatflowID, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.rows) - 1; i >= 0; i-- {
		m := &s.rows[i]
		if m.ChatflowID == chatflowID && m.ChatID == chatID && m.Action != "" {
			m.Action = ""
			return nil
		}
	}
	return nil
}
