//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package variable provides the global variable store read by the $vars
// namespace of the variable resolver. Static variables are defined once;
// per-request overrides are overlaid at resolution time.
package variable

import (
	"context"
	"sync"
)

// Variable is one named global value.
type Variable struct {
	// Name is the variable name referenced as $vars.<name>.
	Name string `json:"name"`
	// Value is the variable value.
	Value any `json:"value"`
	// Type distinguishes static values from runtime-managed ones.
	Type string `json:"type,omitempty"`
}

// Store lists global variables.
type Store interface {
	List(ctx context.Context) ([]Variable, error)
}

// Merged flattens the store's variables into a lookup map and overlays the
// per-request overrides on top. Overrides win on name collisions.
func Merged(vars []Variable, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(vars)+len(overrides))
	for _, v := range vars {
		merged[v.Name] = v.Value
	}
	for name, value := range overrides {
		merged[name] = value
	}
	return merged
}

// InMemory is a Store backed by a map, for tests and embedded use.
type InMemory struct {
	mu   sync.RWMutex
	vars []Variable
}

// NewInMemory creates a store with the given variables.
func NewInMemory(vars ...Variable) *InMemory {
	return &InMemory{vars: vars}
}

// Set adds or replaces a variable by name.
func (s *InMemory) Set(v Variable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.vars {
		if s.vars[i].Name == v.Name {
			s.vars[i] = v
			return
		}
	}
	s.vars = append(s.vars, v)
}

// List implements Store.
func (s *InMemory) List(ctx context.Context) ([]Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Variable, len(s.vars))
	copy(out, s.vars)
	return out, nil
}
