//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package server exposes the flow engine over HTTP: a prediction endpoint
// with optional server-sent event streaming, plus read access to chat
// messages and executions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/cors"

	"github.com/flowkit-ai/flowkit/chat"
	"github.com/flowkit-ai/flowkit/engine"
	"github.com/flowkit-ai/flowkit/execution"
	"github.com/flowkit-ai/flowkit/log"
)

const (
	defaultAddr     = ":3000"
	defaultPoolSize = 64

	shutdownTimeout = 10 * time.Second
)

// FlowProvider resolves a flow id to its serialized definition.
type FlowProvider interface {
	FlowData(ctx context.Context, flowID string) ([]byte, error)
}

// ErrFlowNotFound is returned by providers for unknown flow ids.
var ErrFlowNotFound = errors.New("flow not found")

// InMemoryFlows is a FlowProvider backed by a map, for embedded use and
// tests.
type InMemoryFlows map[string][]byte

// FlowData implements FlowProvider.
func (m InMemoryFlows) FlowData(ctx context.Context, flowID string) ([]byte, error) {
	data, ok := m[flowID]
	if !ok {
		return nil, ErrFlowNotFound
	}
	return data, nil
}

// Server hosts the engine's HTTP surface.
type Server struct {
	engine     *engine.Engine
	flows      FlowProvider
	chats      chat.Store
	executions execution.Store

	addr        string
	poolSize    int
	corsOrigins []string

	pool *ants.Pool
	http *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithPoolSize bounds the number of concurrently running flow
// executions.
func WithPoolSize(n int) Option {
	return func(s *Server) { s.poolSize = n }
}

// WithCORSOrigins sets the allowed CORS origins. Defaults to all.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithChatStore enables the chat-message read endpoint.
func WithChatStore(store chat.Store) Option {
	return func(s *Server) { s.chats = store }
}

// WithExecutionStore enables the execution read endpoint.
func WithExecutionStore(store execution.Store) Option {
	return func(s *Server) { s.executions = store }
}

// New creates a Server over an engine and a flow provider.
func New(eng *engine.Engine, flows FlowProvider, opts ...Option) (*Server, error) {
	s := &Server{
		engine:      eng,
		flows:       flows,
		addr:        defaultAddr,
		poolSize:    defaultPoolSize,
		corsOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	pool, err := ants.NewPool(s.poolSize, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	s.pool = pool
	return s, nil
}

// Handler builds the routed, CORS-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/prediction/{flowID}", s.handlePrediction).Methods(http.MethodPost)
	if s.chats != nil {
		r.HandleFunc("/api/v1/chatmessage/{flowID}", s.handleChatMessages).Methods(http.MethodGet)
	}
	if s.executions != nil {
		r.HandleFunc("/api/v1/execution/{executionID}", s.handleExecution).Methods(http.MethodGet)
	}
	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{Addr: s.addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("http server listening on %s", s.addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer s.pool.Release()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
