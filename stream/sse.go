//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/flowkit-ai/flowkit/log"
)

// SSE streams events to a single HTTP client as server-sent events. Writes
// are serialized; write failures are logged and dropped so a disconnected
// client never stalls the engine.
type SSE struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSE prepares the response for event streaming. It returns an error if
// the ResponseWriter does not support flushing.
func NewSSE(w http.ResponseWriter) (*SSE, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming unsupported by response writer")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &SSE{w: w, flusher: flusher}, nil
}

type ssePayload struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func (s *SSE) write(event string, data any) {
	payload, err := json.Marshal(ssePayload{Event: event, Data: data})
	if err != nil {
		log.Errorf("marshal sse event %s: %v", event, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		// Client went away; emissions are fire-and-forget.
		log.Debugf("write sse event %s: %v", event, err)
		return
	}
	s.flusher.Flush()
}

// StreamNextAgentFlowEvent implements Streamer.
func (s *SSE) StreamNextAgentFlowEvent(chatID string, ev NodeEvent) {
	s.write(EventNextAgentFlow, ev)
}

// StreamAgentFlowExecutedDataEvent implements Streamer.
func (s *SSE) StreamAgentFlowExecutedDataEvent(chatID string, data any) {
	s.write(EventAgentFlowExecutedData, StripCredentialKeys(data))
}

// StreamAgentFlowEvent implements Streamer.
func (s *SSE) StreamAgentFlowEvent(chatID string, status string) {
	s.write(EventAgentFlow, status)
}

// StreamActionEvent implements Streamer.
func (s *SSE) StreamActionEvent(chatID string, action map[string]any) {
	scrubbed, _ := StripCredentialKeys(action).(map[string]any)
	s.write(EventAction, scrubbed)
}

// StreamTokenEvent implements Streamer.
func (s *SSE) StreamTokenEvent(chatID string, token string) {
	s.write(EventToken, token)
}
