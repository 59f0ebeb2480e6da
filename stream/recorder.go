//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package stream

import "sync"

// Recorded is one captured emission.
type Recorded struct {
	Event  string
	ChatID string
	Data   any
}

// Recorder captures every emission in order. Intended for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(event, chatID string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Event: event, ChatID: chatID, Data: data})
}

// Events returns a snapshot of the captured emissions.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.events))
	copy(out, r.events)
	return out
}

// ByEvent returns the captured emissions with the given event name.
func (r *Recorder) ByEvent(event string) []Recorded {
	var out []Recorded
	for _, e := range r.Events() {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// StreamNextAgentFlowEvent implements Streamer.
func (r *Recorder) StreamNextAgentFlowEvent(chatID string, ev NodeEvent) {
	r.record(EventNextAgentFlow, chatID, ev)
}

// StreamAgentFlowExecutedDataEvent implements Streamer.
func (r *Recorder) StreamAgentFlowExecutedDataEvent(chatID string, data any) {
	r.record(EventAgentFlowExecutedData, chatID, StripCredentialKeys(data))
}

// StreamAgentFlowEvent implements Streamer.
func (r *Recorder) StreamAgentFlowEvent(chatID string, status string) {
	r.record(EventAgentFlow, chatID, status)
}

// StreamActionEvent implements Streamer.
func (r *Recorder) StreamActionEvent(chatID string, action map[string]any) {
	r.record(EventAction, chatID, StripCredentialKeys(action))
}

// StreamTokenEvent implements Streamer.
func (r *Recorder) StreamTokenEvent(chatID string, token string) {
	r.record(EventToken, chatID, token)
}
