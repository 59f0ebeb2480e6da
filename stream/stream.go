//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package stream defines the event sink the engine reports progress
// through. Emissions are fire-and-forget: a sink must never block engine
// progress, and a disconnected client is not an engine error.
package stream

// Event names on the wire.
const (
	EventNextAgentFlow         = "nextAgentFlow"
	EventAgentFlowExecutedData = "agentFlowExecutedData"
	EventAgentFlow             = "agentFlow"
	EventAction                = "action"
	EventToken                 = "token"
)

// NodeEvent reports a single node's status transition.
type NodeEvent struct {
	NodeID    string `json:"nodeId"`
	NodeLabel string `json:"nodeLabel"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// Streamer receives engine progress events keyed by chat id.
type Streamer interface {
	// StreamNextAgentFlowEvent emits a per-node status transition.
	StreamNextAgentFlowEvent(chatID string, ev NodeEvent)
	// StreamAgentFlowExecutedDataEvent emits the full checkpoint snapshot.
	// Snapshots grow monotonically over one execution.
	StreamAgentFlowExecutedDataEvent(chatID string, data any)
	// StreamAgentFlowEvent emits the flow-level status.
	StreamAgentFlowEvent(chatID string, status string)
	// StreamActionEvent emits a human-input action descriptor on pause.
	StreamActionEvent(chatID string, action map[string]any)
	// StreamTokenEvent emits an incremental token of the final answer.
	StreamTokenEvent(chatID string, token string)
}

// Noop is a Streamer that discards everything.
type Noop struct{}

// StreamNextAgentFlowEvent implements Streamer.
func (Noop) StreamNextAgentFlowEvent(string, NodeEvent) {}

// StreamAgentFlowExecutedDataEvent implements Streamer.
func (Noop) StreamAgentFlowExecutedDataEvent(string, any) {}

// StreamAgentFlowEvent implements Streamer.
func (Noop) StreamAgentFlowEvent(string, string) {}

// StreamActionEvent implements Streamer.
func (Noop) StreamActionEvent(string, map[string]any) {}

// StreamTokenEvent implements Streamer.
func (Noop) StreamTokenEvent(string, string) {}
