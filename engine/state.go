//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"encoding/json"

	"github.com/flowkit-ai/flowkit/execution"
	"github.com/flowkit-ai/flowkit/node"
)

// RuntimeState is the mutable per-execution scratch shared by all nodes of
// one run. The scheduler is single-threaded, so no locking is needed.
type RuntimeState struct {
	// State is a caller-defined mapping replaced wholesale by any node that
	// returns a state field. Last writer wins, in queue order.
	State map[string]any
	// Form holds the starting form values.
	Form map[string]any
	// ChatHistory is the conversation so far, appended to by nodes.
	ChatHistory []node.ChatTurn
}

// Apply folds a node output's recognized side effects into the state.
func (s *RuntimeState) Apply(out node.Output) {
	if delta, ok := out.StateDelta(); ok {
		s.State = delta
	}
	if form, ok := out.FormDelta(); ok {
		s.Form = form
	}
	s.ChatHistory = append(s.ChatHistory, out.ChatHistoryDelta()...)
}

// ExecutedNode is one checkpoint entry: the full record of a single node
// dispatch.
type ExecutedNode struct {
	NodeID          string           `json:"nodeId"`
	NodeLabel       string           `json:"nodeLabel"`
	Data            node.Output      `json:"data"`
	PreviousNodeIDs []string         `json:"previousNodeIds"`
	Status          execution.Status `json:"status"`
	Error           string           `json:"error,omitempty"`
}

// ExecutedData is the ordered checkpoint of a run. Entries are append-only
// during a run; resume drops exactly one STOPPED entry before replay.
type ExecutedData []ExecutedNode

// FinalStatus derives the flow-level terminal status from the entries,
// with precedence TERMINATED > ERROR > STOPPED > FINISHED.
func (d ExecutedData) FinalStatus() execution.Status {
	status := execution.StatusFinished
	for _, e := range d {
		switch e.Status {
		case execution.StatusTerminated:
			return execution.StatusTerminated
		case execution.StatusError:
			status = execution.StatusError
		case execution.StatusStopped:
			if status != execution.StatusError {
				status = execution.StatusStopped
			}
		}
	}
	return status
}

// LastIndexOf returns the index of the most recent entry for nodeID.
func (d ExecutedData) LastIndexOf(nodeID string) (int, bool) {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].NodeID == nodeID {
			return i, true
		}
	}
	return 0, false
}

// ContentOf returns output.content of the most recent entry for nodeID.
func (d ExecutedData) ContentOf(nodeID string) (string, bool) {
	i, ok := d.LastIndexOf(nodeID)
	if !ok {
		return "", false
	}
	return d[i].Data.Content(), true
}

// Marshal serializes the checkpoint for persistence.
func (d ExecutedData) Marshal() (json.RawMessage, error) {
	if d == nil {
		d = ExecutedData{}
	}
	return json.Marshal(d)
}

// Snapshot returns the checkpoint as a generic value suitable for
// streaming, decoupled from the engine's types.
func (d ExecutedData) Snapshot() any {
	raw, err := d.Marshal()
	if err != nil {
		return []any{}
	}
	var out []any
	if err := json.Unmarshal(raw, &out); err != nil {
		return []any{}
	}
	return out
}

// UnmarshalExecutedData decodes a persisted checkpoint.
func UnmarshalExecutedData(raw json.RawMessage) (ExecutedData, error) {
	if len(raw) == 0 {
		return ExecutedData{}, nil
	}
	var d ExecutedData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}
