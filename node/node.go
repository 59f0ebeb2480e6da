//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package node defines the contract between the flow engine and node
// implementations. A node is an opaque callable: the engine resolves it by
// logical name, hands it resolved input data and an aggregated input, and
// interprets a small set of recognized fields on the returned open record.
package node

import (
	"context"

	"github.com/flowkit-ai/flowkit/flow"
)

// ChatTurn is one entry of the conversation history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HumanInput carries the caller's answer when resuming a flow stopped at a
// human-input node.
type HumanInput struct {
	// StartNodeID is the id of the human-input node to re-enter.
	StartNodeID string `json:"startNodeId"`
	// Type is the chosen action, "proceed" or "reject".
	Type string `json:"type,omitempty"`
	// Feedback is optional free-form reviewer feedback.
	Feedback string `json:"feedback,omitempty"`
}

// RunParams is the per-invocation context handed to a node implementation.
// All external handles are passed explicitly; nodes hold no process state.
type RunParams struct {
	// FlowID is the id of the agent flow being executed.
	FlowID string
	// ChatID identifies the client conversation for streaming.
	ChatID string
	// SessionID scopes persisted state across runs.
	SessionID string
	// APIMessageID is the id reserved for the final api message row.
	APIMessageID string

	// Question is the current user question, if the flow started from chat
	// input.
	Question string
	// Form holds the starting form values, if the flow started from form
	// input.
	Form map[string]any
	// UploadedContent is the extracted text of any uploaded files.
	UploadedContent string

	// State is the current runtime state snapshot.
	State map[string]any
	// ChatHistory is the conversation so far.
	ChatHistory []ChatTurn

	// HumanInput is non-nil only when this call resumes the node it names.
	HumanInput *HumanInput

	// IsLastNode is true when this node's output becomes the flow's final
	// answer; implementations may stream tokens in that case.
	IsLastNode bool

	// BaseURL is the public base URL of the hosting server.
	BaseURL string
}

// Node is a single executable flow step. Implementations must honor ctx
// cancellation; the engine aborts the flow when the caller cancels.
type Node interface {
	// Run executes the node. data is a resolved deep copy of the node's
	// declared definition (variable references already substituted), input
	// is the aggregated fan-in payload, and the returned Output is the
	// node's full result record.
	Run(ctx context.Context, data *flow.Node, input any, params *RunParams) (Output, error)
}

// Func adapts a plain function to the Node interface.
type Func func(ctx context.Context, data *flow.Node, input any, params *RunParams) (Output, error)

// Run implements Node.
func (f Func) Run(ctx context.Context, data *flow.Node, input any, params *RunParams) (Output, error) {
	return f(ctx, data, input, params)
}
