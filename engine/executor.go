//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"context"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/flowkit-ai/flowkit/execution"
	"github.com/flowkit-ai/flowkit/flow"
	"github.com/flowkit-ai/flowkit/node"
	"github.com/flowkit-ai/flowkit/stream"
)

// executeNode dispatches one ready-queue entry. It returns the node's
// output, whether the flow must stop for human input, and any error.
func (r *run) executeNode(ctx context.Context, entry queueEntry) (node.Output, bool, error) {
	if ctx.Err() != nil {
		return nil, false, AbortedError{}
	}
	n, _ := r.graph.Node(entry.nodeID)
	r.streamer.StreamNextAgentFlowEvent(r.chatID, stream.NodeEvent{
		NodeID:    n.ID,
		NodeLabel: n.Label,
		Status:    string(execution.StatusInProgress),
	})

	resolved, err := r.resolveWithOverrides(n)
	if err != nil {
		return nil, false, NodeExecutionError{NodeID: n.ID, Err: err}
	}

	resuming := r.humanInput != nil && r.humanInput.StartNodeID == n.ID
	params := r.runParams
	params.State = r.runtime.State
	params.ChatHistory = r.runtime.ChatHistory
	params.Form = r.runtime.Form
	params.HumanInput = r.humanInput
	params.IsLastNode = len(r.adj[n.ID]) == 0 ||
		(n.Name == flow.NameHumanInput && !resuming)

	finalInput := entry.data
	if finalInput == nil {
		finalInput = r.startingInput()
	}

	impl, err := r.eng.registry.Resolve(n.Name)
	if err != nil {
		return nil, false, NodeExecutionError{NodeID: n.ID, Err: err}
	}
	out, err := impl.Run(ctx, resolved, finalInput, &params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, AbortedError{}
		}
		return nil, false, NodeExecutionError{NodeID: n.ID, Err: err}
	}
	if out == nil {
		out = node.Output{}
	}

	if n.Name == flow.NameHumanInput && !resuming {
		attachHumanInputAction(out, n)
		return out, true, nil
	}
	return out, false, nil
}

// resolveWithOverrides deep-copies the node definition, applies the
// per-request override configuration, and substitutes variable references.
func (r *run) resolveWithOverrides(n *flow.Node) (*flow.Node, error) {
	resolved, err := r.rc.resolveNodeData(r.withOverrides(n))
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// withOverrides overlays override-config values onto a copy of the node's
// inputs. Overrides apply only to nodes whose logical name matches the
// engine's allowlist patterns. A value keyed by node id targets that node
// alone; a plain value applies to any node declaring the parameter.
func (r *run) withOverrides(n *flow.Node) *flow.Node {
	if len(r.overrideConfig) == 0 || !r.overrideAllowed(n.Name) {
		return n
	}
	cp := *n
	cp.Inputs = make(map[string]any, len(n.Inputs))
	for k, v := range n.Inputs {
		cp.Inputs[k] = v
	}
	for key, val := range r.overrideConfig {
		if key == "vars" {
			continue
		}
		if byNode, ok := val.(map[string]any); ok {
			if nodeVal, ok := byNode[n.ID]; ok {
				cp.Inputs[key] = nodeVal
				continue
			}
		}
		if declaresParam(n, key) {
			cp.Inputs[key] = val
		}
	}
	return &cp
}

func (r *run) overrideAllowed(name string) bool {
	for _, pattern := range r.eng.overridePatterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func declaresParam(n *flow.Node, name string) bool {
	for _, p := range n.InputParams {
		if p.Name == name {
			return true
		}
	}
	return false
}

// startingInput builds the input for nodes with no in-flight
// predecessor: the question (with any uploaded file text) or the form.
func (r *run) startingInput() any {
	if len(r.runtime.Form) > 0 {
		return map[string]any{"form": r.runtime.Form}
	}
	question := r.runParams.Question
	if r.runParams.UploadedContent != "" {
		question = r.runParams.UploadedContent + "\n\n" + question
	}
	return map[string]any{"question": question}
}

// attachHumanInputAction synthesizes the approve/reject action descriptor
// surfaced to the caller when a human-input node pauses the flow.
func attachHumanInputAction(out node.Output, n *flow.Node) {
	action := map[string]any{
		"id": uuid.NewString(),
		"mapping": map[string]any{
			"approve": "Proceed",
			"reject":  "Reject",
		},
		"elements": []any{
			map[string]any{"type": "agentflow-v2-button", "label": "Proceed"},
			map[string]any{"type": "agentflow-v2-button", "label": "Reject"},
		},
		"data": map[string]any{
			"nodeId":    n.ID,
			"nodeLabel": n.Label,
		},
	}
	inner, ok := out["output"].(map[string]any)
	if !ok {
		inner = make(map[string]any)
		out["output"] = inner
	}
	inner["humanInputAction"] = action
}
