//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package builtin provides the node implementations with engine-level
// meaning: flow entry, static conditions, human approval, loop-back and
// direct reply. Model-backed nodes live in their own packages.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flowkit-ai/flowkit/flow"
	"github.com/flowkit-ai/flowkit/node"
)

// Register adds all builtin node factories to the registry.
func Register(reg *node.Registry) {
	reg.Register(flow.NameStart, func() node.Node { return &Start{} })
	reg.Register(flow.NameCondition, func() node.Node { return &Condition{} })
	reg.Register(flow.NameHumanInput, func() node.Node { return &HumanInput{} })
	reg.Register(flow.NameLoop, func() node.Node { return &Loop{} })
	reg.Register("directReplyAgentflow", func() node.Node { return &DirectReply{} })
}

// Start is the flow entry node. It surfaces the starting input as its
// content and seeds the runtime state from the declared flow state.
type Start struct{}

// Run implements node.Node.
func (s *Start) Run(ctx context.Context, data *flow.Node, input any, params *node.RunParams) (node.Output, error) {
	content := params.Question
	if len(params.Form) > 0 {
		raw, err := json.Marshal(params.Form)
		if err != nil {
			return nil, fmt.Errorf("marshal form: %w", err)
		}
		content = string(raw)
	}
	out := node.Output{
		"input":  input,
		"output": map[string]any{"content": content},
	}
	if state := initialState(data); state != nil {
		out["state"] = state
	}
	return out, nil
}

// initialState reads the start node's declared flow state, a list of
// {key, value} pairs.
func initialState(data *flow.Node) map[string]any {
	raw, ok := data.Inputs["flowState"].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	state := make(map[string]any, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key, _ := m["key"].(string)
		if key == "" {
			continue
		}
		state[key] = m["value"]
	}
	if len(state) == 0 {
		return nil
	}
	return state
}

// Condition evaluates the node's declared comparisons and reports one
// fulfillment flag per condition, plus a trailing else branch that fires
// when none matched.
type Condition struct{}

// Run implements node.Node.
func (c *Condition) Run(ctx context.Context, data *flow.Node, input any, params *node.RunParams) (node.Output, error) {
	declared, _ := data.Inputs["conditions"].([]any)
	conditions := make([]any, 0, len(declared)+1)
	anyMatched := false
	for _, item := range declared {
		m, _ := item.(map[string]any)
		matched, err := evaluate(m)
		if err != nil {
			return nil, err
		}
		anyMatched = anyMatched || matched
		conditions = append(conditions, map[string]any{
			"type":         m["type"],
			"isFullfilled": matched,
		})
	}
	conditions = append(conditions, map[string]any{
		"type":         "else",
		"isFullfilled": !anyMatched,
	})
	return node.Output{
		"input":  input,
		"output": map[string]any{"conditions": conditions},
	}, nil
}

func evaluate(cond map[string]any) (bool, error) {
	if cond == nil {
		return false, nil
	}
	op, _ := cond["operation"].(string)
	v1 := asString(cond["value1"])
	v2 := asString(cond["value2"])
	switch op {
	case "equal", "":
		return v1 == v2, nil
	case "notEqual":
		return v1 != v2, nil
	case "contains":
		return strings.Contains(v1, v2), nil
	case "notContains":
		return !strings.Contains(v1, v2), nil
	case "startsWith":
		return strings.HasPrefix(v1, v2), nil
	case "endsWith":
		return strings.HasSuffix(v1, v2), nil
	case "isEmpty":
		return strings.TrimSpace(v1) == "", nil
	case "notEmpty":
		return strings.TrimSpace(v1) != "", nil
	case "larger":
		a, b, err := asNumbers(cond["value1"], cond["value2"])
		if err != nil {
			return false, err
		}
		return a > b, nil
	case "smaller":
		a, b, err := asNumbers(cond["value1"], cond["value2"])
		if err != nil {
			return false, err
		}
		return a < b, nil
	default:
		return false, fmt.Errorf("unknown condition operation %q", op)
	}
}

func asString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func asNumbers(a, b any) (float64, float64, error) {
	x, err := asNumber(a)
	if err != nil {
		return 0, 0, err
	}
	y, err := asNumber(b)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func asNumber(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(val), "%g", &f); err != nil {
			return 0, fmt.Errorf("not a number: %q", val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

// HumanInput pauses the flow for approval. On the pausing pass the engine
// synthesizes the action descriptor; on resume this node summarizes the
// reviewer's answer as its content and reports it as a branch decision:
// output handle 0 carries the proceed successors, handle 1 the reject ones.
type HumanInput struct{}

// Run implements node.Node.
func (h *HumanInput) Run(ctx context.Context, data *flow.Node, input any, params *node.RunParams) (node.Output, error) {
	content, _ := data.Inputs["humanInputDescription"].(string)
	rejected := false
	if params.HumanInput != nil && params.HumanInput.StartNodeID == data.ID {
		rejected = params.HumanInput.Type == "reject"
		if rejected {
			content = "Rejected"
		} else {
			content = "Proceeded"
		}
		if params.HumanInput.Feedback != "" {
			content += ": " + params.HumanInput.Feedback
		}
	}
	return node.Output{
		"input": input,
		"state": params.State,
		"output": map[string]any{
			"content": content,
			"conditions": []any{
				map[string]any{"type": "proceed", "isFullfilled": !rejected},
				map[string]any{"type": "reject", "isFullfilled": rejected},
			},
		},
	}, nil
}

// Loop re-enters an earlier node, bounded by its max loop count.
type Loop struct{}

// Run implements node.Node.
func (l *Loop) Run(ctx context.Context, data *flow.Node, input any, params *node.RunParams) (node.Output, error) {
	target, _ := data.Inputs["loopBackToNode"].(string)
	if target == "" {
		return nil, fmt.Errorf("loop node %s has no loopBackToNode", data.ID)
	}
	out := map[string]any{
		"content": "Looping back to " + target,
		"nodeID":  target,
	}
	switch v := data.Inputs["maxLoopCount"].(type) {
	case float64:
		out["maxLoopCount"] = int(v)
	case int:
		out["maxLoopCount"] = v
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			out["maxLoopCount"] = n
		}
	}
	return node.Output{"input": input, "output": out}, nil
}

// DirectReply surfaces a fixed (usually variable-resolved) message as the
// flow answer.
type DirectReply struct{}

// Run implements node.Node.
func (d *DirectReply) Run(ctx context.Context, data *flow.Node, input any, params *node.RunParams) (node.Output, error) {
	msg, _ := data.Inputs["directReplyMessage"].(string)
	return node.Output{
		"input":  input,
		"output": map[string]any{"content": msg},
	}, nil
}
