//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package node

// Output is the open record returned by a node. Nodes may attach arbitrary
// fields; the engine only interprets the recognized ones exposed through the
// accessors below. Everything else is carried through to the checkpoint
// untouched.
type Output map[string]any

// Condition is one branch decision of a condition node output.
type Condition struct {
	Type string `json:"type,omitempty"`
	// IsFulfilled reports whether the branch is taken. The JSON key keeps
	// the spelling used by existing flow exports.
	IsFulfilled bool `json:"isFullfilled"`
}

// Out returns the nested "output" object, or nil when absent.
func (o Output) Out() map[string]any {
	m, _ := o["output"].(map[string]any)
	return m
}

// Content returns output.content, the canonical text payload surfaced to
// the caller.
func (o Output) Content() string {
	s, _ := o.Out()["content"].(string)
	return s
}

// StateDelta returns the top-level "state" field, the node's replacement
// for the runtime state.
func (o Output) StateDelta() (map[string]any, bool) {
	m, ok := o["state"].(map[string]any)
	return m, ok
}

// ChatHistoryDelta returns the top-level "chatHistory" field as turns to
// append to the runtime history.
func (o Output) ChatHistoryDelta() []ChatTurn {
	raw, ok := o["chatHistory"].([]any)
	if !ok {
		if turns, ok := o["chatHistory"].([]ChatTurn); ok {
			return turns
		}
		return nil
	}
	var turns []ChatTurn
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		role, _ := m["role"].(string)
		content, _ := m["content"].(string)
		turns = append(turns, ChatTurn{Role: role, Content: content})
	}
	return turns
}

// FormDelta returns output.form, the node's replacement for the runtime
// form values.
func (o Output) FormDelta() (map[string]any, bool) {
	m, ok := o.Out()["form"].(map[string]any)
	return m, ok
}

// Conditions returns output.conditions for branch pruning. An empty slice
// means the node made no branch decision.
func (o Output) Conditions() []Condition {
	switch raw := o.Out()["conditions"].(type) {
	case []Condition:
		return raw
	case []any:
		conds := make([]Condition, 0, len(raw))
		for _, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				conds = append(conds, Condition{})
				continue
			}
			typ, _ := m["type"].(string)
			fulfilled, _ := m["isFullfilled"].(bool)
			conds = append(conds, Condition{Type: typ, IsFulfilled: fulfilled})
		}
		return conds
	default:
		return nil
	}
}

// LoopTarget returns output.nodeID, the earlier node a loop node re-enters.
func (o Output) LoopTarget() (string, bool) {
	s, ok := o.Out()["nodeID"].(string)
	return s, ok && s != ""
}

// MaxLoopCount returns output.maxLoopCount when set.
func (o Output) MaxLoopCount() (int, bool) {
	switch v := o.Out()["maxLoopCount"].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// HumanInputAction returns output.humanInputAction, the approve/reject
// action descriptor synthesized when a human-input node stops the flow.
func (o Output) HumanInputAction() (map[string]any, bool) {
	m, ok := o.Out()["humanInputAction"].(map[string]any)
	return m, ok
}

// SourceDocuments returns output.sourceDocuments for pass-through to the
// final chat message.
func (o Output) SourceDocuments() any { return o.Out()["sourceDocuments"] }

// UsedTools returns output.usedTools for pass-through to the final chat
// message.
func (o Output) UsedTools() any { return o.Out()["usedTools"] }

// FileAnnotations returns output.fileAnnotations for pass-through to the
// final chat message.
func (o Output) FileAnnotations() any { return o.Out()["fileAnnotations"] }

// Artifacts returns output.artifacts for pass-through to the final chat
// message.
func (o Output) Artifacts() any { return o.Out()["artifacts"] }
