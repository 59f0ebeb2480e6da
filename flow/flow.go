//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package flow provides the agent flow graph model. A flow is a directed
// graph of typed nodes connected by edges; the package parses serialized
// flow definitions and derives the adjacency structures the engine
// schedules against.
package flow

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Logical node names with engine-level meaning. All other node names are
// opaque discriminators resolved through the node registry.
const (
	// NameStart is the flow entry node.
	NameStart = "startAgentflow"
	// NameCondition is the static condition branch node.
	NameCondition = "conditionAgentflow"
	// NameConditionAgent is the model-driven condition branch node.
	NameConditionAgent = "conditionAgentAgentflow"
	// NameHumanInput is the pause-for-approval node.
	NameHumanInput = "humanInputAgentflow"
	// NameLoop is the bounded loop-back node.
	NameLoop = "loopAgentflow"
	// NameStickyNote is a canvas annotation; it is never executed.
	NameStickyNote = "stickyNoteAgentflow"
)

// decisionNames is the set of logical names whose outputs may prune
// successor edges. Kept in one place to permit extension.
var decisionNames = map[string]struct{}{
	NameCondition:      {},
	NameConditionAgent: {},
	NameHumanInput:     {},
}

// IsDecision reports whether the logical name belongs to the decision set.
func IsDecision(name string) bool {
	_, ok := decisionNames[name]
	return ok
}

// InputParam declares one input parameter of a node.
type InputParam struct {
	// Name is the parameter name keyed into Node.Inputs.
	Name string `json:"name"`
	// Type is the parameter type tag (e.g. "string", "json", "options").
	Type string `json:"type,omitempty"`
	// AcceptVariable marks parameters whose values may contain {{...}}
	// references subject to variable resolution.
	AcceptVariable bool `json:"acceptVariable,omitempty"`
}

// Node is a single vertex of an agent flow.
type Node struct {
	// ID is the node identifier, unique within the flow.
	ID string `json:"id"`
	// Name is the logical name (type discriminator) used to locate the
	// node implementation in the registry.
	Name string `json:"name"`
	// Label is the human-readable display label.
	Label string `json:"label,omitempty"`
	// InputParams declares the node's input parameters.
	InputParams []InputParam `json:"inputParams,omitempty"`
	// Inputs maps parameter names to concrete input values.
	Inputs map[string]any `json:"inputs,omitempty"`
}

// Edge connects the output of one node to the input of another. The source
// handle carries an output index used to route conditional branches.
type Edge struct {
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	Target       string `json:"target"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Graph is an immutable agent flow definition plus derived lookups.
type Graph struct {
	Nodes []Node
	Edges []Edge

	byID map[string]*Node
}

// rawNode matches the serialized canvas node layout where execution fields
// live under a nested "data" object. Flat nodes (id at top level only) are
// accepted as well.
type rawNode struct {
	ID   string `json:"id"`
	Data Node   `json:"data"`
}

type rawFlow struct {
	Nodes []rawNode `json:"nodes"`
	Edges []Edge    `json:"edges"`
}

// Parse decodes a serialized flow definition (the chat flow entity's
// flowData field) into a Graph.
func Parse(data []byte) (*Graph, error) {
	var raw rawFlow
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse flow data: %w", err)
	}
	nodes := make([]Node, 0, len(raw.Nodes))
	for _, rn := range raw.Nodes {
		n := rn.Data
		if n.ID == "" {
			n.ID = rn.ID
		}
		if n.ID == "" {
			return nil, fmt.Errorf("parse flow data: node without id")
		}
		nodes = append(nodes, n)
	}
	return NewGraph(nodes, raw.Edges)
}

// NewGraph builds a Graph from already-decoded nodes and edges.
func NewGraph(nodes []Node, edges []Edge) (*Graph, error) {
	byID := make(map[string]*Node, len(nodes))
	g := &Graph{Nodes: nodes, Edges: edges, byID: byID}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if _, dup := byID[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id: %s", n.ID)
		}
		byID[n.ID] = n
	}
	for _, e := range edges {
		if _, ok := byID[e.Source]; !ok {
			return nil, fmt.Errorf("edge source %s not found", e.Source)
		}
		if _, ok := byID[e.Target]; !ok {
			return nil, fmt.Errorf("edge target %s not found", e.Target)
		}
	}
	return g, nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// OutputHandle formats the source handle for a node's indexed output.
func OutputHandle(nodeID string, index int) string {
	return fmt.Sprintf("%s-output-%d", nodeID, index)
}

// HandleIndex extracts the numeric output index from a source handle.
// The index is the first numeric token after splitting on "-"; handles
// without one yield 0. This ordering positions fan-in inputs
// deterministically.
func HandleIndex(handle string) int {
	for _, part := range strings.Split(handle, "-") {
		if idx, err := strconv.Atoi(part); err == nil {
			return idx
		}
	}
	return 0
}
