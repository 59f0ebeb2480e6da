//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"github.com/flowkit-ai/flowkit/flow"
)

// waitingNode tracks fan-in bookkeeping for one not-yet-ready target. A
// predecessor is either unconditional (expectedInputs) or belongs to
// exactly one conditional group, keyed by its nearest decision ancestor.
type waitingNode struct {
	nodeID            string
	receivedInputs    map[string]any
	expectedInputs    map[string]struct{}
	conditionalGroups map[string][]string
}

// newWaitingNode classifies every predecessor of target, visited in the
// handle order of the incoming edges. A predecessor that is itself a
// decision node forms its own conditional group; otherwise its nearest
// decision ancestor (if any) names the group.
func newWaitingNode(g *flow.Graph, reversed map[string][]string, target string) *waitingNode {
	w := &waitingNode{
		nodeID:            target,
		receivedInputs:    make(map[string]any),
		expectedInputs:    make(map[string]struct{}),
		conditionalGroups: make(map[string][]string),
	}
	seen := make(map[string]struct{})
	for _, e := range g.IncomingEdges(target) {
		pred := e.Source
		if _, dup := seen[pred]; dup {
			continue
		}
		seen[pred] = struct{}{}
		n, ok := g.Node(pred)
		if !ok || n.Name == flow.NameStickyNote {
			continue
		}
		if flow.IsDecision(n.Name) {
			w.conditionalGroups[pred] = append(w.conditionalGroups[pred], pred)
			continue
		}
		if d, ok := nearestDecisionAncestor(g, reversed, pred); ok {
			w.conditionalGroups[d] = append(w.conditionalGroups[d], pred)
			continue
		}
		w.expectedInputs[pred] = struct{}{}
	}
	return w
}

// nearestDecisionAncestor walks the ancestors of start depth-first and
// returns the first decision node found.
func nearestDecisionAncestor(g *flow.Graph, reversed map[string][]string, start string) (string, bool) {
	visited := map[string]struct{}{start: {}}
	stack := append([]string{}, reversed[start]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		if n, ok := g.Node(id); ok && flow.IsDecision(n.Name) {
			return id, true
		}
		stack = append(stack, reversed[id]...)
	}
	return "", false
}

// receive records one predecessor's output.
func (w *waitingNode) receive(predID string, out any) {
	w.receivedInputs[predID] = out
}

// ready reports whether the target may be dispatched: every unconditional
// predecessor has delivered, and every conditional group has delivered at
// least one input.
func (w *waitingNode) ready() bool {
	for pred := range w.expectedInputs {
		if _, ok := w.receivedInputs[pred]; !ok {
			return false
		}
	}
	for _, group := range w.conditionalGroups {
		got := false
		for _, pred := range group {
			if _, ok := w.receivedInputs[pred]; ok {
				got = true
				break
			}
		}
		if !got {
			return false
		}
	}
	return true
}

func (w *waitingNode) isConditional() bool {
	return len(w.conditionalGroups) > 0
}
