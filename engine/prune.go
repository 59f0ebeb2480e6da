//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"github.com/flowkit-ai/flowkit/flow"
	"github.com/flowkit-ai/flowkit/node"
)

// prunedSuccessors returns the successor ids to skip for this dispatch of
// a decision node. Condition i being unfulfilled skips the targets of the
// edges leaving output handle i. The skip applies to this dispatch only;
// a skipped node may still be reached by other paths.
func prunedSuccessors(g *flow.Graph, n *flow.Node, out node.Output) map[string]struct{} {
	if !flow.IsDecision(n.Name) {
		return nil
	}
	conditions := out.Conditions()
	if len(conditions) == 0 {
		return nil
	}
	skipped := make(map[string]struct{})
	outgoing := g.OutgoingEdges(n.ID)
	for i, cond := range conditions {
		if cond.IsFulfilled {
			continue
		}
		handle := flow.OutputHandle(n.ID, i)
		for _, e := range outgoing {
			if e.SourceHandle == handle {
				skipped[e.Target] = struct{}{}
			}
		}
	}
	return skipped
}
