//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowkit-ai/flowkit/flow"
	"github.com/flowkit-ai/flowkit/node"
)

func pruneGraph(t *testing.T) *flow.Graph {
	t.Helper()
	g, err := flow.NewGraph(
		[]flow.Node{
			{ID: "cond_0", Name: flow.NameCondition},
			{ID: "llm_a", Name: "llmAgentflow"},
			{ID: "llm_b", Name: "llmAgentflow"},
		},
		[]flow.Edge{
			{Source: "cond_0", SourceHandle: "cond_0-output-0", Target: "llm_a"},
			{Source: "cond_0", SourceHandle: "cond_0-output-1", Target: "llm_b"},
		},
	)
	require.NoError(t, err)
	return g
}

func conditionOutput(fulfilled ...bool) node.Output {
	conds := make([]any, 0, len(fulfilled))
	for _, f := range fulfilled {
		conds = append(conds, map[string]any{"isFullfilled": f})
	}
	return node.Output{"output": map[string]any{"conditions": conds}}
}

func TestPruneUnfulfilledBranch(t *testing.T) {
	g := pruneGraph(t)
	n, _ := g.Node("cond_0")
	skipped := prunedSuccessors(g, n, conditionOutput(true, false))
	assert.Equal(t, map[string]struct{}{"llm_b": {}}, skipped)
}

func TestPruneAllUnfulfilled(t *testing.T) {
	g := pruneGraph(t)
	n, _ := g.Node("cond_0")
	skipped := prunedSuccessors(g, n, conditionOutput(false, false))
	assert.Len(t, skipped, 2)
}

func TestPruneNonDecisionNodeUntouched(t *testing.T) {
	g := pruneGraph(t)
	n := &flow.Node{ID: "llm_a", Name: "llmAgentflow"}
	assert.Nil(t, prunedSuccessors(g, n, conditionOutput(false)))
}

func TestPruneNoConditions(t *testing.T) {
	g := pruneGraph(t)
	n, _ := g.Node("cond_0")
	assert.Nil(t, prunedSuccessors(g, n, node.Output{}))
}
