//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFlowData = `{
  "nodes": [
    {"id": "startAgentflow_0", "data": {"id": "startAgentflow_0", "name": "startAgentflow", "label": "Start", "inputs": {"startInputType": "chatInput"}}},
    {"id": "llmAgentflow_0", "data": {"id": "llmAgentflow_0", "name": "llmAgentflow", "label": "LLM 0"}},
    {"id": "llmAgentflow_1", "data": {"id": "llmAgentflow_1", "name": "llmAgentflow", "label": "LLM 1"}},
    {"id": "stickyNoteAgentflow_0", "data": {"id": "stickyNoteAgentflow_0", "name": "stickyNoteAgentflow", "label": "Note"}}
  ],
  "edges": [
    {"source": "startAgentflow_0", "sourceHandle": "startAgentflow_0-output-0", "target": "llmAgentflow_0", "targetHandle": "llmAgentflow_0-input"},
    {"source": "llmAgentflow_0", "sourceHandle": "llmAgentflow_0-output-0", "target": "llmAgentflow_1", "targetHandle": "llmAgentflow_1-input"}
  ]
}`

func TestParseFlowData(t *testing.T) {
	g, err := Parse([]byte(sampleFlowData))
	require.NoError(t, err)
	require.Len(t, g.Nodes, 4)
	require.Len(t, g.Edges, 2)

	n, ok := g.Node("llmAgentflow_0")
	require.True(t, ok)
	assert.Equal(t, "llmAgentflow", n.Name)
	assert.Equal(t, "LLM 0", n.Label)

	start, ok := g.Node("startAgentflow_0")
	require.True(t, ok)
	assert.Equal(t, "chatInput", start.Inputs["startInputType"])
}

func TestParseRejectsDuplicateAndDangling(t *testing.T) {
	_, err := NewGraph(
		[]Node{{ID: "a", Name: "x"}, {ID: "a", Name: "y"}},
		nil,
	)
	require.Error(t, err)

	_, err = NewGraph(
		[]Node{{ID: "a", Name: "x"}},
		[]Edge{{Source: "a", Target: "missing"}},
	)
	require.Error(t, err)
}

func TestAdjacencyAndStartingNodes(t *testing.T) {
	g, err := Parse([]byte(sampleFlowData))
	require.NoError(t, err)

	adj, indegree := g.Adjacency(false)
	assert.Equal(t, []string{"llmAgentflow_0"}, adj["startAgentflow_0"])
	assert.Equal(t, []string{"llmAgentflow_1"}, adj["llmAgentflow_0"])
	assert.Equal(t, 0, indegree["startAgentflow_0"])
	assert.Equal(t, 1, indegree["llmAgentflow_1"])

	// Sticky notes are dropped from traversal entirely.
	_, ok := adj["stickyNoteAgentflow_0"]
	assert.False(t, ok)

	assert.Equal(t, []string{"startAgentflow_0"}, StartingNodes(indegree))

	radj, rdeg := g.Adjacency(true)
	assert.Equal(t, []string{"llmAgentflow_0"}, radj["llmAgentflow_1"])
	assert.Equal(t, 0, rdeg["llmAgentflow_1"])
}

func TestHandleIndex(t *testing.T) {
	assert.Equal(t, 0, HandleIndex("conditionAgentflow-output-0"))
	assert.Equal(t, 2, HandleIndex("conditionAgentflow-output-2"))
	assert.Equal(t, 0, HandleIndex("no-numeric-handle"))
	assert.Equal(t, 0, HandleIndex(""))
	assert.Equal(t, "n-output-3", OutputHandle("n", 3))
}

func TestIncomingEdgesSortedByHandleIndex(t *testing.T) {
	g, err := NewGraph(
		[]Node{{ID: "cond", Name: NameCondition}, {ID: "a", Name: "x"}, {ID: "b", Name: "x"}, {ID: "merge", Name: "x"}},
		[]Edge{
			{Source: "b", SourceHandle: "b-output-1", Target: "merge"},
			{Source: "a", SourceHandle: "a-output-0", Target: "merge"},
			{Source: "cond", SourceHandle: "cond-output-0", Target: "a"},
			{Source: "cond", SourceHandle: "cond-output-1", Target: "b"},
		},
	)
	require.NoError(t, err)

	in := g.IncomingEdges("merge")
	require.Len(t, in, 2)
	assert.Equal(t, "a", in[0].Source)
	assert.Equal(t, "b", in[1].Source)

	out := g.OutgoingEdges("cond")
	require.Len(t, out, 2)
}

func TestIsDecision(t *testing.T) {
	assert.True(t, IsDecision(NameCondition))
	assert.True(t, IsDecision(NameConditionAgent))
	assert.True(t, IsDecision(NameHumanInput))
	assert.False(t, IsDecision(NameLoop))
	assert.False(t, IsDecision("llmAgentflow"))
}
