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

func testResolveContext() *resolveContext {
	checkpoint := ExecutedData{
		{NodeID: "llm_0", Data: node.Output{"output": map[string]any{"content": "earlier answer"}}},
	}
	return &resolveContext{
		question:        "what is the total?",
		uploadedContent: "",
		vars: map[string]any{
			"apiHost": "api.example.com",
			"nested":  map[string]any{"items": []any{"zero", "one"}},
		},
		flowBase: map[string]any{
			"chatflowid": "flow-1",
			"chatId":     "chat-1",
			"sessionId":  "sess-1",
		},
		runtime: &RuntimeState{
			State: map[string]any{"count": float64(2)},
			Form:  map[string]any{"email": "a@b.c"},
			ChatHistory: []node.ChatTurn{
				{Role: "userMessage", Content: "hello"},
				{Role: "apiMessage", Content: "hi there"},
			},
		},
		checkpoint: &checkpoint,
	}
}

func TestResolveRuntimeReferences(t *testing.T) {
	rc := testResolveContext()
	cases := []struct {
		in   string
		want string
	}{
		{"{{question}}", "what is the total?"},
		{"{{chat_history}}", "userMessage: hello\napiMessage: hi there"},
		{"{{$form.email}}", "a@b.c"},
		{"{{$vars.apiHost}}", "api.example.com"},
		{"{{$vars.nested.items.1}}", "one"},
		{"{{$flow.sessionId}}", "sess-1"},
		{"{{$flow.state.count}}", "2"},
		{"{{llm_0}}", "earlier answer"},
		{"ask {{llm_0}} about {{$vars.apiHost}}", "ask earlier answer about api.example.com"},
	}
	for _, tc := range cases {
		got, err := rc.resolveString(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestResolveQuestionWithUploads(t *testing.T) {
	rc := testResolveContext()
	rc.uploadedContent = "file body"
	got, err := rc.resolveString("{{question}}")
	require.NoError(t, err)
	assert.Equal(t, "file body\n\nwhat is the total?", got)

	got, err = rc.resolveString("{{file_attachment}}")
	require.NoError(t, err)
	assert.Equal(t, "file body", got)
}

func TestResolveUnknownLeftLiteral(t *testing.T) {
	rc := testResolveContext()
	got, err := rc.resolveString("value: {{no_such_node}}")
	require.NoError(t, err)
	assert.Equal(t, "value: {{no_such_node}}", got)

	got, err = rc.resolveString("{{$vars.missing.path}}")
	require.NoError(t, err)
	assert.Equal(t, "{{$vars.missing.path}}", got)
}

func TestResolveEmptyPathFails(t *testing.T) {
	rc := testResolveContext()
	_, err := rc.resolveString("{{$vars.}}")
	require.Error(t, err)
	var resolveErr ResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, "$vars.", resolveErr.Reference)
}

func TestResolveIdempotentWithoutReferences(t *testing.T) {
	rc := testResolveContext()
	in := "plain text with *markdown-ish* chars and a/path?q=1"
	once, err := rc.resolveString(in)
	require.NoError(t, err)
	twice, err := rc.resolveString(once)
	require.NoError(t, err)
	assert.Equal(t, in, once)
	assert.Equal(t, once, twice)
}

func TestResolveStripsRichTextMarkup(t *testing.T) {
	rc := testResolveContext()
	got, err := rc.resolveString("<p>summarize <strong>{{llm_0}}</strong></p>")
	require.NoError(t, err)
	assert.Contains(t, got, "earlier answer")
	assert.NotContains(t, got, "<p>")
}

func TestResolveBackslashBeforeNodeID(t *testing.T) {
	rc := testResolveContext()
	// The markup normalizer can leave an escape in front of a reference.
	got, err := rc.resolveString(`{{\llm_0}}`)
	require.NoError(t, err)
	assert.Equal(t, "earlier answer", got)
}

func TestResolveNodeDataOnlyAcceptVariable(t *testing.T) {
	rc := testResolveContext()
	n := &flow.Node{
		ID:   "agent_0",
		Name: "llmAgentflow",
		InputParams: []flow.InputParam{
			{Name: "prompt", Type: "string", AcceptVariable: true},
			{Name: "raw", Type: "string"},
		},
		Inputs: map[string]any{
			"prompt": "context: {{llm_0}}",
			"raw":    "{{llm_0}}",
			"messages": []any{
				map[string]any{"content": "{{question}}"},
			},
		},
	}
	resolved, err := rc.resolveNodeData(n)
	require.NoError(t, err)
	assert.Equal(t, "context: earlier answer", resolved.Inputs["prompt"])
	assert.Equal(t, "{{llm_0}}", resolved.Inputs["raw"], "non-variable params stay untouched")
	// The original definition is never mutated.
	assert.Equal(t, "context: {{llm_0}}", n.Inputs["prompt"])
}

func TestResolveNestedStructures(t *testing.T) {
	rc := testResolveContext()
	n := &flow.Node{
		ID:          "agent_0",
		Name:        "llmAgentflow",
		InputParams: []flow.InputParam{{Name: "messages", Type: "json", AcceptVariable: true}},
		Inputs: map[string]any{
			"messages": []any{
				map[string]any{"role": "system", "content": "host is {{$vars.apiHost}}"},
				map[string]any{"role": "user", "content": "{{question}}"},
			},
		},
	}
	resolved, err := rc.resolveNodeData(n)
	require.NoError(t, err)
	msgs := resolved.Inputs["messages"].([]any)
	assert.Equal(t, "host is api.example.com", msgs[0].(map[string]any)["content"])
	assert.Equal(t, "what is the total?", msgs[1].(map[string]any)["content"])
}

func TestDottedLookup(t *testing.T) {
	root := map[string]any{
		"a": map[string]any{"b": []any{map[string]any{"c": 7}}},
	}
	v, ok := dottedLookup(root, "a.b.0.c")
	require.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = dottedLookup(root, "a.b.5.c")
	assert.False(t, ok)
	_, ok = dottedLookup(root, "a.x")
	assert.False(t, ok)
}
