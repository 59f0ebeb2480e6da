//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowkit-ai/flowkit/flow"
	"github.com/flowkit-ai/flowkit/node"
)

func TestModelSelection(t *testing.T) {
	l := New(WithAPIKey("test-key"), WithDefaultModel("fallback-model"))
	assert.Equal(t, "fallback-model",
		l.model(&flow.Node{ID: "llm_0", Name: Name}))
	assert.Equal(t, "declared-model",
		l.model(&flow.Node{ID: "llm_0", Name: Name,
			Inputs: map[string]any{"model": "declared-model"}}))
}

func TestBuildMessages(t *testing.T) {
	l := New(WithAPIKey("test-key"))
	data := &flow.Node{
		ID: "llm_0", Name: Name,
		Inputs: map[string]any{"systemMessage": "be terse"},
	}
	params := &node.RunParams{
		Question: "current question",
		ChatHistory: []node.ChatTurn{
			{Role: "userMessage", Content: "earlier question"},
			{Role: "apiMessage", Content: "earlier answer"},
		},
	}
	messages := l.buildMessages(data, map[string]any{"question": "current question"}, params)
	// system + two history turns + current user message.
	require.Len(t, messages, 4)
}

func TestUserContentPrecedence(t *testing.T) {
	l := New(WithAPIKey("test-key"))
	params := &node.RunParams{Question: "raw question"}

	got := l.userContent(&flow.Node{
		Inputs: map[string]any{"prompt": "explicit prompt"},
	}, map[string]any{"question": "agg"}, params)
	assert.Equal(t, "explicit prompt", got)

	got = l.userContent(&flow.Node{}, map[string]any{"question": "agg"}, params)
	assert.Equal(t, "agg", got)

	got = l.userContent(&flow.Node{}, map[string]any{
		"output": map[string]any{"content": "upstream content"},
	}, params)
	assert.Equal(t, "upstream content", got)

	got = l.userContent(&flow.Node{}, nil, params)
	assert.Equal(t, "raw question", got)
}

func TestRegister(t *testing.T) {
	reg := node.NewRegistry()
	Register(reg, WithAPIKey("test-key"))
	impl, err := reg.Resolve(Name)
	require.NoError(t, err)
	assert.IsType(t, &LLM{}, impl)
}
