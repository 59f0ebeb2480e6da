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

	"github.com/flowkit-ai/flowkit/node"
)

func TestCombineInputsEmpty(t *testing.T) {
	assert.Nil(t, combineInputs(nil))
	assert.Nil(t, combineInputs(map[string]any{"a": nil}))
}

func TestCombineInputsSingleVerbatim(t *testing.T) {
	in := map[string]any{"output": map[string]any{"content": "hi"}}
	got := combineInputs(map[string]any{"llm_0": in, "dead": nil})
	assert.Equal(t, in, got)
}

func TestCombineInputsMerge(t *testing.T) {
	got := combineInputs(map[string]any{
		"b_node": map[string]any{"json": map[string]any{"k": 2}, "text": "second"},
		"a_node": map[string]any{"json": map[string]any{"k": 1}, "text": "first"},
	})
	m, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"a_node": map[string]any{"k": 1},
		"b_node": map[string]any{"k": 2},
	}, m["json"])
	// Sorted by source id, joined by newline.
	assert.Equal(t, "first\nsecond", m["text"])
}

func TestCombineInputsPrimitives(t *testing.T) {
	got := combineInputs(map[string]any{"a": 1, "b": "two"})
	m, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m["json"])
}

func TestCombineInputsTextOnlyWraps(t *testing.T) {
	got := combineInputs(map[string]any{
		"a": map[string]any{"text": "one"},
		"b": map[string]any{"text": "two"},
	})
	assert.Equal(t, map[string]any{
		"json": map[string]any{"text": "one\ntwo"},
	}, got)
}

func TestCombineInputsErrorFirst(t *testing.T) {
	got := combineInputs(map[string]any{
		"a": map[string]any{"error": "boom", "text": "x"},
		"b": map[string]any{"error": "later", "text": "y"},
	})
	m, ok := got.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "boom", m["error"])
}

func TestCombineInputsPlainOutputsBecomeJSON(t *testing.T) {
	got := combineInputs(map[string]any{
		"a": map[string]any(node.Output{"output": map[string]any{"content": "one"}}),
		"b": map[string]any{"output": map[string]any{"content": "two"}},
	})
	m, ok := got.(map[string]any)
	require.True(t, ok)
	j, ok := m["json"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, j, 2)
}
