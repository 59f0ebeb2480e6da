//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCredentialKeys(t *testing.T) {
	in := map[string]any{
		"nodeId": "llm_0",
		"data": map[string]any{
			"input": map[string]any{
				CredentialIDKey: "cred-123",
				"model":         "gpt-4o-mini",
			},
			"chain": []any{
				map[string]any{CredentialIDKey: "cred-456", "ok": true},
			},
		},
	}
	got, ok := StripCredentialKeys(in).(map[string]any)
	require.True(t, ok)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), CredentialIDKey)
	assert.Contains(t, string(raw), "gpt-4o-mini")

	// The input is untouched.
	assert.Contains(t, in["data"].(map[string]any)["input"], CredentialIDKey)
}

func TestStripCredentialKeysScalar(t *testing.T) {
	assert.Equal(t, "plain", StripCredentialKeys("plain"))
	assert.Nil(t, StripCredentialKeys(nil))
}

func TestSSEWritesEventFrames(t *testing.T) {
	rec := httptest.NewRecorder()
	s, err := NewSSE(rec)
	require.NoError(t, err)

	s.StreamAgentFlowEvent("chat-1", "INPROGRESS")
	s.StreamNextAgentFlowEvent("chat-1", NodeEvent{
		NodeID: "start_0", NodeLabel: "Start", Status: "FINISHED",
	})

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	require.Len(t, frames, 2)
	assert.Equal(t, `data: {"event":"agentFlow","data":"INPROGRESS"}`, frames[0])
	assert.Contains(t, frames[1], `"event":"nextAgentFlow"`)
	assert.Contains(t, frames[1], `"nodeId":"start_0"`)
}

func TestSSEScrubsSnapshots(t *testing.T) {
	rec := httptest.NewRecorder()
	s, err := NewSSE(rec)
	require.NoError(t, err)

	s.StreamAgentFlowExecutedDataEvent("chat-1", []any{
		map[string]any{"nodeId": "llm_0", CredentialIDKey: "cred-789"},
	})
	assert.NotContains(t, rec.Body.String(), CredentialIDKey)
	assert.Contains(t, rec.Body.String(), "llm_0")
}

func TestRecorderCapturesInOrder(t *testing.T) {
	r := NewRecorder()
	r.StreamAgentFlowEvent("chat-1", "INPROGRESS")
	r.StreamActionEvent("chat-1", map[string]any{"id": "a1"})
	r.StreamAgentFlowEvent("chat-1", "STOPPED")

	events := r.Events()
	require.Len(t, events, 3)
	assert.Equal(t, EventAgentFlow, events[0].Event)
	assert.Equal(t, "STOPPED", events[2].Data)

	actions := r.ByEvent(EventAction)
	require.Len(t, actions, 1)
	assert.Equal(t, "chat-1", actions[0].ChatID)
}
