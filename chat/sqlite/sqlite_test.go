//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowkit-ai/flowkit/chat"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := &chat.Message{
		ChatflowID: "flow-1", ChatID: "chat-1", SessionID: "sess-1",
		Role: chat.RoleUser, Content: "hello",
	}
	require.NoError(t, s.Save(ctx, user))
	assert.NotEmpty(t, user.ID, "store fills in the id")

	api := &chat.Message{
		ID: "api-1", ChatflowID: "flow-1", ChatID: "chat-1",
		Role: chat.RoleAPI, Content: "answer",
		SourceDocuments: []byte(`[{"page":1}]`),
	}
	require.NoError(t, s.Save(ctx, api))

	msgs, err := s.List(ctx, "flow-1", "chat-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "api-1", msgs[1].ID)
	assert.JSONEq(t, `[{"page":1}]`, string(msgs[1].SourceDocuments))

	other, err := s.List(ctx, "flow-1", "other-chat")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestClearLatestAction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &chat.Message{
		ChatflowID: "flow-1", ChatID: "chat-1", Role: chat.RoleAPI,
		Content: "old prompt", Action: `{"id":"a1"}`,
	}))
	require.NoError(t, s.Save(ctx, &chat.Message{
		ChatflowID: "flow-1", ChatID: "chat-1", Role: chat.RoleAPI,
		Content: "pending prompt", Action: `{"id":"a2"}`,
	}))

	require.NoError(t, s.ClearLatestAction(ctx, "flow-1", "chat-1"))

	msgs, err := s.List(ctx, "flow-1", "chat-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.NotEmpty(t, msgs[0].Action, "older action survives")
	assert.Empty(t, msgs[1].Action, "most recent action cleared")
}

func TestClearLatestActionNoPending(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ClearLatestAction(context.Background(), "flow-1", "chat-1"))
}
