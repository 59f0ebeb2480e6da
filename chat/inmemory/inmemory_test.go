//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowkit-ai/flowkit/chat"
)

func TestSaveAndList(t *testing.T) {
	ctx := context.Background()
	s := New()

	user := &chat.Message{ChatflowID: "flow-1", ChatID: "chat-1", Role: chat.RoleUser, Content: "hi"}
	require.NoError(t, s.Save(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedDate.IsZero())

	api := &chat.Message{ChatflowID: "flow-1", ChatID: "chat-1", Role: chat.RoleAPI, Content: "hello"}
	require.NoError(t, s.Save(ctx, api))

	other := &chat.Message{ChatflowID: "flow-1", ChatID: "chat-2", Role: chat.RoleUser, Content: "x"}
	require.NoError(t, s.Save(ctx, other))

	msgs, err := s.List(ctx, "flow-1", "chat-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.RoleUser, msgs[0].Role)
	assert.Equal(t, chat.RoleAPI, msgs[1].Role)
}

func TestClearLatestAction(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Save(ctx, &chat.Message{ChatflowID: "f", ChatID: "c", Role: chat.RoleAPI, Content: "a", Action: `{"id":"old"}`}))
	require.NoError(t, s.Save(ctx, &chat.Message{ChatflowID: "f", ChatID: "c", Role: chat.RoleAPI, Content: "b", Action: `{"id":"new"}`}))

	require.NoError(t, s.ClearLatestAction(ctx, "f", "c"))

	msgs, err := s.List(ctx, "f", "c")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	// Only the most recent action row is cleared.
	assert.Equal(t, `{"id":"old"}`, msgs[0].Action)
	assert.Empty(t, msgs[1].Action)

	// Clearing with nothing pending is a no-op.
	require.NoError(t, s.ClearLatestAction(ctx, "f", "empty"))
}
