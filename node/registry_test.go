//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowkit-ai/flowkit/flow"
)

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	r.Register("echo", func() Node {
		return Func(func(ctx context.Context, data *flow.Node, input any, params *RunParams) (Output, error) {
			return Output{"output": map[string]any{"content": params.Question}}, nil
		})
	})

	n, err := r.Resolve("echo")
	require.NoError(t, err)

	out, err := n.Run(context.Background(), &flow.Node{ID: "echo_0", Name: "echo"}, nil, &RunParams{Question: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out.Content())

	_, err = r.Resolve("missing")
	require.Error(t, err)

	assert.Equal(t, []string{"echo"}, r.Names())
}
