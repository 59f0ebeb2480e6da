//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartAndClean(t *testing.T) {
	ctx := context.Background()
	clean, err := Start(ctx,
		WithEndpoint("localhost:4317"),
		WithServiceName("flowkit-test"),
	)
	require.NoError(t, err)
	require.NotNil(t, clean)

	_, span := Tracer.Start(ctx, "test-span")
	span.End()
	RecordExecution(ctx, "flow-1", "FINISHED")
	RecordNodeError(ctx, "flow-1", "llm_0")

	// No collector is running; cleanup errors are expected and ignored.
	_ = clean()
}

func TestRecordWithoutStart(t *testing.T) {
	// The no-op instruments must accept recordings safely.
	RecordExecution(context.Background(), "flow-1", "ERROR")
	RecordNodeError(context.Background(), "flow-1", "cond_0")
}
