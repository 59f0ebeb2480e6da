//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"os"
	"strconv"
)

// Recognized environment variables bounding a run.
const (
	envMaxIterations = "MAX_ITERATIONS"
	envMaxLoopCount  = "MAX_LOOP_COUNT"

	defaultMaxIterations = 1000
	defaultMaxLoopCount  = 10
)

func envInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// maxIterations is the scheduler ceiling across the whole run.
func maxIterations() int { return envInt(envMaxIterations, defaultMaxIterations) }

// maxLoopCount is the default per-loop-node ceiling, used when the loop
// node's output does not set its own.
func maxLoopCount() int { return envInt(envMaxLoopCount, defaultMaxLoopCount) }
