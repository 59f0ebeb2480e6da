//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package engine

import "fmt"

// AbortedError reports that the caller cancelled the execution. It carries
// no user-facing message; the flow surfaces it as TERMINATED.
type AbortedError struct{}

// Error implements error.
func (AbortedError) Error() string { return "execution aborted" }

// BadInputError reports mutually exclusive or malformed starting input.
type BadInputError struct {
	Reason string
}

// Error implements error.
func (e BadInputError) Error() string { return "bad input: " + e.Reason }

// NodeExecutionError reports a failure inside a node body.
type NodeExecutionError struct {
	NodeID string
	Err    error
}

// Error implements error.
func (e NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s: %v", e.NodeID, e.Err)
}

// Unwrap exposes the underlying node error.
func (e NodeExecutionError) Unwrap() error { return e.Err }

// ResolveError reports a variable-resolution failure, identifying the
// offending reference.
type ResolveError struct {
	Reference string
}

// Error implements error.
func (e ResolveError) Error() string {
	return fmt.Sprintf("resolve reference {{%s}}: invalid path", e.Reference)
}

// InvalidResumeError reports a resume attempt against an execution that is
// not in the STOPPED state.
type InvalidResumeError struct {
	State string
}

// Error implements error.
func (e InvalidResumeError) Error() string {
	if e.State == "" {
		return "resume: no execution found for session"
	}
	return fmt.Sprintf("resume: execution is %s, not STOPPED", e.State)
}

// NodeNotInCheckpointError reports a resume that names a node absent from
// the stopped execution's checkpoint.
type NodeNotInCheckpointError struct {
	NodeID string
}

// Error implements error.
func (e NodeNotInCheckpointError) Error() string {
	return fmt.Sprintf("resume: node %s not found in checkpoint", e.NodeID)
}

// IterationLimitError reports that the scheduler exceeded its iteration
// ceiling, usually a sign of an unbounded cycle.
type IterationLimitError struct {
	Limit int
}

// Error implements error.
func (e IterationLimitError) Error() string {
	return fmt.Sprintf("scheduler exceeded %d iterations", e.Limit)
}

// StartInputError reports a flow whose start nodes declare no input type.
type StartInputError struct{}

// Error implements error.
func (StartInputError) Error() string {
	return "flow has no start node with a startInputType"
}
