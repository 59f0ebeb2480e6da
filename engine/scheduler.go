//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"context"
	"errors"

	"github.com/flowkit-ai/flowkit/execution"
	"github.com/flowkit-ai/flowkit/flow"
	"github.com/flowkit-ai/flowkit/node"
	"github.com/flowkit-ai/flowkit/stream"
)

// queueEntry is one dispatchable unit: a node id, its aggregated input,
// and the per-predecessor outputs it was aggregated from.
type queueEntry struct {
	nodeID string
	data   any
	inputs map[string]any
}

// run owns all mutable state of one flow execution. The scheduler is
// single-threaded, so one append-only checkpoint entry per node
// transition holds without locking.
type run struct {
	eng      *Engine
	graph    *flow.Graph
	adj      map[string][]string
	reversed map[string][]string

	streamer stream.Streamer
	chatID   string

	rc        *resolveContext
	runtime   *RuntimeState
	runParams node.RunParams

	overrideConfig map[string]any
	humanInput     *node.HumanInput

	checkpoint ExecutedData
	queue      []queueEntry
	waiting    map[string]*waitingNode
	loopCounts map[string]int
}

// schedule drains the ready queue. It returns an error only for the
// iteration-limit overflow; node failures and cancellation are recorded
// in the checkpoint and end the loop silently.
func (r *run) schedule(ctx context.Context) error {
	limit := maxIterations()
	iterations := 0
	for len(r.queue) > 0 {
		if iterations >= limit {
			return IterationLimitError{Limit: limit}
		}
		iterations++
		if ctx.Err() != nil {
			r.terminate(r.queue[0].nodeID)
			return nil
		}

		entry := r.queue[0]
		r.queue = r.queue[1:]
		n, ok := r.graph.Node(entry.nodeID)
		if !ok || n.Name == flow.NameStickyNote {
			continue
		}

		out, stopped, err := r.executeNode(ctx, entry)
		if err != nil {
			if errors.As(err, &AbortedError{}) {
				r.terminate(n.ID)
				return nil
			}
			r.fail(n, err)
			return nil
		}
		if stopped {
			r.stop(n, out)
			return nil
		}
		r.finish(n, out)

		r.feedSuccessors(n, out)
		r.loopBack(n, out)
	}
	return nil
}

// feedSuccessors delivers the node's output to every non-pruned
// successor's waiting record and enqueues the ones that became ready.
func (r *run) feedSuccessors(n *flow.Node, out node.Output) {
	skipped := prunedSuccessors(r.graph, n, out)
	for _, succ := range r.adj[n.ID] {
		if _, skip := skipped[succ]; skip {
			continue
		}
		w := r.waiting[succ]
		if w == nil {
			w = newWaitingNode(r.graph, r.reversed, succ)
			r.waiting[succ] = w
		}
		w.receive(n.ID, map[string]any(out))
		if w.ready() {
			delete(r.waiting, succ)
			r.queue = append(r.queue, queueEntry{
				nodeID: succ,
				data:   combineInputs(w.receivedInputs),
				inputs: w.receivedInputs,
			})
		}
	}
}

// loopBack re-enqueues a loop node's target while the per-node loop count
// stays under its ceiling. A pending human input never reapplies on a
// loop pass.
func (r *run) loopBack(n *flow.Node, out node.Output) {
	if n.Name != flow.NameLoop {
		return
	}
	target, ok := out.LoopTarget()
	if !ok {
		return
	}
	ceiling := maxLoopCount()
	if m, ok := out.MaxLoopCount(); ok {
		ceiling = m
	}
	count := r.loopCounts[n.ID] + 1
	if count >= ceiling {
		return
	}
	r.loopCounts[n.ID] = count
	r.queue = append(r.queue, queueEntry{nodeID: target, data: map[string]any(out)})
	r.humanInput = nil
	r.runParams.HumanInput = nil
}

func (r *run) previousNodeIDs(nodeID string) []string {
	return append([]string{}, r.reversed[nodeID]...)
}

// finish records a FINISHED entry, folds the output into the runtime
// state, and streams the transition plus a checkpoint snapshot.
func (r *run) finish(n *flow.Node, out node.Output) {
	r.checkpoint = append(r.checkpoint, ExecutedNode{
		NodeID:          n.ID,
		NodeLabel:       n.Label,
		Data:            out,
		PreviousNodeIDs: r.previousNodeIDs(n.ID),
		Status:          execution.StatusFinished,
	})
	r.runtime.Apply(out)
	r.streamer.StreamNextAgentFlowEvent(r.chatID, stream.NodeEvent{
		NodeID:    n.ID,
		NodeLabel: n.Label,
		Status:    string(execution.StatusFinished),
	})
	r.streamer.StreamAgentFlowExecutedDataEvent(r.chatID, r.checkpoint.Snapshot())
}

// stop records a STOPPED entry for a human-input pause and streams the
// action descriptor the caller must answer to resume.
func (r *run) stop(n *flow.Node, out node.Output) {
	r.checkpoint = append(r.checkpoint, ExecutedNode{
		NodeID:          n.ID,
		NodeLabel:       n.Label,
		Data:            out,
		PreviousNodeIDs: r.previousNodeIDs(n.ID),
		Status:          execution.StatusStopped,
	})
	r.streamer.StreamNextAgentFlowEvent(r.chatID, stream.NodeEvent{
		NodeID:    n.ID,
		NodeLabel: n.Label,
		Status:    string(execution.StatusStopped),
	})
	r.streamer.StreamAgentFlowExecutedDataEvent(r.chatID, r.checkpoint.Snapshot())
	if action, ok := out.HumanInputAction(); ok {
		r.streamer.StreamActionEvent(r.chatID, action)
	}
}

// fail records an ERROR entry with the node's error message.
func (r *run) fail(n *flow.Node, err error) {
	r.checkpoint = append(r.checkpoint, ExecutedNode{
		NodeID:          n.ID,
		NodeLabel:       n.Label,
		Data:            node.Output{},
		PreviousNodeIDs: r.previousNodeIDs(n.ID),
		Status:          execution.StatusError,
		Error:           err.Error(),
	})
	r.streamer.StreamNextAgentFlowEvent(r.chatID, stream.NodeEvent{
		NodeID:    n.ID,
		NodeLabel: n.Label,
		Status:    string(execution.StatusError),
		Error:     err.Error(),
	})
	r.streamer.StreamAgentFlowExecutedDataEvent(r.chatID, r.checkpoint.Snapshot())
}

// terminate records a TERMINATED entry after cancellation. Cancellation
// is not an error; the entry and event carry no error text.
func (r *run) terminate(nodeID string) {
	label := ""
	if n, ok := r.graph.Node(nodeID); ok {
		label = n.Label
	}
	r.checkpoint = append(r.checkpoint, ExecutedNode{
		NodeID:          nodeID,
		NodeLabel:       label,
		Data:            node.Output{},
		PreviousNodeIDs: r.previousNodeIDs(nodeID),
		Status:          execution.StatusTerminated,
	})
	r.streamer.StreamNextAgentFlowEvent(r.chatID, stream.NodeEvent{
		NodeID:    nodeID,
		NodeLabel: label,
		Status:    string(execution.StatusTerminated),
	})
	r.streamer.StreamAgentFlowExecutedDataEvent(r.chatID, r.checkpoint.Snapshot())
}
