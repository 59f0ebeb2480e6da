//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"sort"
	"strings"

	"github.com/flowkit-ai/flowkit/node"
)

// combineInputs merges fan-in inputs from multiple predecessors into one
// input record. The merge is deterministic: predecessors are visited in
// sorted id order and nil inputs are dropped.
func combineInputs(received map[string]any) any {
	ids := make([]string, 0, len(received))
	for id, v := range received {
		if v == nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	switch len(ids) {
	case 0:
		return nil
	case 1:
		return received[ids[0]]
	}

	jsonOut := make(map[string]any)
	binary := make(map[string]any)
	var texts []string
	var firstErr any
	for _, id := range ids {
		m, ok := asMap(received[id])
		if !ok {
			jsonOut[id] = received[id]
			continue
		}
		contributed := false
		if j, ok := m["json"]; ok && j != nil {
			jsonOut[id] = j
			contributed = true
		}
		if t, ok := m["text"].(string); ok && t != "" {
			texts = append(texts, t)
			contributed = true
		}
		if b, ok := m["binary"]; ok && b != nil {
			binary[id] = b
			contributed = true
		}
		if e, ok := m["error"]; ok && e != nil {
			if firstErr == nil {
				firstErr = e
			}
			contributed = true
		}
		if !contributed {
			jsonOut[id] = m
		}
	}

	combinedText := strings.Join(texts, "\n")
	if len(jsonOut) == 0 && len(binary) == 0 && firstErr == nil {
		return map[string]any{"json": map[string]any{"text": combinedText}}
	}

	out := make(map[string]any)
	if len(jsonOut) > 0 {
		out["json"] = jsonOut
	}
	if len(texts) > 0 {
		out["text"] = combinedText
	}
	if len(binary) > 0 {
		out["binary"] = binary
	}
	if firstErr != nil {
		out["error"] = firstErr
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case node.Output:
		return map[string]any(m), true
	default:
		return nil, false
	}
}
