//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/flowkit-ai/flowkit/flow"
)

// refPattern matches one {{ reference }} occurrence, tolerating a stray
// backslash left in front by the markup-normalization step.
var refPattern = regexp.MustCompile(`\\?\{\{\s*(.*?)\s*\}\}`)

// htmlTagPattern detects markup introduced by rich-text editors.
var htmlTagPattern = regexp.MustCompile(`<[a-zA-Z/][a-zA-Z0-9]*[^>]*>`)

// resolveContext carries the layered namespaces a {{...}} reference may
// resolve against. It reads the live runtime state and checkpoint, so
// resolution of later nodes sees earlier nodes' outputs.
type resolveContext struct {
	question        string
	uploadedContent string
	vars            map[string]any
	flowBase        map[string]any
	runtime         *RuntimeState
	checkpoint      *ExecutedData
}

// resolveNodeData deep-copies the node definition and substitutes
// variable references in every input parameter that accepts them.
func (rc *resolveContext) resolveNodeData(n *flow.Node) (*flow.Node, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("copy node %s: %w", n.ID, err)
	}
	var cp flow.Node
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("copy node %s: %w", n.ID, err)
	}
	for _, p := range cp.InputParams {
		if !p.AcceptVariable {
			continue
		}
		val, ok := cp.Inputs[p.Name]
		if !ok {
			continue
		}
		resolved, err := rc.resolveValue(val)
		if err != nil {
			return nil, err
		}
		cp.Inputs[p.Name] = resolved
	}
	return &cp, nil
}

// resolveValue walks arrays and mappings, substituting in every string.
func (rc *resolveContext) resolveValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return rc.resolveString(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			r, err := rc.resolveValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			r, err := rc.resolveValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

// resolveString normalizes rich-text markup to plain text, then replaces
// {{...}} references left-to-right. Unresolvable references are left
// literal.
func (rc *resolveContext) resolveString(s string) (string, error) {
	s = normalizeMarkup(s)
	var resolveErr error
	out := refPattern.ReplaceAllStringFunc(s, func(match string) string {
		if resolveErr != nil {
			return match
		}
		ref := refPattern.FindStringSubmatch(match)[1]
		value, ok, err := rc.lookup(ref)
		if err != nil {
			resolveErr = err
			return match
		}
		if !ok {
			return match
		}
		return value
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return out, nil
}

// normalizeMarkup strips HTML introduced by rich-text editors. Plain
// strings pass through untouched so resolution stays idempotent for them.
func normalizeMarkup(s string) string {
	if !htmlTagPattern.MatchString(s) {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(md)
}

// lookup resolves a single reference. The boolean is false when the
// reference is unknown and should be left literal.
func (rc *resolveContext) lookup(ref string) (string, bool, error) {
	// The markup normalizer escapes special characters; a leading
	// backslash before a node id is its artifact.
	ref = strings.TrimLeft(ref, `\`)
	switch ref {
	case "question":
		if rc.uploadedContent != "" {
			return rc.uploadedContent + "\n\n" + rc.question, true, nil
		}
		return rc.question, true, nil
	case "file_attachment":
		return rc.uploadedContent, true, nil
	case "chat_history":
		var lines []string
		for _, turn := range rc.runtime.ChatHistory {
			lines = append(lines, turn.Role+": "+turn.Content)
		}
		return strings.Join(lines, "\n"), true, nil
	}
	for _, ns := range []struct {
		prefix string
		root   func() any
	}{
		{"$form", func() any { return rc.runtime.Form }},
		{"$vars", func() any { return rc.vars }},
		{"$flow", func() any { return rc.flowConfig() }},
	} {
		if ref == ns.prefix {
			return stringify(ns.root()), true, nil
		}
		if rest, ok := strings.CutPrefix(ref, ns.prefix+"."); ok {
			if rest == "" {
				return "", false, ResolveError{Reference: ref}
			}
			v, found := dottedLookup(ns.root(), rest)
			if !found {
				return "", false, nil
			}
			return stringify(v), true, nil
		}
	}
	if content, ok := rc.checkpoint.ContentOf(ref); ok {
		return content, true, nil
	}
	// The normalizer may also escape characters inside a node id.
	if unescaped := strings.ReplaceAll(ref, `\`, ""); unescaped != ref {
		if content, ok := rc.checkpoint.ContentOf(unescaped); ok {
			return content, true, nil
		}
	}
	return "", false, nil
}

// flowConfig exposes the $flow namespace: run identity, live state and
// history, plus any override-config fields.
func (rc *resolveContext) flowConfig() any {
	m := make(map[string]any, len(rc.flowBase)+2)
	for k, v := range rc.flowBase {
		m[k] = v
	}
	m["state"] = rc.runtime.State
	history := make([]any, 0, len(rc.runtime.ChatHistory))
	for _, turn := range rc.runtime.ChatHistory {
		history = append(history, map[string]any{"role": turn.Role, "content": turn.Content})
	}
	m["chatHistory"] = history
	return m
}

// dottedLookup evaluates a dotted path against nested mappings and
// arrays. Numeric segments index arrays.
func dottedLookup(root any, path string) (any, bool) {
	cur := root
	for _, seg := range strings.Split(path, ".") {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, false
			}
			cur = c[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// stringify renders a resolved value for substitution into a string.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}
