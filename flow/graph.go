//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package flow

import "sort"

// Adjacency derives the adjacency map and indegree count for the graph.
// With reversed=false the map goes source -> targets; with reversed=true it
// goes target -> sources and the indegree counts outgoing edges instead.
// Sticky-note nodes are excluded: they are annotations, never executed.
func (g *Graph) Adjacency(reversed bool) (map[string][]string, map[string]int) {
	adj := make(map[string][]string, len(g.Nodes))
	indegree := make(map[string]int, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Name == NameStickyNote {
			continue
		}
		adj[n.ID] = nil
		indegree[n.ID] = 0
	}
	for _, e := range g.Edges {
		from, to := e.Source, e.Target
		if reversed {
			from, to = to, from
		}
		if _, ok := adj[from]; !ok {
			continue
		}
		if _, ok := adj[to]; !ok {
			continue
		}
		adj[from] = append(adj[from], to)
		indegree[to]++
	}
	return adj, indegree
}

// StartingNodes returns the ids of all nodes with indegree zero, i.e. the
// flow entry points.
func StartingNodes(indegree map[string]int) []string {
	var starts []string
	for id, deg := range indegree {
		if deg == 0 {
			starts = append(starts, id)
		}
	}
	sort.Strings(starts)
	return starts
}

// IncomingEdges returns the edges pointing at target, ordered by the numeric
// suffix of their source handle. The order gives fan-in analysis a stable
// predecessor sequence regardless of edge order in the flow export.
func (g *Graph) IncomingEdges(target string) []Edge {
	var in []Edge
	for _, e := range g.Edges {
		if e.Target == target {
			in = append(in, e)
		}
	}
	sort.SliceStable(in, func(i, j int) bool {
		return HandleIndex(in[i].SourceHandle) < HandleIndex(in[j].SourceHandle)
	})
	return in
}

// OutgoingEdges returns the edges leaving source.
func (g *Graph) OutgoingEdges(source string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}
