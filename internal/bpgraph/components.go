package bpgraph

import "sort"

// ComponentIDs partitions every node into connected components using only
// edges for which include returns true. Component ids are arbitrary
// integers; callers that need deterministic output should sort nodes by
// nodeSortKey within a component, as Components does.
func (g *Graph) ComponentIDs(include func(Edge) bool) map[Node]int {
	id := map[Node]int{}
	next := 0
	var visit func(start Node, cid int)
	visit = func(start Node, cid int) {
		stack := []Node{start}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, seen := id[n]; seen {
				continue
			}
			id[n] = cid
			for _, e := range g.adjacency[n] {
				if include(e) {
					if _, seen := id[e.Other]; !seen {
						stack = append(stack, e.Other)
					}
				}
			}
		}
	}
	for _, n := range g.Nodes() {
		if _, seen := id[n]; !seen {
			visit(n, next)
			next++
		}
	}
	return id
}

// Components returns connected components (restricted to edges for which
// include returns true) as sorted node lists, themselves sorted by their
// smallest member's sort key — deterministic regardless of build order.
func (g *Graph) Components(include func(Edge) bool) [][]Node {
	ids := g.ComponentIDs(include)
	byID := map[int][]Node{}
	for _, n := range g.Nodes() {
		byID[ids[n]] = append(byID[ids[n]], n)
	}
	out := make([][]Node, 0, len(byID))
	for _, nodes := range byID {
		out = append(out, nodes)
	}
	sort.Slice(out, func(i, j int) bool { return g.nodeSortKey(out[i][0]) < g.nodeSortKey(out[j][0]) })
	return out
}

// SameComponent reports whether a and b are connected using only edges
// for which include returns true.
func (g *Graph) SameComponent(a, b Node, include func(Edge) bool) bool {
	ids := g.ComponentIDs(include)
	ca, okA := ids[a]
	cb, okB := ids[b]
	return okA && okB && ca == cb
}

// BridgelessComponents partitions the subgraph restricted to edges for
// which include returns true into maximal 2-edge-connected (bridge-free)
// pieces: every bridge edge is treated as its own cut, and the nodes on
// either side end up in different pieces. Multi-edges between the same
// pair of nodes are never bridges. This is the "2-connected bridge-free
// subgraph component" extraction the adjacency inferer uses to shrink its
// search space (spec.md §4.3 step 1).
func (g *Graph) BridgelessComponents(include func(Edge) bool) [][]Node {
	bridges := g.findBridges(include)
	return g.Components(func(e Edge) bool {
		return include(e) && !bridges[e.ID]
	})
}

// findBridges runs classic low-link DFS (Tarjan) over the subgraph
// restricted to included edges, tracking the entering edge id (not just
// the parent node) so that parallel edges between the same two nodes are
// never mistaken for a single bridge.
func (g *Graph) findBridges(include func(Edge) bool) map[int]bool {
	disc := map[Node]int{}
	low := map[Node]int{}
	bridges := map[int]bool{}
	timer := 0

	type frame struct {
		node       Node
		parentEdge int
		idx        int
	}
	for _, root := range g.Nodes() {
		if _, seen := disc[root]; seen {
			continue
		}
		stack := []*frame{{node: root, parentEdge: -1}}
		disc[root] = timer
		low[root] = timer
		timer++
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			edges := g.adjacency[top.node]
			advanced := false
			for top.idx < len(edges) {
				e := edges[top.idx]
				top.idx++
				if !include(e) || e.ID == top.parentEdge {
					continue
				}
				if _, seen := disc[e.Other]; !seen {
					disc[e.Other] = timer
					low[e.Other] = timer
					timer++
					stack = append(stack, &frame{node: e.Other, parentEdge: e.ID})
					advanced = true
					break
				}
				if disc[e.Other] < low[top.node] {
					low[top.node] = disc[e.Other]
				}
			}
			if advanced {
				continue
			}
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				if low[top.node] < low[parent.node] {
					low[parent.node] = low[top.node]
				}
				if low[top.node] > disc[parent.node] {
					bridges[top.parentEdge] = true
				}
			}
		}
	}
	return bridges
}
