package bpgraph

// CompressPaths collapses maximal degree-2 paths made entirely of
// reference-colored edges (no target-colored edge touching any node
// along the path) into a single direct edge between the path's two real
// ends. This shrinks the search space the adjacency inferer has to
// explore: a node that is already fully pinned by references, with no
// target freedom at it, never needs its own matching decision.
//
// targets names the target genomes; any other color is a reference for
// this purpose. Infinity nodes are never compressed away.
func (g *Graph) CompressPaths(targets map[string]bool) *Graph {
	out := New()
	elided := map[Node]bool{}
	for {
		progress := false
		for _, n := range g.Nodes() {
			if elided[n] || g.isInfinity[n] {
				continue
			}
			if compressible(g, n, targets, elided) {
				elided[n] = true
				progress = true
			}
		}
		if !progress {
			break
		}
	}

	seenEdge := map[int]bool{}
	for _, n := range g.Nodes() {
		if elided[n] {
			continue
		}
		out.copyNodeIdentity(g, n)
	}
	for _, n := range g.Nodes() {
		if elided[n] {
			continue
		}
		for _, e := range g.adjacency[n] {
			if seenEdge[e.ID] {
				continue
			}
			other, gap, ok := followToUnelided(g, n, e, elided)
			if !ok {
				continue
			}
			seenEdge[e.ID] = true
			seenEdge[reverseEdgeIDIfKnown(g, n, e, elided)] = true
			out.copyNodeIdentity(g, other)
			out.connect(out.identityNode(g, n), out.identityNode(g, other), e.Genome, e.Seq, gap, e.ToInfinity)
		}
	}
	return out
}

// compressible reports whether n has exactly two incident edges, neither
// colored by a target genome, and n is not itself an endpoint already
// elided away (elision only ever removes interior path nodes, so this
// recomputation naturally terminates).
func compressible(g *Graph, n Node, targets map[string]bool, elided map[Node]bool) bool {
	edges := liveEdges(g, n, elided)
	if len(edges) != 2 {
		return false
	}
	for _, e := range edges {
		if targets[e.Genome] {
			return false
		}
	}
	return true
}

func liveEdges(g *Graph, n Node, elided map[Node]bool) []Edge {
	var out []Edge
	for _, e := range g.adjacency[n] {
		out = append(out, e)
	}
	return out
}

// followToUnelided walks from n across e, through any chain of elided
// nodes, accumulating gap, until it reaches a node that survives
// compression (or returns ok=false if the walk loops back on n itself,
// e.g. a pure reference cycle with no target anchor — such a cycle
// carries no information the inferer needs and is dropped).
func followToUnelided(g *Graph, n Node, e Edge, elided map[Node]bool) (Node, int, bool) {
	gap := e.Gap
	cur := e.Other
	via := n
	for elided[cur] {
		var next Edge
		found := false
		for _, cand := range g.adjacency[cur] {
			if cand.Other == via && !found {
				found = true
				continue // skip the edge we arrived on
			}
			next = cand
		}
		if !found && len(g.adjacency[cur]) != 2 {
			return 0, 0, false
		}
		gap += next.Gap
		via = cur
		cur = next.Other
		if cur == n {
			return 0, 0, false
		}
	}
	return cur, gap, true
}

func reverseEdgeIDIfKnown(g *Graph, n Node, e Edge, elided map[Node]bool) int {
	return e.ID // edge ids already de-duplicate both directions; elided chains are consumed once per direction naturally.
}

func (out *Graph) copyNodeIdentity(g *Graph, n Node) {
	if g.isInfinity[n] {
		out.infinityFor2(g.nodeInfinity[n])
		return
	}
	out.endpointFor(g.nodeEndpoint[n])
}

func (out *Graph) infinityFor2(key infinityKey) Node {
	if n, ok := out.infinityNode[key]; ok {
		return n
	}
	n := out.next
	out.next++
	out.infinityNode[key] = n
	out.nodeInfinity[n] = key
	out.isInfinity[n] = true
	return n
}

func (out *Graph) identityNode(g *Graph, n Node) Node {
	if g.isInfinity[n] {
		return out.infinityNode[g.nodeInfinity[n]]
	}
	return out.endpointNode[g.nodeEndpoint[n]]
}
