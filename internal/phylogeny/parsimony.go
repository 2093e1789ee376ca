package phylogeny

import "math"

// State is a half-breakpoint state: typically the identity of the
// block-endpoint a leaf genome is currently connected to. Unassigned
// marks a leaf with no defined adjacency at this node (e.g. a reference
// genome with no edge of its color here) — it should constrain nothing.
type State int

// Unassigned is the reserved null state.
const Unassigned State = -1

// branchEpsilon is the minimum branch length used in the decay term, so
// a zero-length branch never causes a divide-by-zero-adjacent blowup.
const branchEpsilon = 1e-7

// branchCost is the Sankoff branch-cost function: zero for an unchanged
// or unconstrained state, otherwise a cost that decays toward 1 as the
// branch lengthens. The "1 +" term prevents a near-zero cost transition
// on extremely long branches.
func branchCost(mu float64, parent, child State, length float64) float64 {
	if parent == child || child == Unassigned {
		return 0
	}
	l := length
	if l < branchEpsilon {
		l = branchEpsilon
	}
	return 1 + math.Exp(-mu*l)
}

// Parsimony computes the minimum total cost over all extensions of
// leafStates to the tree's internal nodes, via the Sankoff recurrence.
// leafStates need not cover every leaf; leaves absent from the map, or
// present with Unassigned, place no constraint (equivalent to the
// "branch cost 0 if child is unassigned" rule, applied at the leaf).
// A leaf that also has children (the root of a NeighborJoin tree, which
// is rooted at a leaf) adds its own leaf cost to its children's.
//
// Side-effect-free and safe to call concurrently on the same *Tree: it
// only reads Tree fields and allocates its own scratch space, including
// its traversal order (the reverse of an iterative pre-order, so every
// child precedes its parent).
func (t *Tree) Parsimony(leafStates map[NodeID]State) float64 {
	states := distinctStates(leafStates)
	if len(states) == 0 {
		return 0
	}
	var order []NodeID
	for stack := []NodeID{t.Root}; len(stack) > 0; {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, n)
		stack = append(stack, t.Children[n]...)
	}
	cost := make([]map[State]float64, len(t.Parent))
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		var own map[State]float64
		if t.Leaf[n] {
			observed, ok := leafStates[n]
			if !ok {
				observed = Unassigned
			}
			own = leafCost(states, observed)
			if len(t.Children[n]) == 0 {
				cost[n] = own
				continue
			}
		}
		m := make(map[State]float64, len(states))
		for _, p := range states {
			total := own[p]
			for _, ch := range t.Children[n] {
				best := math.Inf(1)
				chCost := cost[ch]
				for _, c := range states {
					v := chCost[c] + branchCost(t.Mu, p, c, t.Branch[ch])
					if v < best {
						best = v
					}
				}
				total += best
			}
			m[p] = total
		}
		cost[n] = m
	}
	best := math.Inf(1)
	for _, v := range cost[t.Root] {
		if v < best {
			best = v
		}
	}
	return best
}

func leafCost(states []State, observed State) map[State]float64 {
	m := make(map[State]float64, len(states))
	if observed == Unassigned {
		for _, s := range states {
			m[s] = 0
		}
		return m
	}
	for _, s := range states {
		if s == observed {
			m[s] = 0
		} else {
			m[s] = math.Inf(1)
		}
	}
	return m
}

func distinctStates(leafStates map[NodeID]State) []State {
	seen := map[State]bool{}
	for _, s := range leafStates {
		if s != Unassigned {
			seen[s] = true
		}
	}
	out := make([]State, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	// Deterministic order (spec: "iteration over unordered collections
	// must be sorted"); state identity is opaque but comparable so a
	// numeric sort is sufficient and stable given its meaning here.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
