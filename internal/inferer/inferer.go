// Package inferer selects the target genome's missing adjacencies in a
// breakpoint graph by minimizing phylogenetic parsimony cost, following
// the algorithm-level design: extract bridge-free components, solve a
// perfect matching over each component's unmatched target ends (exact
// branch-and-bound when small, greedy otherwise), and record the winning
// edges.
package inferer

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ragout-go/ragout/internal/bpgraph"
	"github.com/ragout-go/ragout/internal/permutation"
	"github.com/ragout-go/ragout/internal/phylogeny"
)

// greedyThreshold is the component-size cutoff above which exact
// branch-and-bound gives way to the greedy heuristic (spec: "> 8
// unmatched nodes").
const greedyThreshold = 8

// Adjacency is one inferred target-colored edge between two contig ends.
type Adjacency struct {
	A, B bpgraph.Node
	Gap  int
}

// Result is the outcome of inference over one breakpoint graph.
type Result struct {
	Adjacencies []Adjacency
	// Orphans are unmatched ends left over by odd-sized components;
	// they end their containing scaffold rather than continue it.
	Orphans []bpgraph.Node
}

// refGenomeLeaf resolves a reference genome name to its tree leaf id.
type refGenomeLeaf func(genome string) (phylogeny.NodeID, bool)

// InferAll partitions g into bridge-free components (restricted to
// reference + infinity edges) and runs matching on each independently,
// in parallel: this is one of the two fork-join points (the other is
// per-stage graph construction in internal/pipeline), safe since every
// component reads only the immutable graph and tree.
func InferAll(g *bpgraph.Graph, c *permutation.Container, tree *phylogeny.Tree) (Result, error) {
	leafOf := func(genome string) (phylogeny.NodeID, bool) { return tree.LeafID(genome) }

	unmatched := unmatchedEnds(g, c)
	unmatchedSet := map[bpgraph.Node]bool{}
	for _, n := range unmatched {
		unmatchedSet[n] = true
	}

	components := g.BridgelessComponents(bpgraph.ExcludeColors(c.Targets))

	type componentResult struct {
		adjacencies []Adjacency
		orphans     []bpgraph.Node
	}
	results := make([]componentResult, len(components))

	var eg errgroup.Group
	for idx, comp := range components {
		idx, comp := idx, comp
		eg.Go(func() error {
			var nodes []bpgraph.Node
			for _, n := range comp {
				if unmatchedSet[n] {
					nodes = append(nodes, n)
				}
			}
			if len(nodes) == 0 {
				return nil
			}
			adj, orphan := matchComponent(g, c, tree, leafOf, nodes)
			results[idx] = componentResult{adjacencies: adj, orphans: orphan}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	var out Result
	for _, r := range results {
		out.Adjacencies = append(out.Adjacencies, r.adjacencies...)
		out.Orphans = append(out.Orphans, r.orphans...)
	}
	sortAdjacencies(g, out.Adjacencies)
	sortNodes(g, out.Orphans)
	return out, nil
}

// unmatchedEnds returns every target contig end: the tail of the first
// block and the head of the last block of each target permutation. These
// currently reach only an infinity node and are the candidates the
// inferer may reconnect to each other.
func unmatchedEnds(g *bpgraph.Graph, c *permutation.Container) []bpgraph.Node {
	var out []bpgraph.Node
	for _, p := range c.TargetPerms() {
		if len(p.Blocks) == 0 {
			continue
		}
		if n, ok := g.NodeFor(p.HeadEnd()); ok {
			out = append(out, n)
		}
		if n, ok := g.NodeFor(p.TailEnd()); ok {
			out = append(out, n)
		}
	}
	return out
}

// matchComponent solves a (near-)perfect matching over nodes, all of
// which belong to the same bridge-free component.
func matchComponent(g *bpgraph.Graph, c *permutation.Container, tree *phylogeny.Tree, leafOf refGenomeLeaf, nodes []bpgraph.Node) ([]Adjacency, []bpgraph.Node) {
	sortNodes(g, nodes)

	var orphan bpgraph.Node
	hasOrphan := false
	if len(nodes)%2 == 1 {
		orphan, nodes = pickOrphan(g, c, tree, leafOf, nodes)
		hasOrphan = true
	}

	cost := pairCost(g, c, tree, leafOf, nodes)

	var pairs [][2]int
	if len(nodes) <= greedyThreshold {
		pairs = exactMatch(nodes, cost)
	} else {
		pairs = greedyMatch(g, nodes, cost)
		pairs = localSwapImprove(pairs, cost)
	}

	adjacencies := make([]Adjacency, 0, len(pairs))
	for _, p := range pairs {
		a, b := nodes[p[0]], nodes[p[1]]
		adjacencies = append(adjacencies, Adjacency{A: a, B: b, Gap: medianGap(g, c, a, b)})
	}
	var orphans []bpgraph.Node
	if hasOrphan {
		orphans = append(orphans, orphan)
	}
	return adjacencies, orphans
}

// pickOrphan removes, and returns, the node whose best available pairing
// is the most expensive — i.e. the one least supported by any partner —
// leaving an even-sized set for perfect matching.
func pickOrphan(g *bpgraph.Graph, c *permutation.Container, tree *phylogeny.Tree, leafOf refGenomeLeaf, nodes []bpgraph.Node) (bpgraph.Node, []bpgraph.Node) {
	worstIdx := 0
	worstBest := -1.0
	for i, n := range nodes {
		best := -1.0
		for j, m := range nodes {
			if i == j {
				continue
			}
			v := pairScore(g, c, tree, leafOf, n, m)
			if best < 0 || v < best {
				best = v
			}
		}
		if best > worstBest {
			worstBest = best
			worstIdx = i
		}
	}
	removed := nodes[worstIdx]
	rest := make([]bpgraph.Node, 0, len(nodes)-1)
	rest = append(rest, nodes[:worstIdx]...)
	rest = append(rest, nodes[worstIdx+1:]...)
	return removed, rest
}

func pairCost(g *bpgraph.Graph, c *permutation.Container, tree *phylogeny.Tree, leafOf refGenomeLeaf, nodes []bpgraph.Node) [][]float64 {
	n := len(nodes)
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			if i == j {
				continue
			}
			cost[i][j] = pairScore(g, c, tree, leafOf, nodes[i], nodes[j])
		}
	}
	return cost
}

// pairScore is the Sankoff cost of hypothesizing that u connects to v:
// for every reference genome, the leaf state is whatever node u's
// same-colored edge currently leads to (Unassigned if u carries no edge
// of that color here); the target leaf is fixed to v's identity.
func pairScore(g *bpgraph.Graph, c *permutation.Container, tree *phylogeny.Tree, leafOf refGenomeLeaf, u, v bpgraph.Node) float64 {
	states := map[phylogeny.NodeID]phylogeny.State{}
	for genome := range c.References {
		leaf, ok := leafOf(genome)
		if !ok {
			continue
		}
		state := phylogeny.Unassigned
		if edges := g.Neighbors(u, genome); len(edges) > 0 {
			state = phylogeny.State(edges[0].Other)
		}
		states[leaf] = state
	}
	for genome := range c.Targets {
		if leaf, ok := leafOf(genome); ok {
			states[leaf] = phylogeny.State(v)
		}
	}
	return tree.Parsimony(states)
}

// exactMatch finds the minimum-cost perfect matching over len(nodes)
// (even) items by branch-and-bound recursion: always pair the first
// remaining item with each candidate partner, pruning any partial sum
// that already exceeds the best known total.
func exactMatch(nodes []bpgraph.Node, cost [][]float64) [][2]int {
	n := len(nodes)
	used := make([]bool, n)
	var best [][2]int
	bestCost := -1.0

	var rec func(remaining int, acc float64, pairs [][2]int)
	rec = func(remaining int, acc float64, pairs [][2]int) {
		if bestCost >= 0 && acc >= bestCost {
			return
		}
		if remaining == 0 {
			bestCost = acc
			best = append([][2]int(nil), pairs...)
			return
		}
		first := -1
		for i := 0; i < n; i++ {
			if !used[i] {
				first = i
				break
			}
		}
		for j := 0; j < n; j++ {
			if j == first || used[j] {
				continue
			}
			used[first], used[j] = true, true
			rec(remaining-2, acc+cost[first][j], append(pairs, [2]int{first, j}))
			used[first], used[j] = false, false
		}
	}
	rec(n, 0, nil)
	return best
}

// greedyMatch repeatedly picks the unmatched node with the fewest
// remaining candidate partners (here, all other unmatched nodes in the
// component tie on count, so ties fall to the smallest sort key for
// determinism) and assigns it its cheapest partner.
func greedyMatch(g *bpgraph.Graph, nodes []bpgraph.Node, cost [][]float64) [][2]int {
	n := len(nodes)
	used := make([]bool, n)
	var pairs [][2]int
	for {
		first := -1
		for i := 0; i < n; i++ {
			if !used[i] {
				first = i
				break
			}
		}
		if first == -1 {
			break
		}
		bestJ := -1
		bestCost := 0.0
		bestKey := ""
		for j := 0; j < n; j++ {
			if j == first || used[j] {
				continue
			}
			if bestJ == -1 || cost[first][j] < bestCost ||
				(cost[first][j] == bestCost && g.DescribeKey(nodes[j]) < bestKey) {
				bestJ, bestCost, bestKey = j, cost[first][j], g.DescribeKey(nodes[j])
			}
		}
		used[first] = true
		if bestJ == -1 {
			break
		}
		used[bestJ] = true
		pairs = append(pairs, [2]int{first, bestJ})
	}
	return pairs
}

// localSwapImprove runs a bounded 2-opt pass over a greedy matching: for
// every pair of pairs (a0,a1),(b0,b1), try recombining their four
// endpoints as (a0,b1),(b0,a1) and keep that recombination when it lowers
// the total cost; the (a0,b0),(a1,b1) recombination is not tried. Repeats until a
// full pass finds no improving swap, generalizing the teacher's unrooted
// maximum-parsimony edge-swap search (utree.go's SwapEdges/
// MaxParsimonyUnrooted, which tries alternative tree-edge configurations
// and keeps the minimum-cost one) from tree topology to a matching.
func localSwapImprove(pairs [][2]int, cost [][]float64) [][2]int {
	improved := true
	for improved {
		improved = false
		for i := 0; i < len(pairs); i++ {
			for j := i + 1; j < len(pairs); j++ {
				a, b := pairs[i], pairs[j]
				current := cost[a[0]][a[1]] + cost[b[0]][b[1]]
				swapped := cost[a[0]][b[1]] + cost[b[0]][a[1]]
				if swapped < current {
					pairs[i] = [2]int{a[0], b[1]}
					pairs[j] = [2]int{b[0], a[1]}
					improved = true
				}
			}
		}
	}
	return pairs
}

func medianGap(g *bpgraph.Graph, c *permutation.Container, a, b bpgraph.Node) int {
	ea, okA := g.Endpoint(a)
	eb, okB := g.Endpoint(b)
	if !okA || !okB {
		return 0
	}
	var gaps []int
	for genome := range c.References {
		ca, okA := lookupCoord(c, ea.Block(), genome)
		cb, okB := lookupCoord(c, eb.Block(), genome)
		if !okA || !okB {
			continue
		}
		gaps = append(gaps, cb.Start-ca.End)
	}
	if len(gaps) == 0 {
		return 0
	}
	sort.Ints(gaps)
	return gaps[(len(gaps)-1)/2]
}

func lookupCoord(c *permutation.Container, b permutation.Block, genome string) (permutation.Coord, bool) {
	m, ok := c.Coords[b]
	if !ok {
		return permutation.Coord{}, false
	}
	coord, ok := m[genome]
	return coord, ok
}

func sortAdjacencies(g *bpgraph.Graph, adj []Adjacency) {
	sort.Slice(adj, func(i, j int) bool {
		ki := g.DescribeKey(adj[i].A) + g.DescribeKey(adj[i].B)
		kj := g.DescribeKey(adj[j].A) + g.DescribeKey(adj[j].B)
		return ki < kj
	})
}

func sortNodes(g *bpgraph.Graph, nodes []bpgraph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return g.DescribeKey(nodes[i]) < g.DescribeKey(nodes[j]) })
}
