// Package bpgraph builds the breakpoint graph: a multigraph over signed
// block endpoints (plus one infinity node per contig/chromosome end)
// whose colored edges record observed adjacencies per genome.
//
// Grounded on the teacher's graph idiom (soniakeys-bio / soniakeys/graph):
// an arena of integer node ids with edges stored as adjacency lists,
// rather than owning pointer cycles — the same shape the teacher uses for
// PhyloList/PhyloRootedTree, applied here to a multigraph instead of a
// tree.
package bpgraph

import (
	"sort"

	"github.com/ragout-go/ragout/internal/permutation"
)

// Node is an opaque arena index. Its numeric value carries no meaning
// outside this package; all user-facing iteration must sort by a stable
// key (Describe, or the Endpoint/genome it denotes) to keep the pipeline
// deterministic regardless of node-creation order.
type Node int

// Edge is one colored adjacency. Other is the node at the far end; Gap
// may be negative (overlapping neighbors) and must be preserved as
// signed.
type Edge struct {
	ID         int // shared by both directions of the same undirected edge
	Other      Node
	Genome     string
	Seq        string
	Gap        int
	ToInfinity bool
	// IsBlock marks the single obligatory edge joining a block's own two
	// extremities (independent of any genome's copy of it). It carries no
	// color and is always traversable: every include predicate passed to
	// Components/SameComponent/BridgelessComponents should let it through,
	// via IncludeColors/ExcludeColors below, or path-tracing through a
	// genome's own blocks would be impossible.
	IsBlock bool
}

type infinityKey struct {
	Genome string
	Seq    string
	Head   bool
}

// Graph is a breakpoint graph built from one permutation.Container.
type Graph struct {
	endpointNode map[permutation.Endpoint]Node
	infinityNode map[infinityKey]Node
	nodeEndpoint map[Node]permutation.Endpoint
	nodeInfinity map[Node]infinityKey
	isInfinity   map[Node]bool
	adjacency    map[Node][]Edge
	next         Node
	nextEdgeID   int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		endpointNode: map[permutation.Endpoint]Node{},
		infinityNode: map[infinityKey]Node{},
		nodeEndpoint: map[Node]permutation.Endpoint{},
		nodeInfinity: map[Node]infinityKey{},
		isInfinity:   map[Node]bool{},
		adjacency:    map[Node][]Edge{},
	}
}

// Build constructs a breakpoint graph from a container: for every
// permutation, it emits a colored edge for each consecutive block pair
// and an infinity-node edge for each of the two contig/chromosome ends.
func Build(c *permutation.Container) *Graph {
	g := New()
	perms := sortedPerms(c.Perms)
	seenBlock := map[permutation.Block]bool{}
	for _, p := range perms {
		for _, s := range p.Blocks {
			b := s.Block()
			if seenBlock[b] {
				continue
			}
			seenBlock[b] = true
			g.connectBlock(permutation.Of(b, 1))
		}
	}
	for _, p := range perms {
		if len(p.Blocks) == 0 {
			continue
		}
		headEnd := g.infinityFor(p, true)
		firstTail := g.endpointFor(permutation.Tail(p.Blocks[0]))
		g.connect(headEnd, firstTail, p.Genome, p.Seq, 0, true)

		for i := 0; i+1 < len(p.Blocks); i++ {
			x, y := p.Blocks[i], p.Blocks[i+1]
			from := g.endpointFor(permutation.Head(x))
			to := g.endpointFor(permutation.Tail(y))
			gap := gapBetween(c, x, y, p.Genome)
			g.connect(from, to, p.Genome, p.Seq, gap, false)
		}

		lastHead := g.endpointFor(permutation.Head(p.Blocks[len(p.Blocks)-1]))
		tailEnd := g.infinityFor(p, false)
		g.connect(lastHead, tailEnd, p.Genome, p.Seq, 0, true)
	}
	return g
}

func sortedPerms(perms []*permutation.Permutation) []*permutation.Permutation {
	out := append([]*permutation.Permutation(nil), perms...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Genome != out[j].Genome {
			return out[i].Genome < out[j].Genome
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// gapBetween estimates the bp gap between the end of block x and the
// start of block y on genome, from the coordinate table; it is 0 when
// coordinates are unavailable for either block.
func gapBetween(c *permutation.Container, x, y permutation.Signed, genome string) int {
	cx, okX := c.Coords[x.Block()][genome]
	cy, okY := c.Coords[y.Block()][genome]
	if !okX || !okY {
		return 0
	}
	if x.Strand() > 0 {
		return cy.Start - cx.End
	}
	return cx.Start - cy.End
}

func (g *Graph) endpointFor(e permutation.Endpoint) Node {
	if n, ok := g.endpointNode[e]; ok {
		return n
	}
	n := g.next
	g.next++
	g.endpointNode[e] = n
	g.nodeEndpoint[n] = e
	return n
}

func (g *Graph) infinityFor(p *permutation.Permutation, head bool) Node {
	key := infinityKey{Genome: p.Genome, Seq: p.Seq, Head: head}
	if n, ok := g.infinityNode[key]; ok {
		return n
	}
	n := g.next
	g.next++
	g.infinityNode[key] = n
	g.nodeInfinity[n] = key
	g.isInfinity[n] = true
	return n
}

func (g *Graph) connect(a, b Node, genome, seq string, gap int, toInfinity bool) {
	id := g.nextEdgeID
	g.nextEdgeID++
	g.adjacency[a] = append(g.adjacency[a], Edge{ID: id, Other: b, Genome: genome, Seq: seq, Gap: gap, ToInfinity: toInfinity || g.isInfinity[b]})
	g.adjacency[b] = append(g.adjacency[b], Edge{ID: id, Other: a, Genome: genome, Seq: seq, Gap: gap, ToInfinity: toInfinity || g.isInfinity[a]})
}

// ConnectGuide adds a synthetic colored edge between two nodes that Build
// already created, for evidence that did not come from a permutation's own
// block sequence (the refine stage's scaffold-guide genome). seq is carried
// through only for Endpoint/debug display; it need not name a real sequence.
func (g *Graph) ConnectGuide(a, b Node, genome, seq string, gap int) {
	g.connect(a, b, genome, seq, gap, false)
}

// connectBlock adds the obligatory, colorless edge joining block b's own
// two extremities — the block itself, as opposed to an inter-block
// adjacency.
func (g *Graph) connectBlock(b permutation.Signed) {
	tail := g.endpointFor(permutation.Tail(b))
	head := g.endpointFor(permutation.Head(b))
	id := g.nextEdgeID
	g.nextEdgeID++
	g.adjacency[tail] = append(g.adjacency[tail], Edge{ID: id, Other: head, IsBlock: true})
	g.adjacency[head] = append(g.adjacency[head], Edge{ID: id, Other: tail, IsBlock: true})
}

// IncludeColors returns an include predicate selecting edges colored by
// any genome in genomes, plus every block edge.
func IncludeColors(genomes map[string]bool) func(Edge) bool {
	return func(e Edge) bool { return e.IsBlock || genomes[e.Genome] }
}

// ExcludeColors returns an include predicate selecting edges colored by
// any genome NOT in genomes, plus every block edge.
func ExcludeColors(genomes map[string]bool) func(Edge) bool {
	return func(e Edge) bool { return e.IsBlock || !genomes[e.Genome] }
}

// IsInfinity reports whether n is a chromosome/contig-end sentinel.
func (g *Graph) IsInfinity(n Node) bool { return g.isInfinity[n] }

// Endpoint returns the block endpoint n denotes; ok is false for
// infinity nodes.
func (g *Graph) Endpoint(n Node) (permutation.Endpoint, bool) {
	e, ok := g.nodeEndpoint[n]
	return e, ok
}

// NodeFor returns the node id that was built for endpoint e, if Build
// ever created one (i.e. some permutation in the container carried the
// corresponding block).
func (g *Graph) NodeFor(e permutation.Endpoint) (Node, bool) {
	n, ok := g.endpointNode[e]
	return n, ok
}

// Neighbors returns the edges incident to n colored genome, in
// deterministic order (by partner node's sort key, see nodeSortKey).
func (g *Graph) Neighbors(n Node, genome string) []Edge {
	var out []Edge
	for _, e := range g.adjacency[n] {
		if e.Genome == genome {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return g.nodeSortKey(out[i].Other) < g.nodeSortKey(out[j].Other) })
	return out
}

// AllNeighbors returns every edge incident to n, across all colors, in
// deterministic order.
func (g *Graph) AllNeighbors(n Node) []Edge {
	out := append([]Edge(nil), g.adjacency[n]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Genome != out[j].Genome {
			return out[i].Genome < out[j].Genome
		}
		return g.nodeSortKey(out[i].Other) < g.nodeSortKey(out[j].Other)
	})
	return out
}

// Nodes returns every node id in deterministic order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, g.next)
	for n := Node(0); n < g.next; n++ {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return g.nodeSortKey(out[i]) < g.nodeSortKey(out[j]) })
	return out
}

// ChromosomeEnds returns the set of infinity nodes, in deterministic
// order.
func (g *Graph) ChromosomeEnds() []Node {
	var out []Node
	for n := range g.nodeInfinity {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return g.nodeSortKey(out[i]) < g.nodeSortKey(out[j]) })
	return out
}

// EdgeCount returns the number of colored-edge endpoints that land on
// block-endpoint nodes: two for every edge between blocks and one for
// every infinity edge, i.e. 2·Σ(len(perm)−1) + 2·(number of permutations)
// for a graph fresh from Build. The obligatory block edges, and the
// infinity-node side of each infinity edge, are not counted.
func (g *Graph) EdgeCount() int {
	total := 0
	for n, edges := range g.adjacency {
		if g.isInfinity[n] {
			continue
		}
		for _, e := range edges {
			if !e.IsBlock {
				total++
			}
		}
	}
	return total
}

// DescribeKey exposes the stable content-derived sort key for n, for
// callers outside this package that need to break ties deterministically
// (e.g. the adjacency inferer's tie-break rules).
func (g *Graph) DescribeKey(n Node) string { return g.nodeSortKey(n) }

// nodeSortKey produces a stable, content-derived ordering key so that
// output never depends on the order nodes were first created in.
func (g *Graph) nodeSortKey(n Node) string {
	if e, ok := g.nodeEndpoint[n]; ok {
		return "e" + endpointKey(e)
	}
	k := g.nodeInfinity[n]
	head := "0"
	if k.Head {
		head = "1"
	}
	return "i" + k.Genome + "\x00" + k.Seq + "\x00" + head
}

func endpointKey(e permutation.Endpoint) string {
	// Zero-padded-ish lexical key: sign then magnitude, wide enough for
	// any realistic block id count.
	sign := byte('+')
	v := int(e)
	if v < 0 {
		sign = '-'
		v = -v
	}
	b := make([]byte, 0, 12)
	b = append(b, sign)
	return string(appendPadded(b, v))
}

func appendPadded(b []byte, v int) []byte {
	const width = 10
	s := itoa(v)
	for len(s) < width {
		s = "0" + s
	}
	return append(b, s...)
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
