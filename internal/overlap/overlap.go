// Package overlap implements the optional external overlap post-pass
// (spec.md §4.8): given a DOT graph of contig-orientation overlaps emitted
// by an external tool, find a simple path between two scaffold-adjacent
// contigs whose summed overlap length is consistent with the estimated
// gap, within a tolerance, and report it for splicing into that gap.
//
// Parsing and path search are both gonum's: dot.Unmarshal builds the
// graph, graph/path.YenKShortestPaths enumerates loopless (simple)
// candidate paths in increasing length order, cheapest first.
package overlap

import (
	"strconv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/ragout-go/ragout/internal/ragouterr"
	"github.com/ragout-go/ragout/internal/scaffold"
)

// candidateK bounds how many shortest simple paths are considered between
// two nodes before giving up on finding one within tolerance.
const candidateK = 5

// node is one contig-orientation in the overlap graph.
type node struct {
	id   int64
	name string
}

func (n *node) ID() int64          { return n.id }
func (n *node) DOTID() string      { return n.name }
func (n *node) SetDOTID(id string) { n.name = id }

// edge is one overlap, carrying the length the external tool labeled it
// with (attribute key "length", "len", or "label", whichever it used).
type edge struct {
	from, to graph.Node
	length   float64
}

func (e *edge) From() graph.Node         { return e.from }
func (e *edge) To() graph.Node           { return e.to }
func (e *edge) ReversedEdge() graph.Edge { return &edge{from: e.to, to: e.from, length: e.length} }

func (e *edge) SetAttribute(attr encoding.Attribute) error {
	switch attr.Key {
	case "length", "len", "label":
	default:
		return nil
	}
	if v, err := strconv.ParseFloat(attr.Value, 64); err == nil {
		e.length = v
	}
	return nil
}

// builder lets dot.Unmarshal construct directly into a *simple.DirectedGraph
// of *node/*edge values.
type builder struct {
	*simple.DirectedGraph
	nextID int64
}

func newBuilder() *builder {
	return &builder{DirectedGraph: simple.NewDirectedGraph()}
}

func (b *builder) NewNode() graph.Node {
	n := &node{id: b.nextID}
	b.nextID++
	return n
}

func (b *builder) NewEdge(from, to graph.Node) graph.Edge {
	return &edge{from: from, to: to}
}

// Graph is a parsed overlap graph, queryable by contig-orientation name.
type Graph struct {
	g      *simple.DirectedGraph
	byName map[string]int64
}

// Parse decodes a DOT overlap graph.
func Parse(data []byte) (*Graph, error) {
	b := newBuilder()
	if err := dot.Unmarshal(data, b); err != nil {
		return nil, &ragouterr.BackendError{Msg: "unparseable overlap DOT graph: " + err.Error()}
	}
	byName := map[string]int64{}
	nodes := b.Nodes()
	for nodes.Next() {
		n := nodes.Node().(*node)
		byName[n.name] = n.id
	}
	return &Graph{g: b.DirectedGraph, byName: byName}, nil
}

// SplicePath reports the contig-orientation path between from and to whose
// summed overlap length is within tolerance of estimatedGap, if one
// exists among the candidateK shortest simple paths.
func (gr *Graph) SplicePath(from, to string, estimatedGap, tolerance int) (names []string, ok bool) {
	fromID, okF := gr.byName[from]
	toID, okT := gr.byName[to]
	if !okF || !okT {
		return nil, false
	}
	paths := path.YenKShortestPaths(gr.g, candidateK, simple.Node(fromID), simple.Node(toID))
	for _, p := range paths {
		length, lenOK := gr.pathLength(p)
		if !lenOK {
			continue
		}
		if absInt(length-estimatedGap) <= tolerance {
			return namesOf(p), true
		}
	}
	return nil, false
}

func (gr *Graph) pathLength(p []graph.Node) (int, bool) {
	total := 0.0
	for i := 0; i+1 < len(p); i++ {
		e := gr.g.Edge(p[i].ID(), p[i+1].ID())
		oe, ok := e.(*edge)
		if !ok {
			return 0, false
		}
		total += oe.length
	}
	return int(total), true
}

func namesOf(p []graph.Node) []string {
	out := make([]string, len(p))
	for i, n := range p {
		out[i] = n.(*node).name
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// orientedName derives the contig-orientation node name the external
// overlap tool is expected to use, per spec.md §6: "nodes =
// contig-orientations".
func orientedName(genome, seq string, strand int) string {
	sign := "+"
	if strand < 0 {
		sign = "-"
	}
	return genome + "." + seq + sign
}

// GapSplice names one scaffold gap an overlap path was found consistent
// with.
type GapSplice struct {
	ScaffoldIndex int
	AfterPiece    int // index of the piece immediately before the gap
	Path          []string
}

// Apply finds every scaffold gap with a consistent overlap path in gr and
// reports the splices found, without mutating scaffolds.
func Apply(scaffolds []scaffold.Scaffold, gr *Graph, tolerance int) []GapSplice {
	var out []GapSplice
	for si, s := range scaffolds {
		for i := 0; i+1 < len(s.Pieces); i++ {
			a, b := s.Pieces[i], s.Pieces[i+1]
			from := orientedName(a.Genome, a.Seq, a.Strand)
			to := orientedName(b.Genome, b.Seq, b.Strand)
			if p, ok := gr.SplicePath(from, to, b.GapBefore, tolerance); ok {
				out = append(out, GapSplice{ScaffoldIndex: si, AfterPiece: i, Path: p})
			}
		}
	}
	return out
}
