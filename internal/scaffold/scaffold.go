// Package scaffold builds target scaffolds from inferred adjacencies: it
// walks the near-perfect matching of contig ends into maximal paths (or
// cycles, for circular chromosomes) and estimates the gap at each join.
package scaffold

import (
	"sort"

	"github.com/ragout-go/ragout/internal/bpgraph"
	"github.com/ragout-go/ragout/internal/inferer"
	"github.com/ragout-go/ragout/internal/permutation"
)

// Piece is one contig placed within a scaffold.
type Piece struct {
	Genome    string
	Seq       string
	Strand    int // +1 keeps the contig's original orientation, -1 reverses it
	GapBefore int // estimated gap to the previous piece; 0 for the first
}

// Scaffold is an ordered, signed path of contigs.
type Scaffold struct {
	Name     string
	Pieces   []Piece
	Circular bool
}

type endInfo struct {
	perm   *permutation.Permutation
	isHead bool // true if this node is HeadEnd(), false if TailEnd()
}

// Build walks inferred adjacencies plus each target contig's own two ends
// (the "internal" link every contig contributes, analogous to a block's
// own two extremities) into maximal paths, forming one scaffold per
// connected chain. A node with no inferred partner is a scaffold end; a
// component with no such node at all is circular.
func Build(g *bpgraph.Graph, c *permutation.Container, adjacencies []inferer.Adjacency) []Scaffold {
	internal := map[bpgraph.Node]bpgraph.Node{}
	info := map[bpgraph.Node]endInfo{}
	for _, p := range c.TargetPerms() {
		if len(p.Blocks) == 0 {
			continue
		}
		head, okH := g.NodeFor(p.HeadEnd())
		tail, okT := g.NodeFor(p.TailEnd())
		if !okH || !okT {
			continue
		}
		internal[head] = tail
		internal[tail] = head
		info[head] = endInfo{perm: p, isHead: true}
		info[tail] = endInfo{perm: p, isHead: false}
	}

	external := map[bpgraph.Node]bpgraph.Node{}
	gap := map[bpgraph.Node]int{}
	for _, a := range adjacencies {
		external[a.A] = a.B
		external[a.B] = a.A
		gap[a.A] = a.Gap
		gap[a.B] = a.Gap
	}

	var allEnds []bpgraph.Node
	for n := range internal {
		allEnds = append(allEnds, n)
	}
	sort.Slice(allEnds, func(i, j int) bool { return g.DescribeKey(allEnds[i]) < g.DescribeKey(allEnds[j]) })

	visited := map[bpgraph.Node]bool{}
	var scaffolds []Scaffold

	for _, n := range allEnds {
		if visited[n] || hasExternal(external, n) {
			continue
		}
		scaffolds = append(scaffolds, walk(n, internal, external, gap, info, visited, false))
	}
	for _, n := range allEnds {
		if visited[n] {
			continue
		}
		scaffolds = append(scaffolds, walk(n, internal, external, gap, info, visited, true))
	}
	return scaffolds
}

func hasExternal(external map[bpgraph.Node]bpgraph.Node, n bpgraph.Node) bool {
	_, ok := external[n]
	return ok
}

// walk traces one scaffold starting at end node start. circular selects
// the cycle-closing stop condition (return to start) instead of the
// free-end stop condition (no external partner).
func walk(start bpgraph.Node, internal, external map[bpgraph.Node]bpgraph.Node, gap map[bpgraph.Node]int, info map[bpgraph.Node]endInfo, visited map[bpgraph.Node]bool, circular bool) Scaffold {
	s := Scaffold{Circular: circular}
	current := start
	gapBefore := 0
	first := true
	for {
		visited[current] = true
		other := internal[current]
		visited[other] = true
		e := info[current]
		strand := 1
		if !e.isHead {
			strand = -1
		}
		s.Pieces = append(s.Pieces, Piece{
			Genome:    e.perm.Genome,
			Seq:       e.perm.Seq,
			Strand:    strand,
			GapBefore: boolToGap(first, gapBefore),
		})
		first = false

		next, ok := external[other]
		if !ok {
			break
		}
		if circular && next == start {
			break
		}
		gapBefore = gap[other]
		current = next
		if visited[current] && !circular {
			break
		}
	}
	return s
}

func boolToGap(first bool, g int) int {
	if first {
		return 0
	}
	return g
}

// AssignNames names each scaffold after the reference genome/sequence its
// blocks most often map to in the coordinate table, breaking ties
// alphabetically; scaffolds with no reference coordinate at all fall back
// to a positional "scaffold_N" name. This mirrors assigning scaffold
// names from the dominant reference chromosome in the original pipeline.
func AssignNames(scaffolds []Scaffold, c *permutation.Container) {
	for i, s := range scaffolds {
		tally := map[string]int{}
		for _, piece := range s.Pieces {
			perm := findPerm(c, piece.Genome, piece.Seq)
			if perm == nil {
				continue
			}
			for _, b := range perm.Blocks {
				for _, genome := range permutation.SortedGenomes(c.References) {
					if coord, ok := c.Coords[b.Block()][genome]; ok {
						tally[genome+"\x00"+coord.Seq]++
					}
				}
			}
		}
		scaffolds[i].Name = dominant(tally, i)
	}
}

func findPerm(c *permutation.Container, genome, seq string) *permutation.Permutation {
	for _, p := range c.Perms {
		if p.Genome == genome && p.Seq == seq {
			return p
		}
	}
	return nil
}

func dominant(tally map[string]int, idx int) string {
	if len(tally) == 0 {
		return scaffoldPositionalName(idx)
	}
	keys := make([]string, 0, len(tally))
	for k := range tally {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if tally[k] > tally[best] {
			best = k
		}
	}
	genome, seq := splitKey(best)
	return genome + "." + seq
}

func splitKey(k string) (string, string) {
	for i := 0; i < len(k); i++ {
		if k[i] == 0 {
			return k[:i], k[i+1:]
		}
	}
	return k, ""
}

func scaffoldPositionalName(idx int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if idx < len(letters) {
		return "scaffold_" + string(letters[idx])
	}
	return "scaffold_" + string(letters[idx%26]) + itoa(idx/26)
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
