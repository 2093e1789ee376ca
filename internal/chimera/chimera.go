// Package chimera flags target contig junctions that lack reference
// adjacency support at one or more block-size resolutions, and splits
// those junctions into separate contigs.
package chimera

import (
	"sort"

	"github.com/ragout-go/ragout/internal/bpgraph"
	"github.com/ragout-go/ragout/internal/permutation"
)

// Scale is one precomputed raw breakpoint graph, at block size Size, used
// as a cross-scale reference when evaluating another stage's container.
type Scale struct {
	Size  int
	Graph *bpgraph.Graph
}

// Break is one flagged junction: the contig and the index (into its
// Blocks slice) of the block immediately before the break.
type Break struct {
	Genome    string
	Seq       string
	BlockIdx  int
}

// Detect reports every junction of c's target permutations that is
// unsupported — in at least one of scales' raw graphs, restricted to
// non-target edges, the two flanking endpoints are not in the same
// connected component. Detection only reads its inputs, so it is safe to
// call once per stage against the full precomputed scale list.
func Detect(c *permutation.Container, scales []Scale) []Break {
	var breaks []Break
	for _, p := range c.TargetPerms() {
		for i := 0; i+1 < len(p.Blocks); i++ {
			x, y := p.Blocks[i], p.Blocks[i+1]
			headX := permutation.Head(x)
			tailY := permutation.Tail(y)
			if unsupportedAtAnyScale(headX, tailY, scales, c.Targets) {
				breaks = append(breaks, Break{Genome: p.Genome, Seq: p.Seq, BlockIdx: i})
			}
		}
	}
	sort.Slice(breaks, func(i, j int) bool {
		if breaks[i].Genome != breaks[j].Genome {
			return breaks[i].Genome < breaks[j].Genome
		}
		if breaks[i].Seq != breaks[j].Seq {
			return breaks[i].Seq < breaks[j].Seq
		}
		return breaks[i].BlockIdx < breaks[j].BlockIdx
	})
	return breaks
}

func unsupportedAtAnyScale(headX, tailY permutation.Endpoint, scales []Scale, targets map[string]bool) bool {
	nonTarget := bpgraph.ExcludeColors(targets)
	for _, s := range scales {
		nx, okX := s.Graph.NodeFor(headX)
		ny, okY := s.Graph.NodeFor(tailY)
		if !okX || !okY {
			// The block doesn't exist at this resolution; it carries no
			// evidence either way, so it cannot itself flag a break.
			continue
		}
		if !s.Graph.SameComponent(nx, ny, nonTarget) {
			return true
		}
	}
	return false
}

// Apply splits container c's target permutations at every flagged
// junction, producing two shorter contigs in place of one. Coordinates
// are preserved verbatim; only the permutation's Blocks slice is cut and
// the Seq identifier of the trailing half gets a deterministic suffix.
func Apply(c *permutation.Container, breaks []Break) *permutation.Container {
	byContig := map[string][]int{}
	for _, b := range breaks {
		key := b.Genome + "\x00" + b.Seq
		byContig[key] = append(byContig[key], b.BlockIdx)
	}
	for k := range byContig {
		sort.Ints(byContig[k])
	}

	out := permutation.NewContainer(permutation.SortedGenomes(c.References), permutation.SortedGenomes(c.Targets))
	out.Coords = c.Coords
	for _, p := range c.Perms {
		key := p.Genome + "\x00" + p.Seq
		cuts, ok := byContig[key]
		if !ok || !p.IsTarget {
			out.AddPermutation(clonePerm(p))
			continue
		}
		start := 0
		part := 0
		for _, cut := range cuts {
			out.AddPermutation(subPerm(p, start, cut+1, part))
			start = cut + 1
			part++
		}
		out.AddPermutation(subPerm(p, start, len(p.Blocks), part))
	}
	return out
}

func clonePerm(p *permutation.Permutation) *permutation.Permutation {
	return &permutation.Permutation{
		Genome: p.Genome,
		Seq:    p.Seq,
		Length: p.Length,
		Blocks: append([]permutation.Signed(nil), p.Blocks...),
	}
}

func subPerm(p *permutation.Permutation, from, to, part int) *permutation.Permutation {
	seq := p.Seq
	if part > 0 {
		seq = p.Seq + suffixFor(part)
	}
	return &permutation.Permutation{
		Genome: p.Genome,
		Seq:    seq,
		Length: p.Length,
		Blocks: append([]permutation.Signed(nil), p.Blocks[from:to]...),
	}
}

func suffixFor(part int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if part < len(letters) {
		return "_" + string(letters[part])
	}
	return "_" + string(rune('a'+part%26)) + itoa(part/26)
}

func itoa(v int) string {
	if v == 0 {
		return ""
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
