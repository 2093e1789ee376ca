// Package merge reconciles scaffolds produced at successive block-size
// stages (large to small) into one running accumulator, per the
// cross-scale merge rules: insert contigs the larger scale never saw,
// keep the accumulator on contradiction unless a chimera break
// invalidated it, and optionally flip a contig's orientation when a
// finer stage disagrees on it.
//
// Scaffolds from different stages are built over different bpgraph.Graph
// instances, so bpgraph.Node ids are not comparable across stages; this
// package works entirely in terms of a stage-independent contig-end
// identity (genome, sequence, which side) instead.
package merge

import (
	"sort"

	"github.com/ragout-go/ragout/internal/permutation"
	"github.com/ragout-go/ragout/internal/scaffold"
)

// End identifies one side of one contig, independent of any stage's
// graph: Head is the side reached by HeadEnd() in the original,
// unreversed orientation.
type End struct {
	Genome string
	Seq    string
	Head   bool
}

// Other returns the opposite end of the same contig.
func (e End) Other() End { return End{Genome: e.Genome, Seq: e.Seq, Head: !e.Head} }

// Links is the accumulator state: for every contig end with a known
// partner, the end it is joined to, and the estimated gap at that join.
type Links struct {
	Partner map[End]End
	Gap     map[End]int
}

func newLinks() Links {
	return Links{Partner: map[End]End{}, Gap: map[End]int{}}
}

func entryEnd(p scaffold.Piece) End { return End{Genome: p.Genome, Seq: p.Seq, Head: p.Strand == 1} }
func exitEnd(p scaffold.Piece) End  { return End{Genome: p.Genome, Seq: p.Seq, Head: p.Strand == -1} }

// FromScaffolds flattens a scaffold list into its Links representation.
func FromScaffolds(scaffolds []scaffold.Scaffold) Links {
	l := newLinks()
	for _, s := range scaffolds {
		for i := 0; i+1 < len(s.Pieces); i++ {
			a := exitEnd(s.Pieces[i])
			b := entryEnd(s.Pieces[i+1])
			l.Partner[a] = b
			l.Partner[b] = a
			l.Gap[a] = s.Pieces[i+1].GapBefore
			l.Gap[b] = s.Pieces[i+1].GapBefore
		}
	}
	return l
}

// Options controls stage-merge behavior.
type Options struct {
	// Rearrange allows flipping a contig's orientation within the
	// accumulator when the new stage strongly disagrees on it (same two
	// flanking neighbors, opposite arrangement). Spec.md ties this to
	// non-refine stages only.
	Rearrange bool
	// Invalidated marks accumulator ends whose current adjacency was
	// invalidated by a chimera break at this stage, permitting the new
	// stage's adjacency to override the accumulator instead of being
	// discarded.
	Invalidated map[End]bool
}

// Stage folds next into acc in place and returns it, applying the
// insert/contradiction/rearrange rules in that order.
func Stage(acc Links, next Links, opts Options) Links {
	insertNewContigs(acc, next)
	resolveContradictions(acc, next, opts)
	if opts.Rearrange {
		rearrangeDisagreements(acc, next)
	}
	return acc
}

// insertNewContigs splices in every contig that appears in next but has
// neither end known to acc yet, provided both its next-stage flanks are
// already directly joined in acc (i.e. the larger scale skipped over it
// entirely, rather than routing the scaffold elsewhere).
func insertNewContigs(acc, next Links) {
	seen := map[string]bool{}
	var keys []End
	for e := range next.Partner {
		keys = append(keys, e)
	}
	sortEnds(keys)
	for _, head := range keys {
		if !head.Head {
			continue
		}
		key := head.Genome + "\x00" + head.Seq
		if seen[key] {
			continue
		}
		seen[key] = true
		tail := head.Other()
		if _, known := acc.Partner[head]; known {
			continue
		}
		if _, known := acc.Partner[tail]; known {
			continue
		}
		flankOfHead, okH := next.Partner[head]
		flankOfTail, okT := next.Partner[tail]
		if !okH || !okT {
			continue
		}
		if acc.Partner[flankOfHead] != flankOfTail {
			continue
		}
		acc.Partner[flankOfHead] = head
		acc.Partner[head] = flankOfHead
		acc.Partner[tail] = flankOfTail
		acc.Partner[flankOfTail] = tail
		acc.Gap[flankOfHead] = next.Gap[head]
		acc.Gap[head] = next.Gap[head]
		acc.Gap[tail] = next.Gap[tail]
		acc.Gap[flankOfTail] = next.Gap[tail]
	}
}

// resolveContradictions keeps acc's existing adjacency at any end where
// next disagrees, unless that end was invalidated by a chimera break at
// this stage, in which case next's adjacency replaces it.
func resolveContradictions(acc, next Links, opts Options) {
	var keys []End
	for e := range next.Partner {
		keys = append(keys, e)
	}
	sortEnds(keys)
	for _, e := range keys {
		nb := next.Partner[e]
		ab, known := acc.Partner[e]
		if !known {
			continue // new contigs are handled by insertNewContigs
		}
		if ab == nb {
			continue
		}
		if !opts.Invalidated[e] {
			continue // larger-block-size accumulator wins ties
		}
		delete(acc.Partner, ab)
		acc.Partner[e] = nb
		acc.Partner[nb] = e
		acc.Gap[e] = next.Gap[e]
		acc.Gap[nb] = next.Gap[e]
	}
}

// rearrangeDisagreements flips a single contig's orientation in acc when
// next shows the same two flanking neighbors in the opposite arrangement.
// This is a deliberately narrow reading of "flip a sub-path": it handles
// one contig's local orientation, not an arbitrary-length sub-path swap.
func rearrangeDisagreements(acc, next Links) {
	seen := map[string]bool{}
	var keys []End
	for e := range acc.Partner {
		keys = append(keys, e)
	}
	sortEnds(keys)
	for _, head := range keys {
		if !head.Head {
			continue
		}
		key := head.Genome + "\x00" + head.Seq
		if seen[key] {
			continue
		}
		seen[key] = true
		tail := head.Other()
		accL, okAL := acc.Partner[head]
		accR, okAR := acc.Partner[tail]
		nextL, okNL := next.Partner[tail]
		nextR, okNR := next.Partner[head]
		if !okAL || !okAR || !okNL || !okNR {
			continue
		}
		if accL == nextL && accR == nextR {
			acc.Partner[head] = nextR
			acc.Partner[nextR] = head
			acc.Partner[tail] = nextL
			acc.Partner[nextL] = tail
		}
	}
}

// Scaffolds converts Links back into an ordered scaffold list, walking
// each chain from a free end (or, for a pure cycle, an arbitrary start)
// exactly as scaffold.Build does internally.
func Scaffolds(l Links, c *permutation.Container) []scaffold.Scaffold {
	allContigs := map[string][2]End{}
	for e := range l.Partner {
		allContigs[e.Genome+"\x00"+e.Seq] = [2]End{End{e.Genome, e.Seq, true}, End{e.Genome, e.Seq, false}}
	}
	for _, p := range c.TargetPerms() {
		key := p.Genome + "\x00" + p.Seq
		if _, ok := allContigs[key]; !ok {
			allContigs[key] = [2]End{{p.Genome, p.Seq, true}, {p.Genome, p.Seq, false}}
		}
	}

	visited := map[End]bool{}
	var free []End
	var keys []string
	for k := range allContigs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pair := allContigs[k]
		for _, e := range pair {
			if _, ok := l.Partner[e]; !ok {
				free = append(free, e)
			}
		}
	}
	sortEnds(free)

	var scaffolds []scaffold.Scaffold
	for _, start := range free {
		if visited[start] {
			continue
		}
		scaffolds = append(scaffolds, walkChain(start, l, visited, false))
	}
	for _, k := range keys {
		pair := allContigs[k]
		if visited[pair[0]] || visited[pair[1]] {
			continue
		}
		scaffolds = append(scaffolds, walkChain(pair[0], l, visited, true))
	}
	return scaffolds
}

func walkChain(start End, l Links, visited map[End]bool, circular bool) scaffold.Scaffold {
	s := scaffold.Scaffold{Circular: circular}
	current := start
	first := true
	gapBefore := 0
	for {
		visited[current] = true
		other := current.Other()
		visited[other] = true
		strand := 1
		if !current.Head {
			strand = -1
		}
		s.Pieces = append(s.Pieces, scaffold.Piece{
			Genome:    current.Genome,
			Seq:       current.Seq,
			Strand:    strand,
			GapBefore: firstGap(first, gapBefore),
		})
		first = false
		next, ok := l.Partner[other]
		if !ok {
			break
		}
		if circular && next == start {
			break
		}
		gapBefore = l.Gap[other]
		current = next
		if visited[current] && !circular {
			break
		}
	}
	return s
}

func firstGap(first bool, g int) int {
	if first {
		return 0
	}
	return g
}

func sortEnds(ends []End) {
	sort.Slice(ends, func(i, j int) bool {
		if ends[i].Genome != ends[j].Genome {
			return ends[i].Genome < ends[j].Genome
		}
		if ends[i].Seq != ends[j].Seq {
			return ends[i].Seq < ends[j].Seq
		}
		return !ends[i].Head && ends[j].Head
	})
}
