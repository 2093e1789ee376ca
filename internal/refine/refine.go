// Package refine implements the final refine stage (spec.md §4.7): it
// reruns adjacency inference over the broken, finest-scale permutations,
// now carrying one extra synthetic reference genome whose colored edges
// mirror the scaffold merged from every coarser stage. That synthetic
// genome is grafted onto the phylogeny with a deliberately short branch
// (guideBranchLength), so the parsimony scorer treats disagreeing with it
// as expensive — which is exactly what "trust the merged scaffold" should
// mean. Small contigs whose blocks were filtered out at every larger
// scale, and so never joined the accumulator, compete in this rerun on
// equal footing with everything else and settle into place.
package refine

import (
	"sort"

	"github.com/ragout-go/ragout/internal/bpgraph"
	"github.com/ragout-go/ragout/internal/inferer"
	"github.com/ragout-go/ragout/internal/merge"
	"github.com/ragout-go/ragout/internal/permutation"
	"github.com/ragout-go/ragout/internal/phylogeny"
	"github.com/ragout-go/ragout/internal/scaffold"
)

// guideGenome names the synthetic reference the merged scaffold is
// injected under. The NUL byte keeps it from ever colliding with a real
// synteny-backend genome identifier.
const guideGenome = "\x00scaffold-guide"

// guideBranchLength is short on purpose: branchCost grows as branch length
// shrinks, so a short branch makes disagreeing with the merged scaffold's
// implied adjacency costly relative to any one reference's vote.
const guideBranchLength = 1e-6

// Result is the refine stage's output.
type Result struct {
	Graph     *bpgraph.Graph
	Scaffolds []scaffold.Scaffold
}

// Run builds the refined breakpoint graph from fine (the permutation
// container at the finest block-size resolution, after its own chimera
// breaking), injects acc (the scaffold accumulated from every earlier,
// coarser stage) as a guide genome, reruns adjacency inference against
// tree plus the guide leaf, and rebuilds the final scaffold list.
func Run(fine *permutation.Container, acc merge.Links, tree *phylogeny.Tree, targetGenome string) (Result, error) {
	g := bpgraph.Build(fine)
	addGuideEdges(g, fine, acc)

	guided := &permutation.Container{
		Perms:      fine.Perms,
		Coords:     fine.Coords,
		References: withGuide(fine.References),
		Targets:    fine.Targets,
	}

	guidedTree, err := tree.WithGuideLeaf(guideGenome, targetGenome, guideBranchLength)
	if err != nil {
		return Result{}, err
	}

	inferred, err := inferer.InferAll(g, guided, guidedTree)
	if err != nil {
		return Result{}, err
	}

	scaffolds := scaffold.Build(g, guided, inferred.Adjacencies)
	scaffold.AssignNames(scaffolds, fine)
	return Result{Graph: g, Scaffolds: scaffolds}, nil
}

func withGuide(refs map[string]bool) map[string]bool {
	out := make(map[string]bool, len(refs)+1)
	for k, v := range refs {
		out[k] = v
	}
	out[guideGenome] = true
	return out
}

// addGuideEdges adds one colored edge per merged-scaffold join, translating
// each merge.End back to the node its underlying permutation occupies in g.
// Joins whose contig is absent from fine (renamed or dropped by a later
// chimera split) are skipped; they carry no usable evidence here.
func addGuideEdges(g *bpgraph.Graph, fine *permutation.Container, acc merge.Links) {
	var keys []merge.End
	for e := range acc.Partner {
		keys = append(keys, e)
	}
	sortEnds(keys)

	seen := map[[2]string]bool{}
	for _, e := range keys {
		partner := acc.Partner[e]
		pairKey := canonicalPair(endKey(e), endKey(partner))
		if seen[pairKey] {
			continue
		}
		seen[pairKey] = true

		na, okA := nodeForEnd(g, fine, e)
		nb, okB := nodeForEnd(g, fine, partner)
		if !okA || !okB {
			continue
		}
		g.ConnectGuide(na, nb, guideGenome, "", acc.Gap[e])
	}
}

func nodeForEnd(g *bpgraph.Graph, fine *permutation.Container, e merge.End) (bpgraph.Node, bool) {
	p := findPerm(fine, e.Genome, e.Seq)
	if p == nil || len(p.Blocks) == 0 {
		return 0, false
	}
	if e.Head {
		return g.NodeFor(p.HeadEnd())
	}
	return g.NodeFor(p.TailEnd())
}

func findPerm(c *permutation.Container, genome, seq string) *permutation.Permutation {
	for _, p := range c.Perms {
		if p.Genome == genome && p.Seq == seq {
			return p
		}
	}
	return nil
}

func endKey(e merge.End) string {
	head := "0"
	if e.Head {
		head = "1"
	}
	return e.Genome + "\x00" + e.Seq + "\x00" + head
}

func canonicalPair(a, b string) [2]string {
	if a <= b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

func sortEnds(ends []merge.End) {
	sort.Slice(ends, func(i, j int) bool {
		return endKey(ends[i]) < endKey(ends[j])
	})
}
