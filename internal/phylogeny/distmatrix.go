package phylogeny

import (
	"math"
	"sort"

	"github.com/soniakeys/graph"

	"github.com/ragout-go/ragout/internal/permutation"
)

// BlockSharingDistance builds a Jaccard-distance matrix between genomes
// from a permutation container: distance is 1 - |shared blocks| / |union
// of blocks|. This replaces the teacher's DNA-hamming-distance matrix
// (used for k-mer phylogenies) with a synteny-block-sharing distance, the
// out-of-scope-detail tree-topology source spec.md §4.1 allows.
func BlockSharingDistance(c *permutation.Container) (dm [][]float64, genomes []string) {
	blocksByGenome := map[string]map[permutation.Block]bool{}
	for b, byGenome := range c.Coords {
		for g := range byGenome {
			m := blocksByGenome[g]
			if m == nil {
				m = map[permutation.Block]bool{}
				blocksByGenome[g] = m
			}
			m[b] = true
		}
	}
	names := make(map[string]bool, len(blocksByGenome))
	for g := range blocksByGenome {
		names[g] = true
	}
	genomes = permutation.SortedGenomes(names)

	dm = make([][]float64, len(genomes))
	for i := range dm {
		dm[i] = make([]float64, len(genomes))
	}
	for i := 1; i < len(genomes); i++ {
		bi := blocksByGenome[genomes[i]]
		for j := 0; j < i; j++ {
			bj := blocksByGenome[genomes[j]]
			d := jaccardDistance(bi, bj)
			dm[i][j] = d
			dm[j][i] = d
		}
	}
	return dm, genomes
}

func jaccardDistance(a, b map[permutation.Block]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	shared := 0
	for k := range a {
		if b[k] {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return 1 - float64(shared)/float64(union)
}

// NeighborJoin constructs an unrooted tree topology from a distance
// matrix via the neighbor-joining algorithm, rooting it arbitrarily at
// leaf 0. Adapted directly from the teacher's
// DistanceMatrix.NeighborJoin (dist_matrix.go), generalized from a
// concrete DNA-distance input to any additive-ish distance matrix, and
// converted into this package's own rooted Tree arena instead of the
// teacher's graph.LabeledAdjacencyList (kept internally, below, as the
// intermediate representation — the teacher's dependency stays wired).
func NeighborJoin(dm [][]float64, leafNames []string, targetGenome string) (*Tree, error) {
	tree, weights := neighborJoin(dm)
	t := rootLabeledTree(tree, weights, leafNames)
	if err := t.validate(targetGenome); err != nil {
		return nil, err
	}
	t.scaleBranches()
	return t, nil
}

// neighborJoin runs the classic algorithm over a mutable copy of dm,
// exactly as the teacher's version does, returning an unrooted
// graph.LabeledAdjacencyList whose edge labels index the returned weight
// slice.
func neighborJoin(dm [][]float64) (graph.LabeledAdjacencyList, []float64) {
	n := len(dm)
	dc := make([][]float64, n)
	for i, di := range dm {
		dc[i] = append([]float64(nil), di...)
	}
	work := dc
	nx := make([]int, n)
	for i := range nx {
		nx[i] = i
	}
	td := make([]float64, n)

	var tree graph.LabeledAdjacencyList
	var wt []float64

	closest := func() (jMin, iMin int) {
		min := math.Inf(1)
		iMin, jMin = -1, -1
		for i := 1; i < len(work); i++ {
			for j := 0; j < i; j++ {
				d := float64(len(work)-2)*work[i][j] - td[i] - td[j]
				if d < min {
					min = d
					iMin, jMin = i, j
				}
			}
		}
		return jMin, iMin
	}

	var nj func(m int)
	nj = func(m int) {
		if len(work) == 2 {
			wt = make([]float64, 1, m-1)
			wt[0] = work[0][1]
			tree = make(graph.LabeledAdjacencyList, m)
			n0, n1 := nx[0], nx[1]
			tree[n0] = []graph.Half{{To: graph.NI(n1)}}
			tree[n1] = []graph.Half{{To: graph.NI(n0)}}
			return
		}
		for k, dk := range work {
			t := 0.0
			for _, d := range dk {
				t += d
			}
			td[k] = t
		}
		d1, d2 := closest()
		delta := (td[d2] - td[d1]) / float64(len(work)-2)
		d21 := work[d2][d1]
		ll2 := 0.5 * (d21 + delta)
		ll1 := 0.5 * (d21 - delta)
		n1, n2 := nx[d1], nx[d2]

		di1, di2 := work[d1], work[d2]
		for j, dij := range di1 {
			mn := 0.5 * (dij + di2[j] - d21)
			di1[j] = mn
			work[j][d1] = mn
		}
		copy(work[d2:], work[d2+1:])
		work = work[:len(work)-1]
		for i, di := range work {
			copy(di[d2:], di[d2+1:])
			work[i] = di[:len(di)-1]
		}
		nx[d1] = m
		copy(nx[d2:], nx[d2+1:])
		nx = nx[:len(work)]

		nj(m + 1)

		wx1, wx2 := len(wt), len(wt)+1
		wt = append(wt, ll1, ll2)
		tree[m] = append(tree[m], graph.Half{To: graph.NI(n1), Label: wx1}, graph.Half{To: graph.NI(n2), Label: wx2})
		tree[n1] = append(tree[n1], graph.Half{To: graph.NI(m), Label: wx1})
		tree[n2] = append(tree[n2], graph.Half{To: graph.NI(m), Label: wx2})
	}
	nj(n)
	return tree, wt
}

// rootLabeledTree converts an unrooted graph.LabeledAdjacencyList (as
// produced by neighborJoin) into a rooted Tree arena, rooting at node 0.
func rootLabeledTree(adj graph.LabeledAdjacencyList, weights []float64, leafNames []string) *Tree {
	t := &Tree{
		Root:     0,
		Parent:   make([]NodeID, len(adj)),
		Branch:   make([]float64, len(adj)),
		Children: make([][]NodeID, len(adj)),
		Leaf:     make([]bool, len(adj)),
		Name:     make([]string, len(adj)),
	}
	for i := range adj {
		t.Parent[i] = -1
		if i < len(leafNames) {
			t.Leaf[i] = true
			t.Name[i] = leafNames[i]
		}
	}
	visited := make([]bool, len(adj))
	var visit func(n int)
	visit = func(n int) {
		visited[n] = true
		neigh := append([]graph.Half(nil), adj[n]...)
		sort.Slice(neigh, func(i, j int) bool { return neigh[i].To < neigh[j].To })
		for _, h := range neigh {
			to := int(h.To)
			if visited[to] {
				continue
			}
			t.Parent[to] = NodeID(n)
			t.Branch[to] = weights[h.Label]
			t.Children[n] = append(t.Children[n], NodeID(to))
			visit(to)
		}
	}
	visit(0)
	return t
}
