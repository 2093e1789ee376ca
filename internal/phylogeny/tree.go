// Package phylogeny builds a rooted weighted phylogenetic tree and scores
// half-breakpoint state labelings against it with weighted small
// parsimony (the Sankoff recurrence). Newick parsing is delegated to
// gotree, exactly as spec.md calls for an "external parser"; everything
// downstream — the scaled branch-cost model and the DP — is this
// module's own, generalized from the teacher's DNA8 hamming-distance
// parsimony (soniakeys-bio's phylo.go/parsimony.go) to an arbitrary
// discrete state space.
package phylogeny

import (
	"sort"
	"strings"

	"github.com/evolbioinfo/gotree/io/newick"
	gotree "github.com/evolbioinfo/gotree/tree"

	"github.com/ragout-go/ragout/internal/ragouterr"
)

// NodeID indexes a Tree's parallel slices. FromNewick and NeighborJoin
// place the root at NodeID 0.
type NodeID int

// Tree is a rooted binary-ish phylogenetic tree: a parent-indexed arena,
// matching the teacher's PhyloList ("tree encoded as a parent list") but
// carrying children lists too, since the Sankoff DP needs both directions.
type Tree struct {
	Root     NodeID
	Parent   []NodeID // -1 for the root
	Branch   []float64
	Children [][]NodeID
	Leaf     []bool
	Name     []string // leaf genome identifiers; empty for internal nodes
	Mu       float64  // 1 / lowerMedian(branch lengths)

	order []NodeID // cached reverse-topological (post-order) traversal
}

// LeafID returns the NodeID of the leaf named genome, and whether it
// exists.
func (t *Tree) LeafID(genome string) (NodeID, bool) {
	for i, leaf := range t.Leaf {
		if leaf && t.Name[i] == genome {
			return NodeID(i), true
		}
	}
	return 0, false
}

// LeafNames returns every leaf genome name, in arena order.
func (t *Tree) LeafNames() []string {
	var out []string
	for i, isLeaf := range t.Leaf {
		if isLeaf {
			out = append(out, t.Name[i])
		}
	}
	return out
}

// PostOrder returns nodes in reverse-topological order (every child
// before its parent), computed once and cached. Parsimony does not use
// this cache; it builds its own order on each call.
func (t *Tree) PostOrder() []NodeID {
	if t.order != nil {
		return t.order
	}
	order := make([]NodeID, 0, len(t.Parent))
	var visit func(NodeID)
	visit = func(n NodeID) {
		for _, c := range t.Children[n] {
			visit(c)
		}
		order = append(order, n)
	}
	visit(t.Root)
	t.order = order
	return order
}

// FromNewick parses a Newick string via gotree and builds a Tree, scaling
// branch lengths (mu = 1/lowerMedian) as it goes. targetGenome must label
// exactly one leaf.
func FromNewick(s string, targetGenome string) (*Tree, error) {
	s = strings.TrimSpace(s)
	gt, err := newick.NewParser(strings.NewReader(s)).Parse()
	if err != nil {
		return nil, &ragouterr.PhylogenyError{Msg: "unparseable Newick tree: " + err.Error()}
	}
	t, err := fromGotree(gt)
	if err != nil {
		return nil, err
	}
	if err := t.validate(targetGenome); err != nil {
		return nil, err
	}
	t.scaleBranches()
	return t, nil
}

func fromGotree(gt *gotree.Tree) (*Tree, error) {
	t := &Tree{}
	var visit func(node *gotree.Node, from *gotree.Node, branch float64, parent NodeID) NodeID
	visit = func(node *gotree.Node, from *gotree.Node, branch float64, parent NodeID) NodeID {
		id := NodeID(len(t.Parent))
		t.Parent = append(t.Parent, -1)
		t.Branch = append(t.Branch, branch)
		t.Leaf = append(t.Leaf, node.Tip())
		t.Name = append(t.Name, node.Name())
		t.Children = append(t.Children, nil)
		if parent >= 0 {
			t.Parent[id] = parent
			t.Children[parent] = append(t.Children[parent], id)
		}
		neigh := node.Neigh()
		edges := node.Edges()
		for i, nb := range neigh {
			if from != nil && nb == from {
				continue
			}
			length := 0.0
			if i < len(edges) {
				if l, has := edges[i].Length(); has {
					length = l
				}
			}
			visit(nb, node, length, id)
		}
		return id
	}
	t.Root = visit(gt.Root(), nil, 0, -1)
	return t, nil
}

// validate checks the phylogeny invariants: at least one leaf, the target
// genome is a leaf, and every non-root branch length is positive.
func (t *Tree) validate(targetGenome string) error {
	if len(t.Parent) == 0 {
		return &ragouterr.PhylogenyError{Msg: "empty tree"}
	}
	foundTarget := false
	for i, isLeaf := range t.Leaf {
		if isLeaf && t.Name[i] == targetGenome {
			foundTarget = true
		}
		if t.Parent[i] >= 0 && t.Branch[i] <= 0 {
			return &ragouterr.PhylogenyError{Msg: "non-positive branch length at node " + t.Name[i]}
		}
	}
	if !foundTarget {
		return &ragouterr.PhylogenyError{Msg: "target genome " + targetGenome + " is not a leaf of the tree"}
	}
	return nil
}

// WithGuideLeaf returns a new tree with an extra leaf named genome grafted
// in at targetGenome's position: a new hub node takes over targetGenome's
// old slot (at its old branch length), with targetGenome and the new leaf
// as its two children. targetGenome keeps practically the same place in
// the tree (a branch of branchEpsilon length), while the new leaf's
// distance to it is branchLength — deliberately short when the caller
// wants disagreeing with that leaf's state to carry a steep penalty (the
// Sankoff branch-cost function grows as branch length shrinks).
// t itself is left unmodified.
func (t *Tree) WithGuideLeaf(genome, targetGenome string, branchLength float64) (*Tree, error) {
	target, ok := t.LeafID(targetGenome)
	if !ok {
		return nil, &ragouterr.PhylogenyError{Msg: "target genome " + targetGenome + " is not a leaf of the tree"}
	}

	n := &Tree{
		Root:     t.Root,
		Parent:   append([]NodeID(nil), t.Parent...),
		Branch:   append([]float64(nil), t.Branch...),
		Leaf:     append([]bool(nil), t.Leaf...),
		Name:     append([]string(nil), t.Name...),
		Mu:       t.Mu,
		Children: make([][]NodeID, len(t.Children)),
	}
	for i, ch := range t.Children {
		n.Children[i] = append([]NodeID(nil), ch...)
	}

	oldParent := n.Parent[target]
	oldBranch := n.Branch[target]

	hub := NodeID(len(n.Parent))
	n.Parent = append(n.Parent, oldParent)
	n.Branch = append(n.Branch, oldBranch)
	n.Leaf = append(n.Leaf, false)
	n.Name = append(n.Name, "")
	n.Children = append(n.Children, []NodeID{target})

	if oldParent < 0 {
		n.Root = hub
	} else {
		for i, c := range n.Children[oldParent] {
			if c == target {
				n.Children[oldParent][i] = hub
				break
			}
		}
	}
	n.Parent[target] = hub
	n.Branch[target] = branchEpsilon

	leaf := NodeID(len(n.Parent))
	n.Parent = append(n.Parent, hub)
	n.Branch = append(n.Branch, branchLength)
	n.Leaf = append(n.Leaf, true)
	n.Name = append(n.Name, genome)
	n.Children = append(n.Children, nil)
	n.Children[hub] = append(n.Children[hub], leaf)

	return n, nil
}

// scaleBranches computes mu = 1/lowerMedian(branch lengths), fixing the
// exponential decay in the branch-cost model so it neither underflows for
// short branches nor saturates for long ones.
//
// Open question resolved (see SPEC_FULL.md): the "median" is the
// lower-median on a 0-based sorted list, sorted[(n-1)/2] with integer
// division, matching the original Python's behavior exactly rather than
// a true (averaged) median.
func (t *Tree) scaleBranches() {
	var lengths []float64
	for i, p := range t.Parent {
		if p >= 0 {
			lengths = append(lengths, t.Branch[i])
		}
	}
	if len(lengths) == 0 {
		// A single-node tree has no branches to scale.
		t.Mu = 1
		return
	}
	t.Mu = 1.0 / lowerMedian(lengths)
}

func lowerMedian(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted[(len(sorted)-1)/2]
}
