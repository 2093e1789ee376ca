// Package pipeline drives the full scaffolding run: the cascade of
// block-size stages from largest to smallest, chimera detection cross
// referencing every stage's raw breakpoint graph, adjacency inference and
// scaffold building at each stage, cross-scale merging into a running
// accumulator, and the final refine stage.
package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ragout-go/ragout/internal/bpgraph"
	"github.com/ragout-go/ragout/internal/chimera"
	"github.com/ragout-go/ragout/internal/inferer"
	"github.com/ragout-go/ragout/internal/merge"
	"github.com/ragout-go/ragout/internal/permutation"
	"github.com/ragout-go/ragout/internal/phylogeny"
	"github.com/ragout-go/ragout/internal/ragoutctx"
	"github.com/ragout-go/ragout/internal/ragouterr"
	"github.com/ragout-go/ragout/internal/refine"
	"github.com/ragout-go/ragout/internal/scaffold"
)

// Stage is one entry of the run-stage table: a block size to decompose at,
// which optional passes apply, and whether this is the closing refine
// stage rather than a regular one. Mirrors the original driver's
// per-resolution stage record.
type Stage struct {
	Name      string
	BlockSize int
	Indels    bool // search for small indels at this resolution
	Repeats   bool // keep repetitive blocks the backend would otherwise drop
	Rearrange bool // allow this stage to flip a contig's orientation in the accumulator
	Refine    bool // this is the closing refine stage, not a regular one
}

// DefaultStages builds the standard run-stage table for a block-size
// cascade, large to small: every regular stage allows rearrangement, the
// finest regular stage also searches for indels, and one refine stage
// closes the run at the finest resolution.
func DefaultStages(blockSizes []int, repeats bool) []Stage {
	stages := make([]Stage, 0, len(blockSizes)+1)
	for i, sz := range blockSizes {
		stages = append(stages, Stage{
			Name:      fmt.Sprintf("stage-%d", sz),
			BlockSize: sz,
			Indels:    i == len(blockSizes)-1,
			Repeats:   repeats,
			Rearrange: true,
		})
	}
	if len(stages) > 0 {
		stages = append(stages, Stage{
			Name:      "refine",
			BlockSize: stages[len(stages)-1].BlockSize,
			Refine:    true,
		})
	}
	return stages
}

// Loader resolves one stage into its parsed permutation container,
// typically by asking a synteny.Backend for that block size's
// permutations file and parsing it.
type Loader func(stage Stage) (*permutation.Container, error)

type stageOutcome struct {
	stage Stage
	c     *permutation.Container
	graph *bpgraph.Graph
}

// Run executes every non-refine stage, folds their scaffolds into a
// running accumulator, and closes with the refine stage if stages
// contains one. It returns the final accumulator and the finest-scale
// container the accumulator's contig names are expressed against (the
// caller combines them with merge.Scaffolds to get the final ordered
// scaffold list, and with AssignNames for naming).
//
// Per-stage raw breakpoint graph construction is the one place besides
// inferer's own component matching where fork-join parallelism is
// sanctioned: each stage reads only its own loaded container.
func Run(stages []Stage, load Loader, tree *phylogeny.Tree, targetGenome string, dbg ragoutctx.DebugContext) (merge.Links, *permutation.Container, error) {
	var regular []Stage
	var refineStage *Stage
	for i := range stages {
		if stages[i].Refine {
			s := stages[i]
			refineStage = &s
			continue
		}
		regular = append(regular, stages[i])
	}
	if len(regular) == 0 {
		return merge.Links{}, nil, &ragouterr.RecipeError{Msg: "no non-refine stages to run"}
	}

	outcomes := make([]stageOutcome, len(regular))
	var eg errgroup.Group
	for i, st := range regular {
		i, st := i, st
		eg.Go(func() error {
			c, err := load(st)
			if err != nil {
				return err
			}
			outcomes[i] = stageOutcome{stage: st, c: c, graph: bpgraph.Build(c)}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return merge.Links{}, nil, err
	}

	scales := make([]chimera.Scale, len(outcomes))
	for i, o := range outcomes {
		scales[i] = chimera.Scale{Size: o.stage.BlockSize, Graph: o.graph}
	}

	acc := merge.FromScaffolds(nil)
	first := true
	var fine *permutation.Container

	for _, o := range outcomes {
		stageDbg := dbg.WithStage(o.stage.Name)

		breaks := chimera.Detect(o.c, scales)
		container := o.c
		if len(breaks) > 0 {
			container = chimera.Apply(o.c, breaks)
			_ = stageDbg.Dump("breaks.txt", describeBreaks(breaks))
		}

		g := bpgraph.Build(container)
		result, err := inferer.InferAll(g, container, tree)
		if err != nil {
			return merge.Links{}, nil, err
		}
		stageScaffolds := scaffold.Build(g, container, result.Adjacencies)
		scaffold.AssignNames(stageScaffolds, container)
		_ = stageDbg.Dump("scaffolds.txt", describeScaffolds(stageScaffolds))

		next := merge.FromScaffolds(stageScaffolds)
		if first {
			acc = next
			first = false
		} else {
			acc = merge.Stage(acc, next, merge.Options{
				Rearrange:   o.stage.Rearrange,
				Invalidated: invalidatedEnds(breaks),
			})
		}
		fine = container
	}

	if refineStage == nil {
		return acc, fine, nil
	}

	stageDbg := dbg.WithStage(refineStage.Name)
	refined, err := refine.Run(fine, acc, tree, targetGenome)
	if err != nil {
		return merge.Links{}, nil, err
	}
	_ = stageDbg.Dump("scaffolds.txt", describeScaffolds(refined.Scaffolds))
	return merge.FromScaffolds(refined.Scaffolds), fine, nil
}

// invalidatedEnds marks both ends of every contig a stage's own chimera
// detection split, permitting that stage's adjacency to override a stale
// accumulator entry recorded for the contig under its pre-split identity.
func invalidatedEnds(breaks []chimera.Break) map[merge.End]bool {
	out := map[merge.End]bool{}
	for _, b := range breaks {
		out[merge.End{Genome: b.Genome, Seq: b.Seq, Head: true}] = true
		out[merge.End{Genome: b.Genome, Seq: b.Seq, Head: false}] = true
	}
	return out
}

func describeBreaks(breaks []chimera.Break) []byte {
	var b strings.Builder
	for _, br := range breaks {
		fmt.Fprintf(&b, "%s.%s after block %d\n", br.Genome, br.Seq, br.BlockIdx)
	}
	return []byte(b.String())
}

func describeScaffolds(scaffolds []scaffold.Scaffold) []byte {
	var b strings.Builder
	for _, s := range scaffolds {
		fmt.Fprintf(&b, ">%s circular=%v\n", s.Name, s.Circular)
		for _, p := range s.Pieces {
			sign := "+"
			if p.Strand < 0 {
				sign = "-"
			}
			fmt.Fprintf(&b, "  %s.%s%s gap=%d\n", p.Genome, p.Seq, sign, p.GapBefore)
		}
	}
	return []byte(b.String())
}
