package pipeline_test

import (
	"strings"
	"testing"

	"github.com/ragout-go/ragout/internal/merge"
	"github.com/ragout-go/ragout/internal/permutation"
	"github.com/ragout-go/ragout/internal/phylogeny"
	"github.com/ragout-go/ragout/internal/pipeline"
	"github.com/ragout-go/ragout/internal/ragoutctx"
)

const coarseSample = `
>refA.chrA
1 2 3 $
>refB.chrB
1 2 3 $
>targetT.ctg1
1 2 $
>targetT.ctg2
3 $
1	refA	chrA	0	100	+
1	refB	chrB	0	100	+
1	targetT	ctg1	0	100	+
2	refA	chrA	100	200	+
2	refB	chrB	100	200	+
2	targetT	ctg1	100	200	+
3	refA	chrA	200	300	+
3	refB	chrB	200	300	+
3	targetT	ctg2	0	100	+
`

const fineSample = `
>refA.chrA
1 2 5 3 4 $
>refB.chrB
1 2 5 3 4 $
>targetT.ctg1
1 2 $
>targetT.ctg3
5 $
>targetT.ctg2
3 4 $
1	refA	chrA	0	100	+
1	refB	chrB	0	100	+
1	targetT	ctg1	0	100	+
2	refA	chrA	100	200	+
2	refB	chrB	100	200	+
2	targetT	ctg1	100	200	+
5	refA	chrA	200	250	+
5	refB	chrB	200	250	+
5	targetT	ctg3	0	50	+
3	refA	chrA	250	350	+
3	refB	chrB	250	350	+
3	targetT	ctg2	0	100	+
4	refA	chrA	350	450	+
4	refB	chrB	350	450	+
4	targetT	ctg2	100	200	+
`

var references = []string{"refA", "refB"}
var targets = []string{"targetT"}

func loaderFor(t *testing.T, samples map[int]string) pipeline.Loader {
	t.Helper()
	return func(stage pipeline.Stage) (*permutation.Container, error) {
		text, ok := samples[stage.BlockSize]
		if !ok {
			t.Fatalf("no sample registered for block size %d", stage.BlockSize)
		}
		return permutation.ParseFile(strings.NewReader(text), references, targets)
	}
}

func buildTree(t *testing.T) *phylogeny.Tree {
	t.Helper()
	tree, err := phylogeny.FromNewick("((refA:1,refB:1):1,targetT:1);", "targetT")
	if err != nil {
		t.Fatalf("FromNewick: %v", err)
	}
	return tree
}

func TestRunMergesStagesAndRefines(t *testing.T) {
	stages := []pipeline.Stage{
		{Name: "stage-1000", BlockSize: 1000, Rearrange: true},
		{Name: "stage-100", BlockSize: 100, Rearrange: true},
		{Name: "refine", BlockSize: 100, Refine: true},
	}
	load := loaderFor(t, map[int]string{1000: coarseSample, 100: fineSample})
	tree := buildTree(t)

	acc, fine, err := pipeline.Run(stages, load, tree, "targetT", ragoutctx.DebugContext{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fine == nil {
		t.Fatal("expected a non-nil finest-scale container")
	}

	scaffolds := merge.Scaffolds(acc, fine)
	var found *merge.End
	for _, s := range scaffolds {
		for i, p := range s.Pieces {
			if p.Genome == "targetT" && p.Seq == "ctg3" {
				if i == 0 || i == len(s.Pieces)-1 {
					t.Fatalf("expected ctg3 to sit between two neighbors, got position %d of %d", i, len(s.Pieces))
				}
				before, after := s.Pieces[i-1], s.Pieces[i+1]
				names := map[string]bool{before.Seq: true, after.Seq: true}
				if !names["ctg1"] || !names["ctg2"] {
					t.Fatalf("expected ctg3 flanked by ctg1 and ctg2, got %s and %s", before.Seq, after.Seq)
				}
				f := merge.End{Genome: "targetT", Seq: "ctg3"}
				found = &f
			}
		}
	}
	if found == nil {
		t.Fatal("expected ctg3 to appear in the final scaffold list")
	}
}

func TestRunErrorsWhenLoaderFails(t *testing.T) {
	stages := []pipeline.Stage{{Name: "stage-1000", BlockSize: 1000, Rearrange: true}}
	load := func(stage pipeline.Stage) (*permutation.Container, error) {
		return permutation.ParseFile(strings.NewReader("garbage"), references, targets)
	}
	tree := buildTree(t)
	if _, _, err := pipeline.Run(stages, load, tree, "targetT", ragoutctx.DebugContext{}); err == nil {
		t.Fatal("expected an error from a malformed permutations file")
	}
}

func TestRunErrorsWithNoRegularStages(t *testing.T) {
	load := loaderFor(t, map[int]string{})
	tree := buildTree(t)
	if _, _, err := pipeline.Run(nil, load, tree, "targetT", ragoutctx.DebugContext{}); err == nil {
		t.Fatal("expected an error when no non-refine stages are given")
	}
}

func TestDefaultStagesAppendsRefineAtFinestSize(t *testing.T) {
	stages := pipeline.DefaultStages([]int{1000, 100}, false)
	if len(stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(stages))
	}
	if !stages[2].Refine || stages[2].BlockSize != 100 {
		t.Fatalf("expected a refine stage at size 100, got %+v", stages[2])
	}
	if !stages[1].Indels {
		t.Fatal("expected the finest regular stage to search for indels")
	}
	if stages[0].Indels {
		t.Fatal("expected only the finest regular stage to search for indels")
	}
}
