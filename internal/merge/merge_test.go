package merge_test

import (
	"testing"

	"github.com/ragout-go/ragout/internal/merge"
	"github.com/ragout-go/ragout/internal/permutation"
	"github.com/ragout-go/ragout/internal/scaffold"
)

func TestInsertNewContigBetweenAgreeingFlanks(t *testing.T) {
	// Large scale: A directly joined to C (small contig B was too short
	// to carry a large block, so it never appeared at all).
	acc := merge.FromScaffolds([]scaffold.Scaffold{{
		Pieces: []scaffold.Piece{
			{Genome: "targetT", Seq: "A", Strand: 1},
			{Genome: "targetT", Seq: "C", Strand: 1, GapBefore: 500},
		},
	}})
	// Fine scale: B sits between A and C.
	next := merge.FromScaffolds([]scaffold.Scaffold{{
		Pieces: []scaffold.Piece{
			{Genome: "targetT", Seq: "A", Strand: 1},
			{Genome: "targetT", Seq: "B", Strand: 1, GapBefore: 200},
			{Genome: "targetT", Seq: "C", Strand: 1, GapBefore: 200},
		},
	}})

	merged := merge.Stage(acc, next, merge.Options{})

	a := merge.End{Genome: "targetT", Seq: "A", Head: false}
	b := merged.Partner[a]
	if b.Seq != "B" {
		t.Fatalf("expected A to now join B, got %+v", b)
	}
	c := merged.Partner[b.Other()]
	if c.Seq != "C" {
		t.Fatalf("expected B to join C, got %+v", c)
	}
}

func TestContradictionKeepsAccumulatorUnlessInvalidated(t *testing.T) {
	acc := merge.FromScaffolds([]scaffold.Scaffold{{
		Pieces: []scaffold.Piece{
			{Genome: "targetT", Seq: "A", Strand: 1},
			{Genome: "targetT", Seq: "C", Strand: 1, GapBefore: 500},
		},
	}})
	next := merge.FromScaffolds([]scaffold.Scaffold{{
		Pieces: []scaffold.Piece{
			{Genome: "targetT", Seq: "A", Strand: 1},
			{Genome: "targetT", Seq: "D", Strand: 1, GapBefore: 100},
		},
	}})

	a := merge.End{Genome: "targetT", Seq: "A", Head: false}

	keep := merge.Stage(acc, next, merge.Options{})
	if keep.Partner[a].Seq != "C" {
		t.Fatalf("expected accumulator (C) to win without invalidation, got %+v", keep.Partner[a])
	}

	acc2 := merge.FromScaffolds([]scaffold.Scaffold{{
		Pieces: []scaffold.Piece{
			{Genome: "targetT", Seq: "A", Strand: 1},
			{Genome: "targetT", Seq: "C", Strand: 1, GapBefore: 500},
		},
	}})
	override := merge.Stage(acc2, next, merge.Options{Invalidated: map[merge.End]bool{a: true}})
	if override.Partner[a].Seq != "D" {
		t.Fatalf("expected invalidated accumulator edge to be overridden by D, got %+v", override.Partner[a])
	}
}

func TestScaffoldsRoundTrip(t *testing.T) {
	original := []scaffold.Scaffold{{
		Pieces: []scaffold.Piece{
			{Genome: "targetT", Seq: "A", Strand: 1},
			{Genome: "targetT", Seq: "B", Strand: 1, GapBefore: 10},
		},
	}}
	links := merge.FromScaffolds(original)
	rebuilt := merge.Scaffolds(links, permutation.NewContainer(nil, []string{"targetT"}))
	if len(rebuilt) != 1 || len(rebuilt[0].Pieces) != 2 {
		t.Fatalf("expected a single 2-piece scaffold, got %+v", rebuilt)
	}
}
