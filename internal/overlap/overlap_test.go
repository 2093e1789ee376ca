package overlap_test

import (
	"testing"

	"github.com/ragout-go/ragout/internal/overlap"
	"github.com/ragout-go/ragout/internal/scaffold"
)

const sampleDOT = `
digraph overlaps {
	"targetT.ctg1+" -> "targetT.ctg2+" [length="480"];
	"targetT.ctg1+" -> "targetT.ctg3+" [length="9000"];
}
`

func TestSplicePathWithinTolerance(t *testing.T) {
	gr, err := overlap.Parse([]byte(sampleDOT))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	path, ok := gr.SplicePath("targetT.ctg1+", "targetT.ctg2+", 500, 50)
	if !ok {
		t.Fatal("expected a spliceable path within tolerance")
	}
	if len(path) != 2 || path[0] != "targetT.ctg1+" || path[1] != "targetT.ctg2+" {
		t.Fatalf("unexpected path: %v", path)
	}
}

func TestSplicePathOutsideToleranceFails(t *testing.T) {
	gr, err := overlap.Parse([]byte(sampleDOT))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := gr.SplicePath("targetT.ctg1+", "targetT.ctg3+", 500, 50); ok {
		t.Fatal("expected the 9000-length overlap to fall outside a 500±50 gap")
	}
}

func TestSplicePathUnknownNodeFails(t *testing.T) {
	gr, err := overlap.Parse([]byte(sampleDOT))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := gr.SplicePath("nope", "targetT.ctg2+", 500, 50); ok {
		t.Fatal("expected an unknown node to fail")
	}
}

func TestApplyFindsConsistentGapAcrossScaffold(t *testing.T) {
	gr, err := overlap.Parse([]byte(sampleDOT))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	scaffolds := []scaffold.Scaffold{{
		Name: "scaffold_a",
		Pieces: []scaffold.Piece{
			{Genome: "targetT", Seq: "ctg1", Strand: 1},
			{Genome: "targetT", Seq: "ctg2", Strand: 1, GapBefore: 500},
		},
	}}
	splices := overlap.Apply(scaffolds, gr, 50)
	if len(splices) != 1 {
		t.Fatalf("expected exactly one splice, got %+v", splices)
	}
	if splices[0].ScaffoldIndex != 0 || splices[0].AfterPiece != 0 {
		t.Fatalf("unexpected splice location: %+v", splices[0])
	}
}
