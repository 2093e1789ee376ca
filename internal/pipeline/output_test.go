package pipeline_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ragout-go/ragout/internal/pipeline"
	"github.com/ragout-go/ragout/internal/scaffold"
)

func TestWriteLinksFormatsOnePerPiece(t *testing.T) {
	scaffolds := []scaffold.Scaffold{{
		Name: "scaffold_a",
		Pieces: []scaffold.Piece{
			{Genome: "targetT", Seq: "ctg1", Strand: 1},
			{Genome: "targetT", Seq: "ctg2", Strand: -1, GapBefore: 42},
		},
	}}
	contigs := map[string][]byte{
		"ctg1": []byte("ACGT"),
		"ctg2": []byte("AATT"),
	}
	var buf bytes.Buffer
	if err := pipeline.WriteLinks(&buf, scaffolds, contigs); err != nil {
		t.Fatalf("WriteLinks: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (header + 2 pieces), got %d: %v", len(lines), lines)
	}
	if lines[0] != ">scaffold_a" {
		t.Fatalf("expected a scaffold header line, got %q", lines[0])
	}
	if lines[1] != "targetT.ctg1\t+\t0\t4\t42" {
		t.Fatalf("unexpected first piece line: %q", lines[1])
	}
	// gap of 42 is above the 11-base floor, so ctg2 starts at 4+42=46
	if lines[2] != "targetT.ctg2\t-\t46\t50\t0" {
		t.Fatalf("unexpected second piece line: %q", lines[2])
	}
}

func TestWriteFastaJoinsWithGapAndReverseComplements(t *testing.T) {
	scaffolds := []scaffold.Scaffold{{
		Name: "scaffold_a",
		Pieces: []scaffold.Piece{
			{Genome: "targetT", Seq: "ctg1", Strand: 1},
			{Genome: "targetT", Seq: "ctg2", Strand: -1, GapBefore: 3},
		},
	}}
	contigs := map[string][]byte{
		"ctg1": []byte("ACGT"),
		"ctg2": []byte("AATT"),
	}
	var buf bytes.Buffer
	if err := pipeline.WriteFasta(&buf, scaffolds, contigs); err != nil {
		t.Fatalf("WriteFasta: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, ">scaffold_a\n") {
		t.Fatalf("expected a header line, got %q", out)
	}
	// gap of 3 is below the 11-base floor, and ctg2 reverse complemented is AATT -> AATT (palindromic here)
	if !strings.Contains(out, strings.Repeat("N", 11)) {
		t.Fatalf("expected the gap floor of 11 Ns, got %q", out)
	}
}

func TestReadTargetFastaReportsMissingFile(t *testing.T) {
	if _, err := pipeline.ReadTargetFasta("/nonexistent/path/to/targets.fasta"); err == nil {
		t.Fatal("expected an error for a missing target fasta file")
	}
}
