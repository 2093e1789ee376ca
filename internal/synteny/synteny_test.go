package synteny_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ragout-go/ragout/internal/ragouterr"
	"github.com/ragout-go/ragout/internal/synteny"
)

func TestGetUnknownBackendReturnsBackendError(t *testing.T) {
	_, err := synteny.Get("not-a-real-backend")
	if err == nil {
		t.Fatal("expected an error for an unknown backend name")
	}
	if _, ok := err.(*ragouterr.BackendError); !ok {
		t.Fatalf("expected *ragouterr.BackendError, got %T", err)
	}
}

func TestStubBackendsReturnBackendError(t *testing.T) {
	for _, name := range []string{"cactus", "hal"} {
		b, err := synteny.Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		if _, err := b.InferBlockScale(".", nil, nil); err == nil {
			t.Fatalf("%s: expected InferBlockScale to fail", name)
		}
		if _, err := b.MakePermutations(".", 100, nil, nil, 1); err == nil {
			t.Fatalf("%s: expected MakePermutations to fail", name)
		}
		if _, err := b.TargetFasta(".", nil); err == nil {
			t.Fatalf("%s: expected TargetFasta to fail", name)
		}
	}
}

func TestMafBackendDiscoversPrecomputedScales(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"5000", "500", "100"} {
		if err := os.MkdirAll(filepath.Join(dir, "blocks-"+n), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "blocks-500", "genomes_permutations.txt"), []byte("$\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "targetT.fasta"), []byte(">targetT.ctg1\nACGT\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	b, err := synteny.Get("maf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	scales, err := b.InferBlockScale(dir, []string{"refA"}, []string{"targetT"})
	if err != nil {
		t.Fatalf("InferBlockScale: %v", err)
	}
	if len(scales) != 3 || scales[0] != 5000 || scales[2] != 100 {
		t.Fatalf("expected [5000 500 100], got %v", scales)
	}

	path, err := b.MakePermutations(dir, 500, []string{"refA"}, []string{"targetT"}, 1)
	if err != nil {
		t.Fatalf("MakePermutations: %v", err)
	}
	if filepath.Base(path) != "genomes_permutations.txt" {
		t.Fatalf("unexpected permutations path: %s", path)
	}

	if _, err := b.MakePermutations(dir, 5000, []string{"refA"}, []string{"targetT"}, 1); err == nil {
		t.Fatal("expected an error for a scale with no precomputed permutations file")
	}

	fasta, err := b.TargetFasta(dir, []string{"targetT"})
	if err != nil {
		t.Fatalf("TargetFasta: %v", err)
	}
	if filepath.Base(fasta) != "targetT.fasta" {
		t.Fatalf("unexpected fasta path: %s", fasta)
	}
}

func TestSibeliaBackendReportsMissingOutputAfterSuccess(t *testing.T) {
	dir := t.TempDir()
	b := synteny.NewSibeliaBackend("true")

	if _, err := b.MakePermutations(dir, 500, []string{"refA"}, []string{"targetT"}, 1); err == nil {
		t.Fatal("expected an error since the stub binary never wrote a permutations file")
	}
}
