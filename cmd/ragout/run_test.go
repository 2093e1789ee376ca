package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFixture lays out a minimal maf-backend workspace: one block-size
// cascade step with a permutations file and a target FASTA sitting
// directly under outDir (the maf backend resolves both relative to the
// same workDir the pipeline writes its own outputs into), plus a recipe
// file kept alongside it. runRagout can then be exercised end to end
// without shelling out to a real synteny tool.
func writeFixture(t *testing.T) (outDir, recipePath string) {
	t.Helper()
	root := t.TempDir()
	outDir = filepath.Join(root, "out")

	blocksDir := filepath.Join(outDir, "blocks-100")
	if err := os.MkdirAll(blocksDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	perms := "" +
		">refA.chr1\n1 2 3 $\n" +
		">refB.chr1\n1 2 3 $\n" +
		">targetT.ctg1\n1 2 $\n" +
		">targetT.ctg2\n3 $\n" +
		"1 refA chr1 0 10 +\n" +
		"1 refB chr1 0 10 +\n" +
		"1 targetT ctg1 0 10 +\n" +
		"2 refA chr1 10 20 +\n" +
		"2 refB chr1 10 20 +\n" +
		"2 targetT ctg1 10 20 +\n" +
		"3 refA chr1 20 30 +\n" +
		"3 refB chr1 20 30 +\n" +
		"3 targetT ctg2 0 10 +\n"
	if err := os.WriteFile(filepath.Join(blocksDir, "genomes_permutations.txt"), []byte(perms), 0o644); err != nil {
		t.Fatalf("WriteFile permutations: %v", err)
	}

	fasta := ">ctg1\nACGTACGTAC\n>ctg2\nTTTTGGGGCC\n"
	if err := os.WriteFile(filepath.Join(outDir, "targetT.fasta"), []byte(fasta), 0o644); err != nil {
		t.Fatalf("WriteFile fasta: %v", err)
	}

	recipe := "tree: \"(refA:1.0,(refB:1.0,targetT:1.0):1.0);\"\n" +
		"references: [refA, refB]\n" +
		"targets: [targetT]\n"
	recipePath = filepath.Join(root, "recipe.yaml")
	if err := os.WriteFile(recipePath, []byte(recipe), 0o644); err != nil {
		t.Fatalf("WriteFile recipe: %v", err)
	}

	return outDir, recipePath
}

func TestRunRagoutEndToEndWithMafBackend(t *testing.T) {
	outDir, recipePath := writeFixture(t)

	opts := cliOptions{
		outDir:    outDir,
		synteny:   "maf",
		noRefine:  true,
		overwrite: true,
		threads:   1,
	}

	if err := runRagout(recipePath, opts); err != nil {
		t.Fatalf("runRagout: %v", err)
	}

	links, err := os.ReadFile(filepath.Join(outDir, "scaffolds.links"))
	if err != nil {
		t.Fatalf("reading scaffolds.links: %v", err)
	}
	if !strings.Contains(string(links), "targetT.ctg1") || !strings.Contains(string(links), "targetT.ctg2") {
		t.Fatalf("scaffolds.links missing expected pieces: %q", links)
	}

	fasta, err := os.ReadFile(filepath.Join(outDir, "scaffolds.fasta"))
	if err != nil {
		t.Fatalf("reading scaffolds.fasta: %v", err)
	}
	if !strings.HasPrefix(string(fasta), ">") {
		t.Fatalf("scaffolds.fasta has no header: %q", fasta)
	}
}

func TestRunRagoutWritesOverlaySplicesWhenGraphGiven(t *testing.T) {
	outDir, recipePath := writeFixture(t)

	dotPath := filepath.Join(filepath.Dir(outDir), "overlaps.dot")
	dot := "digraph overlaps {\n" +
		"\t\"targetT.ctg1+\" -> \"targetT.ctg2+\" [length=\"0\"];\n" +
		"}\n"
	if err := os.WriteFile(dotPath, []byte(dot), 0o644); err != nil {
		t.Fatalf("WriteFile dot: %v", err)
	}

	opts := cliOptions{
		outDir:     outDir,
		synteny:    "maf",
		noRefine:   true,
		overwrite:  true,
		threads:    1,
		overlap:    dotPath,
		overlapTol: 5000,
	}
	if err := runRagout(recipePath, opts); err != nil {
		t.Fatalf("runRagout: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "overlap-splices.txt")); err != nil {
		t.Fatalf("expected overlap-splices.txt to be written: %v", err)
	}
}

func TestRunRagoutRejectsExistingOutDirWithoutOverwrite(t *testing.T) {
	outDir, recipePath := writeFixture(t)

	opts := cliOptions{outDir: outDir, synteny: "maf", noRefine: true}
	if err := runRagout(recipePath, opts); err == nil {
		t.Fatal("expected an error when outdir exists and --overwrite is not set")
	}
}

func TestRunRagoutRejectsMultipleTargets(t *testing.T) {
	outDir, _ := writeFixture(t)
	recipe := "references: [refA, refB]\ntargets: [targetT, targetU]\n"
	recipePath := filepath.Join(filepath.Dir(outDir), "bad-recipe.yaml")
	if err := os.WriteFile(recipePath, []byte(recipe), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	opts := cliOptions{outDir: filepath.Join(filepath.Dir(outDir), "out2"), synteny: "maf", overwrite: true}
	if err := runRagout(recipePath, opts); err == nil {
		t.Fatal("expected an error for a recipe with more than one target genome")
	}
}
