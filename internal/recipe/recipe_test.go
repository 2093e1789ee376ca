package recipe_test

import (
	"strings"
	"testing"

	"github.com/ragout-go/ragout/internal/ragouterr"
	"github.com/ragout-go/ragout/internal/recipe"
)

const validRecipe = `
tree: "((refA:1,refB:1):1,targetT:1);"
blocks: medium
references:
  - refA
  - refB
targets:
  - targetT
genome_overrides:
  refA:
    fasta: refA_custom.fasta
    draft: true
`

func TestParseValidRecipe(t *testing.T) {
	r, err := recipe.Parse(strings.NewReader(validRecipe))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Tree == nil || *r.Tree == "" {
		t.Fatal("expected a non-empty tree string")
	}
	sizes, ok := r.BlockSizes()
	if !ok || len(sizes) != 4 || sizes[0] != 5000 {
		t.Fatalf("expected the medium cascade, got %v ok=%v", sizes, ok)
	}
	if !r.GenomeOverrides["refA"].Draft {
		t.Fatal("expected refA's override to mark it draft")
	}
}

func TestParseMissingTargetsIsRecipeError(t *testing.T) {
	_, err := recipe.Parse(strings.NewReader("references:\n  - refA\ntargets: []\n"))
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*ragouterr.RecipeError); !ok {
		t.Fatalf("expected *ragouterr.RecipeError, got %T", err)
	}
}

func TestParseOverlappingReferenceAndTargetIsRecipeError(t *testing.T) {
	_, err := recipe.Parse(strings.NewReader("references:\n  - shared\ntargets:\n  - shared\n"))
	if err == nil {
		t.Fatal("expected an error for a genome listed as both reference and target")
	}
}

func TestParseUnknownGenomeOverrideIsRecipeError(t *testing.T) {
	_, err := recipe.Parse(strings.NewReader("references:\n  - refA\ntargets:\n  - targetT\ngenome_overrides:\n  ghost:\n    fasta: x.fasta\n"))
	if err == nil {
		t.Fatal("expected an error for an override naming an unknown genome")
	}
}

func TestValidateTreeLeavesRejectsUnknownGenome(t *testing.T) {
	r, err := recipe.Parse(strings.NewReader("references:\n  - refA\ntargets:\n  - targetT\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := r.ValidateTreeLeaves([]string{"refA", "targetT"}); err != nil {
		t.Fatalf("expected known leaves to validate, got %v", err)
	}
	if err := r.ValidateTreeLeaves([]string{"refA", "mystery"}); err == nil {
		t.Fatal("expected an error for a tree leaf absent from the recipe")
	}
}
