// Package recipe parses the YAML recipe file that names a scaffolding
// run's genomes, optional guide tree, and per-genome overrides. Spec.md
// scopes "recipe/configuration parsing" as an external collaborator
// concern (§1) but gives the dynamically-typed recipe's shape directly
// (§9): {tree?, blocks?, references, targets, genome_overrides}. This
// package turns that into a typed struct via gopkg.in/yaml.v3, the
// ambient config-reading library this module carries per its stack (see
// DESIGN.md's ambient-stack table).
package recipe

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ragout-go/ragout/internal/ragouterr"
)

// BlocksScale names one of the three preset block-size cascades a recipe
// may select (spec.md §9: "blocks?: {small|medium|large}"). A recipe
// cannot give an explicit list of block sizes.
type BlocksScale string

const (
	BlocksSmall  BlocksScale = "small"
	BlocksMedium BlocksScale = "medium"
	BlocksLarge  BlocksScale = "large"
)

// GenomeOverride customizes how one genome's sequence is located or
// treated, per spec.md §9's "genome_overrides: map<id, {fasta, draft}>".
type GenomeOverride struct {
	Fasta string `yaml:"fasta"`
	Draft bool   `yaml:"draft"`
}

// Recipe is the parsed, validated recipe file.
type Recipe struct {
	Tree            *string                   `yaml:"tree"`
	Blocks          *BlocksScale              `yaml:"blocks"`
	References      []string                  `yaml:"references"`
	Targets         []string                  `yaml:"targets"`
	GenomeOverrides map[string]GenomeOverride `yaml:"genome_overrides"`
}

// presetCascades gives the block sizes, large to small, underlying each
// named BlocksScale.
var presetCascades = map[BlocksScale][]int{
	BlocksSmall:  {1000, 300, 100, 30},
	BlocksMedium: {5000, 1000, 300, 100},
	BlocksLarge:  {30000, 5000, 1000, 300},
}

// Parse reads and validates a recipe from r.
func Parse(r io.Reader) (*Recipe, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var rec Recipe
	if err := dec.Decode(&rec); err != nil {
		return nil, &ragouterr.RecipeError{Msg: "malformed recipe: " + err.Error()}
	}
	if err := rec.validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Recipe) validate() error {
	if len(r.Targets) == 0 {
		return &ragouterr.RecipeError{Msg: "recipe lists no target genomes"}
	}
	if len(r.References) == 0 {
		return &ragouterr.RecipeError{Msg: "recipe lists no reference genomes"}
	}
	if r.Blocks != nil {
		if _, ok := presetCascades[*r.Blocks]; !ok {
			return &ragouterr.RecipeError{Msg: "unknown blocks scale: " + string(*r.Blocks)}
		}
	}

	seen := map[string]bool{}
	for _, g := range r.References {
		if seen[g] {
			return &ragouterr.RecipeError{Msg: "genome " + g + " is listed more than once"}
		}
		seen[g] = true
	}
	for _, g := range r.Targets {
		if seen[g] {
			return &ragouterr.RecipeError{Msg: "genome " + g + " is listed as both a reference and a target"}
		}
		seen[g] = true
	}
	for id := range r.GenomeOverrides {
		if !seen[id] {
			return &ragouterr.RecipeError{Msg: "genome_overrides names an unknown genome: " + id}
		}
	}
	return nil
}

// BlockSizes resolves Blocks into a concrete large-to-small cascade, or
// reports ok=false when the recipe leaves block scale unset (the caller
// should then ask the synteny backend to infer one).
func (r *Recipe) BlockSizes() (sizes []int, ok bool) {
	if r.Blocks == nil {
		return nil, false
	}
	sizes, ok = presetCascades[*r.Blocks]
	return
}

// ValidateTreeLeaves checks that every leaf name in a parsed guide tree
// names a genome the recipe actually declares, surfacing the
// "unknown genome referenced in tree" RecipeError from spec.md §7.
func (r *Recipe) ValidateTreeLeaves(leafNames []string) error {
	known := map[string]bool{}
	for _, g := range r.References {
		known[g] = true
	}
	for _, g := range r.Targets {
		known[g] = true
	}
	for _, n := range leafNames {
		if !known[n] {
			return &ragouterr.RecipeError{Msg: "tree references unknown genome: " + n}
		}
	}
	return nil
}
