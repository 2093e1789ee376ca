// Command ragout scaffolds a draft genome assembly against one or more
// related reference genomes, using synteny blocks decomposed by an
// external backend and a phylogeny-guided breakpoint graph analysis.
package main

import (
	"errors"
	"os"

	"github.com/ragout-go/ragout/internal/ragouterr"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor distinguishes a malformed invocation (bad recipe: the user's
// fault, exit 2) from every other failure kind in internal/ragouterr
// (exit 1), per that package's contract that the driver is the one place
// that catches its typed error set. Cobra has already printed err to
// stderr by the time Execute returns it.
func exitCodeFor(err error) int {
	var recipeErr *ragouterr.RecipeError
	if errors.As(err, &recipeErr) {
		return 2
	}
	return 1
}
