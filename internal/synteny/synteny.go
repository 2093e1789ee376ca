// Package synteny is the interface to the external synteny-block
// decomposition tool: spec.md scopes block decomposition itself as "an
// external native tool emits signed permutations from sequence
// alignments", out of scope for the core. This package is the seam: one
// small interface, and a name-keyed table of implementations so the
// pipeline driver never branches on backend name past the single lookup
// at startup.
package synteny

import "github.com/ragout-go/ragout/internal/ragouterr"

// Backend is a synteny-decomposition tool, wired to the pipeline by name
// (spec.md §6: "sibelia|cactus|maf|hal").
type Backend interface {
	// InferBlockScale proposes the cascade of block sizes to run, large to
	// small, when the recipe does not name a blocks preset.
	InferBlockScale(workDir string, references, targets []string) ([]int, error)
	// MakePermutations produces (or locates) the permutations file for one
	// block size and returns its path.
	MakePermutations(workDir string, blockSize int, references, targets []string, threads int) (string, error)
	// TargetFasta locates the raw target-contigs FASTA file this backend's
	// output is keyed against.
	TargetFasta(workDir string, targets []string) (string, error)
}

// Backends returns every known backend name mapped to its implementation.
// cactus and hal are registered but stubbed: spec.md treats the backend as
// an external collaborator, so there is nothing to adapt them to without a
// real tool to shell out to or a real output format to glob for.
func Backends() map[string]Backend {
	return map[string]Backend{
		"sibelia": sibeliaBackend{},
		"maf":     mafBackend{},
		"cactus":  stubBackend{name: "cactus"},
		"hal":     stubBackend{name: "hal"},
	}
}

// Get resolves name to its Backend, or a BackendError if name names
// nothing in the table.
func Get(name string) (Backend, error) {
	b, ok := Backends()[name]
	if !ok {
		return nil, &ragouterr.BackendError{Msg: "unknown synteny backend: " + name}
	}
	return b, nil
}

type stubBackend struct{ name string }

func (s stubBackend) InferBlockScale(workDir string, references, targets []string) ([]int, error) {
	return nil, s.unwired()
}

func (s stubBackend) MakePermutations(workDir string, blockSize int, references, targets []string, threads int) (string, error) {
	return "", s.unwired()
}

func (s stubBackend) TargetFasta(workDir string, targets []string) (string, error) {
	return "", s.unwired()
}

func (s stubBackend) unwired() error {
	return &ragouterr.BackendError{Msg: s.name + " synteny backend is not wired to a real tool"}
}
