package synteny

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/ragout-go/ragout/internal/ragouterr"
)

// sibeliaBackend shells out to a Sibelia-compatible binary: process-exec,
// grounded on the "external native tool" wording of spec.md §1/§6.
type sibeliaBackend struct {
	// binary overrides the executable name; empty means "Sibelia", the
	// name the real tool installs under.
	binary string
}

// NewSibeliaBackend returns a sibelia Backend invoking binary instead of
// the default "Sibelia" executable name, for tests and for recipes that
// point at a non-default install location.
func NewSibeliaBackend(binary string) Backend {
	return sibeliaBackend{binary: binary}
}

func (s sibeliaBackend) executable() string {
	if s.binary != "" {
		return s.binary
	}
	return "Sibelia"
}

// InferBlockScale returns the cascade Sibelia-driven Ragout runs by
// default when a recipe doesn't name a blocks preset: large blocks
// first to anchor coarse synteny, then progressively finer resolutions.
func (s sibeliaBackend) InferBlockScale(workDir string, references, targets []string) ([]int, error) {
	return []int{5000, 500, 100}, nil
}

// MakePermutations runs the backend binary against every reference and
// target FASTA file at the given block size and returns the permutations
// file it is expected to emit.
func (s sibeliaBackend) MakePermutations(workDir string, blockSize int, references, targets []string, threads int) (string, error) {
	bin := s.executable()
	outDir := filepath.Join(workDir, fmt.Sprintf("blocks-%d", blockSize))

	args := []string{"-m", strconv.Itoa(blockSize), "-o", outDir, "-t", strconv.Itoa(threads)}
	for _, g := range append(append([]string(nil), references...), targets...) {
		args = append(args, g+".fasta")
	}

	cmd := exec.Command(bin, args...)
	cmd.Dir = workDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", &ragouterr.BackendError{Msg: bin + " failed: " + err.Error() + ": " + string(out)}
	}

	permFile := filepath.Join(outDir, "genomes_permutations.txt")
	if _, statErr := os.Stat(permFile); statErr != nil {
		return "", &ragouterr.BackendError{Msg: bin + " ran but did not produce " + permFile}
	}
	return permFile, nil
}

func (s sibeliaBackend) TargetFasta(workDir string, targets []string) (string, error) {
	return locateTargetFasta(workDir, targets)
}
