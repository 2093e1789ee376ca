package synteny

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ragout-go/ragout/internal/ragouterr"
)

// mafBackend locates permutations already decomposed by an external
// MAF-alignment-driven pipeline run ahead of time: file-glob, rather than
// process-exec, since the decomposition step here is a precomputed
// artifact rather than a binary this module invokes directly.
type mafBackend struct{}

// InferBlockScale discovers the block-size cascade from whatever
// blocks-<N> directories the external pipeline already deposited under
// workDir, largest first.
func (mafBackend) InferBlockScale(workDir string, references, targets []string) ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(workDir, "blocks-*"))
	if err != nil {
		return nil, &ragouterr.BackendError{Msg: "globbing blocks-* under " + workDir + ": " + err.Error()}
	}
	var scales []int
	for _, m := range matches {
		info, statErr := os.Stat(m)
		if statErr != nil || !info.IsDir() {
			continue
		}
		n, convErr := strconv.Atoi(strings.TrimPrefix(filepath.Base(m), "blocks-"))
		if convErr != nil {
			continue
		}
		scales = append(scales, n)
	}
	if len(scales) == 0 {
		return nil, &ragouterr.BackendError{Msg: "no blocks-<N> directories found under " + workDir}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scales)))
	return scales, nil
}

// MakePermutations expects the MAF-driven pipeline to have already
// deposited a permutations file at the conventional path for blockSize.
func (mafBackend) MakePermutations(workDir string, blockSize int, references, targets []string, threads int) (string, error) {
	permFile := filepath.Join(workDir, fmt.Sprintf("blocks-%d", blockSize), "genomes_permutations.txt")
	if _, err := os.Stat(permFile); err != nil {
		return "", &ragouterr.BackendError{Msg: "expected a precomputed permutations file at " + permFile}
	}
	return permFile, nil
}

func (mafBackend) TargetFasta(workDir string, targets []string) (string, error) {
	return locateTargetFasta(workDir, targets)
}

// locateTargetFasta globs for the first target genome's FASTA file under
// workDir, trying both common extensions; shared by every backend whose
// output format does not itself carry the raw contig sequences.
func locateTargetFasta(workDir string, targets []string) (string, error) {
	if len(targets) == 0 {
		return "", &ragouterr.BackendError{Msg: "no target genomes configured"}
	}
	for _, ext := range []string{".fasta", ".fa"} {
		path := filepath.Join(workDir, targets[0]+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", &ragouterr.BackendError{Msg: "no FASTA file found for target genome " + targets[0] + " under " + workDir}
}
