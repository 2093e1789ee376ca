package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ragout-go/ragout/internal/merge"
	"github.com/ragout-go/ragout/internal/overlap"
	"github.com/ragout-go/ragout/internal/permutation"
	"github.com/ragout-go/ragout/internal/phylogeny"
	"github.com/ragout-go/ragout/internal/pipeline"
	"github.com/ragout-go/ragout/internal/ragoutctx"
	"github.com/ragout-go/ragout/internal/ragouterr"
	"github.com/ragout-go/ragout/internal/recipe"
	"github.com/ragout-go/ragout/internal/scaffold"
	"github.com/ragout-go/ragout/internal/synteny"
)

// runRagout is the whole pipeline, factored out of cobra's RunE so it can
// be exercised directly in tests without going through flag parsing.
func runRagout(recipePath string, opts cliOptions) error {
	if err := prepareOutDir(opts); err != nil {
		return err
	}

	logger, logFile, err := newLogger(opts)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	recFile, err := os.Open(recipePath)
	if err != nil {
		return errors.Wrap(err, "opening recipe file")
	}
	defer recFile.Close()

	rec, err := recipe.Parse(recFile)
	if err != nil {
		return err
	}
	if len(rec.Targets) != 1 {
		return &ragouterr.RecipeError{Msg: "exactly one target genome is supported per run"}
	}
	targetGenome := rec.Targets[0]
	logger.Info().Strs("references", rec.References).Str("target", targetGenome).Msg("recipe parsed")

	backend, err := synteny.Get(opts.synteny)
	if err != nil {
		return err
	}

	blockSizes, ok := rec.BlockSizes()
	if !ok {
		blockSizes, err = backend.InferBlockScale(opts.outDir, rec.References, rec.Targets)
		if err != nil {
			return err
		}
	}
	logger.Info().Ints("blockSizes", blockSizes).Msg("block-size cascade resolved")

	tree, err := resolveTree(rec, backend, opts, blockSizes, targetGenome, logger)
	if err != nil {
		return err
	}
	if err := rec.ValidateTreeLeaves(tree.LeafNames()); err != nil {
		return err
	}

	stages := pipeline.DefaultStages(blockSizes, opts.repeats)
	if opts.noRefine {
		stages = withoutRefineStage(stages)
	}

	load := stageLoader(backend, opts, rec)
	dbg := ragoutctx.DebugContext{Enabled: opts.debug, Dir: filepath.Join(opts.outDir, "debug")}

	acc, fine, err := pipeline.Run(stages, load, tree, targetGenome, dbg)
	if err != nil {
		return err
	}
	if fine == nil {
		return &ragouterr.RecipeError{Msg: "no stage produced a scaffolded container"}
	}

	scaffolds := merge.Scaffolds(acc, fine)
	scaffold.AssignNames(scaffolds, fine)
	logger.Info().Int("scaffolds", len(scaffolds)).Msg("scaffolding complete")

	if opts.overlap != "" {
		if err := applyOverlaySplices(opts, scaffolds, logger); err != nil {
			return err
		}
	}

	return writeOutputs(opts, backend, rec, scaffolds, logger)
}

// defaultMinGenomes is the always-on floor for the "blocks present in
// fewer than a configured number of genomes are filtered out" invariant:
// a block carried by only one genome contributes no comparative signal.
const defaultMinGenomes = 2

func stageLoader(backend synteny.Backend, opts cliOptions, rec *recipe.Recipe) pipeline.Loader {
	return func(stage pipeline.Stage) (*permutation.Container, error) {
		path, err := backend.MakePermutations(opts.outDir, stage.BlockSize, rec.References, rec.Targets, opts.threads)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "opening permutations file")
		}
		defer f.Close()
		c, err := permutation.ParseFile(f, rec.References, rec.Targets)
		if err != nil {
			return nil, err
		}
		return c.Apply(permutation.FilterOptions{
			MinGenomes: defaultMinGenomes,
			NoRepeats:  !stage.Repeats,
			MergeRuns:  !stage.Indels,
		}), nil
	}
}

// resolveTree uses the recipe's explicit Newick string when present;
// otherwise it infers a guide tree by neighbor-joining over the
// block-sharing distance of the coarsest stage's permutations, per
// spec.md §4.1's tree-topology-inference collaborator.
func resolveTree(rec *recipe.Recipe, backend synteny.Backend, opts cliOptions, blockSizes []int, targetGenome string, logger zerolog.Logger) (*phylogeny.Tree, error) {
	if rec.Tree != nil {
		return phylogeny.FromNewick(*rec.Tree, targetGenome)
	}
	if len(blockSizes) == 0 {
		return nil, &ragouterr.RecipeError{Msg: "no block sizes to infer a guide tree from"}
	}
	logger.Info().Msg("no guide tree given, inferring one by neighbor-joining")

	coarsest := blockSizes[0]
	path, err := backend.MakePermutations(opts.outDir, coarsest, rec.References, rec.Targets, opts.threads)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening coarsest-stage permutations file")
	}
	defer f.Close()

	c, err := permutation.ParseFile(f, rec.References, rec.Targets)
	if err != nil {
		return nil, err
	}
	c = c.Apply(permutation.FilterOptions{MinGenomes: defaultMinGenomes})
	dm, genomes := phylogeny.BlockSharingDistance(c)
	return phylogeny.NeighborJoin(dm, genomes, targetGenome)
}

// applyOverlaySplices runs the optional external overlap post-pass
// (spec.md §4.8): scaffold gaps whose estimated length agrees with a
// simple path through the supplied DOT overlap graph, within
// opts.overlapTol bp, are recorded to overlap-splices.txt alongside the
// other run outputs.
func applyOverlaySplices(opts cliOptions, scaffolds []scaffold.Scaffold, logger zerolog.Logger) error {
	data, err := os.ReadFile(opts.overlap)
	if err != nil {
		return errors.Wrap(err, "reading overlap graph")
	}
	gr, err := overlap.Parse(data)
	if err != nil {
		return err
	}
	splices := overlap.Apply(scaffolds, gr, opts.overlapTol)
	logger.Info().Int("splices", len(splices)).Msg("overlap post-pass complete")

	path := filepath.Join(opts.outDir, "overlap-splices.txt")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating overlap-splices.txt")
	}
	defer f.Close()
	for _, sp := range splices {
		fmt.Fprintf(f, "%s\t%d\t%s\n", scaffolds[sp.ScaffoldIndex].Name, sp.AfterPiece, strings.Join(sp.Path, ","))
	}
	return nil
}

func withoutRefineStage(stages []pipeline.Stage) []pipeline.Stage {
	out := make([]pipeline.Stage, 0, len(stages))
	for _, s := range stages {
		if !s.Refine {
			out = append(out, s)
		}
	}
	return out
}

func prepareOutDir(opts cliOptions) error {
	if info, err := os.Stat(opts.outDir); err == nil {
		if !info.IsDir() {
			return &ragouterr.RecipeError{Msg: opts.outDir + " exists and is not a directory"}
		}
		if !opts.overwrite {
			return &ragouterr.RecipeError{Msg: opts.outDir + " already exists; pass --overwrite to reuse it"}
		}
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	return nil
}

func writeOutputs(opts cliOptions, backend synteny.Backend, rec *recipe.Recipe, scaffolds []scaffold.Scaffold, logger zerolog.Logger) error {
	fastaSrc, err := backend.TargetFasta(opts.outDir, rec.Targets)
	if err != nil {
		return err
	}
	contigs, err := pipeline.ReadTargetFasta(fastaSrc)
	if err != nil {
		return err
	}

	linksPath := filepath.Join(opts.outDir, "scaffolds.links")
	linksFile, err := os.Create(linksPath)
	if err != nil {
		return errors.Wrap(err, "creating scaffolds.links")
	}
	defer linksFile.Close()
	if err := pipeline.WriteLinks(linksFile, scaffolds, contigs); err != nil {
		return errors.Wrap(err, "writing scaffolds.links")
	}

	fastaPath := filepath.Join(opts.outDir, "scaffolds.fasta")
	fastaFile, err := os.Create(fastaPath)
	if err != nil {
		return errors.Wrap(err, "creating scaffolds.fasta")
	}
	defer fastaFile.Close()
	if err := pipeline.WriteFasta(fastaFile, scaffolds, contigs); err != nil {
		return errors.Wrap(err, "writing scaffolds.fasta")
	}

	logger.Info().Str("links", linksPath).Str("fasta", fastaPath).Msg("wrote scaffold outputs")
	return nil
}

// newLogger builds a zerolog.Logger writing to stderr and, once the
// output directory exists, to ragout.log inside it; the file handle is
// returned so the caller can close it once the run finishes.
func newLogger(opts cliOptions) (zerolog.Logger, *os.File, error) {
	level := zerolog.InfoLevel
	if opts.debug {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	writers := []io.Writer{console}

	var logFile *os.File
	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o755); err == nil {
			if f, ferr := os.Create(filepath.Join(opts.outDir, "ragout.log")); ferr == nil {
				logFile = f
				writers = append(writers, f)
			}
		}
	}

	logger := zerolog.New(io.MultiWriter(writers...)).Level(level).With().Timestamp().Logger()
	return logger, logFile, nil
}
