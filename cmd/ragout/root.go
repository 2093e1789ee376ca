package main

import (
	"github.com/spf13/cobra"
)

// cliOptions carries every flag the command accepts, kept as a plain
// struct so runRagout stays testable without going through cobra.
type cliOptions struct {
	outDir     string
	synteny    string
	noRefine   bool
	overwrite  bool
	repeats    bool
	debug      bool
	threads    int
	overlap    string
	overlapTol int
}

func newRootCmd() *cobra.Command {
	var opts cliOptions

	cmd := &cobra.Command{
		Use:   "ragout recipe_file",
		Short: "Reference-assisted scaffolding of draft genome assemblies",
		Long: "ragout scaffolds a draft assembly against related reference genomes:\n" +
			"it infers synteny blocks via an external backend, builds a breakpoint\n" +
			"graph, and places contigs by minimizing phylogenetic parsimony cost\n" +
			"across a cascade of block-size resolutions.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRagout(args[0], opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.outDir, "outdir", "ragout-out", "output directory")
	flags.StringVar(&opts.synteny, "synteny", "sibelia", "synteny backend: sibelia|cactus|maf|hal")
	flags.BoolVar(&opts.noRefine, "no-refine", false, "skip the closing refine stage")
	flags.BoolVar(&opts.overwrite, "overwrite", false, "overwrite an existing output directory")
	flags.BoolVar(&opts.repeats, "repeats", false, "keep repetitive blocks the backend would otherwise drop")
	flags.BoolVar(&opts.debug, "debug", false, "dump per-stage chimera breaks and scaffold artifacts")
	flags.IntVar(&opts.threads, "threads", 1, "worker threads to hand the synteny backend")
	flags.StringVar(&opts.overlap, "overlap-graph", "", "DOT graph of contig-orientation overlaps to splice into scaffold gaps")
	flags.IntVar(&opts.overlapTol, "overlap-tolerance", 200, "bp tolerance between an overlap path's length and the estimated gap it fills")

	return cmd
}
