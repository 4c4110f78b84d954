package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"genoalign/internal/config"
	"genoalign/internal/external"
	"genoalign/internal/logging"
	"genoalign/internal/phylo"
	"genoalign/internal/pipeline"
)

var version = "dev"

// app holds the flag values and the state built from them for one command
// tree, so every newRootCmd call starts from the defaults.
type app struct {
	configPath string
	verbose    bool

	gbkDir     string
	outDir     string
	treeFile   string
	formats    []string
	plotWidth  float64
	plotHeight float64
	treeWidth  float64
	force      bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	defaults := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "genoalign",
		Short: "Align genomes with progressiveMauve and plot them with genoPlotR",
		Long: `genoalign copies a directory of genomes (*.gbk, or *.fa when no GenBank
file exists) into the output directory, aligns them with progressiveMauve
and renders the backbone with genoPlotR.

With --tree, the Newick/NEXUS tree decides the genome order and is turned
into a progressiveMauve guide tree whose leaves are renamed seq1..seqN. The
figure shows the original tree.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runAlign,
	}

	guideTreeCmd := &cobra.Command{
		Use:   "guide-tree",
		Short: "Write only the progressiveMauve guide tree and its leaf table",
		Long: `Resolves a genome file for every leaf of --tree in --gbk_dir, then writes
guide_tree.nwk and guide_tree_leaves.tsv to --outdir. No external tool runs.`,
		Args: cobra.NoArgs,
		RunE: a.runGuideTree,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the genoalign version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "genoalign", version)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging, including tool output")

	f := rootCmd.Flags()
	f.StringVarP(&a.gbkDir, "gbk_dir", "g", "", "input genome directory (*.gbk, *.fa)")
	f.StringVarP(&a.outDir, "outdir", "o", "", "output directory")
	f.StringVarP(&a.treeFile, "tree", "t", "", "Newick or NEXUS species tree")
	f.StringSliceVarP(&a.formats, "format", "f", defaults.Plot.Formats, "figure formats (svg, pdf, png, jpg, tiff)")
	f.Float64Var(&a.plotWidth, "plot_width", defaults.Plot.Width, "figure width in inches")
	f.Float64Var(&a.plotHeight, "plot_height", defaults.Plot.Height, "figure height in inches (0: sized by genoPlotR)")
	f.Float64Var(&a.treeWidth, "tree_width", defaults.Plot.TreeWidth, "width of the tree panel in inches")
	f.BoolVar(&a.force, "force", false, "rerun progressiveMauve even if the backbone is up to date")
	_ = rootCmd.MarkFlagRequired("gbk_dir")
	_ = rootCmd.MarkFlagRequired("outdir")

	gf := guideTreeCmd.Flags()
	gf.StringVarP(&a.gbkDir, "gbk_dir", "g", "", "input genome directory (*.gbk, *.fa)")
	gf.StringVarP(&a.outDir, "outdir", "o", "", "output directory")
	gf.StringVarP(&a.treeFile, "tree", "t", "", "Newick or NEXUS species tree")
	_ = guideTreeCmd.MarkFlagRequired("gbk_dir")
	_ = guideTreeCmd.MarkFlagRequired("outdir")
	_ = guideTreeCmd.MarkFlagRequired("tree")

	rootCmd.AddCommand(guideTreeCmd, versionCmd)
	return rootCmd
}

// setup loads the config, lets explicitly set flags override it and builds
// the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Plot.Formats = a.formats
	}
	if flags.Changed("plot_width") {
		cfg.Plot.Width = a.plotWidth
	}
	if flags.Changed("plot_height") {
		cfg.Plot.Height = a.plotHeight
	}
	if flags.Changed("tree_width") {
		cfg.Plot.TreeWidth = a.treeWidth
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format, a.verbose)
	return err
}

func (a *app) runAlign(cmd *cobra.Command, args []string) error {
	timeout, err := a.cfg.ToolTimeout()
	if err != nil {
		return err
	}
	mauve, err := external.LookPath("progressiveMauve", a.cfg.Tools.Mauve)
	if err != nil {
		return err
	}
	script, err := external.LookPath("genoPlotR", a.cfg.Tools.Plotter)
	if err != nil {
		return err
	}
	runner := external.NewExecRunner(a.logger, timeout)
	p := pipeline.New(a.logger,
		&external.Aligner{Binary: mauve, Runner: runner},
		&external.Plotter{Script: script, Runner: runner},
		a.cfg.Align.Reuse)

	m, err := p.Run(cmd.Context(), pipeline.Options{
		GenomeDir: a.gbkDir,
		OutDir:    a.outDir,
		TreeFile:  a.treeFile,
		Formats:   a.cfg.Plot.Formats,
		Width:     a.cfg.Plot.Width,
		Height:    a.cfg.Plot.Height,
		TreeWidth: a.cfg.Plot.TreeWidth,
		Force:     a.force,
	})
	if err != nil {
		return err
	}
	a.logger.Info("done",
		zap.String("run_id", m.RunID),
		zap.Bool("alignment_reused", m.Alignment.Reused),
		zap.Strings("plots", m.Plots))
	return nil
}

func (a *app) runGuideTree(cmd *cobra.Command, args []string) error {
	tree, err := phylo.LoadFile(a.treeFile)
	if err != nil {
		return err
	}
	idx, guide, err := pipeline.BuildGuideTree(tree, a.gbkDir)
	if err != nil {
		return err
	}
	layout := pipeline.Layout{OutDir: a.outDir}
	if err := pipeline.WriteGuideTree(layout, tree, idx, guide); err != nil {
		return err
	}
	a.logger.Info("wrote guide tree", zap.String("file", layout.GuideTree()), zap.Int("leaves", len(idx)))
	return idx.WriteTable(cmd.OutOrStdout())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
