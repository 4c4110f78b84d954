// Package pipeline runs a whole genoalign job: stage genomes, build the
// guide tree, align with progressiveMauve, then plot with genoPlotR.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"genoalign/internal/external"
	"genoalign/internal/genome"
	"genoalign/internal/guidetree"
	"genoalign/internal/phylo"
)

// Options are the per-run inputs. TreeFile may be empty, in which case
// every genome in GenomeDir is aligned without a guide tree.
type Options struct {
	GenomeDir string
	OutDir    string
	TreeFile  string
	Formats   []string
	Width     float64
	Height    float64
	TreeWidth float64
	// Force realigns even when the existing backbone matches the inputs.
	Force bool
}

func (o Options) validate() error {
	if o.GenomeDir == "" {
		return fmt.Errorf("genome directory is required")
	}
	if o.OutDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if len(o.Formats) == 0 {
		return fmt.Errorf("at least one plot format is required")
	}
	for _, f := range o.Formats {
		if !external.ValidFormat(f) {
			return fmt.Errorf("unsupported plot format %q", f)
		}
	}
	return nil
}

type Pipeline struct {
	log     *zap.Logger
	aligner *external.Aligner
	plotter *external.Plotter
	reuse   bool
}

// New builds a pipeline. With reuse set, an existing backbone is kept when
// its recorded inputs match the current ones.
func New(log *zap.Logger, aligner *external.Aligner, plotter *external.Plotter, reuse bool) *Pipeline {
	return &Pipeline{log: log, aligner: aligner, plotter: plotter, reuse: reuse}
}

// Run executes every step in order and stops at the first error. The
// manifest is only written after all plots were produced.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Manifest, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	layout := Layout{OutDir: opts.OutDir}
	m := newManifest()
	m.GenomeDir, m.TreeFile = opts.GenomeDir, opts.TreeFile
	log := p.log.With(zap.String("run_id", m.RunID))

	var tree *phylo.Tree
	if opts.TreeFile != "" {
		var err error
		if tree, err = phylo.LoadFile(opts.TreeFile); err != nil {
			return nil, err
		}
		log.Info("loaded tree", zap.String("file", opts.TreeFile), zap.Int("leaves", len(tree.Leaves())))
	}

	if err := os.MkdirAll(layout.Staging(), 0755); err != nil {
		return nil, fmt.Errorf("could not create output directory: %w", err)
	}
	n, err := genome.Stage(ctx, opts.GenomeDir, layout.Staging())
	if err != nil {
		return nil, err
	}
	log.Info("staged genomes", zap.Int("files", n), zap.String("dir", layout.Staging()))

	m.PlotTree = opts.TreeFile
	if tree != nil && phylo.FormatOf(opts.TreeFile) == phylo.Nexus {
		if err := phylo.SaveFile(layout.SpeciesTree(), tree, true); err != nil {
			return nil, err
		}
		m.PlotTree = layout.SpeciesTree()
		log.Info("converted NEXUS tree for genoPlotR", zap.String("file", m.PlotTree))
	}

	guideText := ""
	if tree != nil {
		idx, guide, err := BuildGuideTree(tree, layout.Staging())
		if err != nil {
			return nil, err
		}
		if err := WriteGuideTree(layout, tree, idx, guide); err != nil {
			return nil, err
		}
		guideText = guide.Newick()
		m.GuideTree, m.Leaves, m.Genomes = layout.GuideTree(), idx, idx.Files()
		for _, l := range idx {
			log.Debug("guide tree leaf", zap.String("placeholder", l.Placeholder), zap.String("original", l.Original), zap.String("path", l.Path))
		}
	} else {
		if m.Genomes, err = genome.Discover(layout.Staging()); err != nil {
			return nil, err
		}
		log.Info("no tree given, aligning every staged genome", zap.Int("genomes", len(m.Genomes)))
	}

	for _, path := range m.Genomes {
		s, err := genome.Inspect(path)
		if err != nil {
			return nil, err
		}
		log.Debug("genome", zap.String("path", s.Path), zap.Stringer("format", s.Format),
			zap.Int("records", s.Records), zap.Int("residues", s.Residues))
	}

	if m.Alignment, err = p.align(ctx, log, layout, m.GuideTree, guideText, m.Genomes, opts.Force); err != nil {
		return nil, err
	}

	for _, format := range opts.Formats {
		job := external.PlotJob{
			Backbone:  layout.Backbone(),
			Image:     layout.Plot(format),
			Tree:      m.PlotTree,
			Width:     opts.Width,
			Height:    opts.Height,
			TreeWidth: opts.TreeWidth,
		}
		if err := p.plotter.Plot(ctx, job); err != nil {
			return nil, err
		}
		log.Info("wrote figure", zap.String("file", job.Image))
		m.Plots = append(m.Plots, job.Image)
	}

	m.Finished = time.Now().UTC()
	if err := m.Save(layout.Manifest()); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *Pipeline) align(ctx context.Context, log *zap.Logger, layout Layout, guidePath, guideText string, genomes []string, force bool) (AlignmentRecord, error) {
	rec := AlignmentRecord{XMFA: layout.XMFA(), Backbone: layout.Backbone()}
	key, err := alignmentKey(guideText, genomes)
	if err != nil {
		return rec, err
	}
	rec.Key = key
	if p.reuse && !force {
		ok, err := reusable(layout, key)
		if err != nil {
			return rec, fmt.Errorf("could not check previous alignment: %w", err)
		}
		if ok {
			log.Info("backbone matches inputs, skipping progressiveMauve", zap.String("backbone", rec.Backbone))
			rec.Reused = true
			return rec, nil
		}
	}

	if err := os.MkdirAll(layout.MauveDir(), 0755); err != nil {
		return rec, fmt.Errorf("could not create alignment directory: %w", err)
	}
	if err := os.Remove(layout.CacheKey()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return rec, fmt.Errorf("could not clear alignment key: %w", err)
	}
	job := external.AlignJob{XMFA: rec.XMFA, Backbone: rec.Backbone, GuideTree: guidePath, Genomes: genomes}
	if err := p.aligner.Align(ctx, job); err != nil {
		return rec, err
	}
	if err := os.WriteFile(layout.CacheKey(), []byte(key+"\n"), 0644); err != nil {
		return rec, fmt.Errorf("could not record alignment key: %w", err)
	}
	return rec, nil
}

// BuildGuideTree resolves the genome file of every leaf of t in genomeDir
// and derives the seqN-labelled guide tree from the same leaf index.
func BuildGuideTree(t *phylo.Tree, genomeDir string) (guidetree.LeafIndex, *phylo.Tree, error) {
	idx, err := guidetree.NewLeafIndex(t, genome.NewResolver(genomeDir))
	if err != nil {
		return nil, nil, err
	}
	guide, err := idx.Tree(t)
	if err != nil {
		return nil, nil, err
	}
	return idx, guide, nil
}

// WriteGuideTree writes the canonical guide tree and its leaf table, then
// reads the guide tree back the way progressiveMauve will and checks it
// against t, the tree it was derived from.
func WriteGuideTree(layout Layout, t *phylo.Tree, idx guidetree.LeafIndex, guide *phylo.Tree) error {
	if err := os.MkdirAll(layout.OutDir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}
	if err := phylo.SaveFile(layout.GuideTree(), guide, true); err != nil {
		return err
	}
	if err := checkGuideTree(layout.GuideTree(), t, idx); err != nil {
		os.Remove(layout.GuideTree())
		return err
	}
	f, err := os.Create(layout.LeafMap())
	if err != nil {
		return fmt.Errorf("could not create leaf table: %w", err)
	}
	if err := idx.WriteTable(f); err != nil {
		f.Close()
		return fmt.Errorf("could not write leaf table: %w", err)
	}
	return f.Close()
}

func checkGuideTree(path string, t *phylo.Tree, idx guidetree.LeafIndex) error {
	written, err := phylo.LoadFile(path)
	if err != nil {
		return fmt.Errorf("guide tree cannot be read back: %w", err)
	}
	if err := phylo.Diff(t, written); err != nil {
		return fmt.Errorf("guide tree %s differs from the input tree: %w", path, err)
	}
	names := written.LeafNames()
	if len(names) != len(idx) {
		return fmt.Errorf("guide tree %s has %d leaves, index has %d", path, len(names), len(idx))
	}
	for i, l := range idx {
		if names[i] != l.Placeholder {
			return fmt.Errorf("guide tree %s: leaf %d is %q, want %q", path, i+1, names[i], l.Placeholder)
		}
	}
	return nil
}
