package pipeline

import "path/filepath"

// Layout names every file genoalign writes under the output directory.
type Layout struct {
	OutDir string
}

func (l Layout) Staging() string   { return filepath.Join(l.OutDir, "user_gbk") }
func (l Layout) GuideTree() string { return filepath.Join(l.OutDir, "guide_tree.nwk") }
func (l Layout) LeafMap() string   { return filepath.Join(l.OutDir, "guide_tree_leaves.tsv") }
func (l Layout) MauveDir() string  { return filepath.Join(l.OutDir, "mauve") }
func (l Layout) XMFA() string      { return filepath.Join(l.MauveDir(), "mauve.xmfa") }
func (l Layout) Backbone() string  { return filepath.Join(l.MauveDir(), "mauve.bbone") }
func (l Layout) CacheKey() string  { return filepath.Join(l.MauveDir(), "mauve.key") }
func (l Layout) Manifest() string  { return filepath.Join(l.OutDir, "run.yaml") }

// SpeciesTree is the Newick copy of a NEXUS input tree handed to genoPlotR,
// which only reads Newick.
func (l Layout) SpeciesTree() string { return filepath.Join(l.OutDir, "species_tree.nwk") }

// Plot is the figure path for one image format, e.g. "svg".
func (l Layout) Plot(format string) string {
	return filepath.Join(l.OutDir, "genoPlotR_genome_align."+format)
}
