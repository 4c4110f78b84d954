package external

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// ImageFormats the genoPlotR script can write, chosen by output extension.
var ImageFormats = []string{"svg", "pdf", "png", "jpg", "jpeg", "tiff"}

func ValidFormat(format string) bool {
	return slices.Contains(ImageFormats, strings.ToLower(format))
}

// PlotJob describes one rendering. Tree is the user's original tree, shown
// next to the genomes; it may be empty. Sizes <= 0 are left to the script.
type PlotJob struct {
	Backbone  string
	Image     string
	Tree      string
	Width     float64
	Height    float64
	TreeWidth float64
}

type Plotter struct {
	Script string
	Runner Runner
}

func (p *Plotter) Command(job PlotJob) (Command, error) {
	format := strings.TrimPrefix(filepath.Ext(job.Image), ".")
	if !ValidFormat(format) {
		return Command{}, fmt.Errorf("unsupported image format %q (want one of %s)", format, strings.Join(ImageFormats, ", "))
	}
	args := []string{job.Backbone, job.Image}
	if job.Tree != "" {
		args = append(args, job.Tree)
	}
	for _, opt := range []struct {
		name  string
		value float64
	}{
		{"width", job.Width},
		{"height", job.Height},
		{"tree_width", job.TreeWidth},
	} {
		if opt.value > 0 {
			args = append(args, "--"+opt.name+"="+strconv.FormatFloat(opt.value, 'f', -1, 64))
		}
	}
	return Command{Tool: "genoPlotR", Path: p.Script, Args: args}, nil
}

// Plot renders one image and checks that it was written.
func (p *Plotter) Plot(ctx context.Context, job PlotJob) error {
	cmd, err := p.Command(job)
	if err != nil {
		return err
	}
	if err := p.Runner.Run(ctx, cmd); err != nil {
		return err
	}
	if _, err := os.Stat(job.Image); err != nil {
		return fmt.Errorf("genoPlotR produced no image: %w", err)
	}
	return nil
}
