package external

import (
	"context"
	"fmt"
	"os"
)

// AlignJob describes one progressiveMauve run. GuideTree is optional; when
// set, its leaves must be named seq1..seqN for Genomes[0..N-1].
type AlignJob struct {
	XMFA      string
	Backbone  string
	GuideTree string
	Genomes   []string
}

type Aligner struct {
	Binary string
	Runner Runner
}

func (a *Aligner) Command(job AlignJob) Command {
	args := []string{
		"--output=" + job.XMFA,
		"--backbone-output=" + job.Backbone,
	}
	if job.GuideTree != "" {
		args = append(args, "--input-guide-tree="+job.GuideTree)
	}
	args = append(args, job.Genomes...)
	return Command{Tool: "progressiveMauve", Path: a.Binary, Args: args}
}

// Align runs progressiveMauve and checks it left a backbone file behind.
func (a *Aligner) Align(ctx context.Context, job AlignJob) error {
	if len(job.Genomes) < 2 {
		return fmt.Errorf("alignment needs at least two genomes, got %d", len(job.Genomes))
	}
	if err := a.Runner.Run(ctx, a.Command(job)); err != nil {
		return err
	}
	if _, err := os.Stat(job.Backbone); err != nil {
		return fmt.Errorf("progressiveMauve produced no backbone file: %w", err)
	}
	return nil
}
