// Package guidetree turns a user phylogeny into a progressiveMauve guide
// tree. progressiveMauve matches guide-tree leaves to the base names of the
// genome files on its command line, so leaves are relabelled seq1..seqN
// and the genome files are handed over in the same order.
package guidetree

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"genoalign/internal/phylo"
)

const PlaceholderPrefix = "seq"

var ErrNoTerminals = errors.New("guide tree has no terminal nodes")

// Placeholder returns the label of the k-th leaf (1-indexed).
func Placeholder(k int) string {
	return PlaceholderPrefix + strconv.Itoa(k)
}

// Normalize returns a copy of t whose k-th leaf is named seq{k}. Internal
// names and branch lengths are kept and t itself is left untouched.
func Normalize(t *phylo.Tree) (*phylo.Tree, error) {
	return relabel(t, func(k int, _ string) string { return Placeholder(k) })
}

func relabel(t *phylo.Tree, label func(k int, old string) string) (*phylo.Tree, error) {
	if len(t.Leaves()) == 0 {
		return nil, ErrNoTerminals
	}
	return t.Relabel(label), nil
}

// Leaf ties one input genome to its guide-tree label and staged file.
type Leaf struct {
	Original    string `yaml:"original"`
	Placeholder string `yaml:"placeholder"`
	Path        string `yaml:"path"`
}

// LeafIndex is built once from the original tree. Both the renamed guide
// tree and the aligner's genome argument list are projections of it, so
// the two can never disagree on order.
type LeafIndex []Leaf

// FileResolver maps leaf names to genome files, one per name, same order.
type FileResolver interface {
	Resolve(names []string) ([]string, error)
}

// NewLeafIndex reads the leaf names of t, checks that they are usable
// identifiers and resolves their genome files. Nothing is returned unless
// every leaf resolves.
func NewLeafIndex(t *phylo.Tree, r FileResolver) (LeafIndex, error) {
	names := t.LeafNames()
	if len(names) == 0 {
		return nil, ErrNoTerminals
	}
	seen := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("leaf %d of the tree has no name", i+1)
		}
		if j, dup := seen[name]; dup {
			return nil, fmt.Errorf("leaf name %q appears at positions %d and %d", name, j+1, i+1)
		}
		seen[name] = i
	}
	paths, err := r.Resolve(names)
	if err != nil {
		return nil, err
	}
	if len(paths) != len(names) {
		return nil, fmt.Errorf("resolver returned %d files for %d leaves", len(paths), len(names))
	}
	idx := make(LeafIndex, len(names))
	for i, name := range names {
		idx[i] = Leaf{Original: name, Placeholder: Placeholder(i + 1), Path: paths[i]}
	}
	return idx, nil
}

// Tree projects the index onto t, which must be the tree the index was
// built from.
func (idx LeafIndex) Tree(t *phylo.Tree) (*phylo.Tree, error) {
	if n := len(t.Leaves()); n != len(idx) {
		return nil, fmt.Errorf("tree has %d leaves but the index has %d", n, len(idx))
	}
	var mismatch error
	out, err := relabel(t, func(k int, old string) string {
		if old != idx[k-1].Original && mismatch == nil {
			mismatch = fmt.Errorf("leaf %d is %q, index expects %q", k, old, idx[k-1].Original)
		}
		return idx[k-1].Placeholder
	})
	if err != nil {
		return nil, err
	}
	if mismatch != nil {
		return nil, mismatch
	}
	return out, nil
}

// Files returns the genome files in guide-tree leaf order.
func (idx LeafIndex) Files() []string {
	files := make([]string, len(idx))
	for i, l := range idx {
		files[i] = l.Path
	}
	return files
}

// WriteTable writes the index as a tab-separated table with a header.
func (idx LeafIndex) WriteTable(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write([]string{"placeholder", "original", "path"}); err != nil {
		return err
	}
	for _, l := range idx {
		if err := cw.Write([]string{l.Placeholder, l.Original, l.Path}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
