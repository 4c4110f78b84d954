// Package genome locates, stages and sanity-checks the genome files handed
// to progressiveMauve.
package genome

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Format is a supported genome file format.
type Format int

const (
	GenBank Format = iota
	FASTA
)

func (f Format) Ext() string {
	switch f {
	case GenBank:
		return ".gbk"
	case FASTA:
		return ".fa"
	}
	return ""
}

func (f Format) String() string {
	switch f {
	case GenBank:
		return "genbank"
	case FASTA:
		return "fasta"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Formats in lookup priority order: annotated genomes first.
var Formats = []Format{GenBank, FASTA}

func FormatOf(path string) (Format, bool) {
	ext := filepath.Ext(path)
	for _, f := range Formats {
		if ext == f.Ext() {
			return f, true
		}
	}
	return 0, false
}

// NotFoundError is returned when no supported file exists for a leaf.
type NotFoundError struct {
	Leaf  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no genome file for leaf %q (tried %s)", e.Leaf, strings.Join(e.Tried, ", "))
}

// Resolver finds {Dir}/{leaf}{ext} for each leaf, trying Formats in order.
type Resolver struct {
	Dir     string
	Formats []Format
}

func NewResolver(dir string) *Resolver {
	return &Resolver{Dir: dir, Formats: Formats}
}

// Resolve returns one path per name, in the order given. It stops at the
// first leaf with no file and then returns no paths at all.
func (r *Resolver) Resolve(names []string) ([]string, error) {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		base := filepath.Join(r.Dir, name)
		tried := make([]string, 0, len(r.Formats))
		found := ""
		for _, f := range r.Formats {
			candidate := base + f.Ext()
			tried = append(tried, candidate)
			ok, err := isFile(candidate)
			if err != nil {
				return nil, err
			}
			if ok {
				found = candidate
				break
			}
		}
		if found == "" {
			return nil, &NotFoundError{Leaf: name, Tried: tried}
		}
		paths = append(paths, found)
	}
	return paths, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not stat genome file: %w", err)
	}
	return info.Mode().IsRegular(), nil
}
