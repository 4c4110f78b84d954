package genome

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrNoGenomes = errors.New("no genome files found")

// Discover lists the genomes of dir for runs without a tree: one file per
// base name, GenBank preferred over FASTA, sorted by base name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read genome directory: %w", err)
	}
	best := make(map[string]Format)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		f, ok := FormatOf(e.Name())
		if !ok {
			continue
		}
		base := strings.TrimSuffix(e.Name(), f.Ext())
		if cur, seen := best[base]; !seen || f < cur {
			best[base] = f
		}
	}
	if len(best) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoGenomes, dir)
	}
	names := make([]string, 0, len(best))
	for base := range best {
		names = append(names, base)
	}
	sort.Strings(names)
	paths := make([]string, len(names))
	for i, base := range names {
		paths[i] = filepath.Join(dir, base+best[base].Ext())
	}
	return paths, nil
}
