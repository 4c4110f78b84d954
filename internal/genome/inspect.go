package genome

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/evolbioinfo/goalign/io/fasta"
)

// Summary is what a quick look at a genome file tells us.
type Summary struct {
	Path     string
	Format   Format
	Records  int
	Residues int
}

// Inspect opens a genome file and counts its records and residues. It only
// checks that the file is readable in its declared format; it does not
// validate annotations.
func Inspect(path string) (*Summary, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, fmt.Errorf("unsupported genome file %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open genome file: %w", err)
	}
	defer f.Close()

	s := &Summary{Path: path, Format: format}
	switch format {
	case FASTA:
		bag, err := fasta.NewParser(f).ParseUnalign()
		if err != nil {
			return nil, fmt.Errorf("could not parse fasta %s: %w", path, err)
		}
		for _, seq := range bag.Sequences() {
			s.Records++
			s.Residues += len(seq.Sequence())
		}
	case GenBank:
		if err := scanGenBank(bufio.NewScanner(f), s); err != nil {
			return nil, fmt.Errorf("could not read genbank %s: %w", path, err)
		}
	}
	if s.Records == 0 {
		return nil, fmt.Errorf("genome file %s holds no %s records", path, format)
	}
	return s, nil
}

// scanGenBank counts LOCUS lines and adds up their declared lengths,
// e.g. "LOCUS       NC_000913            4641652 bp    DNA     circular".
func scanGenBank(sc *bufio.Scanner, s *Summary) error {
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "LOCUS") {
			continue
		}
		s.Records++
		fields := strings.Fields(line)
		for i := 1; i+1 < len(fields); i++ {
			if fields[i+1] == "bp" || fields[i+1] == "aa" {
				if n, err := strconv.Atoi(fields[i]); err == nil {
					s.Residues += n
				}
				break
			}
		}
	}
	return sc.Err()
}
