package phylo

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/evolbioinfo/gotree/io/newick"
	"github.com/evolbioinfo/gotree/io/nexus"
	"github.com/evolbioinfo/gotree/tree"
)

// Format is a textual tree serialization.
type Format int

const (
	Newick Format = iota
	Nexus
)

func (f Format) String() string {
	switch f {
	case Newick:
		return "newick"
	case Nexus:
		return "nexus"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatOf picks the format from a file extension; anything that is not
// .nex/.nexus is read as Newick.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nex", ".nexus":
		return Nexus
	}
	return Newick
}

// ParseError reports a tree source that could not be parsed or held no tree.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse tree %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadFile reads the tree in path.
func LoadFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open tree file: %w", err)
	}
	defer f.Close()
	t, err := Load(f, FormatOf(path))
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Source = path
		}
		return nil, err
	}
	return t, nil
}

// Load parses a single tree. Newick input must hold exactly one tree; for
// NEXUS input with several trees the first one in the TREES block is used.
func Load(r io.Reader, format Format) (*Tree, error) {
	t, err := load(r, format)
	if err != nil {
		return nil, err
	}
	if t.empty() {
		return nil, &ParseError{Source: format.String(), Err: fmt.Errorf("input contains no tree")}
	}
	return t, nil
}

func load(r io.Reader, format Format) (*Tree, error) {
	if format == Nexus {
		nxs, err := nexus.NewParser(r).Parse()
		if err != nil {
			return nil, &ParseError{Source: format.String(), Err: err}
		}
		return Wrap(nxs.FirstTree()), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read tree: %w", err)
	}
	body, rootLen, err := firstTree(data)
	if err != nil {
		return nil, &ParseError{Source: format.String(), Err: err}
	}
	gt, err := newick.NewParser(bytes.NewReader(body)).Parse()
	if err != nil {
		return nil, &ParseError{Source: format.String(), Err: err}
	}
	t := Wrap(gt)
	t.rootLen = rootLen
	return t, nil
}

// firstTree cuts data after the ';' that ends the first tree and rejects
// anything but whitespace after it. Quoted labels and [comments] may hold
// ';'. A root branch length is cut out of the returned text and returned on
// its own, as gotree drops it. Input without a terminator is returned as is
// for gotree to report.
func firstTree(data []byte) (body []byte, rootLen float64, err error) {
	quoted, comment, depth, rootColon := false, 0, 0, -1
	for i, c := range data {
		switch {
		case quoted:
			if c == '\'' {
				quoted = false
			}
		case comment > 0:
			switch c {
			case '[':
				comment++
			case ']':
				comment--
			}
		case c == '\'':
			quoted = true
		case c == '[':
			comment++
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ':' && depth == 0:
			rootColon = i
		case c == ';':
			rest := bytes.TrimSpace(data[i+1:])
			if len(rest) > 0 {
				if rest[0] == '(' {
					return nil, 0, fmt.Errorf("input holds more than one tree")
				}
				return nil, 0, fmt.Errorf("unexpected text after tree: %q", truncate(string(rest), 20))
			}
			if rootColon >= 0 {
				lit := strings.TrimSpace(string(data[rootColon+1 : i]))
				if v, perr := strconv.ParseFloat(lit, 64); perr == nil {
					return append(append([]byte{}, data[:rootColon]...), ';'), v, nil
				}
			}
			return data[:i+1], tree.NIL_LENGTH, nil
		}
	}
	return data, tree.NIL_LENGTH, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
