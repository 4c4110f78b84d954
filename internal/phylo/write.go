package phylo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/evolbioinfo/gotree/tree"
)

// Save writes t as Newick. Canonical output is one line and byte-for-byte
// reproducible; otherwise the tree is indented one node per line.
func Save(w io.Writer, t *Tree, canonical bool) error {
	if t.empty() {
		return fmt.Errorf("cannot write an empty tree")
	}
	var sb strings.Builder
	if canonical {
		t.write(&sb, -1)
	} else {
		t.write(&sb, 0)
	}
	bw := bufio.NewWriter(w)
	bw.WriteString(sb.String())
	bw.WriteByte('\n')
	return bw.Flush()
}

func SaveFile(path string, t *Tree, canonical bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create tree file: %w", err)
	}
	if err := Save(f, t, canonical); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// write serializes t on one line when depth is negative, else indented from
// depth.
func (t *Tree) write(sb *strings.Builder, depth int) {
	writeNode(sb, t.t.Root(), nil, nil, depth)
	if t.rootLen != tree.NIL_LENGTH {
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(t.rootLen, 'f', -1, 64))
	}
	sb.WriteByte(';')
}

// writeNode follows gotree's node layout: name or support, node comments,
// length, edge comments. gotree reads a number up to the next ( ) , : ; so
// in the indented form a branch length is always followed directly by ','
// or ')' and line breaks only come after those.
func writeNode(sb *strings.Builder, cur, prev *tree.Node, e *tree.Edge, depth int) {
	next := -1
	if depth >= 0 {
		sb.WriteString(strings.Repeat("  ", depth))
		next = depth + 1
	}
	edges := cur.Edges()
	open := false
	for i, child := range cur.Neigh() {
		if child == prev {
			continue
		}
		if open {
			sb.WriteByte(',')
		} else {
			sb.WriteByte('(')
			open = true
		}
		if depth >= 0 {
			sb.WriteByte('\n')
		}
		writeNode(sb, child, cur, edges[i], next)
	}
	if open {
		sb.WriteByte(')')
	}
	sb.WriteString(cur.Name())
	if e != nil && cur.Name() == "" && e.Support() != tree.NIL_SUPPORT {
		sb.WriteString(strconv.FormatFloat(e.Support(), 'f', -1, 64))
	}
	writeComments(sb, cur.Comments())
	if e == nil {
		return
	}
	if e.Length() != tree.NIL_LENGTH {
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(e.Length(), 'f', -1, 64))
	}
	writeComments(sb, e.Comments())
}

func writeComments(sb *strings.Builder, comments []string) {
	for _, c := range comments {
		sb.WriteByte('[')
		sb.WriteString(c)
		sb.WriteByte(']')
	}
}
