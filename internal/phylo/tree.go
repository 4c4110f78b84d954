// Package phylo wraps gotree trees for guide-tree work: loading Newick and
// NEXUS, ordered leaf access, relabelled copies and Newick output.
package phylo

import (
	"strings"

	"github.com/evolbioinfo/gotree/tree"
)

// Tree is a rooted tree. The gotree value is never modified after loading;
// relabelling always works on a clone. The zero Tree is empty.
//
// gotree has no edge above the root, so a root branch length is kept here.
type Tree struct {
	t       *tree.Tree
	rootLen float64
}

// Wrap adopts a gotree tree.
func Wrap(t *tree.Tree) *Tree {
	return &Tree{t: t, rootLen: tree.NIL_LENGTH}
}

func (t *Tree) empty() bool {
	return t == nil || t.t == nil || t.t.Root() == nil
}

// Leaves returns the terminal nodes in pre-order, left to right as written
// in the serialized tree. Every caller that pairs leaves by position relies
// on this order. The root is never a leaf, so a lone root has none.
func (t *Tree) Leaves() []*tree.Node {
	if t.empty() {
		return nil
	}
	root := t.t.Root()
	leaves := make([]*tree.Node, 0)
	t.t.PreOrder(func(cur, prev *tree.Node, e *tree.Edge) (keep bool) {
		if cur != root && cur.Tip() {
			leaves = append(leaves, cur)
		}
		return true
	})
	return leaves
}

// LeafNames returns the unquoted leaf labels in Leaves order.
func (t *Tree) LeafNames() []string {
	leaves := t.Leaves()
	names := make([]string, len(leaves))
	for i, l := range leaves {
		names[i] = Label(l)
	}
	return names
}

func (t *Tree) Clone() *Tree {
	if t.empty() {
		return &Tree{}
	}
	return &Tree{t: t.t.Clone(), rootLen: t.rootLen}
}

// Newick returns the canonical single-line serialization of t. Apart from
// the root branch length and unary roots, which gotree writes without their
// parentheses, it is identical to gotree's own Newick output.
func (t *Tree) Newick() string {
	if t.empty() {
		return ";"
	}
	var sb strings.Builder
	t.write(&sb, -1)
	return sb.String()
}

// Relabel returns a clone whose k-th leaf (1-indexed) is renamed to
// label(k, old), where old is the unquoted current label.
func (t *Tree) Relabel(label func(k int, old string) string) *Tree {
	out := t.Clone()
	for i, l := range out.Leaves() {
		l.SetName(quoteLabel(label(i+1, Label(l))))
	}
	return out
}

// Label returns the node name with Newick single quotes removed. gotree
// keeps the quotes as part of the name.
func Label(n *tree.Node) string {
	name := n.Name()
	if len(name) >= 2 && name[0] == '\'' && name[len(name)-1] == '\'' {
		return strings.ReplaceAll(name[1:len(name)-1], "''", "'")
	}
	return name
}

// Characters that cannot appear in an unquoted Newick label.
const newickMeta = " \t\r\n()[]':;,"

func quoteLabel(name string) string {
	if !strings.ContainsAny(name, newickMeta) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
