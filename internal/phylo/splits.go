package phylo

import (
	"fmt"
	"strconv"

	"github.com/evolbioinfo/gotree/tree"
	"github.com/fredericlemoine/bitset"
)

// Split is the set of leaf positions (in Leaves order) below one edge of a
// tree, with that edge's length and the name of the node under it. Leaf
// positions rather than names are used so trees whose leaves were
// relabelled can still be compared.
type Split struct {
	split  *bitset.BitSet
	tip    bool
	name   string
	length float64
}

func (s *Split) Length() int {
	return int(s.split.Len())
}

// Clade maps the split back to leaf names.
func (s *Split) Clade(taxa []string) []string {
	clade := make([]string, 0)
	for i := uint(0); i < s.split.Len(); i++ {
		if s.split.Test(i) {
			clade = append(clade, taxa[i])
		}
	}
	return clade
}

// BranchLength is the length of the edge above the split, or
// tree.NIL_LENGTH.
func (s *Split) BranchLength() float64 {
	return s.length
}

// Splits returns one split per edge, leaves included, in post-order.
func (t *Tree) Splits() []*Split {
	if t.empty() {
		return nil
	}
	n := uint(len(t.Leaves()))
	below := make(map[*tree.Node]*bitset.BitSet)
	splits := make([]*Split, 0)
	next := uint(0)
	t.t.PostOrder(func(cur, prev *tree.Node, e *tree.Edge) (keep bool) {
		bs := bitset.New(n)
		if e != nil && cur.Tip() {
			bs.Set(next)
			next++
		}
		for _, child := range cur.Neigh() {
			if child != prev {
				bs.InPlaceUnion(below[child])
			}
		}
		below[cur] = bs
		if e == nil {
			return true
		}
		s := &Split{split: bs, tip: cur.Tip(), length: e.Length()}
		if !s.tip {
			s.name = cur.Name()
			if s.name == "" && e.Support() != tree.NIL_SUPPORT {
				s.name = strconv.FormatFloat(e.Support(), 'f', -1, 64)
			}
		}
		splits = append(splits, s)
		return true
	})
	return splits
}

// Diff reports the first difference in topology, internal node names or
// branch lengths between a and b, edge by edge in post-order. Leaf names
// are ignored, so a tree and its relabelled copy have no difference.
func Diff(a, b *Tree) error {
	if a.empty() || b.empty() {
		if a.empty() && b.empty() {
			return nil
		}
		return fmt.Errorf("only one tree is empty")
	}
	if la, lb := len(a.Leaves()), len(b.Leaves()); la != lb {
		return fmt.Errorf("%d leaves, want %d", lb, la)
	}
	if a.rootLen != b.rootLen {
		return fmt.Errorf("root branch length %s, want %s", lengthString(b.rootLen), lengthString(a.rootLen))
	}
	sa, sb := a.Splits(), b.Splits()
	if len(sa) != len(sb) {
		return fmt.Errorf("%d edges, want %d", len(sb), len(sa))
	}
	taxa := a.LeafNames()
	for i := range sa {
		x, y := sa[i], sb[i]
		clade := x.Clade(taxa)
		switch {
		case x.tip != y.tip || !x.split.Equal(y.split):
			return fmt.Errorf("clade %v is not in the other tree", clade)
		case x.length != y.length:
			return fmt.Errorf("clade %v: branch length %s, want %s", clade, lengthString(y.length), lengthString(x.length))
		case x.name != y.name:
			return fmt.Errorf("clade %v: node name %q, want %q", clade, y.name, x.name)
		}
	}
	return nil
}

// SameShape reports whether Diff finds no difference.
func SameShape(a, b *Tree) bool {
	return Diff(a, b) == nil
}

func lengthString(l float64) string {
	if l == tree.NIL_LENGTH {
		return "none"
	}
	return strconv.FormatFloat(l, 'f', -1, 64)
}
