package phylo

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evolbioinfo/gotree/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, s string) *Tree {
	t.Helper()
	tr, err := Load(strings.NewReader(s), Newick)
	require.NoError(t, err)
	return tr
}

func TestLoadLeafOrder(t *testing.T) {
	tr := mustLoad(t, "(((A:1,B:1):1,C:1):1);")
	assert.Equal(t, []string{"A", "B", "C"}, tr.LeafNames())

	tr = mustLoad(t, "((D:0.1,(E:0.2,F:0.3):0.05):0.4,G:0.7);")
	assert.Equal(t, []string{"D", "E", "F", "G"}, tr.LeafNames())
}

func TestLoadKeepsLengthsAndInternalNames(t *testing.T) {
	tr := mustLoad(t, "((A:0.5,B:1.25)AB:2,C:3)root;")
	splits := tr.Splits()
	require.Len(t, splits, 4)
	assert.Equal(t, 1.25, splits[1].BranchLength())
	ab := splits[2]
	assert.Equal(t, []string{"A", "B"}, ab.Clade(tr.LeafNames()))
	assert.Equal(t, "AB", ab.name)
	assert.Equal(t, 2.0, ab.BranchLength())
	assert.Equal(t, "((A:0.5,B:1.25)AB:2,C:3)root;", tr.Newick())
}

func TestLoadKeepsRootLength(t *testing.T) {
	tr := mustLoad(t, "((A:1,B:1):1,C:1):0.5;")
	assert.Equal(t, 0.5, tr.rootLen)
	assert.Equal(t, "((A:1,B:1):1,C:1):0.5;", tr.Newick())

	tr = mustLoad(t, "((A,B),C);")
	assert.Equal(t, tree.NIL_LENGTH, tr.rootLen)
}

func TestLoadMalformed(t *testing.T) {
	for _, in := range []string{"", "((A,B);"} {
		_, err := Load(strings.NewReader(in), Newick)
		var pe *ParseError
		assert.True(t, errors.As(err, &pe), "input %q: got %v", in, err)
	}
}

func TestLoadRejectsTrailingText(t *testing.T) {
	for in, msg := range map[string]string{
		"((A,B),C);garbage":  "unexpected text after tree",
		"(A:1,B:1);(C,D);":   "more than one tree",
		"(A,B);\n\n(C,D);\n": "more than one tree",
	} {
		_, err := Load(strings.NewReader(in), Newick)
		var pe *ParseError
		require.True(t, errors.As(err, &pe), "input %q: got %v", in, err)
		assert.ErrorContains(t, err, msg)
	}

	tr := mustLoad(t, "((A,B),C);\n\n  \t\n")
	assert.Equal(t, []string{"A", "B", "C"}, tr.LeafNames())

	tr = mustLoad(t, "((A,B)[after; comment],C);")
	assert.Equal(t, []string{"A", "B", "C"}, tr.LeafNames())
}

func TestLoadFileNexus(t *testing.T) {
	nex := `#NEXUS
BEGIN TREES;
  TREE first = ((A:1,B:1):1,C:2);
  TREE second = ((C:1,B:1):1,A:2);
END;
`
	path := filepath.Join(t.TempDir(), "trees.nex")
	require.NoError(t, os.WriteFile(path, []byte(nex), 0644))
	tr, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, tr.LeafNames())
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.nwk"))
	assert.Error(t, err)
}

func TestLoneRootHasNoLeaves(t *testing.T) {
	tr := mustLoad(t, "();")
	assert.Empty(t, tr.Leaves())
	assert.Empty(t, tr.Splits())
}

func TestCanonicalRoundTrip(t *testing.T) {
	for _, in := range []string{
		"(((A:1,B:1):1,C:1):1);",
		"((A:0.5,B:1.25)AB:2,C:3);",
		"(A,B,(C,D));",
		"((A,B)90:1,C);",
	} {
		tr := mustLoad(t, in)
		assert.Equal(t, in, tr.Newick())

		var buf bytes.Buffer
		require.NoError(t, Save(&buf, tr, true))
		assert.Equal(t, in+"\n", buf.String())
		again := mustLoad(t, buf.String())
		assert.Equal(t, tr.Newick(), again.Newick())
		assert.NoError(t, Diff(tr, again))
	}
}

func TestNewickMatchesGotree(t *testing.T) {
	for _, in := range []string{
		"((A:0.5,B:1.25)AB:2,C:3)root;",
		"((A,B)90:1,C);",
		"((A[x]:1,B:1[y]):1,C);",
	} {
		tr := mustLoad(t, in)
		assert.Equal(t, tr.t.Newick(), tr.Newick())
	}
	// gotree drops the parentheses of a unary root
	tr := mustLoad(t, "(((A:1,B:1):1,C:1):1);")
	assert.Equal(t, "((A:1,B:1):1,C:1):1;", tr.t.Newick())
	assert.Equal(t, "(((A:1,B:1):1,C:1):1);", tr.Newick())
}

func TestQuotedLabelRoundTrip(t *testing.T) {
	in := "('E. coli K-12':1,B:1);"
	tr := mustLoad(t, in)
	for i := 0; i < 3; i++ {
		assert.Equal(t, []string{"E. coli K-12", "B"}, tr.LeafNames())
		var buf bytes.Buffer
		require.NoError(t, Save(&buf, tr, true))
		assert.Equal(t, in+"\n", buf.String())
		tr = mustLoad(t, buf.String())
	}
}

func TestPrettyIsParseable(t *testing.T) {
	for _, in := range []string{
		"((A:0.5,B:1.25)AB:2,C:3);",
		"(((A:1,B:1):1,C:1):1);",
		"(('E. coli K-12':1,B)90:1,C);",
	} {
		tr := mustLoad(t, in)
		var buf bytes.Buffer
		require.NoError(t, Save(&buf, tr, false))
		assert.Contains(t, buf.String(), "(\n  (\n")

		again := mustLoad(t, buf.String())
		assert.Equal(t, in, again.Newick())
	}
}

func TestSaveEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Save(&buf, &Tree{}, true))
	assert.Error(t, Save(&buf, nil, false))
}

func TestSaveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.nwk")
	require.NoError(t, SaveFile(path, mustLoad(t, "((A:1,B:1):1,C:1);"), true))
	back, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "((A:1,B:1):1,C:1);", back.Newick())

	require.Error(t, SaveFile(path, &Tree{}, true))
	assert.NoFileExists(t, path)
}

func TestRelabel(t *testing.T) {
	tr := mustLoad(t, "(('E. coli K-12':1,B:1)n:1,C:1):2;")
	got := tr.Relabel(func(k int, old string) string {
		return strings.ToLower(old)
	})
	assert.Equal(t, "(('e. coli k-12':1,b:1)n:1,c:1):2;", got.Newick())
	assert.Equal(t, "(('E. coli K-12':1,B:1)n:1,C:1):2;", tr.Newick())

	quoted := tr.Relabel(func(k int, old string) string {
		return []string{"it's", "x y", "z"}[k-1]
	})
	assert.Equal(t, []string{"it's", "x y", "z"}, quoted.LeafNames())
}

func TestCloneIsDeep(t *testing.T) {
	tr := mustLoad(t, "((A:1,B:1):1,C:1);")
	c := tr.Clone()
	c.Leaves()[0].SetName("X")
	c.Leaves()[2].Edges()[0].SetLength(9)
	assert.Equal(t, "((A:1,B:1):1,C:1);", tr.Newick())
	assert.Equal(t, "((X:1,B:1):1,C:9);", c.Newick())
	assert.Empty(t, (&Tree{}).Clone().Leaves())
}

func TestSplits(t *testing.T) {
	tr := mustLoad(t, "(((A,B),C),D);")
	splits := tr.Splits()
	require.Len(t, splits, 6)
	names := tr.LeafNames()
	var clades [][]string
	for _, s := range splits {
		assert.Equal(t, 4, s.Length())
		clades = append(clades, s.Clade(names))
	}
	assert.Equal(t, [][]string{{"A"}, {"B"}, {"A", "B"}, {"C"}, {"A", "B", "C"}, {"D"}}, clades)
}

func TestDiff(t *testing.T) {
	a := mustLoad(t, "((A:1,B:1):1,C:1);")
	assert.NoError(t, Diff(a, mustLoad(t, "((x:1,y:1):1,z:1);")))
	assert.True(t, SameShape(a, a.Clone()))

	for other, msg := range map[string]string{
		"((A:1,B:1):2,C:1);":   "clade [A B]: branch length 2, want 1",
		"((A:1,B:1):1,C:0.5);": "clade [C]: branch length 0.5, want 1",
		"((A:1,B):1,C:1);":     "clade [B]: branch length none, want 1",
		"(A:1,(B:1,C:1):1);":   "is not in the other tree",
		"((A:1,B:1)n:1,C:1);":  `clade [A B]: node name "n", want ""`,
		"((A:1,B:1):1,C:1):3;": "root branch length 3, want none",
		"((A:1,B:1):1,C:1,D);": "4 leaves, want 3",
	} {
		assert.ErrorContains(t, Diff(a, mustLoad(t, other)), msg, other)
		assert.False(t, SameShape(a, mustLoad(t, other)), other)
	}
	assert.Error(t, Diff(a, &Tree{}))
	assert.NoError(t, Diff(&Tree{}, nil))
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, Nexus, FormatOf("trees.NEX"))
	assert.Equal(t, Nexus, FormatOf("a/b.nexus"))
	assert.Equal(t, Newick, FormatOf("tree.nwk"))
	assert.Equal(t, Newick, FormatOf("tree"))
	assert.Equal(t, "nexus", Nexus.String())
}
