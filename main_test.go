package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genoalign/internal/external"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGuideTreeCmd(t *testing.T) {
	t.Setenv("GENOALIGN_LOG_LEVEL", "error")
	root := t.TempDir()
	gdir := filepath.Join(root, "gbk")
	require.NoError(t, os.Mkdir(gdir, 0755))
	for _, n := range []string{"A.fa", "B.fa", "C.fa"} {
		require.NoError(t, os.WriteFile(filepath.Join(gdir, n), []byte(">x\nACGT\n"), 0644))
	}
	tree := filepath.Join(root, "tree.nwk")
	require.NoError(t, os.WriteFile(tree, []byte("(((A:1,B:1):1,C:1):1);\n"), 0644))
	out := filepath.Join(root, "out")

	stdout, err := execute(t, "guide-tree", "-g", gdir, "-t", tree, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "seq1\tA\t"+filepath.Join(gdir, "A.fa"))
	assert.Contains(t, stdout, "seq3\tC\t"+filepath.Join(gdir, "C.fa"))

	guide, err := os.ReadFile(filepath.Join(out, "guide_tree.nwk"))
	require.NoError(t, err)
	assert.Equal(t, "(((seq1:1,seq2:1):1,seq3:1):1);\n", string(guide))
	assert.FileExists(t, filepath.Join(out, "guide_tree_leaves.tsv"))
}

func TestGuideTreeCmdMissingGenome(t *testing.T) {
	t.Setenv("GENOALIGN_LOG_LEVEL", "error")
	root := t.TempDir()
	tree := filepath.Join(root, "tree.nwk")
	require.NoError(t, os.WriteFile(tree, []byte("(A,B);"), 0644))
	out := filepath.Join(root, "out")

	_, err := execute(t, "guide-tree", "-g", root, "-t", tree, "-o", out)
	assert.ErrorContains(t, err, `leaf "A"`)
	assert.NoFileExists(t, filepath.Join(out, "guide_tree.nwk"))
}

func TestRootRejectsBadFormat(t *testing.T) {
	t.Setenv("GENOALIGN_LOG_LEVEL", "error")
	_, err := execute(t, "-g", t.TempDir(), "-o", t.TempDir(), "-f", "gif")
	assert.ErrorContains(t, err, "unsupported plot format")
}

func TestFlagsDoNotLeakBetweenRuns(t *testing.T) {
	t.Setenv("GENOALIGN_LOG_LEVEL", "error")
	t.Setenv("GENOALIGN_MAUVE", filepath.Join(t.TempDir(), "no-such-mauve"))
	_, err := execute(t, "-g", t.TempDir(), "-o", t.TempDir(), "-f", "gif")
	require.ErrorContains(t, err, "unsupported plot format")

	// without -f the next command is back on the default formats and gets
	// as far as looking up progressiveMauve
	_, err = execute(t, "-g", t.TempDir(), "-o", t.TempDir())
	var te *external.ToolError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, "progressiveMauve", te.Tool)
}

func TestGuideTreeCmdQuotedLeaf(t *testing.T) {
	t.Setenv("GENOALIGN_LOG_LEVEL", "error")
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "E. coli K-12.fa"), []byte(">x\nACGT\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "B.fa"), []byte(">y\nACGT\n"), 0644))
	tree := filepath.Join(root, "tree.nwk")
	require.NoError(t, os.WriteFile(tree, []byte("('E. coli K-12':1,B:1);\n"), 0644))
	out := filepath.Join(root, "out")

	stdout, err := execute(t, "guide-tree", "-g", root, "-t", tree, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "seq1\tE. coli K-12\t"+filepath.Join(root, "E. coli K-12.fa"))
	guide, err := os.ReadFile(filepath.Join(out, "guide_tree.nwk"))
	require.NoError(t, err)
	assert.Equal(t, "(seq1:1,seq2:1);\n", string(guide))
}

func TestVersionCmd(t *testing.T) {
	stdout, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "genoalign dev\n", stdout)
}
