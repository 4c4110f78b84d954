package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// alignmentKey identifies the inputs of one alignment: the guide tree text
// (empty without a tree) and every genome's base name and content, in
// argument order.
func alignmentKey(guideTree string, genomes []string) (string, error) {
	h := sha256.New()
	fmt.Fprintf(h, "tree %d\n%s\n", len(guideTree), guideTree)
	for _, path := range genomes {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("could not hash genome: %w", err)
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return "", fmt.Errorf("could not hash genome: %w", err)
		}
		fmt.Fprintf(h, "genome %s %d\n", filepath.Base(path), info.Size())
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("could not hash genome: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// reusable reports whether backbone exists and was produced from key.
func reusable(layout Layout, key string) (bool, error) {
	if _, err := os.Stat(layout.Backbone()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	stored, err := os.ReadFile(layout.CacheKey())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(string(stored)) == key, nil
}
