// Package diff renders unified diffs between two versions of a document.
package diff

import (
	"github.com/pmezard/go-difflib/difflib"
	"gitlab.com/tozd/go/errors"
)

const contextLines = 3

// Unified returns the diff turning before into after, labelled with path. It is
// empty when the two are equal.
func Unified(path, before, after string) (string, error) {
	if before == after {
		return "", nil
	}

	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path,
		ToFile:   path + " (formatted)",
		Context:  contextLines,
	})
	if err != nil {
		return "", errors.Errorf("diffing %s: %w", path, err)
	}
	return out, nil
}
