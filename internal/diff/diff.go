// Package diff classifies path-level changes between two trees and renders
// unified-diff text. The renderer is a deliberate greedy approximation: one
// synthetic hunk per file with whole-side line counts, matched line by line.
// It is not an LCS diff and does not try to be minimal.
package diff

import (
	"strings"

	"graft/internal/object"
)

// Status classifies one changed path.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusDeleted  Status = "deleted"
)

// Entry is one classified path-level change. A nil side means the path is
// absent on that side.
type Entry struct {
	Path   string
	Before *object.FileRef
	After  *object.FileRef
}

// Status derives the classification from which sides are present. The
// pairing primitive never yields two equal sides, so both-present means
// modified.
func (e Entry) Status() Status {
	switch {
	case e.Before == nil:
		return StatusAdded
	case e.After == nil:
		return StatusDeleted
	default:
		return StatusModified
	}
}

// Entries drains the tree pairing iterator into classified entries. The
// sequence is finite and consumed in one forward pass.
func Entries(pairs *object.TreePairs) []Entry {
	var entries []Entry
	for {
		pair, ok := pairs.Next()
		if !ok {
			return entries
		}
		entries = append(entries, Entry{Path: pair.Path, Before: pair.Before, After: pair.After})
	}
}

// DecodeText coerces blob content to text. Invalid UTF-8 is replaced
// rather than rejected; there is no binary-diff mode.
func DecodeText(content []byte) string {
	return strings.ToValidUTF8(string(content), "�")
}
