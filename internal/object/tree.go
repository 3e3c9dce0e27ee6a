package object

import "sort"

// FileRef is the value a tree holds for one path.
type FileRef struct {
	Blob       BlobID `json:"blob"`
	Executable bool   `json:"executable,omitempty"`
}

func (f FileRef) Equal(other FileRef) bool {
	return f.Blob == other.Blob && f.Executable == other.Executable
}

// Tree maps repository-relative paths to file references.
type Tree struct {
	Entries map[string]FileRef `json:"entries"`
}

func NewTree() *Tree {
	return &Tree{Entries: map[string]FileRef{}}
}

// EmptyTree is the tree behind EmptyTreeID.
func EmptyTree() *Tree {
	return NewTree()
}

// Value looks up one path.
func (t *Tree) Value(path string) (FileRef, bool) {
	ref, ok := t.Entries[path]
	return ref, ok
}

// Paths returns all paths in sorted order.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, len(t.Entries))
	for p := range t.Entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

type treeEntry struct {
	Path       string `json:"path"`
	Blob       BlobID `json:"blob"`
	Executable bool   `json:"executable,omitempty"`
}

// ComputeID hashes the canonical sorted encoding of the entries.
func (t *Tree) ComputeID() (TreeID, error) {
	sorted := make([]treeEntry, 0, len(t.Entries))
	for _, p := range t.Paths() {
		ref := t.Entries[p]
		sorted = append(sorted, treeEntry{Path: p, Blob: ref.Blob, Executable: ref.Executable})
	}
	sum, err := hashJSON(sorted)
	if err != nil {
		return "", err
	}
	return TreeID(sum), nil
}

// Pair is one differing path between two trees. A nil side means the path
// is absent on that side.
type Pair struct {
	Path   string
	Before *FileRef
	After  *FileRef
}

// TreePairs walks two trees in sorted path order and yields the paths whose
// values differ. It is a single forward pass with no restart.
type TreePairs struct {
	before, after *Tree
	paths         []string
	apaths        []string
	i, j          int
}

// DiffEntries pairs t (before) against other (after). Paths equal on both
// sides are skipped.
func (t *Tree) DiffEntries(other *Tree) *TreePairs {
	return &TreePairs{
		before: t,
		after:  other,
		paths:  t.Paths(),
		apaths: other.Paths(),
	}
}

// Next yields the next differing pair, or ok=false when the walk is done.
func (it *TreePairs) Next() (Pair, bool) {
	for it.i < len(it.paths) || it.j < len(it.apaths) {
		var pair Pair
		switch {
		case it.j >= len(it.apaths) || (it.i < len(it.paths) && it.paths[it.i] < it.apaths[it.j]):
			p := it.paths[it.i]
			ref := it.before.Entries[p]
			pair = Pair{Path: p, Before: &ref}
			it.i++
		case it.i >= len(it.paths) || it.apaths[it.j] < it.paths[it.i]:
			p := it.apaths[it.j]
			ref := it.after.Entries[p]
			pair = Pair{Path: p, After: &ref}
			it.j++
		default:
			p := it.paths[it.i]
			b := it.before.Entries[p]
			a := it.after.Entries[p]
			it.i++
			it.j++
			if b.Equal(a) {
				continue
			}
			pair = Pair{Path: p, Before: &b, After: &a}
		}
		return pair, true
	}
	return Pair{}, false
}
