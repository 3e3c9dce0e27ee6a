package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"graft/internal/errors"
	"graft/internal/object"
)

// BlobAdder stages file content for storage and returns its content id.
type BlobAdder interface {
	AddBlob(path string, content []byte) object.BlobID
}

// shouldIgnore matches any path component against the ignore set.
func shouldIgnore(relPath string, ignore map[string]bool) bool {
	if relPath == "" || relPath == "." {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if ignore[part] {
			return true
		}
	}
	return false
}

// IgnoreSet builds the lookup used by Scan and the watcher. The metadata
// directory is always ignored.
func IgnoreSet(names []string) map[string]bool {
	set := map[string]bool{MetaDir: true}
	for _, name := range names {
		set[name] = true
	}
	return set
}

// Scan walks the workspace root and builds the tree describing its current
// file contents, staging every file blob through adder. Non-regular files
// are skipped.
func Scan(root string, ignore map[string]bool, adder BlobAdder) (*object.Tree, error) {
	tree := object.NewTree()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if relPath != "." && shouldIgnore(relPath, ignore) {
				return filepath.SkipDir
			}
			return nil
		}
		if shouldIgnore(relPath, ignore) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		treePath := filepath.ToSlash(relPath)
		tree.Entries[treePath] = object.FileRef{
			Blob:       adder.AddBlob(treePath, content),
			Executable: info.Mode()&0o111 != 0,
		}
		return nil
	})
	if err != nil {
		return nil, errors.IO(err, "scanning workspace %s", root)
	}

	return tree, nil
}

// WriteTree materializes a tree's files under root, fetching blob content
// through get. Existing files are overwritten; nothing is deleted.
func WriteTree(root string, tree *object.Tree, get func(object.BlobID) ([]byte, error)) error {
	for _, path := range tree.Paths() {
		ref := tree.Entries[path]
		content, err := get(ref.Blob)
		if err != nil {
			return err
		}

		dest := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return errors.IO(err, "creating %s", filepath.Dir(dest))
		}

		mode := os.FileMode(0o644)
		if ref.Executable {
			mode = 0o755
		}
		if err := os.WriteFile(dest, content, mode); err != nil {
			return errors.IO(err, "writing %s", dest)
		}
	}
	return nil
}
