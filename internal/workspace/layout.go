// Package workspace handles the on-disk side of working copies: locating
// and scaffolding the metadata directory, validating destinations, scanning
// directory contents into trees, and watching for changes.
package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"graft/internal/errors"
)

// MetaDir is the reserved metadata subdirectory every workspace carries.
const MetaDir = ".graft"

const (
	dbDirName         = "db"
	repoFileName      = "repo"
	workspaceFileName = "workspace"
)

// Layout describes a located workspace: its root directory, its registered
// name, and the shared store directory it uses.
type Layout struct {
	Root     string
	Name     string
	StoreDir string
}

// PrimaryMetaDir is the metadata directory holding the shared store.
func (l Layout) PrimaryMetaDir() string {
	return filepath.Dir(l.StoreDir)
}

// FindRoot walks up from startDir looking for the metadata directory.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.IO(err, "resolving %s", startDir)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, MetaDir)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.NotFound("no workspace found at or above %s", startDir)
}

// Load locates the workspace containing path and reads its metadata. A
// secondary workspace holds a pointer file naming the primary metadata
// directory; the store always lives under the primary.
func Load(path string) (Layout, error) {
	root, err := FindRoot(path)
	if err != nil {
		return Layout{}, err
	}
	meta := filepath.Join(root, MetaDir)

	name := "default"
	if data, err := os.ReadFile(filepath.Join(meta, workspaceFileName)); err == nil {
		name = strings.TrimSpace(string(data))
	}

	storeMeta := meta
	if data, err := os.ReadFile(filepath.Join(meta, repoFileName)); err == nil {
		storeMeta = strings.TrimSpace(string(data))
	}

	return Layout{
		Root:     root,
		Name:     name,
		StoreDir: filepath.Join(storeMeta, dbDirName),
	}, nil
}

// Init scaffolds a primary workspace: the metadata directory, the store
// directory, and the workspace name file.
func Init(root, name string) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, errors.IO(err, "resolving %s", root)
	}
	meta := filepath.Join(abs, MetaDir)

	if _, err := os.Stat(meta); err == nil {
		return Layout{}, errors.InvalidDestination("repository already exists at %s", abs)
	}

	storeDir := filepath.Join(meta, dbDirName)
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return Layout{}, errors.IO(err, "creating %s", storeDir)
	}
	if err := writeMetaFile(meta, workspaceFileName, name); err != nil {
		return Layout{}, err
	}

	return Layout{Root: abs, Name: name, StoreDir: storeDir}, nil
}

// Scaffold prepares a secondary workspace directory: metadata directory,
// name file, and the pointer back to the primary metadata directory.
func Scaffold(root, name, primaryMeta string) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, errors.IO(err, "resolving %s", root)
	}
	meta := filepath.Join(abs, MetaDir)

	if err := os.MkdirAll(meta, 0o755); err != nil {
		return Layout{}, errors.IO(err, "creating %s", meta)
	}
	if err := writeMetaFile(meta, workspaceFileName, name); err != nil {
		return Layout{}, err
	}
	if err := writeMetaFile(meta, repoFileName, primaryMeta); err != nil {
		return Layout{}, err
	}

	return Layout{Root: abs, Name: name, StoreDir: filepath.Join(primaryMeta, dbDirName)}, nil
}

func writeMetaFile(meta, name, content string) error {
	path := filepath.Join(meta, name)
	if err := os.WriteFile(path, []byte(content+"\n"), 0o644); err != nil {
		return errors.IO(err, "writing %s", path)
	}
	return nil
}

// ValidateDestination checks a workspace-add target: it must not exist, or
// must be an empty directory ignoring the metadata subdirectory. A missing
// directory is created.
func ValidateDestination(dest string) error {
	info, err := os.Stat(dest)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return errors.IO(err, "creating %s", dest)
			}
			return nil
		}
		return errors.IO(err, "checking %s", dest)
	}

	if !info.IsDir() {
		return errors.InvalidDestination("%s is a file", dest)
	}

	entries, err := os.ReadDir(dest)
	if err != nil {
		return errors.IO(err, "reading %s", dest)
	}
	for _, entry := range entries {
		if entry.Name() == MetaDir {
			continue
		}
		return errors.InvalidDestination("%s is not empty", dest)
	}
	return nil
}

// DefaultName derives a workspace name from its destination directory.
func DefaultName(dest string) string {
	base := filepath.Base(filepath.Clean(dest))
	if base == "." || base == string(filepath.Separator) {
		return "workspace"
	}
	return base
}
