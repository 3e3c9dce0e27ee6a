package repo

import (
	"context"
	"strings"

	"graft/internal/diff"
	"graft/internal/errors"
	"graft/internal/object"
)

// FileChange is one classified working-copy change.
type FileChange struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

// FileContentsResult carries both sides of one file.
type FileContentsResult struct {
	Path   string `json:"path"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// changedEntries classifies commit's tree against its first parent's tree.
// A commit without parents has no changes.
func (r *Repo) changedEntries(ctx context.Context, commit *object.Commit) ([]diff.Entry, error) {
	if len(commit.Parents) == 0 {
		return nil, nil
	}

	parent, err := r.store.GetCommit(ctx, commit.Parents[0])
	if err != nil {
		return nil, err
	}
	parentTree, err := r.store.GetTree(ctx, parent.Tree)
	if err != nil {
		return nil, err
	}
	tree, err := r.store.GetTree(ctx, commit.Tree)
	if err != nil {
		return nil, err
	}

	return diff.Entries(parentTree.DiffEntries(tree)), nil
}

// WorkingCopyChanges lists the current workspace's working-copy commit
// against its first parent.
func (r *Repo) WorkingCopyChanges(ctx context.Context) ([]FileChange, error) {
	wc, err := r.workingCopyCommit(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := r.changedEntries(ctx, wc)
	if err != nil {
		return nil, err
	}

	changes := make([]FileChange, 0, len(entries))
	for _, entry := range entries {
		changes = append(changes, FileChange{Path: entry.Path, Status: string(entry.Status())})
	}
	return changes, nil
}

// entryText fetches one side's text, empty when that side is absent.
func (r *Repo) entryText(ctx context.Context, ref *object.FileRef) (string, error) {
	if ref == nil {
		return "", nil
	}
	content, err := r.store.GetBlob(ctx, ref.Blob)
	if err != nil {
		return "", err
	}
	return diff.DecodeText(content), nil
}

// renderEntries renders file blocks for the given entries. When only is
// non-empty, other paths are skipped. trailingBlank appends the blank
// separator line after each block.
func (r *Repo) renderEntries(ctx context.Context, entries []diff.Entry, only string, trailingBlank bool) (string, error) {
	var b strings.Builder
	for _, entry := range entries {
		if only != "" && entry.Path != only {
			continue
		}

		before, err := r.entryText(ctx, entry.Before)
		if err != nil {
			return "", err
		}
		after, err := r.entryText(ctx, entry.After)
		if err != nil {
			return "", err
		}

		b.WriteString(diff.FormatFile(entry.Path, entry.Status(), before, after))
		if trailingBlank {
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// Diff renders the whole working copy against its first parent.
func (r *Repo) Diff(ctx context.Context) (string, error) {
	wc, err := r.workingCopyCommit(ctx)
	if err != nil {
		return "", err
	}
	entries, err := r.changedEntries(ctx, wc)
	if err != nil {
		return "", err
	}
	return r.renderEntries(ctx, entries, "", true)
}

// FileDiff renders the working-copy diff restricted to one path. A path
// with no changes renders as empty text.
func (r *Repo) FileDiff(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", errors.InvalidInput("file path is empty")
	}

	wc, err := r.workingCopyCommit(ctx)
	if err != nil {
		return "", err
	}
	entries, err := r.changedEntries(ctx, wc)
	if err != nil {
		return "", err
	}
	return r.renderEntries(ctx, entries, path, false)
}

// RevisionDiff renders an arbitrary revision against its first parent.
func (r *Repo) RevisionDiff(ctx context.Context, revisionPrefix string) (string, error) {
	commit, err := r.Resolve(ctx, revisionPrefix)
	if err != nil {
		return "", err
	}
	entries, err := r.changedEntries(ctx, commit)
	if err != nil {
		return "", err
	}
	return r.renderEntries(ctx, entries, "", true)
}

// FileContents returns both sides of one path in the working-copy diff.
// Sides where the path is absent read as empty.
func (r *Repo) FileContents(ctx context.Context, path string) (*FileContentsResult, error) {
	if path == "" {
		return nil, errors.InvalidInput("file path is empty")
	}

	wc, err := r.workingCopyCommit(ctx)
	if err != nil {
		return nil, err
	}

	result := &FileContentsResult{Path: path}

	tree, err := r.store.GetTree(ctx, wc.Tree)
	if err != nil {
		return nil, err
	}
	if ref, ok := tree.Value(path); ok {
		result.After, err = r.entryText(ctx, &ref)
		if err != nil {
			return nil, err
		}
	}

	if len(wc.Parents) > 0 {
		parent, err := r.store.GetCommit(ctx, wc.Parents[0])
		if err != nil {
			return nil, err
		}
		parentTree, err := r.store.GetTree(ctx, parent.Tree)
		if err != nil {
			return nil, err
		}
		if ref, ok := parentTree.Value(path); ok {
			result.Before, err = r.entryText(ctx, &ref)
			if err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}
