package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graft/internal/errors"
	"graft/internal/object"
)

func TestWorkingCopyChanges(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	changes, err := r.WorkingCopyChanges(ctx)
	require.NoError(t, err)
	assert.Empty(t, changes)

	writeFile(t, r, "a.txt", "one\n")
	_, err = r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)

	changes, err = r.WorkingCopyChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []FileChange{{Path: "a.txt", Status: "added"}}, changes)

	// Edits on a fresh change classify against the previous content.
	require.NoError(t, r.NewChange(ctx, ""))
	writeFile(t, r, "a.txt", "two\n")
	writeFile(t, r, "b.txt", "fresh\n")
	_, err = r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)

	changes, err = r.WorkingCopyChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []FileChange{
		{Path: "a.txt", Status: "modified"},
		{Path: "b.txt", Status: "added"},
	}, changes)

	require.NoError(t, os.Remove(filepath.Join(r.Root(), "a.txt")))
	_, err = r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)

	changes, err = r.WorkingCopyChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []FileChange{
		{Path: "a.txt", Status: "deleted"},
		{Path: "b.txt", Status: "added"},
	}, changes)
}

func TestDiffRendering(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	writeFile(t, r, "a.txt", "one\n")
	_, err := r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)
	base := wcHead(r)

	require.NoError(t, r.NewChange(ctx, ""))
	writeFile(t, r, "a.txt", "two\n")
	writeFile(t, r, "b.txt", "fresh\n")
	_, err = r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)

	text, err := r.Diff(ctx)
	require.NoError(t, err)
	assert.Contains(t, text, "diff --git a/a.txt b/a.txt")
	assert.Contains(t, text, "-one")
	assert.Contains(t, text, "+two")
	assert.Contains(t, text, "diff --git a/b.txt b/b.txt")
	assert.Contains(t, text, "new file")
	assert.Contains(t, text, "+fresh")

	text, err = r.FileDiff(ctx, "b.txt")
	require.NoError(t, err)
	assert.Contains(t, text, "+++ b/b.txt")
	assert.NotContains(t, text, "a.txt")

	text, err = r.FileDiff(ctx, "missing.txt")
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = r.FileDiff(ctx, "")
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))

	// An arbitrary revision renders against its own first parent.
	text, err = r.RevisionDiff(ctx, base.String())
	require.NoError(t, err)
	assert.Contains(t, text, "new file")
	assert.Contains(t, text, "+one")
	assert.NotContains(t, text, "b.txt")

	// The root has no parent and renders as empty.
	text, err = r.RevisionDiff(ctx, object.RootCommitID.String())
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestFileContents(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	writeFile(t, r, "a.txt", "one\n")
	_, err := r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)

	require.NoError(t, r.NewChange(ctx, ""))
	writeFile(t, r, "a.txt", "two\n")
	_, err = r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)

	fc, err := r.FileContents(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", fc.Path)
	assert.Equal(t, "one\n", fc.Before)
	assert.Equal(t, "two\n", fc.After)

	// Absent sides read as empty.
	fc, err = r.FileContents(ctx, "missing.txt")
	require.NoError(t, err)
	assert.Empty(t, fc.Before)
	assert.Empty(t, fc.After)

	_, err = r.FileContents(ctx, "")
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}
