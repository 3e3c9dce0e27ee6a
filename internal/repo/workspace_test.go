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
	"graft/internal/settings"
)

func TestWorkspacesListing(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	infos, err := r.Workspaces(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, DefaultWorkspace, infos[0].Name)
	assert.True(t, infos[0].IsCurrent)
	assert.Equal(t, wcHead(r).String(), infos[0].CommitID)
	assert.Equal(t, r.Root(), infos[0].RootPath)
}

func TestWorkspaceAdd(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()

	r, err := Init(ctx, filepath.Join(base, "repo"), WithSettings(settings.Default()))
	require.NoError(t, err)
	defer r.Close()

	writeFile(t, r, "a.txt", "one\n")
	_, err = r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)
	parent := wcHead(r)

	dest := filepath.Join(base, "feature")
	require.NoError(t, r.WorkspaceAdd(ctx, dest, "", parent.String()))

	infos, err := r.Workspaces(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "feature", infos[1].Name)
	assert.False(t, infos[1].IsCurrent)

	// The new working-copy commit is contentless on the requested parent.
	featureID := r.CurrentSnapshot().View.Workspaces["feature"]
	commit, err := r.store.GetCommit(ctx, featureID)
	require.NoError(t, err)
	assert.Equal(t, []object.CommitID{parent}, commit.Parents)

	// The destination got the parent tree's files.
	content, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one\n", string(content))

	// Shared ancestry shows up once in the combined log.
	log, err := r.Log(ctx)
	require.NoError(t, err)
	assert.Len(t, log, 3)

	err = r.WorkspaceAdd(ctx, filepath.Join(base, "other"), "feature", "")
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))

	err = r.WorkspaceAdd(ctx, "", "other", "")
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))

	busy := filepath.Join(base, "busy")
	require.NoError(t, os.MkdirAll(busy, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(busy, "junk"), []byte("x"), 0o644))
	err = r.WorkspaceAdd(ctx, busy, "other", "")
	assert.Equal(t, errors.KindInvalidDestination, errors.KindOf(err))

	// The scaffolded directory opens as its own workspace.
	require.NoError(t, r.Close())

	r2, err := Open(ctx, dest, WithSettings(settings.Default()))
	require.NoError(t, err)
	defer r2.Close()
	assert.Equal(t, "feature", r2.CurrentWorkspace())
	assert.Equal(t, featureID, wcHead(r2))
	assert.Equal(t, dest, r2.Root())
}

func TestWorkspaceForget(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	err := r.WorkspaceForget(ctx, DefaultWorkspace)
	assert.Equal(t, errors.KindForgetCurrent, errors.KindOf(err))

	err = r.WorkspaceForget(ctx, "ghost")
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))

	err = r.WorkspaceForget(ctx, "")
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))

	dest := filepath.Join(t.TempDir(), "feature")
	require.NoError(t, r.WorkspaceAdd(ctx, dest, "feature", ""))

	require.NoError(t, r.WorkspaceForget(ctx, "feature"))
	infos, err := r.Workspaces(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, DefaultWorkspace, infos[0].Name)

	// Files stay behind; only the registration goes away.
	assert.DirExists(t, dest)
}
