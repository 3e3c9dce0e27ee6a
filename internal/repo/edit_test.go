package repo

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graft/internal/errors"
	"graft/internal/object"
	"graft/internal/settings"
)

func TestSnapshotWorkingCopy(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	changed, err := r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	before, err := r.workingCopyCommit(ctx)
	require.NoError(t, err)

	writeFile(t, r, "notes.txt", "draft\n")
	changed, err = r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	after, err := r.workingCopyCommit(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before.ID, after.ID)
	assert.Equal(t, before.Change, after.Change)
	assert.Equal(t, before.Parents, after.Parents)

	// The rewrite replaces the head instead of growing the graph.
	log, err := r.Log(ctx)
	require.NoError(t, err)
	assert.Len(t, log, 2)

	changed, err = r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSnapshotMovesBookmark(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetBookmark(ctx, "main", wcHead(r).String(), false, false))

	writeFile(t, r, "notes.txt", "draft\n")
	changed, err := r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)
	require.True(t, changed)

	target, normal := r.CurrentSnapshot().View.Bookmarks["main"].Normal()
	require.True(t, normal)
	assert.Equal(t, wcHead(r), target)
}

func TestSnapshotWithWatcher(t *testing.T) {
	ctx := context.Background()
	r, err := Init(ctx, filepath.Join(t.TempDir(), "repo"),
		WithInMemoryStore(), WithSettings(settings.Default()), WithWatcher())
	require.NoError(t, err)
	defer r.Close()

	changed, err := r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	// A quiet watcher short-circuits the rescan.
	changed, err = r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	writeFile(t, r, "tracked.txt", "hello\n")
	require.Eventually(t, r.watcher.HasChanges, 2*time.Second, 10*time.Millisecond)

	changed, err = r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	changes, err := r.WorkingCopyChanges(ctx)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "tracked.txt", changes[0].Path)
}

func TestNewChange(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	writeFile(t, r, "a.txt", "one\n")
	_, err := r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)

	base, err := r.workingCopyCommit(ctx)
	require.NoError(t, err)

	require.NoError(t, r.NewChange(ctx, ""))

	wc, err := r.workingCopyCommit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []object.CommitID{base.ID}, wc.Parents)
	assert.Equal(t, base.Tree, wc.Tree)
	assert.NotEqual(t, base.Change, wc.Change)
	assert.Empty(t, wc.Description)

	// An explicit revision starts the change elsewhere, including the root.
	require.NoError(t, r.NewChange(ctx, object.RootCommitID.String()))
	wc, err = r.workingCopyCommit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []object.CommitID{object.RootCommitID}, wc.Parents)
	assert.Equal(t, object.EmptyTreeID, wc.Tree)

	err = r.NewChange(ctx, strings.Repeat("f", object.HashHexLen))
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestDescribe(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	writeFile(t, r, "a.txt", "one\n")
	_, err := r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)

	before, err := r.workingCopyCommit(ctx)
	require.NoError(t, err)

	require.NoError(t, r.SetBookmark(ctx, "main", before.ID.String(), false, false))
	require.NoError(t, r.Describe(ctx, before.ID.String(), "add alpha notes"))

	after, err := r.workingCopyCommit(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before.ID, after.ID)
	assert.Equal(t, before.Change, after.Change)
	assert.Equal(t, before.Tree, after.Tree)
	assert.Equal(t, "add alpha notes", after.Description)

	// The bookmark follows the rewrite.
	target, normal := r.CurrentSnapshot().View.Bookmarks["main"].Normal()
	require.True(t, normal)
	assert.Equal(t, after.ID, target)

	err = r.Describe(ctx, object.RootCommitID.String(), "nope")
	assert.Equal(t, errors.KindImmutableTarget, errors.KindOf(err))

	// Once the described commit has a child it is no longer a working copy.
	require.NoError(t, r.NewChange(ctx, ""))
	err = r.Describe(ctx, after.ID.String(), "edit parent")
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}

func TestDescribeImmutable(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	head := wcHead(r)
	tx := r.NewTransaction()
	tx.View().Remotes["origin"] = map[string]object.RefTarget{"main": object.NormalTarget(head)}
	_, err := tx.Commit(ctx, "track origin/main")
	require.NoError(t, err)

	err = r.Describe(ctx, head.String(), "rewrite published")
	assert.Equal(t, errors.KindImmutableTarget, errors.KindOf(err))
}
