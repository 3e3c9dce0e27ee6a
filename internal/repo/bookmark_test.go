package repo

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graft/internal/errors"
	"graft/internal/object"
)

func TestSetBookmarkValidation(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	err := r.SetBookmark(ctx, "", wcHead(r).String(), false, false)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))

	err = r.SetBookmark(ctx, "main", strings.Repeat("f", object.HashHexLen), false, false)
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))

	err = r.SetBookmark(ctx, "main", object.RootCommitID.String(), false, false)
	assert.Equal(t, errors.KindImmutableTarget, errors.KindOf(err))
}

func TestSetBookmarkMoves(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	writeFile(t, r, "a.txt", "one\n")
	_, err := r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)
	older := wcHead(r)

	require.NoError(t, r.NewChange(ctx, ""))
	newer := wcHead(r)

	require.NoError(t, r.SetBookmark(ctx, "main", newer.String(), false, false))

	// Re-setting the current target is a no-op move.
	require.NoError(t, r.SetBookmark(ctx, "main", newer.String(), false, false))

	// Moving onto an ancestor needs the explicit flag.
	err = r.SetBookmark(ctx, "main", older.String(), false, false)
	assert.Equal(t, errors.KindBackwardsMove, errors.KindOf(err))

	require.NoError(t, r.SetBookmark(ctx, "main", older.String(), true, false))
	target, normal := r.CurrentSnapshot().View.Bookmarks["main"].Normal()
	require.True(t, normal)
	assert.Equal(t, older, target)

	// Forward again needs no flag.
	require.NoError(t, r.SetBookmark(ctx, "main", newer.String(), false, false))
	target, _ = r.CurrentSnapshot().View.Bookmarks["main"].Normal()
	assert.Equal(t, newer, target)
}

func TestSetBookmarkImmutable(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	writeFile(t, r, "a.txt", "one\n")
	_, err := r.SnapshotWorkingCopy(ctx)
	require.NoError(t, err)
	published := wcHead(r)

	require.NoError(t, r.NewChange(ctx, ""))
	head := wcHead(r)

	tx := r.NewTransaction()
	tx.View().Remotes["origin"] = map[string]object.RefTarget{"main": object.NormalTarget(head)}
	_, err = tx.Commit(ctx, "track origin/main")
	require.NoError(t, err)

	// The remote head and everything behind it is immutable.
	err = r.SetBookmark(ctx, "release", head.String(), false, false)
	assert.Equal(t, errors.KindImmutableTarget, errors.KindOf(err))

	err = r.SetBookmark(ctx, "release", published.String(), false, false)
	assert.Equal(t, errors.KindImmutableTarget, errors.KindOf(err))

	require.NoError(t, r.SetBookmark(ctx, "release", published.String(), false, true))
	target, normal := r.CurrentSnapshot().View.Bookmarks["release"].Normal()
	require.True(t, normal)
	assert.Equal(t, published, target)
}

func TestBookmarksListing(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	head := wcHead(r)
	require.NoError(t, r.SetBookmark(ctx, "main", head.String(), false, false))
	require.NoError(t, r.SetBookmark(ctx, "dev", head.String(), false, false))

	tx := r.NewTransaction()
	tx.View().Remotes["origin"] = map[string]object.RefTarget{"main": object.NormalTarget(head)}
	_, err := tx.Commit(ctx, "track origin/main")
	require.NoError(t, err)

	infos, err := r.Bookmarks(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, BookmarkInfo{Name: "dev", IsLocal: true}, infos[0])
	assert.Equal(t, BookmarkInfo{Name: "main", IsLocal: true}, infos[1])
	assert.Equal(t, BookmarkInfo{Name: "main@origin", IsLocal: false}, infos[2])
}
