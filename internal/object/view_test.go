package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeComputeID(t *testing.T) {
	a := NewTree()
	a.Entries["src/main.go"] = FileRef{Blob: "b1"}
	a.Entries["README.md"] = FileRef{Blob: "b2"}

	b := NewTree()
	b.Entries["README.md"] = FileRef{Blob: "b2"}
	b.Entries["src/main.go"] = FileRef{Blob: "b1"}

	idA, err := a.ComputeID()
	require.NoError(t, err)
	idB, err := b.ComputeID()
	require.NoError(t, err)
	assert.Equal(t, idA, idB)

	b.Entries["src/main.go"] = FileRef{Blob: "b1", Executable: true}
	idExec, err := b.ComputeID()
	require.NoError(t, err)
	assert.NotEqual(t, idA, idExec)
}

func TestTreePaths(t *testing.T) {
	tree := NewTree()
	tree.Entries["b.txt"] = FileRef{Blob: "b1"}
	tree.Entries["a.txt"] = FileRef{Blob: "b2"}

	assert.Equal(t, []string{"a.txt", "b.txt"}, tree.Paths())

	ref, ok := tree.Value("a.txt")
	require.True(t, ok)
	assert.Equal(t, BlobID("b2"), ref.Blob)

	_, ok = tree.Value("missing.txt")
	assert.False(t, ok)
}

func TestRefTarget(t *testing.T) {
	normal := NormalTarget("aa")
	id, ok := normal.Normal()
	assert.True(t, ok)
	assert.Equal(t, CommitID("aa"), id)
	assert.False(t, normal.IsAbsent())
	assert.False(t, normal.IsConflicted())

	absent := RefTarget{}
	assert.True(t, absent.IsAbsent())
	_, ok = absent.Normal()
	assert.False(t, ok)

	conflicted := RefTarget{IDs: []CommitID{"aa", "bb"}}
	assert.True(t, conflicted.IsConflicted())
	_, ok = conflicted.Normal()
	assert.False(t, ok)
}

func TestViewClone(t *testing.T) {
	view := NewView()
	view.Workspaces["default"] = "aa"
	view.Bookmarks["main"] = NormalTarget("aa")
	view.Remotes["origin"] = map[string]RefTarget{"main": NormalTarget("bb")}

	clone := view.Clone()
	clone.Workspaces["default"] = "cc"
	clone.Bookmarks["main"] = NormalTarget("cc")
	clone.Remotes["origin"]["main"] = NormalTarget("cc")

	assert.Equal(t, CommitID("aa"), view.Workspaces["default"])
	target, _ := view.Bookmarks["main"].Normal()
	assert.Equal(t, CommitID("aa"), target)
	remote, _ := view.Remotes["origin"]["main"].Normal()
	assert.Equal(t, CommitID("bb"), remote)
}

func TestWorkspaceHeads(t *testing.T) {
	view := NewView()
	view.Workspaces["beta"] = "bb"
	view.Workspaces["alpha"] = "aa"

	assert.Equal(t, []string{"alpha", "beta"}, view.WorkspaceNames())
	assert.Equal(t, []CommitID{"aa", "bb"}, view.WorkspaceHeads())
}

func TestBookmarksFor(t *testing.T) {
	view := NewView()
	view.Bookmarks["release"] = NormalTarget("aa")
	view.Bookmarks["main"] = NormalTarget("aa")
	view.Bookmarks["dev"] = NormalTarget("bb")

	assert.Equal(t, []string{"main", "release"}, view.BookmarksFor("aa"))
	assert.Equal(t, []string{"dev"}, view.BookmarksFor("bb"))
	assert.Empty(t, view.BookmarksFor("cc"))
}

func TestRemoteHeads(t *testing.T) {
	view := NewView()
	view.Remotes["origin"] = map[string]RefTarget{
		"main": NormalTarget("aa"),
		"dev":  NormalTarget("bb"),
	}
	view.Remotes["fork"] = map[string]RefTarget{
		"main": NormalTarget("aa"),
	}

	// Remotes and names are walked in sorted order with duplicates dropped.
	assert.Equal(t, []CommitID{"aa", "bb"}, view.RemoteHeads())

	assert.True(t, view.IsRemoteHead("aa"))
	assert.True(t, view.IsRemoteHead("bb"))
	assert.False(t, view.IsRemoteHead("cc"))
}

func TestViewComputeID(t *testing.T) {
	view := NewView()
	view.Workspaces["default"] = "aa"

	id, err := view.ComputeID()
	require.NoError(t, err)

	same := NewView()
	same.Workspaces["default"] = "aa"
	sameID, err := same.ComputeID()
	require.NoError(t, err)
	assert.Equal(t, id, sameID)

	view.Bookmarks["main"] = NormalTarget("aa")
	changed, err := view.ComputeID()
	require.NoError(t, err)
	assert.NotEqual(t, id, changed)
}
