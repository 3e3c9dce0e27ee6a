package repo

import (
	"context"
	"fmt"
	"sort"

	"graft/internal/errors"
	"graft/internal/object"
	"graft/internal/revision"
)

// BookmarkInfo is one row of the bookmark listing. Remote-tracked bookmarks
// are listed as name@remote.
type BookmarkInfo struct {
	Name    string `json:"name"`
	IsLocal bool   `json:"is_local"`
}

// Bookmarks lists local bookmarks first, then remote-tracked ones, each
// group sorted by name.
func (r *Repo) Bookmarks(ctx context.Context) ([]BookmarkInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	view := r.CurrentSnapshot().View

	infos := make([]BookmarkInfo, 0, len(view.Bookmarks))
	for _, name := range view.BookmarkNames() {
		if view.Bookmarks[name].IsAbsent() {
			continue
		}
		infos = append(infos, BookmarkInfo{Name: name, IsLocal: true})
	}

	remotes := make([]string, 0, len(view.Remotes))
	for remote := range view.Remotes {
		remotes = append(remotes, remote)
	}
	sort.Strings(remotes)
	for _, remote := range remotes {
		names := make([]string, 0, len(view.Remotes[remote]))
		for name := range view.Remotes[remote] {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			infos = append(infos, BookmarkInfo{Name: fmt.Sprintf("%s@%s", name, remote), IsLocal: false})
		}
	}

	return infos, nil
}

// SetBookmark points a local bookmark at the revision resolved from
// revisionPrefix. The root commit is never a valid target. Unless
// ignoreImmutable, targets already published to a remote are rejected;
// unless allowBackwards, moves onto an ancestor of the current target are
// rejected. Re-setting a bookmark to its current target is a no-op move and
// always allowed. The new target is a normal one, overwriting any
// conflicted state.
func (r *Repo) SetBookmark(ctx context.Context, name, revisionPrefix string, allowBackwards, ignoreImmutable bool) error {
	if name == "" {
		return errors.InvalidInput("bookmark name is empty")
	}

	target, err := r.Resolve(ctx, revisionPrefix)
	if err != nil {
		return err
	}

	if target.ID.IsRoot() {
		return errors.ImmutableTarget("cannot set bookmark on the root commit")
	}

	view := r.CurrentSnapshot().View
	if !ignoreImmutable {
		immutable, err := revision.IsImmutable(ctx, r.store, view, target.ID)
		if err != nil {
			return err
		}
		if immutable {
			return errors.ImmutableTarget("cannot set bookmark on immutable revision %s (already published)",
				target.ID.Short(object.ShortIDLen))
		}
	}

	if !allowBackwards {
		if current, ok := view.Bookmarks[name]; ok {
			// Only a normal current target defines a direction; same-target
			// moves short-circuit before the walk.
			if currentID, normal := current.Normal(); normal && currentID != target.ID {
				backwards, err := revision.IsAncestor(ctx, r.store, target.ID,
					[]object.CommitID{currentID}, revision.MaxBackwardsVisits)
				if err != nil {
					return err
				}
				if backwards {
					return errors.BackwardsMove("cannot move bookmark %q backwards (use allow-backwards)", name)
				}
			}
		}
	}

	tx := r.NewTransaction()
	tx.SetBookmark(name, object.NormalTarget(target.ID))
	_, err = tx.Commit(ctx, fmt.Sprintf("set bookmark %s to %s", name, revisionPrefix))
	return err
}
