package repo

import (
	"context"
	"fmt"
	"time"

	"graft/internal/errors"
	"graft/internal/object"
	"graft/internal/revision"
	"graft/internal/workspace"
)

// NewChange creates an empty commit on top of the resolved revision (by
// default the current working-copy commit) and advances the current
// workspace head to it.
func (r *Repo) NewChange(ctx context.Context, revisionPrefix string) error {
	var parent *object.Commit
	var err error
	if revisionPrefix == "" {
		parent, err = r.workingCopyCommit(ctx)
	} else {
		parent, err = r.Resolve(ctx, revisionPrefix)
	}
	if err != nil {
		return err
	}

	commit := &object.Commit{
		Parents: []object.CommitID{parent.ID},
		Tree:    parent.Tree,
		Change:  object.NewChangeID(),
		Author:  r.settings.NewSignature(time.Now()),
	}

	tx := r.NewTransaction()
	id, err := tx.WriteCommit(commit)
	if err != nil {
		return err
	}
	tx.SetWorkspace(r.layout.Name, id)
	_, err = tx.Commit(ctx, fmt.Sprintf("new empty commit on %s", parent.ID.Short(8)))
	return err
}

// retarget moves every workspace head and every normal local bookmark from
// oldID to newID in the staged view.
func (tx *Transaction) retarget(oldID, newID object.CommitID) {
	for name, id := range tx.view.Workspaces {
		if id == oldID {
			tx.view.Workspaces[name] = newID
		}
	}
	for name, target := range tx.view.Bookmarks {
		if id, normal := target.Normal(); normal && id == oldID {
			tx.view.Bookmarks[name] = object.NormalTarget(newID)
		}
	}
}

// Describe rewrites the description of a working-copy commit. The rewritten
// commit keeps its parents, tree, author and change id, so the change
// survives under the same change id with a new commit id. Workspace heads
// and bookmarks pointing at the old commit follow the rewrite. Only
// working-copy commits can be described; nothing has descendants to rebase
// that way.
func (r *Repo) Describe(ctx context.Context, revisionPrefix, message string) error {
	target, err := r.Resolve(ctx, revisionPrefix)
	if err != nil {
		return err
	}

	if target.ID.IsRoot() {
		return errors.ImmutableTarget("cannot describe the root commit")
	}

	view := r.CurrentSnapshot().View
	immutable, err := revision.IsImmutable(ctx, r.store, view, target.ID)
	if err != nil {
		return err
	}
	if immutable {
		return errors.ImmutableTarget("cannot describe immutable revision %s (already published)",
			target.ID.Short(object.ShortIDLen))
	}

	isHead := false
	for _, id := range view.Workspaces {
		if id == target.ID {
			isHead = true
			break
		}
	}
	if !isHead {
		return errors.InvalidInput("revision %s is not a working-copy commit", target.ID.Short(object.ShortIDLen))
	}

	rewritten := &object.Commit{
		Parents:     target.Parents,
		Tree:        target.Tree,
		Change:      target.Change,
		Description: message,
		Author:      target.Author,
	}

	tx := r.NewTransaction()
	id, err := tx.WriteCommit(rewritten)
	if err != nil {
		return err
	}
	tx.retarget(target.ID, id)
	_, err = tx.Commit(ctx, fmt.Sprintf("describe commit %s", target.ID.Short(8)))
	return err
}

// SnapshotWorkingCopy scans the workspace directory and, when its contents
// differ from the working-copy commit's tree, rewrites that commit to the
// scanned tree under the same change id. Reports whether anything changed.
func (r *Repo) SnapshotWorkingCopy(ctx context.Context) (bool, error) {
	wc, err := r.workingCopyCommit(ctx)
	if err != nil {
		return false, err
	}

	if r.watcher != nil {
		if r.scanned && !r.watcher.HasChanges() {
			return false, nil
		}
		// Events arriving during the scan re-mark the dirty set, so the
		// next snapshot rescans rather than missing them.
		r.watcher.Reset()
	}

	tx := r.NewTransaction()
	tree, err := workspace.Scan(r.layout.Root, r.ignoreSet(), tx)
	if err != nil {
		r.scanned = false
		return false, err
	}
	treeID, err := tx.WriteTree(tree)
	if err != nil {
		r.scanned = false
		return false, err
	}

	if treeID == wc.Tree {
		r.scanned = true
		return false, nil
	}

	rewritten := &object.Commit{
		Parents:     wc.Parents,
		Tree:        treeID,
		Change:      wc.Change,
		Description: wc.Description,
		Author: object.Signature{
			Name:  wc.Author.Name,
			Email: wc.Author.Email,
			When:  time.Now().UnixMilli(),
		},
	}

	id, err := tx.WriteCommit(rewritten)
	if err != nil {
		r.scanned = false
		return false, err
	}
	tx.retarget(wc.ID, id)
	if _, err := tx.Commit(ctx, fmt.Sprintf("snapshot working copy of %s", r.layout.Name)); err != nil {
		r.scanned = false
		return false, err
	}

	r.scanned = true
	return true, nil
}
