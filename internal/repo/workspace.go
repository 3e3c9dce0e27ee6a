package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"graft/internal/errors"
	"graft/internal/object"
	"graft/internal/workspace"
)

// WorkspaceInfo is one row of the workspace listing. RootPath follows the
// sibling-directory convention: non-default workspaces live next to the
// primary root under their own name.
type WorkspaceInfo struct {
	Name      string `json:"name"`
	IsCurrent bool   `json:"is_current"`
	CommitID  string `json:"commit_id"`
	RootPath  string `json:"root_path,omitempty"`
}

// Workspaces lists all registered workspaces sorted by name.
func (r *Repo) Workspaces(ctx context.Context) ([]WorkspaceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := r.CurrentSnapshot()

	primaryRoot := filepath.Dir(r.layout.PrimaryMetaDir())
	infos := make([]WorkspaceInfo, 0, len(snap.View.Workspaces))
	for _, name := range snap.View.WorkspaceNames() {
		rootPath := primaryRoot
		if name == r.layout.Name {
			rootPath = r.layout.Root
		} else if name != DefaultWorkspace {
			rootPath = filepath.Join(filepath.Dir(primaryRoot), name)
		}
		infos = append(infos, WorkspaceInfo{
			Name:      name,
			IsCurrent: name == r.layout.Name,
			CommitID:  snap.View.Workspaces[name].String(),
			RootPath:  rootPath,
		})
	}
	return infos, nil
}

// parseParentRevisions resolves a comma-separated revision list.
func (r *Repo) parseParentRevisions(ctx context.Context, csv string) ([]object.CommitID, error) {
	var parents []object.CommitID
	for _, spec := range strings.Split(csv, ",") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		commit, err := r.Resolve(ctx, spec)
		if err != nil {
			return nil, err
		}
		parents = append(parents, commit.ID)
	}
	return parents, nil
}

// WorkspaceAdd creates a new named working copy at destination. Its
// working-copy commit is contentless: parents are the resolved revisions
// (default: the current working-copy commit's parents, falling back to the
// root) and its tree equals the first parent's tree. The destination gets
// the metadata scaffold and the tree's files.
func (r *Repo) WorkspaceAdd(ctx context.Context, destination, name, parentRevisions string) error {
	if destination == "" {
		return errors.InvalidInput("workspace destination is empty")
	}
	if name == "" {
		name = workspace.DefaultName(destination)
	}

	snap := r.CurrentSnapshot()
	if _, exists := snap.View.Workspaces[name]; exists {
		return errors.InvalidInput("workspace %q already exists", name)
	}

	var parents []object.CommitID
	if strings.TrimSpace(parentRevisions) != "" {
		resolved, err := r.parseParentRevisions(ctx, parentRevisions)
		if err != nil {
			return err
		}
		parents = resolved
	} else {
		wc, err := r.workingCopyCommit(ctx)
		if err != nil {
			return err
		}
		parents = append(parents, wc.Parents...)
	}
	if len(parents) == 0 {
		parents = []object.CommitID{object.RootCommitID}
	}

	if err := workspace.ValidateDestination(destination); err != nil {
		return err
	}

	firstParent, err := r.store.GetCommit(ctx, parents[0])
	if err != nil {
		return err
	}

	commit := &object.Commit{
		Parents: parents,
		Tree:    firstParent.Tree,
		Change:  object.NewChangeID(),
		Author:  r.settings.NewSignature(time.Now()),
	}

	tx := r.NewTransaction()
	id, err := tx.WriteCommit(commit)
	if err != nil {
		return err
	}
	tx.SetWorkspace(name, id)

	shorts := make([]string, 0, len(parents))
	for _, parent := range parents {
		shorts = append(shorts, parent.Short(8))
	}
	description := fmt.Sprintf("create workspace %s at %s", name, strings.Join(shorts, ", "))
	if _, err := tx.Commit(ctx, description); err != nil {
		return err
	}

	scaffolded, err := workspace.Scaffold(destination, name, r.layout.PrimaryMetaDir())
	if err != nil {
		return err
	}
	tree, err := r.store.GetTree(ctx, commit.Tree)
	if err != nil {
		return err
	}
	return workspace.WriteTree(scaffolded.Root, tree, func(blobID object.BlobID) ([]byte, error) {
		return r.store.GetBlob(ctx, blobID)
	})
}

// WorkspaceForget removes a workspace's registration without touching its
// files. The handle's own workspace cannot be forgotten.
func (r *Repo) WorkspaceForget(ctx context.Context, name string) error {
	if name == "" {
		return errors.InvalidInput("workspace name is empty")
	}
	if name == r.layout.Name {
		return errors.ForgetCurrent(name)
	}

	snap := r.CurrentSnapshot()
	if _, ok := snap.View.Workspaces[name]; !ok {
		return errors.NotFound("workspace %q not found", name)
	}

	tx := r.NewTransaction()
	tx.RemoveWorkspace(name)
	_, err := tx.Commit(ctx, fmt.Sprintf("forget workspace %s", name))
	return err
}
