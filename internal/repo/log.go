package repo

import (
	"context"
	"sort"
	"time"

	"graft/internal/object"
)

const (
	// MaxLogEntries caps how many revisions Log returns.
	MaxLogEntries = 100

	// MaxOperationEntries caps how many entries Operations returns.
	MaxOperationEntries = 50
)

// RevisionInfo is one row of the revision log.
type RevisionInfo struct {
	CommitID     string   `json:"commit_id"`
	ChangeID     string   `json:"change_id"`
	Description  string   `json:"description"`
	AuthorEmail  string   `json:"author_email"`
	Timestamp    string   `json:"timestamp"`
	Bookmarks    []string `json:"bookmarks,omitempty"`
	IsRemoteHead bool     `json:"is_remote_head,omitempty"`
	Workspaces   []string `json:"workspaces,omitempty"`
	IsRoot       bool     `json:"is_root,omitempty"`
	Parents      []string `json:"parents"`
}

func formatTimestamp(millis int64) string {
	return time.UnixMilli(millis).Format("2006-01-02 15:04")
}

// Log walks backward from all workspace heads and returns up to
// MaxLogEntries revisions, deduplicated by commit id, in visitation order.
func (r *Repo) Log(ctx context.Context) ([]RevisionInfo, error) {
	snap := r.CurrentSnapshot()
	view := snap.View

	workspacesByCommit := map[object.CommitID][]string{}
	for name, id := range view.Workspaces {
		workspacesByCommit[id] = append(workspacesByCommit[id], name)
	}
	for _, names := range workspacesByCommit {
		sort.Strings(names)
	}

	visited := make(map[object.CommitID]bool)
	toVisit := view.WorkspaceHeads()

	infos := make([]RevisionInfo, 0, MaxLogEntries)
	for len(toVisit) > 0 && len(infos) < MaxLogEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id := toVisit[len(toVisit)-1]
		toVisit = toVisit[:len(toVisit)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		commit, err := r.store.GetCommit(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		parents := make([]string, 0, len(commit.Parents))
		for _, parent := range commit.Parents {
			parents = append(parents, parent.Short(object.ShortIDLen))
			if !visited[parent] {
				toVisit = append(toVisit, parent)
			}
		}

		infos = append(infos, RevisionInfo{
			CommitID:     id.Short(object.ShortIDLen),
			ChangeID:     commit.Change.Short(object.ShortIDLen),
			Description:  commit.Description,
			AuthorEmail:  commit.Author.Email,
			Timestamp:    formatTimestamp(commit.Author.When),
			Bookmarks:    view.BookmarksFor(id),
			IsRemoteHead: view.IsRemoteHead(id),
			Workspaces:   workspacesByCommit[id],
			IsRoot:       id.IsRoot(),
			Parents:      parents,
		})
	}

	return infos, nil
}

// OperationInfo is one row of the operation log.
type OperationInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	IsCurrent   bool   `json:"is_current"`
}

// Operations walks the operation log backward from the current head and
// returns up to MaxOperationEntries entries.
func (r *Repo) Operations(ctx context.Context) ([]OperationInfo, error) {
	snap := r.CurrentSnapshot()

	visited := make(map[object.OperationID]bool)
	toVisit := []object.OperationID{snap.Op}

	infos := make([]OperationInfo, 0, MaxOperationEntries)
	for len(toVisit) > 0 && len(infos) < MaxOperationEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id := toVisit[len(toVisit)-1]
		toVisit = toVisit[:len(toVisit)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		op, err := r.store.GetOperation(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		infos = append(infos, OperationInfo{
			ID:          id.Short(object.ShortIDLen),
			Description: op.Description,
			Timestamp:   formatTimestamp(op.When),
			IsCurrent:   id == snap.Op,
		})

		for _, parent := range op.Parents {
			if !visited[parent] {
				toVisit = append(toVisit, parent)
			}
		}
	}

	return infos, nil
}
