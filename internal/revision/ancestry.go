package revision

import (
	"context"

	"graft/internal/object"
)

const (
	// MaxImmutableVisits bounds the walk from remote heads when deciding
	// whether a commit has been published.
	MaxImmutableVisits = 200

	// MaxBackwardsVisits bounds the walk from a bookmark's current target
	// when deciding whether a move goes backwards.
	MaxBackwardsVisits = 100
)

// IsAncestor reports whether candidate is reachable walking parent pointers
// from heads, visiting at most maxVisits commits. The walk is non-strict: a
// candidate that is itself a head is found immediately. Exhausting the
// budget reports false even when the candidate lies deeper, so callers get
// an approximation that under-reports ancestry on very deep histories.
func IsAncestor(ctx context.Context, source CommitSource, candidate object.CommitID, heads []object.CommitID, maxVisits int) (bool, error) {
	visited := make(map[object.CommitID]bool)
	toVisit := make([]object.CommitID, len(heads))
	copy(toVisit, heads)

	for len(toVisit) > 0 {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if len(visited) >= maxVisits {
			break
		}

		id := toVisit[len(toVisit)-1]
		toVisit = toVisit[:len(toVisit)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		if id == candidate {
			return true, nil
		}

		commit, err := source.GetCommit(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			continue
		}
		for _, parent := range commit.Parents {
			if !visited[parent] {
				toVisit = append(toVisit, parent)
			}
		}
	}

	return false, nil
}

// IsImmutable reports whether id must not be the target of a
// reference-pointing mutation: the root commit, or any ancestor of a
// remote-tracked bookmark head.
func IsImmutable(ctx context.Context, source CommitSource, view *object.View, id object.CommitID) (bool, error) {
	if id.IsRoot() {
		return true, nil
	}
	return IsAncestor(ctx, source, id, view.RemoteHeads(), MaxImmutableVisits)
}
