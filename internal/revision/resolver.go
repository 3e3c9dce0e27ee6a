// Package revision implements the bounded backward graph walks: prefix
// resolution and ancestry checks. Both use the same depth-first
// visited-set pattern and the same cost bound: a fixed cap on visited ids.
// A cap that runs out under-reports rather than failing.
package revision

import (
	"context"

	"graft/internal/errors"
	"graft/internal/object"
)

// MaxSearchDepth bounds how many commits a prefix resolution may visit.
const MaxSearchDepth = 10000

// CommitSource resolves commit ids to commits.
type CommitSource interface {
	GetCommit(ctx context.Context, id object.CommitID) (*object.Commit, error)
}

// ResolvePrefix searches depth-first from the frontier for a commit whose
// hex id starts with prefix. The first match in visitation order wins;
// ambiguous prefixes are not detected. Commits that cannot be read are
// skipped, so the walk either finds a match or reports NotFound once the
// frontier or the visit budget is exhausted.
func ResolvePrefix(ctx context.Context, source CommitSource, frontier []object.CommitID, prefix string) (*object.Commit, error) {
	if prefix == "" {
		return nil, errors.InvalidInput("revision prefix is empty")
	}
	if !object.IsHexPrefix(prefix) {
		return nil, errors.NotFound("revision %q not found", prefix)
	}

	visited := make(map[object.CommitID]bool)
	toVisit := make([]object.CommitID, len(frontier))
	copy(toVisit, frontier)

	for len(toVisit) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(visited) >= MaxSearchDepth {
			break
		}

		id := toVisit[len(toVisit)-1]
		toVisit = toVisit[:len(toVisit)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		if len(prefix) <= len(id) && string(id)[:len(prefix)] == prefix {
			return source.GetCommit(ctx, id)
		}

		commit, err := source.GetCommit(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		for _, parent := range commit.Parents {
			if !visited[parent] {
				toVisit = append(toVisit, parent)
			}
		}
	}

	return nil, errors.NotFound("revision %q not found", prefix)
}
