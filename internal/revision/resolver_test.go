package revision

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"graft/internal/errors"
	"graft/internal/object"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[object.CommitID]*object.Commit

func (m mapSource) GetCommit(ctx context.Context, id object.CommitID) (*object.Commit, error) {
	if c, ok := m[id]; ok {
		return c, nil
	}
	return nil, errors.NotFound("commit %s not found", id.Short(object.ShortIDLen))
}

func fill(prefix string) object.CommitID {
	return object.CommitID(prefix + strings.Repeat("e", object.HashHexLen-len(prefix)))
}

func addCommit(source mapSource, id object.CommitID, parents ...object.CommitID) *object.Commit {
	c := &object.Commit{ID: id, Parents: parents, Tree: object.EmptyTreeID}
	source[id] = c
	return c
}

func TestResolvePrefix(t *testing.T) {
	ctx := context.Background()
	source := mapSource{}

	base := fill("bb33")
	mid := fill("aa22")
	head := fill("aa11")
	addCommit(source, base)
	addCommit(source, mid, base)
	addCommit(source, head, mid)
	frontier := []object.CommitID{head}

	t.Run("full id", func(t *testing.T) {
		c, err := ResolvePrefix(ctx, source, frontier, string(base))
		require.NoError(t, err)
		assert.Equal(t, base, c.ID)
	})

	t.Run("unique prefix", func(t *testing.T) {
		c, err := ResolvePrefix(ctx, source, frontier, "bb")
		require.NoError(t, err)
		assert.Equal(t, base, c.ID)
	})

	t.Run("first visited match wins", func(t *testing.T) {
		c, err := ResolvePrefix(ctx, source, frontier, "aa")
		require.NoError(t, err)
		assert.Equal(t, head, c.ID)
	})

	t.Run("empty prefix", func(t *testing.T) {
		_, err := ResolvePrefix(ctx, source, frontier, "")
		assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
	})

	t.Run("non-hex prefix", func(t *testing.T) {
		_, err := ResolvePrefix(ctx, source, frontier, "zz")
		assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
	})

	t.Run("unknown prefix", func(t *testing.T) {
		_, err := ResolvePrefix(ctx, source, frontier, "ff")
		assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
	})

	t.Run("unreadable commit is skipped", func(t *testing.T) {
		missing := fill("cc44")
		c, err := ResolvePrefix(ctx, source, []object.CommitID{head, missing}, "bb")
		require.NoError(t, err)
		assert.Equal(t, base, c.ID)
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := ResolvePrefix(canceled, source, frontier, "aa")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestResolvePrefixVisitBudget(t *testing.T) {
	ctx := context.Background()

	// A linear chain one commit longer than the budget. The walk reaches
	// the last commit inside the budget but never the one past it.
	source := mapSource{}
	ids := make([]object.CommitID, MaxSearchDepth+1)
	for i := range ids {
		ids[i] = object.CommitID(fmt.Sprintf("%064x", i+1))
	}
	for i := 0; i < len(ids)-1; i++ {
		addCommit(source, ids[i], ids[i+1])
	}
	addCommit(source, ids[len(ids)-1])

	frontier := []object.CommitID{ids[0]}

	last, err := ResolvePrefix(ctx, source, frontier, string(ids[MaxSearchDepth-1]))
	require.NoError(t, err)
	assert.Equal(t, ids[MaxSearchDepth-1], last.ID)

	_, err = ResolvePrefix(ctx, source, frontier, string(ids[MaxSearchDepth]))
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestIsAncestor(t *testing.T) {
	ctx := context.Background()
	source := mapSource{}

	base := fill("01")
	mid := fill("02")
	head := fill("03")
	other := fill("04")
	addCommit(source, base)
	addCommit(source, mid, base)
	addCommit(source, head, mid)
	addCommit(source, other)

	tests := []struct {
		name      string
		candidate object.CommitID
		heads     []object.CommitID
		maxVisits int
		want      bool
	}{
		{"direct ancestor", base, []object.CommitID{head}, 10, true},
		{"head itself", head, []object.CommitID{head}, 10, true},
		{"unrelated", other, []object.CommitID{head}, 10, false},
		{"beyond budget", base, []object.CommitID{head}, 2, false},
		{"within budget", mid, []object.CommitID{head}, 2, true},
		{"no heads", base, nil, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsAncestor(ctx, source, tt.candidate, tt.heads, tt.maxVisits)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsImmutable(t *testing.T) {
	ctx := context.Background()
	source := mapSource{}

	published := fill("aa")
	remoteHead := fill("bb")
	private := fill("cc")
	addCommit(source, published)
	addCommit(source, remoteHead, published)
	addCommit(source, private, remoteHead)

	view := object.NewView()
	view.Remotes["origin"] = map[string]object.RefTarget{
		"main": object.NormalTarget(remoteHead),
	}

	tests := []struct {
		name string
		id   object.CommitID
		want bool
	}{
		{"root", object.RootCommitID, true},
		{"remote head", remoteHead, true},
		{"ancestor of remote head", published, true},
		{"descendant of remote head", private, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsImmutable(ctx, source, view, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
