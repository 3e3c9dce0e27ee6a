package object

import "sort"

// RefTarget is a bookmark target. One id is a normal target; several ids
// record a conflict left behind by remote synchronization. Setting a
// bookmark always writes a normal target over whatever was there.
type RefTarget struct {
	IDs []CommitID `json:"ids"`
}

func NormalTarget(id CommitID) RefTarget {
	return RefTarget{IDs: []CommitID{id}}
}

func (t RefTarget) IsAbsent() bool     { return len(t.IDs) == 0 }
func (t RefTarget) IsConflicted() bool { return len(t.IDs) > 1 }

// Normal returns the single target id when the target is not conflicted.
func (t RefTarget) Normal() (CommitID, bool) {
	if len(t.IDs) == 1 {
		return t.IDs[0], true
	}
	return "", false
}

// View is the mutable part of a repository snapshot: workspace heads, local
// bookmarks and the last-known remote bookmark targets.
type View struct {
	Workspaces map[string]CommitID             `json:"workspaces"`
	Bookmarks  map[string]RefTarget            `json:"bookmarks"`
	Remotes    map[string]map[string]RefTarget `json:"remotes"`
}

func NewView() *View {
	return &View{
		Workspaces: map[string]CommitID{},
		Bookmarks:  map[string]RefTarget{},
		Remotes:    map[string]map[string]RefTarget{},
	}
}

// Clone deep-copies the view so a transaction can stage changes without
// touching the published snapshot.
func (v *View) Clone() *View {
	c := NewView()
	for name, id := range v.Workspaces {
		c.Workspaces[name] = id
	}
	for name, target := range v.Bookmarks {
		ids := make([]CommitID, len(target.IDs))
		copy(ids, target.IDs)
		c.Bookmarks[name] = RefTarget{IDs: ids}
	}
	for remote, bookmarks := range v.Remotes {
		rc := map[string]RefTarget{}
		for name, target := range bookmarks {
			ids := make([]CommitID, len(target.IDs))
			copy(ids, target.IDs)
			rc[name] = RefTarget{IDs: ids}
		}
		c.Remotes[remote] = rc
	}
	return c
}

// WorkspaceNames returns workspace names in sorted order.
func (v *View) WorkspaceNames() []string {
	names := make([]string, 0, len(v.Workspaces))
	for name := range v.Workspaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WorkspaceHeads returns the working-copy commit ids in workspace-name
// order. This is the default resolver frontier.
func (v *View) WorkspaceHeads() []CommitID {
	heads := make([]CommitID, 0, len(v.Workspaces))
	for _, name := range v.WorkspaceNames() {
		heads = append(heads, v.Workspaces[name])
	}
	return heads
}

// BookmarkNames returns local bookmark names in sorted order.
func (v *View) BookmarkNames() []string {
	names := make([]string, 0, len(v.Bookmarks))
	for name := range v.Bookmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BookmarksFor returns the sorted local bookmark names targeting id.
func (v *View) BookmarksFor(id CommitID) []string {
	var names []string
	for name, target := range v.Bookmarks {
		for _, tid := range target.IDs {
			if tid == id {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// RemoteHeads returns every commit id targeted by a remote-tracked
// bookmark. These seed the immutability walk.
func (v *View) RemoteHeads() []CommitID {
	seen := map[CommitID]bool{}
	var heads []CommitID
	remotes := make([]string, 0, len(v.Remotes))
	for remote := range v.Remotes {
		remotes = append(remotes, remote)
	}
	sort.Strings(remotes)
	for _, remote := range remotes {
		bookmarks := v.Remotes[remote]
		names := make([]string, 0, len(bookmarks))
		for name := range bookmarks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, id := range bookmarks[name].IDs {
				if !seen[id] {
					seen[id] = true
					heads = append(heads, id)
				}
			}
		}
	}
	return heads
}

// IsRemoteHead reports whether any remote-tracked bookmark targets id.
func (v *View) IsRemoteHead(id CommitID) bool {
	for _, bookmarks := range v.Remotes {
		for _, target := range bookmarks {
			for _, tid := range target.IDs {
				if tid == id {
					return true
				}
			}
		}
	}
	return false
}

// ComputeID hashes the canonical encoding of the view.
func (v *View) ComputeID() (ViewID, error) {
	sum, err := hashJSON(v)
	if err != nil {
		return "", err
	}
	return ViewID(sum), nil
}
