package object

import "time"

// Signature names the author of a commit. When is milliseconds since the
// Unix epoch.
type Signature struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	When  int64  `json:"when"`
}

func (s Signature) Time() time.Time {
	return time.UnixMilli(s.When)
}

// Commit is an immutable node in the history graph. The ID is the content
// hash of the encoded fields and is never stored inside the encoding.
type Commit struct {
	ID          CommitID   `json:"-"`
	Parents     []CommitID `json:"parents"`
	Tree        TreeID     `json:"tree"`
	Change      ChangeID   `json:"change_id"`
	Description string     `json:"description"`
	Author      Signature  `json:"author"`
}

// ComputeID hashes the commit's encoded fields.
func (c *Commit) ComputeID() (CommitID, error) {
	sum, err := hashJSON(c)
	if err != nil {
		return "", err
	}
	return CommitID(sum), nil
}

func (c *Commit) IsRoot() bool {
	return c.ID == RootCommitID
}

// RootCommit synthesizes the well-known root. It carries the empty tree and
// has no parents.
func RootCommit() *Commit {
	return &Commit{
		ID:      RootCommitID,
		Parents: []CommitID{},
		Tree:    EmptyTreeID,
		Change:  RootChangeID,
	}
}
