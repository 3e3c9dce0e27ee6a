package store

import (
	"context"
	"encoding/json"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"graft/internal/errors"
	"graft/internal/object"
)

type stagedBlob struct {
	id      object.BlobID
	path    string
	content []byte
}

// Batch stages the object writes of one repository transaction. Nothing
// touches the database until Apply.
type Batch struct {
	commits []*object.Commit
	trees   map[object.TreeID]*object.Tree
	blobs   []stagedBlob
	view    *object.View
}

func NewBatch() *Batch {
	return &Batch{trees: map[object.TreeID]*object.Tree{}}
}

// AddCommit computes the commit's content id, stages it, and returns the id.
func (b *Batch) AddCommit(c *object.Commit) (object.CommitID, error) {
	id, err := c.ComputeID()
	if err != nil {
		return "", errors.Serialization(err, "encoding commit")
	}
	c.ID = id
	b.commits = append(b.commits, c)
	return id, nil
}

// AddTree stages a tree and returns its content id. The empty tree is a
// sentinel and is never written.
func (b *Batch) AddTree(t *object.Tree) (object.TreeID, error) {
	if len(t.Entries) == 0 {
		return object.EmptyTreeID, nil
	}
	id, err := t.ComputeID()
	if err != nil {
		return "", errors.Serialization(err, "encoding tree")
	}
	b.trees[id] = t
	return id, nil
}

// AddBlob stages file content and returns its content id. The path is kept
// only to steer the compression decision.
func (b *Batch) AddBlob(path string, content []byte) object.BlobID {
	id := object.BlobID(object.HashBytes(content))
	b.blobs = append(b.blobs, stagedBlob{id: id, path: path, content: content})
	return id
}

// SetView stages the view the transaction produces.
func (b *Batch) SetView(v *object.View) {
	b.view = v
}

// Apply writes the whole batch, the encoded view, and a new operation
// advancing the log head, all inside one badger update. It returns the new
// operation with its id filled in.
func (s *Store) Apply(ctx context.Context, b *Batch, parents []object.OperationID, description string, when int64) (*object.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.view == nil {
		return nil, errors.Transaction(nil, "transaction has no view to commit")
	}

	viewID, err := b.view.ComputeID()
	if err != nil {
		return nil, errors.Serialization(err, "encoding view")
	}
	viewData, err := json.Marshal(b.view)
	if err != nil {
		return nil, errors.Serialization(err, "encoding view")
	}

	op := &object.Operation{
		Parents:     parents,
		View:        viewID,
		Description: description,
		When:        when,
	}
	opID, err := op.ComputeID()
	if err != nil {
		return nil, errors.Serialization(err, "encoding operation")
	}
	op.ID = opID
	opData, err := json.Marshal(op)
	if err != nil {
		return nil, errors.Serialization(err, "encoding operation")
	}

	type kv struct {
		key  []byte
		data []byte
	}
	sets := make([]kv, 0, len(b.commits)+len(b.trees)+len(b.blobs)+3)

	for _, c := range b.commits {
		data, err := json.Marshal(c)
		if err != nil {
			return nil, errors.Serialization(err, "encoding commit %s", c.ID.Short(object.ShortIDLen))
		}
		sets = append(sets, kv{makeKey(prefixCommit, string(c.ID)), data})
	}
	for id, t := range b.trees {
		data, err := json.Marshal(t)
		if err != nil {
			return nil, errors.Serialization(err, "encoding tree %s", shortForErr(string(id)))
		}
		sets = append(sets, kv{makeKey(prefixTree, string(id)), data})
	}
	for _, blob := range b.blobs {
		sets = append(sets, kv{makeKey(prefixBlob, string(blob.id)), s.codec.encode(blob.path, blob.content)})
	}
	sets = append(sets, kv{makeKey(prefixView, string(viewID)), viewData})
	sets = append(sets, kv{makeKey(prefixOp, string(opID)), opData})
	sets = append(sets, kv{[]byte(keyOpHead), []byte(opID)})

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, set := range sets {
			// Content-addressed keys never change value; skip rewrites.
			if _, err := txn.Get(set.key); err == nil && string(set.key) != keyOpHead {
				continue
			}
			if err := txn.Set(set.key, set.data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Transaction(err, "committing %q", description)
	}

	for _, c := range b.commits {
		s.commits.Add(c.ID, c)
	}
	for id, t := range b.trees {
		s.trees.Add(id, t)
	}
	for _, blob := range b.blobs {
		s.blobs.Add(blob.id, blob.content)
	}

	s.logger.Debug("applied transaction",
		zap.String("operation", opID.Short(object.ShortIDLen)),
		zap.String("description", description),
		zap.Int("commits", len(b.commits)),
		zap.Int("trees", len(b.trees)),
		zap.Int("blobs", len(b.blobs)))

	return op, nil
}
