package repo

import (
	"context"
	"time"

	"go.uber.org/zap"

	"graft/internal/object"
	"graft/internal/store"
)

// Transaction stages one mutation against the snapshot it was opened on:
// new objects go into a store batch, reference changes into a cloned view.
// Nothing is durable and the handle is untouched until Commit, which applies
// the batch atomically and swaps the handle to the new snapshot.
type Transaction struct {
	repo  *Repo
	base  *Snapshot
	view  *object.View
	batch *store.Batch
}

// NewTransaction opens a transaction on the current snapshot.
func (r *Repo) NewTransaction() *Transaction {
	base := r.CurrentSnapshot()
	return &Transaction{
		repo:  r,
		base:  base,
		view:  base.View.Clone(),
		batch: store.NewBatch(),
	}
}

// View is the staged view. Mutating it directly is allowed; the typed
// helpers below cover the common cases.
func (tx *Transaction) View() *object.View {
	return tx.view
}

// WriteCommit stages a commit and returns its computed id.
func (tx *Transaction) WriteCommit(c *object.Commit) (object.CommitID, error) {
	return tx.batch.AddCommit(c)
}

// WriteTree stages a tree and returns its computed id.
func (tx *Transaction) WriteTree(t *object.Tree) (object.TreeID, error) {
	return tx.batch.AddTree(t)
}

// AddBlob stages file content and returns its content id.
func (tx *Transaction) AddBlob(path string, content []byte) object.BlobID {
	return tx.batch.AddBlob(path, content)
}

func (tx *Transaction) SetWorkspace(name string, id object.CommitID) {
	tx.view.Workspaces[name] = id
}

func (tx *Transaction) RemoveWorkspace(name string) {
	delete(tx.view.Workspaces, name)
}

func (tx *Transaction) SetBookmark(name string, target object.RefTarget) {
	tx.view.Bookmarks[name] = target
}

// Commit applies the staged writes and the new view as one atomic store
// update, appends the operation-log entry, and swaps the handle's snapshot.
// On failure the handle keeps its previous snapshot.
func (tx *Transaction) Commit(ctx context.Context, description string) (*Snapshot, error) {
	tx.batch.SetView(tx.view)

	var parents []object.OperationID
	if tx.base.Op != "" {
		parents = []object.OperationID{tx.base.Op}
	}

	op, err := tx.repo.store.Apply(ctx, tx.batch, parents, description, time.Now().UnixMilli())
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{View: tx.view, Op: op.ID}
	tx.repo.swap(snap)

	tx.repo.logger.Info("committed operation",
		zap.String("operation", op.ID.Short(object.ShortIDLen)),
		zap.String("description", description))
	return snap, nil
}
