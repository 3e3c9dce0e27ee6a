// Package repo ties the pieces together: it owns the repository handle, the
// snapshot it points at, and the transactional swap that every mutation goes
// through. All operations exposed to callers live on Repo.
package repo

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"graft/internal/errors"
	"graft/internal/logging"
	"graft/internal/object"
	"graft/internal/revision"
	"graft/internal/settings"
	"graft/internal/store"
	"graft/internal/workspace"
)

// DefaultWorkspace is the workspace name a fresh repository starts with.
const DefaultWorkspace = "default"

// Snapshot is one immutable repository state: a view and the operation that
// produced it. A Repo holds exactly one at a time and replaces it wholesale
// after each successful transaction.
type Snapshot struct {
	View *object.View
	Op   object.OperationID
}

// Repo is the process-held handle on a repository, bound to one workspace.
// Reads see the current snapshot; mutations build a transaction and swap in
// its result. Callers serialize mutations on a given handle.
type Repo struct {
	layout   workspace.Layout
	store    *store.Store
	settings settings.Settings
	logger   *logging.Logger
	watcher  *workspace.Watcher

	mu       sync.RWMutex
	snapshot *Snapshot

	// scanned records whether a working-copy scan has run since open, so
	// the watcher short-circuit never skips the first scan.
	scanned bool
}

type options struct {
	settings *settings.Settings
	logger   *logging.Logger
	inMemory bool
	watch    bool
}

type Option func(*options)

// WithSettings bypasses loading the user settings file.
func WithSettings(s settings.Settings) Option {
	return func(o *options) { o.settings = &s }
}

func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithInMemoryStore keeps the object database in memory. For tests.
func WithInMemoryStore() Option {
	return func(o *options) { o.inMemory = true }
}

// WithWatcher enables filesystem watching so working-copy snapshots can
// skip rescans when nothing changed.
func WithWatcher() Option {
	return func(o *options) { o.watch = true }
}

func buildOptions(opts []Option) (options, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.settings == nil {
		loaded, err := settings.LoadUser()
		if err != nil {
			return options{}, err
		}
		o.settings = &loaded
	}
	if err := o.settings.Validate(); err != nil {
		return options{}, errors.Wrap(errors.KindInvalidInput, err, "invalid settings")
	}
	return o, nil
}

func openStore(layout workspace.Layout, o options) (*store.Store, error) {
	storeOpts := store.DefaultOptions(layout.StoreDir)
	storeOpts.InMemory = o.inMemory
	storeOpts.Logger = o.logger
	return store.Open(storeOpts)
}

// Init creates a repository at path with a single default workspace whose
// working-copy commit sits on the root, and returns an open handle.
func Init(ctx context.Context, path string, opts ...Option) (*Repo, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	layout, err := workspace.Init(path, DefaultWorkspace)
	if err != nil {
		return nil, err
	}

	st, err := openStore(layout, o)
	if err != nil {
		return nil, err
	}

	wc := &object.Commit{
		Parents: []object.CommitID{object.RootCommitID},
		Tree:    object.EmptyTreeID,
		Change:  object.NewChangeID(),
		Author:  o.settings.NewSignature(time.Now()),
	}
	batch := store.NewBatch()
	wcID, err := batch.AddCommit(wc)
	if err != nil {
		st.Close()
		return nil, err
	}

	view := object.NewView()
	view.Workspaces[DefaultWorkspace] = wcID
	batch.SetView(view)

	op, err := st.Apply(ctx, batch, nil, "initialize repository", time.Now().UnixMilli())
	if err != nil {
		st.Close()
		return nil, err
	}

	r := &Repo{
		layout:   layout,
		store:    st,
		settings: *o.settings,
		logger:   o.logger,
		snapshot: &Snapshot{View: view, Op: op.ID},
	}
	if err := r.startWatcher(o); err != nil {
		st.Close()
		return nil, err
	}

	r.logger.Info("initialized repository",
		zap.String("root", layout.Root),
		zap.String("workspace", layout.Name))
	return r, nil
}

// Open loads the workspace at path and the snapshot at its current head.
func Open(ctx context.Context, path string, opts ...Option) (*Repo, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}

	layout, err := workspace.Load(path)
	if err != nil {
		return nil, err
	}

	st, err := openStore(layout, o)
	if err != nil {
		return nil, err
	}

	opID, err := st.HeadOperation(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	op, err := st.GetOperation(ctx, opID)
	if err != nil {
		st.Close()
		return nil, err
	}
	view, err := st.GetView(ctx, op.View)
	if err != nil {
		st.Close()
		return nil, err
	}

	if _, ok := view.Workspaces[layout.Name]; !ok {
		st.Close()
		return nil, errors.NotFound("workspace %q is not registered in this repository", layout.Name)
	}

	r := &Repo{
		layout:   layout,
		store:    st,
		settings: *o.settings,
		logger:   o.logger,
		snapshot: &Snapshot{View: view, Op: opID},
	}
	if err := r.startWatcher(o); err != nil {
		st.Close()
		return nil, err
	}

	r.logger.Info("opened repository",
		zap.String("root", layout.Root),
		zap.String("workspace", layout.Name),
		zap.String("operation", opID.Short(object.ShortIDLen)))
	return r, nil
}

func (r *Repo) startWatcher(o options) error {
	if !o.watch {
		return nil
	}
	w, err := workspace.NewWatcher(r.layout.Root, r.ignoreSet(), r.logger)
	if err != nil {
		return errors.IO(err, "starting workspace watcher")
	}
	r.watcher = w
	return nil
}

func (r *Repo) ignoreSet() map[string]bool {
	return workspace.IgnoreSet(r.settings.Snapshot.Ignore)
}

// Close releases everything the handle owns.
func (r *Repo) Close() error {
	if r.watcher != nil {
		if err := r.watcher.Close(); err != nil {
			r.logger.Warn("closing watcher", zap.Error(err))
		}
		r.watcher = nil
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			return err
		}
		r.store = nil
	}
	return nil
}

// CurrentSnapshot returns the snapshot the handle points at.
func (r *Repo) CurrentSnapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

func (r *Repo) swap(s *Snapshot) {
	r.mu.Lock()
	r.snapshot = s
	r.mu.Unlock()
}

// CurrentWorkspace is the workspace this handle was opened in.
func (r *Repo) CurrentWorkspace() string {
	return r.layout.Name
}

// Root is the on-disk root of the current workspace.
func (r *Repo) Root() string {
	return r.layout.Root
}

func (r *Repo) Settings() settings.Settings {
	return r.settings
}

// Resolve finds the unique commit whose hex id starts with prefix, searching
// backward from all workspace heads.
func (r *Repo) Resolve(ctx context.Context, prefix string) (*object.Commit, error) {
	snap := r.CurrentSnapshot()
	return revision.ResolvePrefix(ctx, r.store, snap.View.WorkspaceHeads(), prefix)
}

// workingCopyCommit loads the current workspace's working-copy commit.
func (r *Repo) workingCopyCommit(ctx context.Context) (*object.Commit, error) {
	snap := r.CurrentSnapshot()
	id, ok := snap.View.Workspaces[r.layout.Name]
	if !ok {
		return nil, errors.NotFound("workspace %q is not registered in this repository", r.layout.Name)
	}
	return r.store.GetCommit(ctx, id)
}
