// Package store persists the content-addressed object graph and the
// operation log in a single badger database. Values are JSON; file blobs go
// through the zstd codec. All writes belonging to one repository transaction
// are applied in a single badger update.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"graft/internal/errors"
	"graft/internal/logging"
	"graft/internal/object"
)

const (
	prefixCommit = "commit"
	prefixTree   = "tree"
	prefixBlob   = "blob"
	prefixView   = "view"
	prefixOp     = "op"

	keyOpHead = "meta:ophead"
)

// Options configures a Store.
type Options struct {
	// Dir is the badger directory. Ignored when InMemory is set.
	Dir string
	// InMemory runs badger without files, for tests.
	InMemory bool
	// CacheSize is the entry count for each decoded-object cache.
	CacheSize int
	// Compression configures the blob codec.
	Compression CompressionOptions
	Logger      *logging.Logger
}

func DefaultOptions(dir string) Options {
	return Options{
		Dir:         dir,
		CacheSize:   1024,
		Compression: DefaultCompressionOptions(),
	}
}

// Store is the durable half of a repository: commits, trees, blobs, views
// and operations, addressed by content hash.
type Store struct {
	db      *badger.DB
	commits *lru.Cache[object.CommitID, *object.Commit]
	trees   *lru.Cache[object.TreeID, *object.Tree]
	blobs   *lru.Cache[object.BlobID, []byte]
	codec   *blobCodec
	logger  *logging.Logger
}

// Open opens or creates the database in opts.Dir.
func Open(opts Options) (*Store, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	badgerOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	badgerOpts.Logger = nil

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, errors.IO(err, "opening object database at %s", opts.Dir)
	}

	commits, err := lru.New[object.CommitID, *object.Commit](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating commit cache: %w", err)
	}
	trees, err := lru.New[object.TreeID, *object.Tree](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating tree cache: %w", err)
	}
	blobs, err := lru.New[object.BlobID, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating blob cache: %w", err)
	}

	codec, err := newBlobCodec(opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("creating blob codec: %w", err)
	}

	return &Store{
		db:      db,
		commits: commits,
		trees:   trees,
		blobs:   blobs,
		codec:   codec,
		logger:  opts.Logger,
	}, nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.IO(err, "closing object database")
	}
	return nil
}

func makeKey(prefix, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", prefix, id))
}

func (s *Store) getRaw(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// rewriteGet maps badger read errors onto the domain taxonomy.
func rewriteGet(err error, what, id string) error {
	if err == badger.ErrKeyNotFound {
		return errors.NotFound("%s %s not found", what, shortForErr(id))
	}
	return errors.IO(err, "reading %s %s", what, shortForErr(id))
}

func shortForErr(id string) string {
	if len(id) > object.ShortIDLen {
		return id[:object.ShortIDLen]
	}
	return id
}

// GetCommit resolves a commit id. The root commit is synthesized, never
// read from disk.
func (s *Store) GetCommit(ctx context.Context, id object.CommitID) (*object.Commit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id.IsRoot() {
		return object.RootCommit(), nil
	}
	if c, ok := s.commits.Get(id); ok {
		return c, nil
	}

	data, err := s.getRaw(makeKey(prefixCommit, string(id)))
	if err != nil {
		return nil, rewriteGet(err, "commit", string(id))
	}

	c := &object.Commit{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, errors.Serialization(err, "decoding commit %s", id.Short(object.ShortIDLen))
	}
	c.ID = id
	s.commits.Add(id, c)
	return c, nil
}

// GetTree resolves a tree id. The empty tree is synthesized.
func (s *Store) GetTree(ctx context.Context, id object.TreeID) (*object.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id.IsEmpty() {
		return object.EmptyTree(), nil
	}
	if t, ok := s.trees.Get(id); ok {
		return t, nil
	}

	data, err := s.getRaw(makeKey(prefixTree, string(id)))
	if err != nil {
		return nil, rewriteGet(err, "tree", string(id))
	}

	t := object.NewTree()
	if err := json.Unmarshal(data, t); err != nil {
		return nil, errors.Serialization(err, "decoding tree %s", shortForErr(string(id)))
	}
	s.trees.Add(id, t)
	return t, nil
}

// GetBlob returns the raw (decompressed) content of a file blob.
func (s *Store) GetBlob(ctx context.Context, id object.BlobID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b, ok := s.blobs.Get(id); ok {
		return b, nil
	}

	stored, err := s.getRaw(makeKey(prefixBlob, string(id)))
	if err != nil {
		return nil, rewriteGet(err, "blob", string(id))
	}

	content, err := s.codec.decode(stored)
	if err != nil {
		return nil, errors.Serialization(err, "decoding blob %s", shortForErr(string(id)))
	}
	s.blobs.Add(id, content)
	return content, nil
}

func (s *Store) GetView(ctx context.Context, id object.ViewID) (*object.View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.getRaw(makeKey(prefixView, string(id)))
	if err != nil {
		return nil, rewriteGet(err, "view", string(id))
	}

	v := object.NewView()
	if err := json.Unmarshal(data, v); err != nil {
		return nil, errors.Serialization(err, "decoding view %s", shortForErr(string(id)))
	}
	return v, nil
}

func (s *Store) GetOperation(ctx context.Context, id object.OperationID) (*object.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.getRaw(makeKey(prefixOp, string(id)))
	if err != nil {
		return nil, rewriteGet(err, "operation", string(id))
	}

	op := &object.Operation{}
	if err := json.Unmarshal(data, op); err != nil {
		return nil, errors.Serialization(err, "decoding operation %s", shortForErr(string(id)))
	}
	op.ID = id
	return op, nil
}

// HeadOperation returns the id of the current operation-log head.
func (s *Store) HeadOperation(ctx context.Context) (object.OperationID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := s.getRaw([]byte(keyOpHead))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return "", errors.NotFound("repository has no head operation")
		}
		return "", errors.IO(err, "reading operation head")
	}
	return object.OperationID(data), nil
}
