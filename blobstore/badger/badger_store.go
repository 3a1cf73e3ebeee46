package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/yugurt2005/poker-abstraction/blobstore"
)

// Options configures the BadgerDB store.
type Options struct {
	// Dir is the directory for BadgerDB data files.
	// Required unless InMemory is set.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool

	// Logger receives badger warnings and errors. Nil discards them.
	Logger *slog.Logger
}

// Store implements blobstore.Store on top of a BadgerDB instance.
type Store struct {
	db *badgerdb.DB
}

var _ blobstore.Store = (*Store)(nil)

// Open opens (or creates) a BadgerDB-backed store.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger: Options.Dir is required for on-disk mode")
	}

	dbOpts := badgerdb.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(logAdapter{logger: opts.Logger})

	db, err := badgerdb.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %s: %w", opts.Dir, err)
	}
	return &Store{db: db}, nil
}

// Open reads the blob into memory and returns a handle to the copy.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var val []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(name))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, blobstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return blobstore.NewBytesBlob(val), nil
}

// Put writes a blob in a single transaction.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(name), data)
	})
}

// Delete removes a blob.
func (s *Store) Delete(_ context.Context, name string) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(name))
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil
	}
	return err
}

// List returns all blob names with the given prefix in key order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	p := []byte(prefix)
	var names []string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		iterOpts := badgerdb.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		iterOpts.Prefix = p
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			names = append(names, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// logAdapter routes badger output to slog, dropping info and debug lines.
type logAdapter struct {
	logger *slog.Logger
}

func (l logAdapter) Errorf(f string, v ...any) {
	if l.logger != nil {
		l.logger.Error(fmt.Sprintf(f, v...), "component", "badger")
	}
}

func (l logAdapter) Warningf(f string, v ...any) {
	if l.logger != nil {
		l.logger.Warn(fmt.Sprintf(f, v...), "component", "badger")
	}
}

func (logAdapter) Infof(string, ...any)  {}
func (logAdapter) Debugf(string, ...any) {}
