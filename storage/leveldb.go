package storage

import (
	"context"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBStore implements Store on an on-disk LevelDB database. It is the
// default durable backend: a single local directory, no external service.
type LevelDBStore struct {
	db *leveldb.DB
}

// NewLevelDBStore opens (or creates) a LevelDB database at path.
func NewLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBStore{db: db}, nil
}

// Get retrieves a value from the database.
func (ls *LevelDBStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := ls.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

// Set stores a value in the database.
func (ls *LevelDBStore) Set(ctx context.Context, key string, value []byte) error {
	return ls.db.Put([]byte(key), value, nil)
}

// Delete removes a value from the database.
func (ls *LevelDBStore) Delete(ctx context.Context, key string) error {
	return ls.db.Delete([]byte(key), nil)
}

// Keys lists all keys with the given prefix.
func (ls *LevelDBStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	it := ls.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer it.Release()

	var out []string
	for it.Next() {
		out = append(out, string(it.Key()))
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the database.
func (ls *LevelDBStore) Close() error {
	return ls.db.Close()
}
