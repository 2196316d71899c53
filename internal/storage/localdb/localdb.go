package localdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/MrJamesThe3rd/invoicer/internal/storage"
)

const (
	// StoreVersion is the on-disk layout version. It only changes when the
	// key scheme changes; payload schemas are versioned per record.
	StoreVersion    uint32 = 1
	StoreVersionKey        = "storeversion"
)

var (
	_ storage.Backend = (*Store)(nil)

	ErrShutdown          = errors.New("store is shut down")
	ErrIncompatibleStore = errors.New("incompatible store version")
)

// Version is the record kept under StoreVersionKey.
type Version struct {
	Version uint32 `json:"version"`
	Time    int64  `json:"time"`
}

// Store is a storage.Backend on a LevelDB directory.
type Store struct {
	sync.RWMutex
	shutdown bool
	db       *leveldb.DB
}

// Open opens (or creates) the database at path and checks its layout version.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}

	if err := checkVersion(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func checkVersion(db *leveldb.DB) error {
	b, err := db.Get([]byte(StoreVersionKey), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		payload, err := json.Marshal(Version{Version: StoreVersion, Time: time.Now().Unix()})
		if err != nil {
			return err
		}

		return db.Put([]byte(StoreVersionKey), payload, nil)
	}

	if err != nil {
		return fmt.Errorf("read store version: %w", err)
	}

	var v Version
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("decode store version: %w", err)
	}

	if v.Version != StoreVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrIncompatibleStore, v.Version, StoreVersion)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.RLock()
	defer s.RUnlock()

	if s.shutdown {
		return nil, ErrShutdown
	}

	b, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	return b, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if key == StoreVersionKey {
		return fmt.Errorf("put %s: reserved key", key)
	}

	s.Lock()
	defer s.Unlock()

	if s.shutdown {
		return ErrShutdown
	}

	if err := s.db.Put([]byte(key), value, nil); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if s.shutdown {
		return ErrShutdown
	}

	ok, err := s.db.Has([]byte(key), nil)
	if err != nil {
		return fmt.Errorf("has %s: %w", key, err)
	}

	if !ok {
		return storage.ErrNotFound
	}

	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

// Close shuts the store down. Further calls return ErrShutdown.
func (s *Store) Close() error {
	s.Lock()
	defer s.Unlock()

	if s.shutdown {
		return nil
	}

	s.shutdown = true

	return s.db.Close()
}
