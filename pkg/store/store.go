// Package store persists computed routes in a pebble database. Values are
// JSON compressed with zstd.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DataDog/zstd"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"avalanche-planner/pkg/planner"
)

// ErrNotFound is returned for an unknown route id.
var ErrNotFound = errors.New("store: route not found")

const (
	routePrefix = "route/"
	queryPrefix = "query/"
)

// Store is a route store backed by pebble.
type Store struct {
	db *pebble.DB
}

var _ planner.RouteStore = (*Store)(nil)

// Open opens or creates the database at path. An in-memory database is used
// when inMemory is set.
func Open(path string, inMemory bool) (*Store, error) {
	opts := &pebble.Options{}
	if inMemory {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Put stores r under its id and indexes it by the request key.
func (s *Store) Put(r *planner.Route, key string) error {
	bb, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store: encode route %s: %w", r.ID, err)
	}
	val, err := compress(bb)
	if err != nil {
		return err
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set([]byte(routePrefix+r.ID), val, nil); err != nil {
		return err
	}
	if key != "" {
		if err := b.Set([]byte(queryPrefix+key), []byte(r.ID), nil); err != nil {
			return err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("store: commit route %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the route with the given id.
func (s *Store) Get(id string) (*planner.Route, error) {
	val, closer, err := s.db.Get([]byte(routePrefix + id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	bb, err := decompress(val)
	if err != nil {
		return nil, fmt.Errorf("store: route %s: %w", id, err)
	}
	var r planner.Route
	if err := json.Unmarshal(bb, &r); err != nil {
		return nil, fmt.Errorf("store: decode route %s: %w", id, err)
	}
	return &r, nil
}

// Lookup returns the route stored for a request key.
func (s *Store) Lookup(key string) (*planner.Route, bool, error) {
	val, closer, err := s.db.Get([]byte(queryPrefix + key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	id := string(val)
	closer.Close()

	r, err := s.Get(id)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func compress(bb []byte) ([]byte, error) {
	out, err := zstd.Compress(nil, bb)
	if err != nil {
		return nil, fmt.Errorf("store: compress: %w", err)
	}
	return out, nil
}

func decompress(bb []byte) ([]byte, error) {
	out, err := zstd.Decompress(nil, bb)
	if err != nil {
		return nil, fmt.Errorf("store: decompress: %w", err)
	}
	return out, nil
}
