// Package memory is an in-process document substrate used in development mode
// and by unit tests. It enforces the same unique indexes as Postgres.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/nexumi/nexumi-core/internal/concurrency"
	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/index"
	"github.com/nexumi/nexumi-core/internal/repository"
)

type collection struct {
	docs map[string]repository.Record
	// index name -> key -> document id
	unique map[string]map[string]string
}

// Store implements repository.Documents in memory
type Store struct {
	locks *concurrency.LockManager
	colls map[domain.Collection]*collection
	now   func() time.Time
}

var _ repository.Documents = (*Store)(nil)

// NewStore creates an empty store with every known collection
func NewStore() *Store {
	s := &Store{
		locks: concurrency.NewLockManager(),
		colls: make(map[domain.Collection]*collection, len(domain.Collections)),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, c := range domain.Collections {
		coll := &collection{
			docs:   make(map[string]repository.Record),
			unique: make(map[string]map[string]string),
		}
		for _, spec := range index.UniqueIndexes(c) {
			coll.unique[spec.Name] = make(map[string]string)
		}
		s.colls[c] = coll
	}
	return s
}

func (s *Store) lock(c domain.Collection) (*collection, func(), error) {
	coll, ok := s.colls[c]
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown collection %q", domain.ErrInvalidInput, c)
	}
	return coll, s.locks.Lock(string(c)), nil
}

// Insert stores a new document at version 1
func (s *Store) Insert(ctx context.Context, c domain.Collection, id string, body []byte) (repository.Record, error) {
	if err := ctx.Err(); err != nil {
		return repository.Record{}, err
	}
	keys, err := index.UniqueKeys(c, body)
	if err != nil {
		return repository.Record{}, err
	}

	coll, unlock, err := s.lock(c)
	if err != nil {
		return repository.Record{}, err
	}
	defer unlock()

	if _, exists := coll.docs[id]; exists {
		return repository.Record{}, fmt.Errorf("%w: %s id %s", domain.ErrDuplicateKey, c, id)
	}
	if err := coll.checkUnique(c, id, keys); err != nil {
		return repository.Record{}, err
	}

	now := s.now()
	rec := repository.Record{ID: id, Version: 1, Body: clone(body), CreatedAt: now, UpdatedAt: now}
	coll.docs[id] = rec
	coll.addKeys(id, keys)
	return copyRecord(rec), nil
}

// Get returns the current version of a document
func (s *Store) Get(ctx context.Context, c domain.Collection, id string) (repository.Record, error) {
	if err := ctx.Err(); err != nil {
		return repository.Record{}, err
	}
	coll, unlock, err := s.lock(c)
	if err != nil {
		return repository.Record{}, err
	}
	defer unlock()

	rec, ok := coll.docs[id]
	if !ok {
		return repository.Record{}, fmt.Errorf("%w: %s %s", domain.ErrNotFound, c, id)
	}
	return copyRecord(rec), nil
}

// Replace writes body if the stored version still equals version
func (s *Store) Replace(ctx context.Context, c domain.Collection, id string, version int64, body []byte) (repository.Record, error) {
	if err := ctx.Err(); err != nil {
		return repository.Record{}, err
	}
	keys, err := index.UniqueKeys(c, body)
	if err != nil {
		return repository.Record{}, err
	}

	coll, unlock, err := s.lock(c)
	if err != nil {
		return repository.Record{}, err
	}
	defer unlock()

	cur, ok := coll.docs[id]
	if !ok {
		return repository.Record{}, fmt.Errorf("%w: %s %s", domain.ErrNotFound, c, id)
	}
	if cur.Version != version {
		return repository.Record{}, fmt.Errorf("%w: %s %s at version %d, expected %d", domain.ErrConflict, c, id, cur.Version, version)
	}
	if err := coll.checkUnique(c, id, keys); err != nil {
		return repository.Record{}, err
	}

	oldKeys, err := index.UniqueKeys(c, cur.Body)
	if err != nil {
		return repository.Record{}, err
	}
	coll.removeKeys(id, oldKeys)
	coll.addKeys(id, keys)

	rec := repository.Record{ID: id, Version: cur.Version + 1, Body: clone(body), CreatedAt: cur.CreatedAt, UpdatedAt: s.now()}
	coll.docs[id] = rec
	return copyRecord(rec), nil
}

// Delete removes a document if the stored version still equals version
func (s *Store) Delete(ctx context.Context, c domain.Collection, id string, version int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	coll, unlock, err := s.lock(c)
	if err != nil {
		return err
	}
	defer unlock()

	cur, ok := coll.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, c, id)
	}
	if cur.Version != version {
		return fmt.Errorf("%w: %s %s at version %d, expected %d", domain.ErrConflict, c, id, cur.Version, version)
	}

	if keys, err := index.UniqueKeys(c, cur.Body); err == nil {
		coll.removeKeys(id, keys)
	}
	delete(coll.docs, id)
	return nil
}

// Find returns matching documents ordered by q.Sort, then by id
func (s *Store) Find(ctx context.Context, c domain.Collection, q repository.Query) ([]repository.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	coll, unlock, err := s.lock(c)
	if err != nil {
		return nil, err
	}
	matched, err := coll.match(q.Filters)
	unlock()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matched, func(i, j int) bool {
		for _, o := range q.Sort {
			cmp := compareSort(matched[i].doc, matched[j].doc, o)
			if cmp != 0 {
				return cmp < 0
			}
		}
		return matched[i].rec.ID < matched[j].rec.ID
	})

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []repository.Record{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]repository.Record, len(matched))
	for i, m := range matched {
		out[i] = m.rec
	}
	return out, nil
}

// Count returns the number of documents matching every filter
func (s *Store) Count(ctx context.Context, c domain.Collection, filters ...repository.Filter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	coll, unlock, err := s.lock(c)
	if err != nil {
		return 0, err
	}
	defer unlock()

	matched, err := coll.match(filters)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type decoded struct {
	rec repository.Record
	doc map[string]any
}

// match must be called with the collection lock held
func (coll *collection) match(filters []repository.Filter) ([]decoded, error) {
	var out []decoded
	for _, rec := range coll.docs {
		var doc map[string]any
		if err := json.Unmarshal(rec.Body, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", rec.ID, err)
		}
		ok := true
		for _, f := range filters {
			hit, err := matchFilter(doc, f)
			if err != nil {
				return nil, err
			}
			if !hit {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, decoded{rec: copyRecord(rec), doc: doc})
		}
	}
	return out, nil
}

func (coll *collection) checkUnique(c domain.Collection, id string, keys map[string]string) error {
	for name, key := range keys {
		if owner, taken := coll.unique[name][key]; taken && owner != id {
			return fmt.Errorf("%w: %s violates %s", domain.ErrDuplicateKey, c, name)
		}
	}
	return nil
}

func (coll *collection) addKeys(id string, keys map[string]string) {
	for name, key := range keys {
		coll.unique[name][key] = id
	}
}

func (coll *collection) removeKeys(id string, keys map[string]string) {
	for name, key := range keys {
		if coll.unique[name][key] == id {
			delete(coll.unique[name], key)
		}
	}
}

func clone(b []byte) []byte {
	return bytes.Clone(b)
}

func copyRecord(r repository.Record) repository.Record {
	r.Body = clone(r.Body)
	return r
}
