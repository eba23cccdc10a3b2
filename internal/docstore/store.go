// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

// Package docstore is a small document store on top of BadgerDB. Documents
// are schemaless field maps grouped into collections and can be queried with
// field filters, a single ordering field and offset/limit paging.
//
// The curated event source reads from it; operators load it from a YAML seed
// file.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"

	"github.com/tomtom215/encore/internal/logging"
)

// keyPrefix namespaces every document key: doc/<collection>/<id>.
const keyPrefix = "doc/"

var (
	// ErrNotFound is returned by Get and Delete for a missing document.
	ErrNotFound = errors.New("document not found")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("document store closed")

	// ErrInvalidKey is returned for empty or slash-containing names.
	ErrInvalidKey = errors.New("invalid collection or document id")
)

// Document is one stored record.
type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Options configures Open.
type Options struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
}

// Store is a BadgerDB-backed document store. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) a store.
func Open(opts Options) (*Store, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, errors.New("docstore: path is required unless in-memory")
	}

	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Compression = options.Snappy
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", opts.Path).
		Bool("in_memory", opts.InMemory).
		Msg("Document store opened")
	return &Store{db: db}, nil
}

// Close releases the underlying database. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkNotClosed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Ping reports whether the store is open.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.checkNotClosed()
}

func collectionPrefix(collection string) []byte {
	return []byte(keyPrefix + collection + "/")
}

func documentKey(collection, id string) ([]byte, error) {
	if collection == "" || id == "" || strings.Contains(collection, "/") || strings.Contains(id, "/") {
		return nil, ErrInvalidKey
	}
	return []byte(keyPrefix + collection + "/" + id), nil
}

// Put inserts or replaces a document.
func (s *Store) Put(ctx context.Context, collection string, doc Document) error {
	if err := s.checkNotClosed(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := documentKey(collection, doc.ID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Get fetches one document.
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	var doc Document
	if err := s.checkNotClosed(); err != nil {
		return doc, err
	}
	if err := ctx.Err(); err != nil {
		return doc, err
	}
	key, err := documentKey(collection, id)
	if err != nil {
		return doc, err
	}
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	return doc, err
}

// Delete removes one document.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.checkNotClosed(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := documentKey(collection, id)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// All returns every document of a collection in key order.
func (s *Store) All(ctx context.Context, collection string) ([]Document, error) {
	if err := s.checkNotClosed(); err != nil {
		return nil, err
	}

	var docs []Document
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := collectionPrefix(collection)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := it.Item()
			var doc Document
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("Skipping undecodable document")
				continue
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate collection %s: %w", collection, err)
	}
	return docs, nil
}

// Query returns the documents of a collection matching q.
func (s *Store) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	docs, err := s.All(ctx, collection)
	if err != nil {
		return nil, err
	}
	return q.apply(docs), nil
}

// Count returns the number of documents in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := s.checkNotClosed(); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := collectionPrefix(collection)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// RunGC runs value log garbage collection until badger reports nothing left
// to rewrite. It returns true when at least one file was rewritten. In-memory
// stores have no value log and return false.
func (s *Store) RunGC(discardRatio float64) (bool, error) {
	if err := s.checkNotClosed(); err != nil {
		return false, err
	}
	if s.db.Opts().InMemory {
		return false, nil
	}

	rewritten := false
	for {
		err := s.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			return rewritten, fmt.Errorf("run GC: %w", err)
		}
		rewritten = true
	}
	return rewritten, nil
}
