/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

// Package memory provides an in-memory objectstore.Store for tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	mederrors "github.com/clansou/medallion/errors"
)

// Store is an in-memory objectstore.Store.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte

	putError error
	getError error
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		buckets: make(map[string]map[string][]byte),
	}
}

// WithPutError makes Put operations fail, for error-path tests.
func (s *Store) WithPutError(err error) *Store {
	s.putError = err
	return s
}

// WithGetError makes Get operations fail, for error-path tests.
func (s *Store) WithGetError(err error) *Store {
	s.getError = err
	return s
}

// EnsureBucket creates the bucket when missing.
func (s *Store) EnsureBucket(ctx context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string][]byte)
	}
	return nil
}

// Put stores an object, creating the bucket implicitly.
func (s *Store) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	if s.putError != nil {
		return s.putError
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string][]byte)
	}
	s.buckets[bucket][key] = data
	return nil
}

// Get reads a whole object.
func (s *Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if s.getError != nil {
		return nil, s.getError
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, ok := s.buckets[bucket]
	if !ok {
		return nil, mederrors.NewNotFoundError("bucket", bucket)
	}
	data, ok := objects[key]
	if !ok {
		return nil, mederrors.NewNotFoundError("object", bucket+"/"+key)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// List returns keys under a prefix in ascending order.
func (s *Store) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, ok := s.buckets[bucket]
	if !ok {
		return nil, nil
	}
	var keys []string
	for k := range objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes an object; absent objects are ignored.
func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if objects, ok := s.buckets[bucket]; ok {
		delete(objects, key)
	}
	return nil
}

// HasBucket reports whether a bucket exists. Test helper.
func (s *Store) HasBucket(bucket string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.buckets[bucket]
	return ok
}
