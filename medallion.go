/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package medallion

import (
	"context"
	"fmt"
	"sync"

	"github.com/clansou/medallion/config"
	"github.com/clansou/medallion/docstore"
)

// SinkOpener builds a publish sink from the platform configuration. The
// returned close function releases the backend connection; it is never nil.
type SinkOpener func(ctx context.Context, cfg config.Config) (docstore.Sink, func(), error)

// SinkRegistry is a thread-safe registry of named sink openers. The runner
// and tools resolve alternate publish backends (mongo, dynamodb, memory) by
// configuration key.
type SinkRegistry struct {
	mu      sync.RWMutex
	openers map[string]SinkOpener
}

// NewSinkRegistry creates an empty registry.
func NewSinkRegistry() *SinkRegistry {
	return &SinkRegistry{
		openers: make(map[string]SinkOpener),
	}
}

// Register stores a sink opener under the given key.
func (r *SinkRegistry) Register(key string, open SinkOpener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.openers[key]; exists {
		return fmt.Errorf("sink with key %q already registered", key)
	}
	r.openers[key] = open
	return nil
}

// Open resolves the opener registered under the given key and builds its sink.
func (r *SinkRegistry) Open(ctx context.Context, key string, cfg config.Config) (docstore.Sink, func(), error) {
	r.mu.RLock()
	open, exists := r.openers[key]
	r.mu.RUnlock()

	if !exists {
		return nil, nil, fmt.Errorf("sink with key %q not found", key)
	}
	sink, cleanup, err := open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cleanup == nil {
		cleanup = func() {}
	}
	return sink, cleanup, nil
}

// Keys lists the registered sink keys.
func (r *SinkRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.openers))
	for k := range r.openers {
		keys = append(keys, k)
	}
	return keys
}
