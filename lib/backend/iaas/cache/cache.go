/*
 * Copyright 2018-2023, CS Systemes d'Information, http://csgroup.eu
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/v2/cache"
	"github.com/eko/gocache/v2/store"
	"github.com/sirupsen/logrus"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

// Service is a keyed store of listing snapshots
type Service interface {
	// Get returns the value stored under 'key', if any
	Get(ctx context.Context, key string) (interface{}, bool)
	// Put stores 'value' under 'key' if 'cacheable' is true; otherwise the key is invalidated
	Put(ctx context.Context, key string, value interface{}, cacheable bool) fail.Error
	// Invalidate removes the value stored under 'key'
	Invalidate(ctx context.Context, key string) fail.Error
	// Clear removes everything
	Clear(ctx context.Context) fail.Error
}

// wrappedCache is a Service backed by gocache on top of ristretto
type wrappedCache struct {
	cacheManager *cache.Cache
	ristretto    *ristretto.Cache
	expiration   time.Duration
	mu           sync.RWMutex
}

// NewRistretto creates a Service keeping at most 'maxEntries' values for 'expiration'
func NewRistretto(expiration time.Duration, maxEntries int64) (Service, fail.Error) {
	if expiration <= 0 {
		return nil, fail.InvalidParameterError("expiration", "must be positive")
	}
	if maxEntries <= 0 {
		return nil, fail.InvalidParameterError("maxEntries", "must be positive")
	}

	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		// every entry costs 1, so MaxCost is a number of entries
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fail.Wrap(err, "failed to create cache")
	}

	return &wrappedCache{
		cacheManager: cache.New(store.NewRistretto(ristrettoCache, &store.Options{Expiration: expiration})),
		ristretto:    ristrettoCache,
		expiration:   expiration,
	}, nil
}

func (w *wrappedCache) Get(ctx context.Context, key string) (interface{}, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	val, err := w.cacheManager.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	return val, true
}

func (w *wrappedCache) Put(ctx context.Context, key string, value interface{}, cacheable bool) fail.Error {
	if !cacheable {
		logrus.WithContext(ctx).Tracef("value of '%s' not cacheable", key)
		return w.Invalidate(ctx, key)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.cacheManager.Set(ctx, key, value, &store.Options{Cost: 1, Expiration: w.expiration})
	if err != nil {
		return fail.Wrap(err, "failed to store '%s' in cache", key)
	}
	// ristretto applies writes asynchronously
	w.ristretto.Wait()
	return nil
}

func (w *wrappedCache) Invalidate(ctx context.Context, key string) fail.Error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.cacheManager.Delete(ctx, key); err != nil {
		return fail.Wrap(err, "failed to invalidate '%s'", key)
	}
	return nil
}

func (w *wrappedCache) Clear(ctx context.Context) fail.Error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.cacheManager.Clear(ctx); err != nil {
		return fail.Wrap(err, "failed to clear cache")
	}
	return nil
}

type noop struct{}

// NewNoop creates a Service that never keeps anything
func NewNoop() Service {
	return noop{}
}

func (noop) Get(context.Context, string) (interface{}, bool) {
	return nil, false
}

func (noop) Put(context.Context, string, interface{}, bool) fail.Error {
	return nil
}

func (noop) Invalidate(context.Context, string) fail.Error {
	return nil
}

func (noop) Clear(context.Context) fail.Error {
	return nil
}
