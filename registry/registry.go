// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry tracks live pools by ID so the settlement layer can route
// calls to the right pool instance. Iteration order is deterministic: pools
// are kept sorted by ID.
package registry

import (
	"bytes"
	"errors"
	"sort"
	"sync"

	"github.com/luxfi/weightedpool/pool"
)

var (
	ErrPoolIDExists = errors.New("pool ID already registered")
	ErrPoolNotFound = errors.New("pool not found")
)

var (
	mu sync.RWMutex

	// registeredPools is kept sorted by ID to preserve deterministic
	// iteration order.
	registeredPools = make([]*pool.Pool, 0)
	poolsByID       = make(map[pool.ID]*pool.Pool)
)

// Register adds a pool to the registry. Duplicate IDs are rejected.
func Register(p *pool.Pool) error {
	mu.Lock()
	defer mu.Unlock()

	id := p.ID()
	if _, ok := poolsByID[id]; ok {
		return ErrPoolIDExists
	}
	poolsByID[id] = p
	registeredPools = insertSortedByID(registeredPools, p)
	return nil
}

// Lookup returns the pool registered under the given ID.
func Lookup(id pool.ID) (*pool.Pool, error) {
	mu.RLock()
	defer mu.RUnlock()

	p, ok := poolsByID[id]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return p, nil
}

// RegisteredPools returns all pools in ID order.
func RegisteredPools() []*pool.Pool {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]*pool.Pool, len(registeredPools))
	copy(out, registeredPools)
	return out
}

// Reset clears the registry. Test helper.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	registeredPools = make([]*pool.Pool, 0)
	poolsByID = make(map[pool.ID]*pool.Pool)
}

func insertSortedByID(data []*pool.Pool, p *pool.Pool) []*pool.Pool {
	data = append(data, p)
	sort.Slice(data, func(i, j int) bool {
		a, b := data[i].ID(), data[j].ID()
		return bytes.Compare(a[:], b[:]) < 0
	})
	return data
}
