/*
 * Copyright 2026 The Scribe Authors. All rights reserved.
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

// Package sync provides the per-document locks that serialize the
// processing of operations. Different keys never block each other.
package sync

import (
	"context"

	"github.com/moby/locker"
)

// Key represents key of Locker.
type Key string

// NewKey creates a new instance of Key.
func NewKey(key string) Key {
	return Key(key)
}

// DocKey returns the lock key of the given document.
func DocKey(docID string) Key {
	return Key("doc/" + docID)
}

// String returns a string representation of this Key.
func (k Key) String() string {
	return string(k)
}

// A Locker represents an object that can be locked and unlocked.
type Locker interface {
	// Lock locks the mutex. It gives up when the context is done before
	// the lock is acquired.
	Lock(ctx context.Context) error

	// Unlock unlocks the mutex.
	Unlock() error
}

// LockerManager manages Lockers.
type LockerManager struct {
	locks *locker.Locker
}

// New creates a new instance of LockerManager.
func New() *LockerManager {
	return &LockerManager{
		locks: locker.New(),
	}
}

// Locker creates locker of the given key.
func (m *LockerManager) Locker(key Key) Locker {
	return &internalLocker{
		key:   key.String(),
		locks: m.locks,
	}
}

type internalLocker struct {
	key   string
	locks *locker.Locker
}

// Lock locks the mutex.
func (il *internalLocker) Lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	acquired := make(chan struct{})
	go func() {
		il.locks.Lock(il.key)
		close(acquired)
	}()

	select {
	case <-acquired:
		return nil
	case <-ctx.Done():
		// NOTE: the lock is released as soon as the pending acquisition
		// completes so that the key does not stay held forever.
		go func() {
			<-acquired
			_ = il.locks.Unlock(il.key)
		}()
		return ctx.Err()
	}
}

// Unlock unlocks the mutex.
func (il *internalLocker) Unlock() error {
	if err := il.locks.Unlock(il.key); err != nil {
		return err
	}

	return nil
}
