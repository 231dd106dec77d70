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

// Package background manages the goroutines the backend starts outside of
// requests, such as snapshot writers and housekeeping loops, so that
// closing the backend waits for them.
package background

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/scribe-team/scribe/server/logging"
	"github.com/scribe-team/scribe/server/profiling/prometheus"
)

type routineID int32

func (c *routineID) next() string {
	next := atomic.AddInt32((*int32)(c), 1)
	return "b" + strconv.Itoa(int(next))
}

// Background is the background service. It is responsible for managing
// background routines.
type Background struct {
	// closing is closed by backend close.
	closing chan struct{}

	// wgMu blocks concurrent WaitGroup mutation while backend closing
	wgMu sync.RWMutex

	// wg is used to wait for the goroutines that depends on the backend state
	// to exit when closing the backend.
	wg sync.WaitGroup

	routineID routineID

	metrics *prometheus.Metrics
}

// New creates a new background service. metrics may be nil.
func New(metrics *prometheus.Metrics) *Background {
	return &Background{
		closing: make(chan struct{}),
		metrics: metrics,
	}
}

// AttachGoroutine creates a goroutine on a given function and tracks it using
// the background's WaitGroup. The context passed to f is canceled when the
// background service closes. It returns false if the service has already
// closed.
func (b *Background) AttachGoroutine(
	f func(ctx context.Context),
	taskType string,
) bool {
	b.wgMu.RLock() // this blocks with ongoing close(b.closing)
	defer b.wgMu.RUnlock()
	select {
	case <-b.closing:
		logging.DefaultLogger().Warnf("backend has closed; skipping AttachGoroutine(%s)", taskType)
		return false
	default:
	}

	// now safe to add since WaitGroup wait has not started yet
	b.wg.Add(1)
	routineLogger := logging.New(b.routineID.next(), logging.NewField("task", taskType))
	if b.metrics != nil {
		b.metrics.AddBackgroundGoroutines(taskType)
	}

	ctx, cancel := context.WithCancel(logging.With(context.Background(), routineLogger))
	go func() {
		select {
		case <-b.closing:
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		defer func() {
			cancel()
			b.wg.Done()
			if b.metrics != nil {
				b.metrics.RemoveBackgroundGoroutines(taskType)
			}
		}()
		f(ctx)
	}()
	return true
}

// Close closes the background service. This will wait for all goroutines to
// exit.
func (b *Background) Close() {
	b.wgMu.Lock()
	select {
	case <-b.closing:
	default:
		close(b.closing)
	}
	b.wgMu.Unlock()

	// wait for goroutines before closing backend
	b.wg.Wait()
}
