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

// Package housekeeping provides the housekeeping service. The housekeeping
// service periodically runs the registered tasks, such as detaching clients
// that have not been seen for a long time.
package housekeeping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scribe-team/scribe/server/backend/background"
	"github.com/scribe-team/scribe/server/logging"
)

// Task is a housekeeping task. limit bounds the number of candidates the
// task handles in one run. It returns the number of candidates handled.
type Task func(ctx context.Context, limit int) (int, error)

// Housekeeping is the housekeeping service. It runs every registered task
// once per interval.
type Housekeeping struct {
	interval        time.Duration
	candidatesLimit int
	background      *background.Background

	mu      sync.Mutex
	tasks   map[string]Task
	started bool
}

// New creates a new housekeeping instance.
func New(conf *Config, bg *background.Background) (*Housekeeping, error) {
	interval, err := conf.ParseInterval()
	if err != nil {
		return nil, err
	}

	return &Housekeeping{
		interval:        interval,
		candidatesLimit: conf.CandidatesLimit,
		background:      bg,
		tasks:           make(map[string]Task),
	}, nil
}

// RegisterTask registers a task under the given name. Tasks must be
// registered before Start.
func (h *Housekeeping) RegisterTask(name string, task Task) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return fmt.Errorf("register %s: housekeeping already started", name)
	}
	if _, ok := h.tasks[name]; ok {
		return fmt.Errorf("register %s: task already registered", name)
	}

	h.tasks[name] = task
	return nil
}

// Start starts a loop per registered task. The loops end when the
// background service closes.
func (h *Housekeeping) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return nil
	}
	h.started = true

	for name, task := range h.tasks {
		h.background.AttachGoroutine(func(ctx context.Context) {
			h.run(ctx, name, task)
		}, "housekeeping-"+name)
	}

	return nil
}

// RunOnce runs every registered task once.
func (h *Housekeeping) RunOnce(ctx context.Context) error {
	h.mu.Lock()
	tasks := make(map[string]Task, len(h.tasks))
	for name, task := range h.tasks {
		tasks[name] = task
	}
	h.mu.Unlock()

	for name, task := range tasks {
		if _, err := h.runTask(ctx, name, task); err != nil {
			return err
		}
	}
	return nil
}

func (h *Housekeeping) run(ctx context.Context, name string, task Task) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}

		if _, err := h.runTask(ctx, name, task); err != nil {
			logging.From(ctx).Error(err)
		}
	}
}

func (h *Housekeeping) runTask(ctx context.Context, name string, task Task) (int, error) {
	start := time.Now()
	handled, err := task(ctx, h.candidatesLimit)
	if err != nil {
		return handled, fmt.Errorf("housekeeping %s: %w", name, err)
	}

	if handled > 0 {
		logging.From(ctx).Infof(
			"HSKP: %s handled %d, %s",
			name,
			handled,
			time.Since(start),
		)
	}
	return handled, nil
}
