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

package backend

import (
	"fmt"
	"os"
	"time"
)

// Config is the configuration for creating a Backend instance.
type Config struct {
	// Hostname is scribe server hostname. hostname is used by metrics.
	Hostname string `yaml:"Hostname"`

	// SnapshotInterval is the number of versions between two stored
	// snapshots of a document.
	SnapshotInterval int64 `yaml:"SnapshotInterval"`

	// SnapshotCacheSize is the number of documents whose latest snapshot is
	// kept in memory.
	SnapshotCacheSize int `yaml:"SnapshotCacheSize"`

	// HistoryTailSize is the number of recent operations kept in memory per
	// loaded document. Rebasing older operations reads the database.
	HistoryTailSize int `yaml:"HistoryTailSize"`

	// MaxPushRetries bounds how many times a push is recomputed after losing
	// a version race to another writer.
	MaxPushRetries int `yaml:"MaxPushRetries"`

	// SessionDeactivateThreshold is how long a session may stay unseen
	// before housekeeping detaches it.
	SessionDeactivateThreshold string `yaml:"SessionDeactivateThreshold"`

	// SubscriptionBufferSize is the capacity of the event channel of each
	// watcher.
	SubscriptionBufferSize int `yaml:"SubscriptionBufferSize"`

	// PublishTimeout is how long publishing waits for a watcher with a full
	// buffer before closing it.
	PublishTimeout string `yaml:"PublishTimeout"`

	// MaxSubscribersPerDocument limits the watchers of a document. Zero
	// means no limit.
	MaxSubscribersPerDocument int `yaml:"MaxSubscribersPerDocument"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.SnapshotInterval <= 0 {
		return fmt.Errorf(
			`invalid argument "%d" for "--backend-snapshot-interval" flag`,
			c.SnapshotInterval,
		)
	}

	if c.MaxPushRetries <= 0 {
		return fmt.Errorf(
			`invalid argument "%d" for "--backend-max-push-retries" flag`,
			c.MaxPushRetries,
		)
	}

	if _, err := time.ParseDuration(c.SessionDeactivateThreshold); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--session-deactivate-threshold" flag: %w`,
			c.SessionDeactivateThreshold,
			err,
		)
	}

	if _, err := time.ParseDuration(c.PublishTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--publish-timeout" flag: %w`,
			c.PublishTimeout,
			err,
		)
	}

	if c.MaxSubscribersPerDocument < 0 {
		return fmt.Errorf(
			`invalid argument "%d" for "--max-subscribers-per-document" flag`,
			c.MaxSubscribersPerDocument,
		)
	}

	return nil
}

// ParseSessionDeactivateThreshold returns the session deactivate threshold.
func (c *Config) ParseSessionDeactivateThreshold() time.Duration {
	result, err := time.ParseDuration(c.SessionDeactivateThreshold)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse session deactivate threshold: %v\n", err)
		os.Exit(1)
	}

	return result
}

// ParsePublishTimeout returns the publish timeout.
func (c *Config) ParsePublishTimeout() time.Duration {
	result, err := time.ParseDuration(c.PublishTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse publish timeout: %v\n", err)
		os.Exit(1)
	}

	return result
}
