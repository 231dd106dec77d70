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

package postgres

import (
	"fmt"
	"time"
)

// Config is the configuration for creating a Client instance.
type Config struct {
	ConnectionURI     string `yaml:"ConnectionURI"`
	ConnectionTimeout string `yaml:"ConnectionTimeout"`

	// MaxConns is the maximum size of the connection pool. Zero keeps the
	// pgx default.
	MaxConns int32 `yaml:"MaxConns"`
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if c.ConnectionURI == "" {
		return fmt.Errorf(`"--postgres-uri" flag must be set`)
	}

	if _, err := time.ParseDuration(c.ConnectionTimeout); err != nil {
		return fmt.Errorf(
			`invalid argument "%s" for "--postgres-connection-timeout" flag: %w`,
			c.ConnectionTimeout,
			err,
		)
	}

	if c.MaxConns < 0 {
		return fmt.Errorf(`invalid argument "%d" for "--postgres-max-conns" flag`, c.MaxConns)
	}

	return nil
}

// ParseConnectionTimeout returns connection timeout duration.
func (c *Config) ParseConnectionTimeout() time.Duration {
	result, err := time.ParseDuration(c.ConnectionTimeout)
	if err != nil {
		return 0
	}

	return result
}
