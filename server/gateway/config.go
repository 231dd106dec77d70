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

package gateway

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrInvalidGatewayPort occurs when the port in the config is invalid.
	ErrInvalidGatewayPort = errors.New("invalid port number for gateway")
	// ErrInvalidPingInterval occurs when the ping interval is invalid.
	ErrInvalidPingInterval = errors.New("invalid ping interval for gateway")
	// ErrInvalidWriteTimeout occurs when the write timeout is invalid.
	ErrInvalidWriteTimeout = errors.New("invalid write timeout for gateway")
	// ErrInvalidMessageRate occurs when the message rate or burst is negative.
	ErrInvalidMessageRate = errors.New("invalid message rate for gateway")
)

// Config is the configuration for creating a Gateway instance.
type Config struct {
	// Port is the port number for the WebSocket gateway.
	Port int `yaml:"Port"`

	// PingInterval is how often the gateway pings idle connections. A
	// connection that does not answer within two intervals is closed.
	PingInterval string `yaml:"PingInterval"`

	// WriteTimeout bounds the write of one frame.
	WriteTimeout string `yaml:"WriteTimeout"`

	// AllowedOrigins lists the origins allowed to open connections. Empty
	// means any origin.
	AllowedOrigins []string `yaml:"AllowedOrigins"`

	// MaxMessagesPerSecond limits the frames read from one connection. A
	// connection over the limit is read more slowly. Zero means no limit.
	MaxMessagesPerSecond float64 `yaml:"MaxMessagesPerSecond"`

	// MessageBurst is the number of frames a connection may send at once
	// before the limit applies. Zero means the per-second limit.
	MessageBurst int `yaml:"MessageBurst"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.Port < 1 || 65535 < c.Port {
		return fmt.Errorf("must be between 1 and 65535, given %d: %w", c.Port, ErrInvalidGatewayPort)
	}

	if d, err := time.ParseDuration(c.PingInterval); err != nil || d <= 0 {
		return fmt.Errorf("%s: %w", c.PingInterval, ErrInvalidPingInterval)
	}

	if d, err := time.ParseDuration(c.WriteTimeout); err != nil || d <= 0 {
		return fmt.Errorf("%s: %w", c.WriteTimeout, ErrInvalidWriteTimeout)
	}

	if c.MaxMessagesPerSecond < 0 || c.MessageBurst < 0 {
		return fmt.Errorf(
			"rate %g, burst %d: %w",
			c.MaxMessagesPerSecond,
			c.MessageBurst,
			ErrInvalidMessageRate,
		)
	}

	return nil
}

// NewLimiter returns the limiter of the frames read from one connection.
func (c *Config) NewLimiter() *rate.Limiter {
	if c.MaxMessagesPerSecond == 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}

	burst := c.MessageBurst
	if burst == 0 {
		burst = max(1, int(c.MaxMessagesPerSecond))
	}
	return rate.NewLimiter(rate.Limit(c.MaxMessagesPerSecond), burst)
}

// ParsePingInterval returns the ping interval.
func (c *Config) ParsePingInterval() time.Duration {
	result, err := time.ParseDuration(c.PingInterval)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse ping interval: %v\n", err)
		os.Exit(1)
	}

	return result
}

// ParseWriteTimeout returns the write timeout.
func (c *Config) ParseWriteTimeout() time.Duration {
	result, err := time.ParseDuration(c.WriteTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse write timeout: %v\n", err)
		os.Exit(1)
	}

	return result
}
