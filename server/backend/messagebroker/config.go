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

package messagebroker

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Type is the kind of the message broker.
type Type string

const (
	// TypeKafka produces messages to a Kafka topic.
	TypeKafka Type = "kafka"

	// TypeRedis publishes messages on Redis channels.
	TypeRedis Type = "redis"
)

// DefaultWriteTimeout is the default timeout for writing a message.
const DefaultWriteTimeout = "1s"

var (
	// ErrEmptyAddress is returned when the address is empty.
	ErrEmptyAddress = errors.New("address cannot be empty")

	// ErrEmptyTopic is returned when the topic is empty.
	ErrEmptyTopic = errors.New("topic cannot be empty")

	// ErrInvalidDuration is returned when the duration is invalid.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrUnknownType is returned when the broker type is not supported.
	ErrUnknownType = errors.New("unknown message broker type")
)

// Config is the configuration for creating a message broker instance.
type Config struct {
	// Type is the kind of the broker: "kafka" or "redis".
	Type Type `yaml:"Type"`

	// Addresses is a comma separated list of broker addresses. Redis uses
	// the first one.
	Addresses string `yaml:"Addresses"`

	// Topic is the Kafka topic, or the channel prefix on Redis.
	Topic string `yaml:"Topic"`

	// WriteTimeout is the timeout for writing a message.
	WriteTimeout string `yaml:"WriteTimeout"`
}

// Validate validates this config.
func (c *Config) Validate() error {
	if c.Type != TypeKafka && c.Type != TypeRedis {
		return fmt.Errorf(`"%s": %w`, c.Type, ErrUnknownType)
	}

	if c.Addresses == "" {
		return ErrEmptyAddress
	}

	for _, addr := range strings.Split(c.Addresses, ",") {
		if addr == "" {
			return fmt.Errorf(`%s: %w`, c.Addresses, ErrEmptyAddress)
		}

		if _, err := url.Parse(addr); err != nil {
			return fmt.Errorf(`parse address "%s": %w`, c.Addresses, err)
		}
	}

	if c.Topic == "" {
		return ErrEmptyTopic
	}

	if c.WriteTimeout != "" {
		if _, err := time.ParseDuration(c.WriteTimeout); err != nil {
			return fmt.Errorf(`parse write timeout "%s": %w`, c.WriteTimeout, ErrInvalidDuration)
		}
	}

	return nil
}

// SplitAddresses splits the addresses by comma.
func (c *Config) SplitAddresses() []string {
	return strings.Split(c.Addresses, ",")
}

// MustParseWriteTimeout parses the write timeout and returns the duration.
func (c *Config) MustParseWriteTimeout() time.Duration {
	timeout := c.WriteTimeout
	if timeout == "" {
		timeout = DefaultWriteTimeout
	}

	t, err := time.ParseDuration(timeout)
	if err != nil {
		panic(ErrInvalidDuration)
	}

	return t
}
