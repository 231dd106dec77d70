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
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBroker publishes messages on Redis channels, one channel per
// document named "<prefix>:<documentID>".
type RedisBroker struct {
	client *redis.Client
	prefix string
}

func newRedisBroker(addr, prefix string, writeTimeout time.Duration) *RedisBroker {
	return &RedisBroker{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			WriteTimeout: writeTimeout,
		}),
		prefix: prefix,
	}
}

// Channel returns the Redis channel of the given document.
func (mb *RedisBroker) Channel(documentID string) string {
	return ChannelOf(mb.prefix, documentID)
}

// ChannelOf returns the Redis channel of the given document under the
// given prefix.
func ChannelOf(prefix, documentID string) string {
	return prefix + ":" + documentID
}

// Produce publishes the message on the channel of its document.
func (mb *RedisBroker) Produce(ctx context.Context, msg Message) error {
	value, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := mb.client.Publish(ctx, mb.Channel(msg.Key()), value).Err(); err != nil {
		return fmt.Errorf("publish message to redis: %w", err)
	}

	return nil
}

// Close closes the Redis client.
func (mb *RedisBroker) Close() error {
	if err := mb.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}

	return nil
}
