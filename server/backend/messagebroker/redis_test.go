//go:build integration

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

package messagebroker_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/ot"
	"github.com/scribe-team/scribe/server/backend/messagebroker"
)

func TestRedisBroker(t *testing.T) {
	addr := os.Getenv("SCRIBE_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	subscriber := redis.NewClient(&redis.Options{Addr: addr})
	defer func() {
		assert.NoError(t, subscriber.Close())
	}()
	require.NoError(t, subscriber.Ping(ctx).Err())

	sub := subscriber.Subscribe(ctx, messagebroker.ChannelOf("scribe-test", t.Name()))
	defer func() {
		assert.NoError(t, sub.Close())
	}()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	broker := messagebroker.Ensure(&messagebroker.Config{
		Type:      messagebroker.TypeRedis,
		Addresses: addr,
		Topic:     "scribe-test",
	})
	defer func() {
		assert.NoError(t, broker.Close())
	}()

	require.NoError(t, broker.Produce(ctx, messagebroker.NewOperationMessage(document.CommittedOperation{
		DocumentID:     t.Name(),
		Version:        1,
		OriginClientID: "client-1",
		ClientSeq:      1,
		Operation:      ot.NewInsert(0, "hi"),
	})))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var decoded messagebroker.OperationMessage
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &decoded))
	assert.Equal(t, int64(1), decoded.Version)
	assert.Equal(t, "hi", decoded.Text)
}
