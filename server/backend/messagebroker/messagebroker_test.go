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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/ot"
	"github.com/scribe-team/scribe/server/backend/messagebroker"
)

func TestMessage(t *testing.T) {
	t.Run("operation message test", func(t *testing.T) {
		appliedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		msg := messagebroker.NewOperationMessage(document.CommittedOperation{
			DocumentID:     "doc-1",
			Version:        7,
			OriginClientID: "client-1",
			ClientSeq:      3,
			Operation:      ot.NewDelete(2, 4),
			AppliedAt:      appliedAt,
		})
		assert.Equal(t, "doc-1", msg.Key())

		encoded, err := msg.Marshal()
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		assert.Equal(t, "doc-1", decoded["document_id"])
		assert.Equal(t, float64(7), decoded["version"])
		assert.Equal(t, "delete", decoded["kind"])
		assert.Equal(t, float64(4), decoded["length"])
		assert.NotContains(t, decoded, "text")
	})

	t.Run("session event message test", func(t *testing.T) {
		msg := messagebroker.SessionEventMessage{
			DocumentID: "doc-1",
			ClientID:   "client-1",
			EventType:  messagebroker.SessionAttached,
		}
		encoded, err := msg.Marshal()
		require.NoError(t, err)
		assert.Contains(t, string(encoded), `"event_type":"session-attached"`)
	})
}

func TestEnsure(t *testing.T) {
	t.Run("nil config falls back to dummy test", func(t *testing.T) {
		broker := messagebroker.Ensure(nil)
		assert.IsType(t, &messagebroker.DummyBroker{}, broker)
		assert.NoError(t, broker.Produce(context.Background(), messagebroker.SessionEventMessage{}))
		assert.NoError(t, broker.Close())
	})

	t.Run("invalid config falls back to dummy test", func(t *testing.T) {
		broker := messagebroker.Ensure(&messagebroker.Config{Type: messagebroker.TypeRedis})
		assert.IsType(t, &messagebroker.DummyBroker{}, broker)
	})

	t.Run("redis config test", func(t *testing.T) {
		broker := messagebroker.Ensure(&messagebroker.Config{
			Type:      messagebroker.TypeRedis,
			Addresses: "localhost:6379",
			Topic:     "scribe",
		})
		assert.IsType(t, &messagebroker.RedisBroker{}, broker)
		assert.Equal(t, "scribe:doc-1", broker.(*messagebroker.RedisBroker).Channel("doc-1"))
		assert.NoError(t, broker.Close())
	})
}
