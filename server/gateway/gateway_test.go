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

package gateway_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribe-team/scribe/api/types/events"
	"github.com/scribe-team/scribe/pkg/ot"
	"github.com/scribe-team/scribe/server/backend"
	"github.com/scribe-team/scribe/server/backend/housekeeping"
	"github.com/scribe-team/scribe/server/coordinator"
	"github.com/scribe-team/scribe/server/gateway"
	"github.com/scribe-team/scribe/server/profiling/prometheus"
)

func newTestServer(t *testing.T) *httptest.Server {
	server, _ := newTestServerWithMetrics(t)
	return server
}

func newTestServerWithMetrics(t *testing.T) (*httptest.Server, *prometheus.Metrics) {
	met, err := prometheus.NewMetrics()
	require.NoError(t, err)

	be, err := backend.New(&backend.Config{
		SnapshotInterval:           10,
		MaxPushRetries:             3,
		SessionDeactivateThreshold: "1h",
		PublishTimeout:             "100ms",
	}, nil, nil, &housekeeping.Config{
		Interval:        "1m",
		CandidatesLimit: 10,
	}, met, nil)
	require.NoError(t, err)

	coord, err := coordinator.New(be)
	require.NoError(t, err)

	gw := gateway.New(&gateway.Config{
		Port:         8082,
		PingInterval: "1s",
		WriteTimeout: "1s",
	}, be, coord)
	server := httptest.NewServer(gw.Handler())

	t.Cleanup(func() {
		server.Close()
		gw.Shutdown(false)
		assert.NoError(t, be.Shutdown())
	})
	return server, met
}

func dial(t *testing.T, server *httptest.Server, docID, clientID string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/documents/" + docID + "/ws?clientId=" + clientID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func read(t *testing.T, conn *websocket.Conn) gateway.Message {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg gateway.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func readEvent(t *testing.T, conn *websocket.Conn, eventType events.DocEventType) events.DocEvent {
	for {
		msg := read(t, conn)
		if msg.Type == gateway.TypeEvent && msg.Event.Type == eventType {
			return *msg.Event
		}
	}
}

func TestGateway(t *testing.T) {
	server := newTestServer(t)

	t.Run("document state on connection test", func(t *testing.T) {
		conn := dial(t, server, "gw-state", "c1")

		msg := read(t, conn)
		assert.Equal(t, gateway.TypeDocumentState, msg.Type)
		require.NotNil(t, msg.Snapshot)
		assert.Equal(t, int64(0), msg.Snapshot.Version)
		assert.Equal(t, "", msg.Snapshot.Content)
	})

	t.Run("ping pong test", func(t *testing.T) {
		conn := dial(t, server, "gw-ping", "c1")
		read(t, conn)

		require.NoError(t, conn.WriteJSON(gateway.Message{Type: gateway.TypePing}))
		assert.Equal(t, gateway.TypePong, read(t, conn).Type)
	})

	t.Run("operation ack and event test", func(t *testing.T) {
		c1 := dial(t, server, "gw-edit", "c1")
		read(t, c1)
		c2 := dial(t, server, "gw-edit", "c2")
		state := read(t, c2)
		assert.Equal(t, []string{"c1"}, state.Peers)

		op := ot.NewInsert(0, "hi")
		require.NoError(t, c1.WriteJSON(gateway.Message{
			Type:        gateway.TypeOperation,
			ClientSeq:   1,
			BaseVersion: 0,
			Operation:   &op,
		}))

		var acked, applied bool
		for !acked || !applied {
			msg := read(t, c1)
			switch {
			case msg.Type == gateway.TypeOperationAck:
				assert.Equal(t, int64(1), msg.Version)
				assert.Equal(t, uint32(1), msg.ClientSeq)
				acked = true
			case msg.Type == gateway.TypeEvent && msg.Event.Type == events.DocOperationEvent:
				assert.Equal(t, "c1", msg.Event.Operation.OriginClientID)
				applied = true
			}
		}

		event := readEvent(t, c2, events.DocOperationEvent)
		assert.Equal(t, int64(1), event.Operation.Version)
		assert.Equal(t, op, event.Operation.Operation)
	})

	t.Run("missed operations on connection test", func(t *testing.T) {
		c1 := dial(t, server, "gw-missed", "c1")
		read(t, c1)

		op := ot.NewInsert(0, "abc")
		require.NoError(t, c1.WriteJSON(gateway.Message{
			Type:      gateway.TypeOperation,
			ClientSeq: 1,
			Operation: &op,
		}))
		readEvent(t, c1, events.DocOperationEvent)

		c2 := dial(t, server, "gw-missed", "c2")
		state := read(t, c2)
		assert.Equal(t, "abc", state.Snapshot.Content)
		assert.Equal(t, int64(1), state.Version)
	})

	t.Run("peer events test", func(t *testing.T) {
		c1 := dial(t, server, "gw-peers", "c1")
		read(t, c1)

		c2 := dial(t, server, "gw-peers", "c2")
		read(t, c2)
		assert.Equal(t, "c2", readEvent(t, c1, events.DocPeerJoinedEvent).Publisher)

		require.NoError(t, c2.WriteJSON(gateway.Message{
			Type:           gateway.TypeCursorPosition,
			CursorPosition: 3,
		}))
		event := readEvent(t, c1, events.DocPresenceEvent)
		assert.Equal(t, "c2", event.Presence.ClientID)
		assert.Equal(t, 3, event.Presence.CursorPosition)

		require.NoError(t, c2.Close())
		assert.Equal(t, "c2", readEvent(t, c1, events.DocPeerLeftEvent).Publisher)
	})

	t.Run("error frame test", func(t *testing.T) {
		conn := dial(t, server, "gw-error", "c1")
		read(t, conn)

		op := ot.NewInsert(0, "x")
		require.NoError(t, conn.WriteJSON(gateway.Message{
			Type:        gateway.TypeOperation,
			ClientSeq:   1,
			BaseVersion: 99,
			Operation:   &op,
		}))
		msg := read(t, conn)
		assert.Equal(t, gateway.TypeError, msg.Type)
		assert.Equal(t, "ErrInvalidBaseVersion", msg.Code)
		assert.Equal(t, uint32(1), msg.ClientSeq)

		require.NoError(t, conn.WriteJSON(map[string]string{"type": "shout"}))
		msg = read(t, conn)
		assert.Equal(t, gateway.TypeError, msg.Type)
		assert.Equal(t, "ErrUnknownMessageType", msg.Code)

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
		msg = read(t, conn)
		assert.Equal(t, "ErrInvalidOperation", msg.Code)
	})

	t.Run("handshake without client id test", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(server.URL, "http") + "/documents/gw-bad/ws"
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		assert.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())
	})

	t.Run("health check test", func(t *testing.T) {
		resp, err := http.Get(server.URL + gateway.HealthPath)
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, resp.Body.Close())
		}()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var health map[string]string
		require.NoError(t, json.Unmarshal(body, &health))
		assert.Equal(t, "SERVING", health["status"])
	})
}

func TestGatewayWatchMetrics(t *testing.T) {
	server, met := newTestServerWithMetrics(t)
	hostname, err := os.Hostname()
	require.NoError(t, err)

	connections := func(n int) error {
		expected := fmt.Sprintf(`
# HELP scribe_watchdocument_connections_total The total count of open document watch streams.
# TYPE scribe_watchdocument_connections_total gauge
scribe_watchdocument_connections_total{hostname=%q} %d
`, hostname, n)
		return testutil.GatherAndCompare(
			met.Registry(),
			strings.NewReader(expected),
			"scribe_watchdocument_connections_total",
		)
	}

	conn := dial(t, server, "gw-metrics", "c1")
	read(t, conn)
	assert.NoError(t, connections(1))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return connections(0) == nil
	}, 5*time.Second, 10*time.Millisecond)
}
