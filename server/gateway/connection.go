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
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/scribe-team/scribe/api/types"
	"github.com/scribe-team/scribe/api/types/events"
	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/errors"
	"github.com/scribe-team/scribe/pkg/ot"
	"github.com/scribe-team/scribe/server/coordinator"
	"github.com/scribe-team/scribe/server/logging"
)

// ErrUnknownMessageType is sent back for frames of an unknown type.
var ErrUnknownMessageType = errors.InvalidArgument("unknown message type").WithCode("ErrUnknownMessageType")

const handledType = "websocket"

// connection is one WebSocket client attached to one document. Only the
// write loop writes to the socket.
type connection struct {
	gateway    *Gateway
	conn       *websocket.Conn
	documentID string
	clientID   string
	send       chan Message
	limiter    *rate.Limiter
}

func (c *connection) run(ctx context.Context, res coordinator.AttachResult) {
	defer func() {
		_ = c.conn.Close()
	}()

	coord := c.gateway.coordinator
	sub, missed, err := coord.Watch(ctx, c.documentID, c.clientID, res.Snapshot.Version)
	if err != nil {
		logging.From(ctx).Warnf("WS : watch: %v", err)
		c.writeClose(errorMessage(err))
		return
	}
	defer coord.Unwatch(context.WithoutCancel(ctx), sub)

	snapshot := res.Snapshot
	initial := []Message{{
		Type:     TypeDocumentState,
		Snapshot: &snapshot,
		Peers:    res.Peers,
		Version:  snapshot.Version,
	}}
	for _, op := range missed {
		event := events.NewOperationEvent(op)
		initial = append(initial, Message{Type: TypeEvent, Event: &event})
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		c.writeLoop(ctx, sub.Events(), initial)
	}()

	c.readLoop(ctx)
	cancel()
	<-done
}

// readLoop handles the frames of the client until the connection fails or
// the context is done.
func (c *connection) readLoop(ctx context.Context) {
	interval := c.gateway.conf.ParsePingInterval()
	extend := func() error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * interval))
	}

	c.conn.SetReadLimit(maxMessageBytes)
	if err := extend(); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return extend()
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.From(ctx).Debugf("WS : read: %v", err)
			}
			return
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}
		if err := extend(); err != nil {
			return
		}

		reply := c.handle(ctx, data)
		if reply == nil {
			continue
		}

		select {
		case c.send <- *reply:
		case <-ctx.Done():
			return
		}
	}
}

// handle processes one frame and returns the reply to send, if any.
func (c *connection) handle(ctx context.Context, data []byte) *Message {
	start := time.Now()

	var msg Message
	reply, err := func() (*Message, error) {
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %w", ot.ErrInvalidOperation, err)
		}

		switch msg.Type {
		case TypeOperation:
			return c.push(ctx, msg)
		case TypeCursorPosition:
			return nil, c.gateway.coordinator.UpdatePresence(ctx, c.documentID, document.Presence{
				ClientID:       c.clientID,
				CursorPosition: msg.CursorPosition,
				SelectionEnd:   msg.SelectionEnd,
			})
		case TypePing:
			return &Message{Type: TypePong}, nil
		default:
			return nil, fmt.Errorf("%q: %w", msg.Type, ErrUnknownMessageType)
		}
	}()

	code := "OK"
	if err != nil {
		code = errors.StatusOf(err).String()
		if errors.IsClientError(err) {
			logging.From(ctx).Infof("WS : %s %s => %v", msg.Type, time.Since(start), err)
		} else {
			logging.From(ctx).Errorf("WS : %s %s => %v", msg.Type, time.Since(start), err)
		}
		reply = errorMessage(err)
		reply.ClientSeq = msg.ClientSeq
	}
	c.gateway.backend.Metrics.AddServerHandledCounter(handledType, "gateway", string(msg.Type), code)

	return reply
}

func (c *connection) push(ctx context.Context, msg Message) (*Message, error) {
	if msg.Operation == nil {
		return nil, fmt.Errorf("operation frame without operation: %w", ot.ErrInvalidOperation)
	}

	committed, err := c.gateway.coordinator.Push(ctx, document.VersionedOperation{
		DocumentID:  c.documentID,
		ClientID:    c.clientID,
		ClientSeq:   msg.ClientSeq,
		BaseVersion: msg.BaseVersion,
		Operation:   *msg.Operation,
	})
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      TypeOperationAck,
		ClientSeq: committed.ClientSeq,
		Version:   committed.Version,
	}, nil
}

// writeLoop writes the initial frames, then the replies and the events of
// the document, pinging the client while idle.
func (c *connection) writeLoop(ctx context.Context, evs <-chan events.DocEvent, initial []Message) {
	defer func() {
		_ = c.conn.Close()
	}()

	for _, msg := range initial {
		if err := c.write(msg); err != nil {
			return
		}
	}

	ticker := time.NewTicker(c.gateway.conf.ParsePingInterval())
	defer ticker.Stop()

	metrics := c.gateway.backend.Metrics
	hostname := c.gateway.backend.Config.Hostname
	for {
		select {
		case <-ctx.Done():
			c.writeClose(nil)
			return
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				logging.From(ctx).Debugf("WS : write: %v", err)
				return
			}
		case event, ok := <-evs:
			if !ok {
				c.writeClose(errorMessage(types.ErrSubscriptionEvicted))
				return
			}
			if err := c.write(Message{Type: TypeEvent, Event: &event}); err != nil {
				logging.From(ctx).Debugf("WS : write: %v", err)
				return
			}
			metrics.AddWatchDocumentEvents(hostname, event.Type)
		case <-ticker.C:
			deadline := time.Now().Add(c.gateway.conf.ParseWriteTimeout())
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (c *connection) write(msg Message) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.gateway.conf.ParseWriteTimeout())); err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}

// writeClose sends the given frame, if any, followed by a close frame.
func (c *connection) writeClose(msg *Message) {
	if msg != nil {
		if err := c.write(*msg); err != nil {
			return
		}
	}

	deadline := time.Now().Add(c.gateway.conf.ParseWriteTimeout())
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		deadline,
	)
}

func errorMessage(err error) *Message {
	return &Message{
		Type:    TypeError,
		Code:    errors.CodeOf(err),
		Message: err.Error(),
	}
}
