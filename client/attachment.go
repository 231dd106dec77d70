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

package client

import (
	"context"
	goerrors "errors"
	"io"
	"slices"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/scribe-team/scribe/api"
	"github.com/scribe-team/scribe/api/types"
	"github.com/scribe-team/scribe/api/types/events"
	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/ot"
	"github.com/scribe-team/scribe/pkg/replica"
)

// EventType is the type of an Event of an attachment.
type EventType string

const (
	// EventRemoteChange occurs when an operation of another client is applied.
	EventRemoteChange EventType = "remote-change"

	// EventResynced occurs when the content was replaced by a snapshot and
	// pending local edits were dropped.
	EventResynced EventType = "resynced"

	// EventPeerJoined occurs when another client attaches the document.
	EventPeerJoined EventType = "peer-joined"

	// EventPeerLeft occurs when another client detaches the document.
	EventPeerLeft EventType = "peer-left"

	// EventPresenceChanged occurs when another client moves its cursor.
	EventPresenceChanged EventType = "presence-changed"

	// EventWatchClosed occurs when the event stream ended and could not be
	// reopened. Err tells why.
	EventWatchClosed EventType = "watch-closed"
)

// Event is something that happened to an attached document.
type Event struct {
	Type     EventType
	ClientID string
	Version  int64
	Presence *document.Presence
	Err      error
}

const (
	maxRewatchAttempts = 5
	rewatchDelay       = 100 * time.Millisecond
)

// Attachment is a document attached to a client. Its replica applies local
// edits at once and is reconciled with the operations committed by the
// server as they are received.
type Attachment struct {
	client     *Client
	documentID string
	logger     *zap.Logger

	mu        sync.Mutex
	replica   *replica.Replica
	peers     mapset.Set[string]
	presences map[string]document.Presence

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	pushes sync.WaitGroup

	eventsMu     sync.Mutex
	events       chan Event
	eventsClosed bool
}

func newAttachment(c *Client, snapshot document.Snapshot, peers []string) *Attachment {
	ctx, cancel := context.WithCancel(context.Background())
	return &Attachment{
		client:     c,
		documentID: snapshot.DocumentID,
		logger:     c.logger.With(zap.String("document", snapshot.DocumentID)),
		replica:    replica.New(c.id, snapshot),
		peers:      mapset.NewThreadUnsafeSet(peers...),
		presences:  make(map[string]document.Presence),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		events:     make(chan Event, c.options.EventBufferSize),
	}
}

// DocumentID returns the ID of the attached document.
func (a *Attachment) DocumentID() string {
	return a.documentID
}

// Content returns the local content, including edits not yet acknowledged.
func (a *Attachment) Content() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.replica.Content()
}

// Version returns the latest committed version applied locally.
func (a *Attachment) Version() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.replica.KnownVersion()
}

// Synced returns whether every local edit has been acknowledged.
func (a *Attachment) Synced() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.replica.Synced()
}

// Peers returns the sorted IDs of the other clients attached to the document.
func (a *Attachment) Peers() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	peers := a.peers.ToSlice()
	slices.Sort(peers)
	return peers
}

// Presences returns the latest known cursors of the other clients.
func (a *Attachment) Presences() map[string]document.Presence {
	a.mu.Lock()
	defer a.mu.Unlock()

	presences := make(map[string]document.Presence, len(a.presences))
	for id, p := range a.presences {
		presences[id] = p
	}
	return presences
}

// Events returns the channel of the events of the document. Events are
// dropped while the channel is full. It is closed on Detach.
func (a *Attachment) Events() <-chan Event {
	return a.events
}

// Edit applies the given operation locally and sends it to the server if no
// other operation is in flight. The local content keeps the edit even when
// sending fails, and Flush sends it again.
func (a *Attachment) Edit(ctx context.Context, op ot.Operation) error {
	a.mu.Lock()
	next, err := a.replica.Edit(op)
	a.mu.Unlock()
	if err != nil {
		return err
	}

	if next == nil {
		return nil
	}
	return a.push(ctx, *next)
}

// Insert inserts text at the given rune position.
func (a *Attachment) Insert(ctx context.Context, position int, text string) error {
	return a.Edit(ctx, ot.NewInsert(position, text))
}

// Delete deletes length runes from the given position.
func (a *Attachment) Delete(ctx context.Context, position, length int) error {
	return a.Edit(ctx, ot.NewDelete(position, length))
}

// Undo reverts the latest local edit.
func (a *Attachment) Undo(ctx context.Context) error {
	a.mu.Lock()
	next, err := a.replica.Undo()
	a.mu.Unlock()
	if err != nil {
		return err
	}

	if next == nil {
		return nil
	}
	return a.push(ctx, *next)
}

// Flush sends the operation in flight again. The server commits an
// operation once however often it is sent.
func (a *Attachment) Flush(ctx context.Context) error {
	a.mu.Lock()
	inFlight := a.replica.InFlight()
	a.mu.Unlock()

	if inFlight == nil {
		return nil
	}
	return a.push(ctx, *inFlight)
}

// UpdatePresence shares the cursor of this client with the other clients.
func (a *Attachment) UpdatePresence(ctx context.Context, cursorPosition, selectionEnd int) error {
	if _, err := a.client.client.UpdatePresence(ctx, &api.UpdatePresenceRequest{
		DocumentID: a.documentID,
		Presence: document.Presence{
			ClientID:       a.client.id,
			CursorPosition: cursorPosition,
			SelectionEnd:   selectionEnd,
		},
	}); err != nil {
		return fromStatusError(err)
	}
	return nil
}

func (a *Attachment) push(ctx context.Context, op document.VersionedOperation) error {
	_, err := a.client.client.PushOperation(ctx, &api.PushOperationRequest{Operation: op})
	if err == nil {
		return nil
	}

	err = fromStatusError(err)
	if goerrors.Is(err, types.ErrStaleClientSeq) || goerrors.Is(err, types.ErrInvalidBaseVersion) {
		a.resync(ctx)
	}
	return err
}

// pushAsync sends an operation released by an acknowledgement without
// blocking the event stream.
func (a *Attachment) pushAsync(op document.VersionedOperation) {
	a.pushes.Add(1)
	go func() {
		defer a.pushes.Done()

		if err := a.push(a.ctx, op); err != nil && a.ctx.Err() == nil {
			a.logger.Warn("push", zap.Uint32("seq", op.ClientSeq), zap.Error(err))
		}
	}()
}

// resync replaces the replica with the latest snapshot of the document.
func (a *Attachment) resync(ctx context.Context) {
	snapshot, err := a.client.Snapshot(ctx, a.documentID)
	if err != nil {
		a.logger.Warn("resync", zap.Error(err))
		return
	}

	a.mu.Lock()
	a.replica.Resync(snapshot)
	a.mu.Unlock()

	a.emit(Event{Type: EventResynced, Version: snapshot.Version})
}

func (a *Attachment) startWatch() error {
	stream, err := a.watchStream()
	if err != nil {
		a.cancel()
		return err
	}

	go a.watch(stream)
	return nil
}

func (a *Attachment) watchStream() (api.WatchDocumentClient, error) {
	a.mu.Lock()
	since := a.replica.KnownVersion()
	a.mu.Unlock()

	stream, err := a.client.client.WatchDocument(a.ctx, &api.WatchDocumentRequest{
		ClientID:     a.client.id,
		DocumentID:   a.documentID,
		SinceVersion: since,
	})
	if err != nil {
		return nil, fromStatusError(err)
	}
	return stream, nil
}

func (a *Attachment) watch(stream api.WatchDocumentClient) {
	defer close(a.done)

	for {
		resp, err := stream.Recv()
		if err == nil {
			a.handle(resp.Event)
			continue
		}
		if a.ctx.Err() != nil {
			return
		}

		if stream, err = a.rewatch(err); err != nil {
			a.logger.Warn("watch closed", zap.Error(err))
			a.emit(Event{Type: EventWatchClosed, Err: err})
			return
		}
	}
}

// rewatch reopens the event stream after the connection was lost or the
// server dropped a subscriber that fell behind. Operations missed meanwhile
// are replayed from the version the replica knows.
func (a *Attachment) rewatch(cause error) (api.WatchDocumentClient, error) {
	cause = fromStatusError(cause)
	if goerrors.Is(cause, io.EOF) {
		cause = ErrTransport
	}
	if !goerrors.Is(cause, ErrTransport) && !goerrors.Is(cause, types.ErrSubscriptionEvicted) {
		return nil, cause
	}

	for attempt := 1; attempt <= maxRewatchAttempts; attempt++ {
		select {
		case <-a.ctx.Done():
			return nil, a.ctx.Err()
		case <-time.After(time.Duration(attempt) * rewatchDelay):
		}

		stream, err := a.watchStream()
		if err != nil {
			cause = err
			continue
		}

		a.logger.Info("watch reopened", zap.Int("attempt", attempt), zap.NamedError("cause", cause))
		a.mu.Lock()
		inFlight := a.replica.InFlight()
		a.mu.Unlock()
		if inFlight != nil {
			a.pushAsync(*inFlight)
		}
		return stream, nil
	}

	return nil, cause
}

func (a *Attachment) handle(event events.DocEvent) {
	switch event.Type {
	case events.DocOperationEvent:
		if event.Operation == nil {
			return
		}
		op := *event.Operation

		a.mu.Lock()
		next, err := a.replica.Receive(op)
		a.mu.Unlock()
		if err != nil {
			a.logger.Info("receive", zap.Int64("version", op.Version), zap.Error(err))
			a.resync(a.ctx)
			return
		}

		if next != nil {
			a.pushAsync(*next)
		}
		if op.OriginClientID != a.client.id {
			a.emit(Event{Type: EventRemoteChange, ClientID: op.OriginClientID, Version: op.Version})
		}
	case events.DocResyncEvent:
		if event.Snapshot == nil {
			return
		}

		a.mu.Lock()
		a.replica.Resync(*event.Snapshot)
		a.mu.Unlock()
		a.emit(Event{Type: EventResynced, Version: event.Snapshot.Version})
	case events.DocPeerJoinedEvent:
		a.mu.Lock()
		a.peers.Add(event.Publisher)
		a.mu.Unlock()
		a.emit(Event{Type: EventPeerJoined, ClientID: event.Publisher})
	case events.DocPeerLeftEvent:
		a.mu.Lock()
		a.peers.Remove(event.Publisher)
		delete(a.presences, event.Publisher)
		a.mu.Unlock()
		a.emit(Event{Type: EventPeerLeft, ClientID: event.Publisher})
	case events.DocPresenceEvent:
		if event.Presence == nil {
			return
		}
		presence := *event.Presence

		a.mu.Lock()
		a.presences[presence.ClientID] = presence
		a.mu.Unlock()
		a.emit(Event{Type: EventPresenceChanged, ClientID: presence.ClientID, Presence: &presence})
	}
}

func (a *Attachment) emit(event Event) {
	a.eventsMu.Lock()
	defer a.eventsMu.Unlock()

	if a.eventsClosed {
		return
	}

	select {
	case a.events <- event:
	default:
		a.logger.Debug("event dropped", zap.String("type", string(event.Type)))
	}
}

// close stops the event stream and waits for the operations being sent.
func (a *Attachment) close() {
	a.cancel()
	<-a.done
	a.pushes.Wait()

	a.eventsMu.Lock()
	defer a.eventsMu.Unlock()
	if !a.eventsClosed {
		a.eventsClosed = true
		close(a.events)
	}
}
