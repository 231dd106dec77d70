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

// Package coordinator serializes the operations pushed to each document,
// rebases them over what the pusher missed, assigns versions and broadcasts
// the committed operations to the watchers of the document.
package coordinator

import (
	"context"
	goerrors "errors"
	"fmt"
	"strconv"
	gosync "sync"
	"time"

	"github.com/scribe-team/scribe/api/types"
	"github.com/scribe-team/scribe/api/types/events"
	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/errors"
	"github.com/scribe-team/scribe/pkg/ot"
	"github.com/scribe-team/scribe/server/backend"
	"github.com/scribe-team/scribe/server/backend/database"
	"github.com/scribe-team/scribe/server/backend/history"
	"github.com/scribe-team/scribe/server/backend/messagebroker"
	"github.com/scribe-team/scribe/server/backend/pubsub"
	"github.com/scribe-team/scribe/server/backend/sync"
	"github.com/scribe-team/scribe/server/logging"
	"github.com/scribe-team/scribe/server/profiling/prometheus"
)

var (
	// ErrInvalidOperation is returned when a pushed operation or request is
	// malformed before any transform.
	ErrInvalidOperation = ot.ErrInvalidOperation

	// ErrMalformedOperation is returned when a pushed operation cannot be
	// applied to the document after it was rebased. The pusher is sent a
	// resync event.
	ErrMalformedOperation = types.ErrMalformedOperation

	// ErrInvalidBaseVersion is returned when a request refers to a version
	// the document has not reached.
	ErrInvalidBaseVersion = types.ErrInvalidBaseVersion

	// ErrStaleClientSeq is returned when a client pushes a sequence older
	// than the last one committed for it.
	ErrStaleClientSeq = types.ErrStaleClientSeq

	// ErrDocumentBusy is returned when a push kept losing version races to
	// other writers of the document.
	ErrDocumentBusy = types.ErrDocumentBusy

	// ErrSessionNotFound is returned when the client is not attached to the
	// document.
	ErrSessionNotFound = types.ErrSessionNotFound
)

// DefaultOperationsLimit is the number of operations Operations returns when
// no limit is given.
const DefaultOperationsLimit = 1000

// committedSeq is the latest operation committed for a client.
type committedSeq struct {
	seq     uint32
	version int64
}

// docState is the authoritative state of a loaded document. It is only
// accessed while holding the lock of the document.
type docState struct {
	doc      *document.Document
	log      *history.Log
	lastSeqs map[string]committedSeq
}

// AttachResult is what a client gets when it attaches a document.
type AttachResult struct {
	Snapshot document.Snapshot
	Peers    []string
}

// Coordinator is the synchronization coordinator of every document served
// by this server.
type Coordinator struct {
	be *backend.Backend

	mu   gosync.Mutex
	docs map[string]*docState
}

// New creates a Coordinator and registers its housekeeping tasks.
func New(be *backend.Backend) (*Coordinator, error) {
	c := &Coordinator{
		be:   be,
		docs: make(map[string]*docState),
	}

	if err := be.Housekeeping.RegisterTask("deactivate-sessions", c.DeactivateIdleSessions); err != nil {
		return nil, err
	}
	if err := be.Housekeeping.RegisterTask("unload-documents", c.UnloadIdleDocuments); err != nil {
		return nil, err
	}

	return c, nil
}

// Push commits the given operation. The operation is transformed against
// every operation committed after its base version, stored at the next
// version, applied and published to the watchers of the document, the
// pusher included. Pushing an operation that was already committed returns
// the committed operation again.
func (c *Coordinator) Push(
	ctx context.Context,
	v document.VersionedOperation,
) (document.CommittedOperation, error) {
	start := time.Now()
	defer func() {
		c.be.Metrics.ObservePushResponseSeconds(time.Since(start).Seconds())
	}()

	if err := validateVersioned(v); err != nil {
		c.be.Metrics.AddPushOperation(c.be.Config.Hostname, prometheus.PushRejected)
		return document.CommittedOperation{}, err
	}

	unlock, err := c.lock(ctx, v.DocumentID)
	if err != nil {
		return document.CommittedOperation{}, err
	}
	defer unlock()

	state, err := c.state(ctx, v.DocumentID)
	if err != nil {
		return document.CommittedOperation{}, err
	}

	// Another writer may have committed versions this node has not seen.
	if v.BaseVersion > state.doc.Version() {
		if err := c.refresh(ctx, state); err != nil {
			return document.CommittedOperation{}, err
		}
		if v.BaseVersion > state.doc.Version() {
			c.be.Metrics.AddPushOperation(c.be.Config.Hostname, prometheus.PushRejected)
			return document.CommittedOperation{}, errors.WithMetadata(fmt.Errorf(
				"push %s base v%d at v%d: %w",
				v.DocumentID,
				v.BaseVersion,
				state.doc.Version(),
				ErrInvalidBaseVersion,
			), map[string]string{
				"documentId": v.DocumentID,
				"version":    strconv.FormatInt(state.doc.Version(), 10),
			})
		}
	}

	if last, ok := state.lastSeqs[v.ClientID]; ok {
		if v.ClientSeq == last.seq {
			c.be.Metrics.AddPushOperation(c.be.Config.Hostname, prometheus.PushDuplicated)
			return c.committedAt(ctx, state, last.version)
		}
		if v.ClientSeq < last.seq {
			c.be.Metrics.AddPushOperation(c.be.Config.Hostname, prometheus.PushRejected)
			return document.CommittedOperation{}, errors.WithMetadata(fmt.Errorf(
				"push %s seq %d of %s after %d: %w",
				v.DocumentID,
				v.ClientSeq,
				v.ClientID,
				last.seq,
				ErrStaleClientSeq,
			), map[string]string{
				"clientId":      v.ClientID,
				"lastClientSeq": strconv.FormatUint(uint64(last.seq), 10),
			})
		}
	}

	committed, err := c.commit(ctx, state, v)
	if err != nil {
		return document.CommittedOperation{}, err
	}

	if err := c.be.Sessions.Touch(v.DocumentID, v.ClientID, committed.Version); err != nil {
		logging.From(ctx).Debugf("push from unattached client %s: %v", v.ClientID, err)
	}
	c.be.Metrics.AddPushOperation(c.be.Config.Hostname, prometheus.PushCommitted)

	return committed, nil
}

// commit rebases, appends, applies and publishes the operation, retrying
// when another writer takes the version first.
func (c *Coordinator) commit(
	ctx context.Context,
	state *docState,
	v document.VersionedOperation,
) (document.CommittedOperation, error) {
	for attempt := 0; attempt < c.be.Config.MaxPushRetries; attempt++ {
		missed, err := state.log.Since(ctx, v.BaseVersion)
		if err != nil {
			return document.CommittedOperation{}, err
		}

		op := v.Operation
		for _, m := range missed {
			op = ot.Transform(op, m.Operation, ot.TieOf(v.ClientID, m.OriginClientID))
		}
		c.be.Metrics.ObservePushRebasedOperations(len(missed))

		content := state.doc.Content()
		if _, err := ot.Apply(content, op); err != nil {
			c.be.Metrics.AddPushOperation(c.be.Config.Hostname, prometheus.PushRejected)
			c.resync(ctx, state, v.ClientID)
			return document.CommittedOperation{}, fmt.Errorf(
				"push %s seq %d of %s as %s: %w: %w",
				v.DocumentID,
				v.ClientSeq,
				v.ClientID,
				op,
				ErrMalformedOperation,
				err,
			)
		}

		committed := document.CommittedOperation{
			DocumentID:     v.DocumentID,
			Version:        state.doc.Version() + 1,
			OriginClientID: v.ClientID,
			ClientSeq:      v.ClientSeq,
			Operation:      ot.Normalize(content, op),
			AppliedAt:      time.Now().UTC(),
		}

		if err := state.log.Append(ctx, committed); err != nil {
			if !goerrors.Is(err, history.ErrVersionConflict) {
				return document.CommittedOperation{}, err
			}

			c.be.Metrics.AddPushVersionConflict(c.be.Config.Hostname)
			logging.From(ctx).Debugf("push %s: %v, refreshing", v.DocumentID, err)
			if err := c.refresh(ctx, state); err != nil {
				return document.CommittedOperation{}, err
			}
			continue
		}

		if err := c.apply(ctx, state, committed); err != nil {
			return document.CommittedOperation{}, err
		}
		return committed, nil
	}

	return document.CommittedOperation{}, fmt.Errorf(
		"push %s after %d attempts: %w",
		v.DocumentID,
		c.be.Config.MaxPushRetries,
		ErrDocumentBusy,
	)
}

// apply applies an appended operation to the document and announces it.
func (c *Coordinator) apply(
	ctx context.Context,
	state *docState,
	committed document.CommittedOperation,
) error {
	if err := state.doc.Apply(committed); err != nil {
		return err
	}
	state.lastSeqs[committed.OriginClientID] = committedSeq{
		seq:     committed.ClientSeq,
		version: committed.Version,
	}

	evicted := c.be.PubSub.Publish(ctx, events.NewOperationEvent(committed))
	c.be.Metrics.AddEvictedSubscribers(c.be.Config.Hostname, evicted)

	if err := c.be.MsgBroker.Produce(ctx, messagebroker.NewOperationMessage(committed)); err != nil {
		logging.From(ctx).Warnf("mirror v%d of %s: %v", committed.Version, committed.DocumentID, err)
	}

	if committed.Version%c.be.Config.SnapshotInterval == 0 {
		c.storeSnapshot(state.doc.Snapshot())
	}
	return nil
}

// refresh catches the document up with versions committed by other writers.
func (c *Coordinator) refresh(ctx context.Context, state *docState) error {
	ops, err := state.log.Refresh(ctx)
	if err != nil {
		return err
	}

	for _, op := range ops {
		if err := c.apply(ctx, state, op); err != nil {
			return err
		}
	}
	return nil
}

// resync sends the current snapshot to the given client.
func (c *Coordinator) resync(ctx context.Context, state *docState, clientID string) {
	evicted := c.be.PubSub.PublishTo(ctx, clientID, events.NewResyncEvent(state.doc.Snapshot()))
	c.be.Metrics.AddEvictedSubscribers(c.be.Config.Hostname, evicted)
}

func (c *Coordinator) storeSnapshot(snapshot document.Snapshot) {
	c.be.Cache.Snapshot.Add(snapshot)
	c.be.Background.AttachGoroutine(func(ctx context.Context) {
		if err := c.be.DB.CreateSnapshotInfo(ctx, snapshot); err != nil {
			logging.From(ctx).Errorf("store snapshot v%d of %s: %v", snapshot.Version, snapshot.DocumentID, err)
			return
		}
		c.be.Metrics.AddSnapshot(c.be.Config.Hostname)
	}, "snapshot")
}

// committedAt returns the committed operation of the given version.
func (c *Coordinator) committedAt(
	ctx context.Context,
	state *docState,
	version int64,
) (document.CommittedOperation, error) {
	ops, err := state.log.Since(ctx, version-1)
	if err != nil {
		return document.CommittedOperation{}, err
	}
	if len(ops) == 0 || ops[0].Version != version {
		return document.CommittedOperation{}, fmt.Errorf(
			"find v%d of %s: %w",
			version,
			state.log.DocumentID(),
			document.ErrVersionGap,
		)
	}
	return ops[0], nil
}

// Attach registers the client on the document and announces it to the
// other clients. It returns the current snapshot and the attached peers.
func (c *Coordinator) Attach(ctx context.Context, docID, clientID string) (AttachResult, error) {
	if err := validateIDs(docID, clientID); err != nil {
		return AttachResult{}, err
	}

	unlock, err := c.lock(ctx, docID)
	if err != nil {
		return AttachResult{}, err
	}
	defer unlock()

	state, err := c.state(ctx, docID)
	if err != nil {
		return AttachResult{}, err
	}

	snapshot := state.doc.Snapshot()
	if _, created := c.be.Sessions.Attach(docID, clientID, snapshot.Version); created {
		// A new session comes with a new replica that counts from 1 again.
		delete(state.lastSeqs, clientID)

		c.be.PubSub.Publish(ctx, events.DocEvent{
			Type:       events.DocPeerJoinedEvent,
			DocumentID: docID,
			Publisher:  clientID,
		})
		c.produceSessionEvent(ctx, docID, clientID, messagebroker.SessionAttached)
	}

	var peers []string
	for _, id := range c.be.Sessions.Clients(docID) {
		if id != clientID {
			peers = append(peers, id)
		}
	}

	logging.From(ctx).Debugf("attach %s to %s@v%d", clientID, docID, snapshot.Version)
	return AttachResult{Snapshot: snapshot, Peers: peers}, nil
}

// Detach removes the client from the document and announces it to the
// other clients.
func (c *Coordinator) Detach(ctx context.Context, docID, clientID string) error {
	if err := validateIDs(docID, clientID); err != nil {
		return err
	}

	unlock, err := c.lock(ctx, docID)
	if err != nil {
		return err
	}
	defer unlock()

	if !c.be.Sessions.Detach(docID, clientID) {
		return fmt.Errorf("detach %s from %s: %w", clientID, docID, ErrSessionNotFound)
	}

	c.be.PubSub.Publish(ctx, events.DocEvent{
		Type:       events.DocPeerLeftEvent,
		DocumentID: docID,
		Publisher:  clientID,
	})
	c.produceSessionEvent(ctx, docID, clientID, messagebroker.SessionDetached)

	logging.From(ctx).Debugf("detach %s from %s", clientID, docID)
	return nil
}

// Watch subscribes the attached client to the events of the document. It
// returns the operations committed after the given version, which the
// caller must deliver before any event of the subscription.
func (c *Coordinator) Watch(
	ctx context.Context,
	docID, clientID string,
	since int64,
) (*pubsub.Subscription, []document.CommittedOperation, error) {
	if err := validateIDs(docID, clientID); err != nil {
		return nil, nil, err
	}

	unlock, err := c.lock(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	if !c.be.Sessions.IsAttached(docID, clientID) {
		return nil, nil, fmt.Errorf("watch %s by %s: %w", docID, clientID, ErrSessionNotFound)
	}

	state, err := c.state(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	if since < 0 || since > state.doc.Version() {
		return nil, nil, fmt.Errorf("watch %s since v%d: %w", docID, since, ErrInvalidBaseVersion)
	}

	missed, err := state.log.Since(ctx, since)
	if err != nil {
		return nil, nil, err
	}

	sub, _, err := c.be.PubSub.Subscribe(ctx, clientID, docID)
	if err != nil {
		return nil, nil, err
	}
	c.be.Metrics.AddWatchDocumentConnections(c.be.Config.Hostname)

	return sub, missed, nil
}

// Unwatch closes the subscription created by Watch.
func (c *Coordinator) Unwatch(ctx context.Context, sub *pubsub.Subscription) {
	c.be.PubSub.Unsubscribe(ctx, sub)
	c.be.Metrics.RemoveWatchDocumentConnections(c.be.Config.Hostname)
}

// Snapshot returns the current snapshot of the document.
func (c *Coordinator) Snapshot(ctx context.Context, docID string) (document.Snapshot, error) {
	if err := validateDocumentID(docID); err != nil {
		return document.Snapshot{}, err
	}

	unlock, err := c.lock(ctx, docID)
	if err != nil {
		return document.Snapshot{}, err
	}
	defer unlock()

	state, err := c.state(ctx, docID)
	if err != nil {
		return document.Snapshot{}, err
	}

	return state.doc.Snapshot(), nil
}

// Operations returns up to limit operations committed after the given
// version, in version order.
func (c *Coordinator) Operations(
	ctx context.Context,
	docID string,
	since int64,
	limit int,
) ([]document.CommittedOperation, error) {
	if err := validateDocumentID(docID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultOperationsLimit
	}

	unlock, err := c.lock(ctx, docID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := c.state(ctx, docID)
	if err != nil {
		return nil, err
	}
	if since < 0 || since > state.doc.Version() {
		return nil, fmt.Errorf("operations of %s since v%d: %w", docID, since, ErrInvalidBaseVersion)
	}

	ops, err := state.log.Since(ctx, since)
	if err != nil {
		return nil, err
	}
	if len(ops) > limit {
		ops = ops[:limit]
	}
	return ops, nil
}

// UpdatePresence stores the cursor of the client and relays it to the
// other clients. Cursors are not transformed.
func (c *Coordinator) UpdatePresence(ctx context.Context, docID string, presence document.Presence) error {
	if err := validateDocumentID(docID); err != nil {
		return err
	}
	if err := validateStruct(presence); err != nil {
		return err
	}

	if err := c.be.Sessions.UpdatePresence(docID, presence); err != nil {
		return fmt.Errorf("update presence of %s in %s: %w", presence.ClientID, docID, err)
	}

	evicted := c.be.PubSub.Publish(ctx, events.DocEvent{
		Type:       events.DocPresenceEvent,
		DocumentID: docID,
		Publisher:  presence.ClientID,
		Presence:   &presence,
	})
	c.be.Metrics.AddEvictedSubscribers(c.be.Config.Hostname, evicted)
	return nil
}

// Documents lists the stored documents.
func (c *Coordinator) Documents(ctx context.Context, paging database.Paging) ([]*database.DocInfo, error) {
	return c.be.DB.FindDocInfosByPaging(ctx, paging)
}

// DeactivateIdleSessions detaches up to limit sessions that have not been
// seen for longer than the configured threshold.
func (c *Coordinator) DeactivateIdleSessions(ctx context.Context, limit int) (int, error) {
	idle := c.be.Sessions.Idle(c.be.Config.ParseSessionDeactivateThreshold())
	if len(idle) > limit {
		idle = idle[:limit]
	}

	deactivated := 0
	for _, s := range idle {
		if err := c.Detach(ctx, s.DocumentID, s.ClientID); err != nil {
			if goerrors.Is(err, ErrSessionNotFound) {
				continue
			}
			return deactivated, err
		}
		deactivated++
	}
	return deactivated, nil
}

// UnloadIdleDocuments drops up to limit loaded documents that have no
// attached client and no watcher. They are loaded again on next use.
func (c *Coordinator) UnloadIdleDocuments(ctx context.Context, limit int) (int, error) {
	c.mu.Lock()
	var candidates []string
	for docID := range c.docs {
		candidates = append(candidates, docID)
	}
	c.mu.Unlock()

	unloaded := 0
	for _, docID := range candidates {
		if unloaded >= limit {
			break
		}

		unlock, err := c.lock(ctx, docID)
		if err != nil {
			return unloaded, err
		}
		if len(c.be.Sessions.Clients(docID)) == 0 && c.be.PubSub.Len(docID) == 0 {
			c.mu.Lock()
			delete(c.docs, docID)
			c.mu.Unlock()
			unloaded++
		}
		unlock()
	}
	return unloaded, nil
}

// Loaded returns the number of documents held in memory.
func (c *Coordinator) Loaded() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.docs)
}

func (c *Coordinator) produceSessionEvent(
	ctx context.Context,
	docID, clientID string,
	eventType messagebroker.SessionEventType,
) {
	if err := c.be.MsgBroker.Produce(ctx, messagebroker.SessionEventMessage{
		DocumentID: docID,
		ClientID:   clientID,
		EventType:  eventType,
		Timestamp:  time.Now().UTC(),
	}); err != nil {
		logging.From(ctx).Warnf("mirror %s of %s in %s: %v", eventType, clientID, docID, err)
	}
}

// lock acquires the lock of the document and returns its release.
func (c *Coordinator) lock(ctx context.Context, docID string) (func(), error) {
	locker := c.be.Lockers.Locker(sync.DocKey(docID))
	if err := locker.Lock(ctx); err != nil {
		return nil, fmt.Errorf("lock %s: %w", docID, err)
	}

	return func() {
		if err := locker.Unlock(); err != nil {
			logging.From(ctx).Error(err)
		}
	}, nil
}

// state returns the loaded state of the document, loading it on first use.
// The caller must hold the lock of the document.
func (c *Coordinator) state(ctx context.Context, docID string) (*docState, error) {
	c.mu.Lock()
	state, ok := c.docs[docID]
	c.mu.Unlock()
	if ok {
		return state, nil
	}

	state, err := c.load(ctx, docID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.docs[docID] = state
	c.mu.Unlock()
	return state, nil
}
