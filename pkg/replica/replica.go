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

// Package replica implements the client side of Scribe's synchronization: a
// local copy of a document that applies local edits optimistically and
// reconciles them with the operations committed by the server.
//
// A Replica keeps at most one operation in flight. Local edits queue behind
// it and the next one is sent, based on the latest version the replica knows,
// once the server acknowledges the head by broadcasting it back.
package replica

import (
	"fmt"

	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/errors"
	"github.com/scribe-team/scribe/pkg/ot"
)

var (
	// ErrVersionGap is returned when a committed operation skips a version.
	// The caller must resynchronize the replica from a snapshot.
	ErrVersionGap = document.ErrVersionGap

	// ErrResyncRequired is returned when the replica can no longer reconcile
	// its local state with the server.
	ErrResyncRequired = errors.FailedPrecond("replica must be resynchronized").WithCode("ErrResyncRequired")

	// ErrNothingToUndo is returned by Undo when there is no local edit to undo.
	ErrNothingToUndo = errors.FailedPrecond("nothing to undo").WithCode("ErrNothingToUndo")
)

// Replica is a client's copy of a document. It is not safe for concurrent
// use.
type Replica struct {
	documentID string
	clientID   string

	// content is the local text, with every pending operation applied.
	content string

	// serverContent is the text of the document at knownVersion.
	serverContent string
	knownVersion  int64

	// pending holds local operations not yet acknowledged, oldest first. When
	// inFlight is set, pending[0] is its counterpart rebased over every
	// operation received since it was sent.
	pending  []ot.Operation
	inFlight *document.VersionedOperation
	lastSeq  uint32

	undo *ot.Operation
}

// New creates a replica of the document in the given snapshot.
func New(clientID string, snapshot document.Snapshot) *Replica {
	return &Replica{
		documentID:    snapshot.DocumentID,
		clientID:      clientID,
		content:       snapshot.Content,
		serverContent: snapshot.Content,
		knownVersion:  snapshot.Version,
	}
}

// DocumentID returns the ID of the replicated document.
func (r *Replica) DocumentID() string {
	return r.documentID
}

// ClientID returns the ID of the client owning this replica.
func (r *Replica) ClientID() string {
	return r.clientID
}

// Content returns the local content, including unacknowledged edits.
func (r *Replica) Content() string {
	return r.content
}

// ServerContent returns the content of the document at KnownVersion.
func (r *Replica) ServerContent() string {
	return r.serverContent
}

// KnownVersion returns the latest committed version this replica has applied.
func (r *Replica) KnownVersion() int64 {
	return r.knownVersion
}

// Pending returns the unacknowledged local operations, oldest first.
func (r *Replica) Pending() []ot.Operation {
	pending := make([]ot.Operation, len(r.pending))
	copy(pending, r.pending)
	return pending
}

// InFlight returns the operation sent to the server and not yet
// acknowledged, or nil. It is what must be sent again after a reconnect.
func (r *Replica) InFlight() *document.VersionedOperation {
	if r.inFlight == nil {
		return nil
	}
	v := *r.inFlight
	return &v
}

// Synced returns whether every local edit has been acknowledged.
func (r *Replica) Synced() bool {
	return len(r.pending) == 0
}

// Edit applies a local operation optimistically and queues it. It returns the
// operation to send to the server, or nil when another one is in flight.
func (r *Replica) Edit(op ot.Operation) (*document.VersionedOperation, error) {
	if err := ot.Validate(op); err != nil {
		return nil, err
	}

	content, err := ot.Apply(r.content, op)
	if err != nil {
		return nil, fmt.Errorf("edit %s: %w", r.documentID, err)
	}

	op = ot.Normalize(r.content, op)
	inverse := ot.Invert(op, ot.Deleted(r.content, op))
	r.undo = &inverse
	r.content = content

	// Queued operations that are not in flight can be coalesced.
	if n := len(r.pending); n >= 2 || (n == 1 && r.inFlight == nil) {
		if merged, ok := ot.ComposePair(r.pending[n-1], op); ok {
			r.pending[n-1] = merged
			return r.flush(), nil
		}
	}
	r.pending = append(r.pending, op)

	return r.flush(), nil
}

// Undo reverts the latest local edit, rebased over everything received since.
// An undo is not itself undoable.
func (r *Replica) Undo() (*document.VersionedOperation, error) {
	if r.undo == nil || r.undo.IsNoop() {
		return nil, ErrNothingToUndo
	}

	v, err := r.Edit(*r.undo)
	if err != nil {
		return nil, err
	}
	r.undo = nil
	return v, nil
}

// Receive applies an operation committed by the server. When it acknowledges
// the operation in flight, Receive returns the next operation to send.
// Duplicates of operations already applied are ignored.
func (r *Replica) Receive(c document.CommittedOperation) (*document.VersionedOperation, error) {
	if c.Version <= r.knownVersion {
		return nil, nil
	}
	if c.Version > r.knownVersion+1 {
		return nil, fmt.Errorf("receive v%d at v%d: %w", c.Version, r.knownVersion, ErrVersionGap)
	}

	serverContent, err := ot.Apply(r.serverContent, c.Operation)
	if err != nil {
		return nil, fmt.Errorf("receive v%d: %s: %w", c.Version, err, ErrResyncRequired)
	}

	if r.isAck(c) {
		return r.acknowledge(c, serverContent)
	}

	incoming := c.Operation
	for i, p := range r.pending {
		r.pending[i] = ot.Transform(p, incoming, ot.TieOf(r.clientID, c.OriginClientID))
		incoming = ot.Transform(incoming, p, ot.TieOf(c.OriginClientID, r.clientID))
	}

	content, err := ot.Apply(r.content, incoming)
	if err != nil {
		return nil, fmt.Errorf("receive v%d: %s: %w", c.Version, err, ErrResyncRequired)
	}
	if r.undo != nil {
		undo := ot.Transform(*r.undo, incoming, ot.TieOf(r.clientID, c.OriginClientID))
		r.undo = &undo
	}

	r.content = content
	r.serverContent = serverContent
	r.knownVersion = c.Version
	return nil, nil
}

// Resync discards every pending operation and replaces the replica state with
// the given snapshot.
func (r *Replica) Resync(snapshot document.Snapshot) {
	r.content = snapshot.Content
	r.serverContent = snapshot.Content
	r.knownVersion = snapshot.Version
	r.pending = nil
	r.inFlight = nil
	r.undo = nil
}

func (r *Replica) isAck(c document.CommittedOperation) bool {
	return r.inFlight != nil &&
		c.OriginClientID == r.clientID &&
		c.ClientSeq == r.inFlight.ClientSeq
}

func (r *Replica) acknowledge(
	c document.CommittedOperation,
	serverContent string,
) (*document.VersionedOperation, error) {
	head := r.pending[0]
	r.pending = r.pending[1:]
	r.inFlight = nil
	r.serverContent = serverContent
	r.knownVersion = c.Version

	// The server's rebase matches ours unless it clamped the operation, so
	// the local content is already right. Otherwise rebuild it.
	if head != c.Operation {
		content := serverContent
		for _, p := range r.pending {
			var err error
			if content, err = ot.Apply(content, p); err != nil {
				return nil, fmt.Errorf("replay after v%d: %s: %w", c.Version, err, ErrResyncRequired)
			}
		}
		r.content = content
	}

	return r.flush(), nil
}

// flush sends the head of the pending queue when nothing is in flight.
func (r *Replica) flush() *document.VersionedOperation {
	if r.inFlight != nil {
		return nil
	}

	// Operations that became no-ops have no effect to send.
	for len(r.pending) > 0 && r.pending[0].IsNoop() {
		r.pending = r.pending[1:]
	}
	if len(r.pending) == 0 {
		return nil
	}

	r.lastSeq++
	r.inFlight = &document.VersionedOperation{
		DocumentID:  r.documentID,
		ClientID:    r.clientID,
		ClientSeq:   r.lastSeq,
		BaseVersion: r.knownVersion,
		Operation:   r.pending[0],
	}
	return r.InFlight()
}
