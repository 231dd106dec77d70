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

// Package events defines the events that occur in a document and are
// delivered to the clients watching it.
package events

import (
	"github.com/scribe-team/scribe/pkg/document"
)

// DocEventType represents the type of the DocEvent.
type DocEventType string

const (
	// DocOperationEvent is an event indicating that an operation has been
	// committed to the document. It is delivered to every watcher, the
	// origin client included, which treats it as the acknowledgement.
	DocOperationEvent DocEventType = "operation"

	// DocResyncEvent is an event that asks a client to discard its pending
	// operations and replace its content with the attached snapshot.
	DocResyncEvent DocEventType = "resync"

	// DocPeerJoinedEvent occurs when another client attaches the document.
	DocPeerJoinedEvent DocEventType = "peer-joined"

	// DocPeerLeftEvent occurs when another client detaches the document.
	DocPeerLeftEvent DocEventType = "peer-left"

	// DocPresenceEvent occurs when another client moves its cursor.
	DocPresenceEvent DocEventType = "presence"
)

// Valid returns whether the type is one of the known types.
func (t DocEventType) Valid() bool {
	switch t {
	case DocOperationEvent, DocResyncEvent, DocPeerJoinedEvent,
		DocPeerLeftEvent, DocPresenceEvent:
		return true
	default:
		return false
	}
}

// SkipsPublisher returns whether the event is hidden from the client that
// published it.
func (t DocEventType) SkipsPublisher() bool {
	switch t {
	case DocPeerJoinedEvent, DocPeerLeftEvent, DocPresenceEvent:
		return true
	default:
		return false
	}
}

// DocEvent represents an event that occurs in the document.
type DocEvent struct {
	// Type is the type of the event.
	Type DocEventType `json:"type"`

	// DocumentID is the id of the document that the event occurred.
	DocumentID string `json:"documentId"`

	// Publisher is the client who caused the event.
	Publisher string `json:"publisher,omitempty"`

	// Operation is set on operation events.
	Operation *document.CommittedOperation `json:"operation,omitempty"`

	// Snapshot is set on resync events.
	Snapshot *document.Snapshot `json:"snapshot,omitempty"`

	// Presence is set on presence events.
	Presence *document.Presence `json:"presence,omitempty"`
}

// NewOperationEvent creates an event for the given committed operation.
func NewOperationEvent(op document.CommittedOperation) DocEvent {
	return DocEvent{
		Type:       DocOperationEvent,
		DocumentID: op.DocumentID,
		Publisher:  op.OriginClientID,
		Operation:  &op,
	}
}

// NewResyncEvent creates an event carrying the snapshot a client must
// resynchronize to.
func NewResyncEvent(snapshot document.Snapshot) DocEvent {
	return DocEvent{
		Type:       DocResyncEvent,
		DocumentID: snapshot.DocumentID,
		Snapshot:   &snapshot,
	}
}
