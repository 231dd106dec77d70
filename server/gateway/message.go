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
	"github.com/scribe-team/scribe/api/types/events"
	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/ot"
)

// MessageType is the type of a frame exchanged over a connection.
type MessageType string

// Frames sent by clients.
const (
	// TypeOperation carries an operation of the client.
	TypeOperation MessageType = "operation"

	// TypeCursorPosition carries the cursor of the client.
	TypeCursorPosition MessageType = "cursor_position"

	// TypePing asks the gateway for a TypePong.
	TypePing MessageType = "ping"
)

// Frames sent by the gateway.
const (
	// TypeDocumentState carries the snapshot and the peers on connection.
	TypeDocumentState MessageType = "document_state"

	// TypeOperationAck acknowledges an operation with its version.
	TypeOperationAck MessageType = "operation_ack"

	// TypeEvent carries an event of the document.
	TypeEvent MessageType = "event"

	// TypeError reports a request that failed.
	TypeError MessageType = "error"

	// TypePong answers a TypePing.
	TypePong MessageType = "pong"
)

// Message is a JSON frame of the gateway protocol. Only the fields of its
// type are set.
type Message struct {
	Type MessageType `json:"type"`

	// ClientSeq and BaseVersion describe an operation frame.
	ClientSeq   uint32        `json:"clientSeq,omitempty"`
	BaseVersion int64         `json:"baseVersion,omitempty"`
	Operation   *ot.Operation `json:"operation,omitempty"`

	CursorPosition int `json:"cursorPosition,omitempty"`
	SelectionEnd   int `json:"selectionEnd,omitempty"`

	Snapshot *document.Snapshot `json:"snapshot,omitempty"`
	Peers    []string           `json:"peers,omitempty"`
	Version  int64              `json:"version,omitempty"`
	Event    *events.DocEvent   `json:"event,omitempty"`

	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
