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

// Package api defines the messages and the gRPC service of Scribe. Messages
// are carried as JSON; see Codec.
package api

import (
	"github.com/scribe-team/scribe/api/types"
	"github.com/scribe-team/scribe/api/types/events"
	"github.com/scribe-team/scribe/pkg/document"
)

// AttachDocumentRequest registers a client on a document.
type AttachDocumentRequest struct {
	ClientID   string `json:"clientId"`
	DocumentID string `json:"documentId"`
}

// AttachDocumentResponse carries the state the client starts from.
type AttachDocumentResponse struct {
	Snapshot document.Snapshot `json:"snapshot"`
	Peers    []string          `json:"peers,omitempty"`
}

// DetachDocumentRequest removes a client from a document.
type DetachDocumentRequest struct {
	ClientID   string `json:"clientId"`
	DocumentID string `json:"documentId"`
}

// DetachDocumentResponse is empty.
type DetachDocumentResponse struct{}

// PushOperationRequest carries one operation of a client.
type PushOperationRequest struct {
	Operation document.VersionedOperation `json:"operation"`
}

// PushOperationResponse carries the operation as committed. It is also
// delivered to the watchers of the document.
type PushOperationResponse struct {
	Operation document.CommittedOperation `json:"operation"`
}

// GetSnapshotRequest asks for the current state of a document.
type GetSnapshotRequest struct {
	DocumentID string `json:"documentId"`
}

// GetSnapshotResponse carries the current state of a document.
type GetSnapshotResponse struct {
	Snapshot document.Snapshot `json:"snapshot"`
}

// ListOperationsRequest asks for the operations committed after a version.
type ListOperationsRequest struct {
	DocumentID   string `json:"documentId"`
	SinceVersion int64  `json:"sinceVersion"`
	Limit        int    `json:"limit,omitempty"`
}

// ListOperationsResponse carries committed operations in version order.
type ListOperationsResponse struct {
	Operations []document.CommittedOperation `json:"operations"`
}

// UpdatePresenceRequest carries the cursor of a client.
type UpdatePresenceRequest struct {
	DocumentID string            `json:"documentId"`
	Presence   document.Presence `json:"presence"`
}

// UpdatePresenceResponse is empty.
type UpdatePresenceResponse struct{}

// ListDocumentsRequest asks for a page of stored documents.
type ListDocumentsRequest struct {
	Offset   string `json:"offset,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
}

// ListDocumentsResponse carries a page of stored documents.
type ListDocumentsResponse struct {
	Documents []types.DocumentSummary `json:"documents"`
}

// WatchDocumentRequest opens the event stream of a document. Operations
// committed after SinceVersion are sent first.
type WatchDocumentRequest struct {
	ClientID     string `json:"clientId"`
	DocumentID   string `json:"documentId"`
	SinceVersion int64  `json:"sinceVersion"`
}

// WatchDocumentResponse carries one event of a document.
type WatchDocumentResponse struct {
	Event events.DocEvent `json:"event"`
}

// GetDocumentID returns the document of the request.
func (r *AttachDocumentRequest) GetDocumentID() string { return r.DocumentID }

// GetDocumentID returns the document of the request.
func (r *DetachDocumentRequest) GetDocumentID() string { return r.DocumentID }

// GetDocumentID returns the document of the operation.
func (r *PushOperationRequest) GetDocumentID() string { return r.Operation.DocumentID }

// GetDocumentID returns the document of the request.
func (r *GetSnapshotRequest) GetDocumentID() string { return r.DocumentID }

// GetDocumentID returns the document of the request.
func (r *ListOperationsRequest) GetDocumentID() string { return r.DocumentID }

// GetDocumentID returns the document of the request.
func (r *UpdatePresenceRequest) GetDocumentID() string { return r.DocumentID }

// GetDocumentID returns the document of the request.
func (r *WatchDocumentRequest) GetDocumentID() string { return r.DocumentID }
