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

package document

import (
	"time"

	"github.com/scribe-team/scribe/pkg/ot"
)

// VersionedOperation is an operation produced by a client against the version
// of the document it knows.
type VersionedOperation struct {
	DocumentID  string       `json:"documentId" validate:"required,resource_id,max=120"`
	ClientID    string       `json:"clientId" validate:"required,resource_id,max=120"`
	ClientSeq   uint32       `json:"clientSeq" validate:"gt=0"`
	BaseVersion int64        `json:"baseVersion" validate:"gte=0"`
	Operation   ot.Operation `json:"operation"`
}

// CommittedOperation is an operation the server has rebased, assigned a
// version and appended to the history of a document. It is immutable once
// appended.
type CommittedOperation struct {
	DocumentID     string       `json:"documentId" bson:"doc_id"`
	Version        int64        `json:"version" bson:"version"`
	OriginClientID string       `json:"originClientId" bson:"origin_client_id"`
	ClientSeq      uint32       `json:"clientSeq" bson:"client_seq"`
	Operation      ot.Operation `json:"operation" bson:"operation"`
	AppliedAt      time.Time    `json:"appliedAt" bson:"applied_at"`
}

// Snapshot is the full content of a document at a version. It is what a
// client receives when it has to resynchronize.
type Snapshot struct {
	DocumentID string `json:"documentId" bson:"doc_id"`
	Version    int64  `json:"version" bson:"version"`
	Content    string `json:"content" bson:"content"`
}

// Presence is the cursor and selection of a client in a document. It is
// relayed to peers as is and never transformed.
type Presence struct {
	ClientID       string `json:"clientId" validate:"required,resource_id,max=120"`
	CursorPosition int    `json:"cursorPosition" validate:"gte=0"`
	SelectionEnd   int    `json:"selectionEnd,omitempty" validate:"gte=0"`
}
