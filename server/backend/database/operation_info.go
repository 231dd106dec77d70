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

package database

import (
	"time"

	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/ot"
)

// OperationInfo is a structure representing information of a committed
// operation.
type OperationInfo struct {
	// ID is the unique ID of the record.
	ID string `bson:"_id"`

	// DocID is the ID of the document the operation belongs to.
	DocID string `bson:"doc_id"`

	// Version is the version the operation produced.
	Version int64 `bson:"version"`

	// ClientID is the ID of the client that produced the operation.
	ClientID string `bson:"client_id"`

	// ClientSeq is the sequence of the operation among the operations of its
	// client.
	ClientSeq uint32 `bson:"client_seq"`

	Kind     string `bson:"kind"`
	Position int    `bson:"position"`
	Text     string `bson:"text"`
	Length   int    `bson:"length"`

	// AppliedAt is the time when the operation is committed.
	AppliedAt time.Time `bson:"applied_at"`
}

// NewOperationInfo creates the record of the given committed operation.
func NewOperationInfo(c document.CommittedOperation) *OperationInfo {
	return &OperationInfo{
		DocID:     c.DocumentID,
		Version:   c.Version,
		ClientID:  c.OriginClientID,
		ClientSeq: c.ClientSeq,
		Kind:      string(c.Operation.Kind),
		Position:  c.Operation.Position,
		Text:      c.Operation.Text,
		Length:    c.Operation.Length,
		AppliedAt: c.AppliedAt,
	}
}

// ToCommitted converts the record to a committed operation.
func (i *OperationInfo) ToCommitted() document.CommittedOperation {
	return document.CommittedOperation{
		DocumentID:     i.DocID,
		Version:        i.Version,
		OriginClientID: i.ClientID,
		ClientSeq:      i.ClientSeq,
		Operation: ot.Operation{
			Kind:     ot.Kind(i.Kind),
			Position: i.Position,
			Text:     i.Text,
			Length:   i.Length,
		},
		AppliedAt: i.AppliedAt,
	}
}

// DeepCopy returns a deep copy of the OperationInfo.
func (i *OperationInfo) DeepCopy() *OperationInfo {
	if i == nil {
		return nil
	}

	clone := *i
	return &clone
}
