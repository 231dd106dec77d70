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
)

// SnapshotInfo is a structure representing information of the snapshot.
type SnapshotInfo struct {
	// ID is the unique ID of the snapshot.
	ID string `bson:"_id"`

	// DocID is the ID of the document which the snapshot belongs to.
	DocID string `bson:"doc_id"`

	// Version is the version of the document the snapshot was taken at.
	Version int64 `bson:"version"`

	// Content is the content of the document at Version.
	Content string `bson:"content"`

	// CreatedAt is the time when the snapshot is created.
	CreatedAt time.Time `bson:"created_at"`
}

// DeepCopy returns a deep copy of the SnapshotInfo.
func (i *SnapshotInfo) DeepCopy() *SnapshotInfo {
	if i == nil {
		return nil
	}

	clone := *i
	return &clone
}

// ToSnapshot converts the record to a document snapshot.
func (i *SnapshotInfo) ToSnapshot() document.Snapshot {
	return document.Snapshot{
		DocumentID: i.DocID,
		Version:    i.Version,
		Content:    i.Content,
	}
}
