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

// Package document provides the plain-text document model shared by the
// Scribe server and its clients.
package document

import (
	"fmt"

	"github.com/scribe-team/scribe/pkg/errors"
	"github.com/scribe-team/scribe/pkg/ot"
)

// InitialVersion is the version of a document no operation has been committed
// to. Its content is empty.
const InitialVersion int64 = 0

var (
	// ErrVersionGap is returned when an operation does not directly follow the
	// version of the document it is applied to.
	ErrVersionGap = errors.FailedPrecond("operation version does not follow document version").WithCode("ErrVersionGap")
)

// Document is a plain-text document at a version. It is mutated only by
// applying committed operations in version order.
type Document struct {
	id      string
	content string
	version int64
}

// New creates a new instance of an empty Document.
func New(id string) *Document {
	return &Document{id: id, version: InitialVersion}
}

// FromSnapshot creates a Document from the given snapshot.
func FromSnapshot(snapshot Snapshot) *Document {
	return &Document{
		id:      snapshot.DocumentID,
		content: snapshot.Content,
		version: snapshot.Version,
	}
}

// ID returns the ID of this document.
func (d *Document) ID() string {
	return d.id
}

// Content returns the current text of this document.
func (d *Document) Content() string {
	return d.content
}

// Version returns the version of the last operation applied to this document.
func (d *Document) Version() int64 {
	return d.version
}

// Apply applies the committed operation to this document. The operation must
// carry the version right after the current one.
func (d *Document) Apply(op CommittedOperation) error {
	if op.Version != d.version+1 {
		return fmt.Errorf("apply v%d to %s@v%d: %w", op.Version, d.id, d.version, ErrVersionGap)
	}

	content, err := ot.Apply(d.content, op.Operation)
	if err != nil {
		return fmt.Errorf("apply v%d to %s: %w", op.Version, d.id, err)
	}

	d.content = content
	d.version = op.Version
	return nil
}

// Snapshot returns the snapshot of this document.
func (d *Document) Snapshot() Snapshot {
	return Snapshot{
		DocumentID: d.id,
		Version:    d.version,
		Content:    d.content,
	}
}

// DeepCopy returns a copy of this document.
func (d *Document) DeepCopy() *Document {
	clone := *d
	return &clone
}

// Replay rebuilds a document from a snapshot and the operations committed
// after it, in version order.
func Replay(snapshot Snapshot, ops []CommittedOperation) (*Document, error) {
	doc := FromSnapshot(snapshot)
	for _, op := range ops {
		if op.Version <= doc.version {
			continue
		}
		if err := doc.Apply(op); err != nil {
			return nil, err
		}
	}
	return doc, nil
}
