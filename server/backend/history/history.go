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

// Package history provides the append-only operation log of a document.
package history

import (
	"context"
	"fmt"

	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/server/backend/database"
)

// DefaultTailSize is the number of recent operations a Log keeps in memory.
const DefaultTailSize = 1000

// ErrVersionConflict is returned by Append when the operation does not
// directly follow the current version, or another writer stored it first.
var ErrVersionConflict = database.ErrVersionConflict

// Log is the version-ordered history of the operations committed to a
// document, backed by the database. Recent operations are served from memory.
//
// Log is not safe for concurrent use; callers serialize access per document.
type Log struct {
	docID    string
	db       database.Database
	version  int64
	tail     []document.CommittedOperation
	tailSize int
}

// New creates a Log of the given document at the given version. recent holds
// the latest committed operations, if any are known, ending at version.
func New(
	db database.Database,
	docID string,
	version int64,
	recent []document.CommittedOperation,
	tailSize int,
) *Log {
	if tailSize <= 0 {
		tailSize = DefaultTailSize
	}

	l := &Log{
		docID:    docID,
		db:       db,
		version:  version,
		tailSize: tailSize,
	}
	if len(recent) > 0 && recent[len(recent)-1].Version == version {
		l.push(recent...)
	}
	return l
}

// DocumentID returns the ID of the document of this log.
func (l *Log) DocumentID() string {
	return l.docID
}

// CurrentVersion returns the version of the latest committed operation.
func (l *Log) CurrentVersion() int64 {
	return l.version
}

// Append stores the committed operation. Its version must be the one right
// after CurrentVersion.
func (l *Log) Append(ctx context.Context, op document.CommittedOperation) error {
	if op.Version != l.version+1 {
		return fmt.Errorf("append v%d to %s@v%d: %w", op.Version, l.docID, l.version, ErrVersionConflict)
	}

	if _, err := l.db.CreateOperationInfo(ctx, database.NewOperationInfo(op)); err != nil {
		return fmt.Errorf("append v%d to %s: %w", op.Version, l.docID, err)
	}

	l.version = op.Version
	l.push(op)
	return nil
}

// Since returns the operations committed after the given version, in
// ascending version order.
func (l *Log) Since(ctx context.Context, version int64) ([]document.CommittedOperation, error) {
	if version >= l.version {
		return nil, nil
	}

	if len(l.tail) > 0 && l.tail[0].Version <= version+1 {
		start := int(version + 1 - l.tail[0].Version)
		ops := make([]document.CommittedOperation, len(l.tail)-start)
		copy(ops, l.tail[start:])
		return ops, nil
	}

	infos, err := l.db.FindOperationInfosBetweenVersions(ctx, l.docID, version+1, l.version)
	if err != nil {
		return nil, fmt.Errorf("operations of %s since v%d: %w", l.docID, version, err)
	}

	ops := make([]document.CommittedOperation, 0, len(infos))
	for _, info := range infos {
		ops = append(ops, info.ToCommitted())
	}
	if int64(len(ops)) != l.version-version {
		return nil, fmt.Errorf("operations of %s since v%d: %w", l.docID, version, document.ErrVersionGap)
	}
	return ops, nil
}

// Refresh loads the operations another writer stored after CurrentVersion and
// returns them.
func (l *Log) Refresh(ctx context.Context) ([]document.CommittedOperation, error) {
	docInfo, err := l.db.FindDocInfo(ctx, l.docID)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", l.docID, err)
	}
	if docInfo.Version <= l.version {
		return nil, nil
	}

	infos, err := l.db.FindOperationInfosBetweenVersions(ctx, l.docID, l.version+1, docInfo.Version)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", l.docID, err)
	}

	// The log only moves once the whole range is contiguous.
	ops := make([]document.CommittedOperation, 0, len(infos))
	next := l.version + 1
	for _, info := range infos {
		op := info.ToCommitted()
		if op.Version != next {
			return nil, fmt.Errorf("refresh %s at v%d: %w", l.docID, op.Version, document.ErrVersionGap)
		}
		ops = append(ops, op)
		next++
	}

	if len(ops) > 0 {
		l.version = ops[len(ops)-1].Version
		l.push(ops...)
	}
	return ops, nil
}

func (l *Log) push(ops ...document.CommittedOperation) {
	l.tail = append(l.tail, ops...)
	if over := len(l.tail) - l.tailSize; over > 0 {
		l.tail = append(l.tail[:0:0], l.tail[over:]...)
	}
}
