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

// Package database provides the database interface for the Scribe backend.
package database

import (
	"context"

	"github.com/scribe-team/scribe/api/types"
	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/errors"
)

var (
	// ErrDocumentNotFound is returned when the document could not be found.
	ErrDocumentNotFound = types.ErrDocumentNotFound

	// ErrVersionConflict is returned when an operation is stored with a
	// version other than the one right after the latest stored version,
	// typically because another writer stored it first.
	ErrVersionConflict = errors.Aborted("version conflict").WithCode("ErrVersionConflict")
)

// Database represents database which reads or saves Scribe data.
type Database interface {
	// Close all resources of this database.
	Close() error

	// FindOrCreateDocInfo finds the document or creates it at the initial
	// version if it does not exist.
	FindOrCreateDocInfo(ctx context.Context, docID string) (*DocInfo, error)

	// FindDocInfo finds the document of the given ID.
	FindDocInfo(ctx context.Context, docID string) (*DocInfo, error)

	// FindDocInfosByPaging returns documents ordered by ID, starting after
	// the given offset.
	FindDocInfosByPaging(ctx context.Context, paging Paging) ([]*DocInfo, error)

	// CreateOperationInfo stores the committed operation and advances the
	// version of its document. It returns ErrVersionConflict unless the
	// operation's version directly follows the document's version.
	CreateOperationInfo(ctx context.Context, info *OperationInfo) (*DocInfo, error)

	// FindOperationInfosBetweenVersions returns the operations of the document
	// with versions in [from, to], in ascending order.
	FindOperationInfosBetweenVersions(
		ctx context.Context,
		docID string,
		from int64,
		to int64,
	) ([]*OperationInfo, error)

	// CreateSnapshotInfo stores the snapshot of a document.
	CreateSnapshotInfo(ctx context.Context, snapshot document.Snapshot) error

	// FindClosestSnapshotInfo returns the latest snapshot of the document
	// whose version is at most the given one. It returns an empty snapshot at
	// the initial version if there is none.
	FindClosestSnapshotInfo(ctx context.Context, docID string, version int64) (*SnapshotInfo, error)
}

// Paging is the paging information of a listing.
type Paging struct {
	// Offset is the ID of the last document of the previous page.
	Offset string

	// PageSize is the maximum number of documents to return.
	PageSize int
}

// LoadDocument rebuilds the document of the given ID from its latest snapshot
// and the operations stored after it. It also returns the operations it
// replayed.
func LoadDocument(
	ctx context.Context,
	db Database,
	docID string,
) (*document.Document, []*OperationInfo, error) {
	docInfo, err := db.FindOrCreateDocInfo(ctx, docID)
	if err != nil {
		return nil, nil, err
	}

	snapshotInfo, err := db.FindClosestSnapshotInfo(ctx, docID, docInfo.Version)
	if err != nil {
		return nil, nil, err
	}

	infos, err := db.FindOperationInfosBetweenVersions(ctx, docID, snapshotInfo.Version+1, docInfo.Version)
	if err != nil {
		return nil, nil, err
	}

	ops := make([]document.CommittedOperation, 0, len(infos))
	for _, info := range infos {
		ops = append(ops, info.ToCommitted())
	}

	doc, err := document.Replay(snapshotInfo.ToSnapshot(), ops)
	if err != nil {
		return nil, nil, err
	}

	return doc, infos, nil
}
