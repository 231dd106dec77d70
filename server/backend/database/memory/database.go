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

// Package memory implements the database interface using in-memory database.
package memory

import (
	"context"
	"fmt"
	gotime "time"

	"github.com/hashicorp/go-memdb"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/server/backend/database"
)

// DB is an in-memory database for testing or temporarily.
type DB struct {
	db *memdb.MemDB
}

// New returns a new in-memory database.
func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb: %w", err)
	}

	return &DB{
		db: memDB,
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return nil
}

// FindOrCreateDocInfo finds the document or creates it if it does not exist.
func (d *DB) FindOrCreateDocInfo(_ context.Context, docID string) (*database.DocInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", docID)
	if err != nil {
		return nil, fmt.Errorf("find or create document of %s: %w", docID, err)
	}
	if raw != nil {
		return raw.(*database.DocInfo).DeepCopy(), nil
	}

	now := gotime.Now()
	info := &database.DocInfo{
		ID:        docID,
		Version:   document.InitialVersion,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := txn.Insert(tblDocuments, info); err != nil {
		return nil, fmt.Errorf("find or create document of %s: %w", docID, err)
	}
	txn.Commit()

	return info.DeepCopy(), nil
}

// FindDocInfo finds the document of the given ID.
func (d *DB) FindDocInfo(_ context.Context, docID string) (*database.DocInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", docID)
	if err != nil {
		return nil, fmt.Errorf("find document of %s: %w", docID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", docID, database.ErrDocumentNotFound)
	}

	return raw.(*database.DocInfo).DeepCopy(), nil
}

// FindDocInfosByPaging returns documents ordered by ID.
func (d *DB) FindDocInfosByPaging(
	_ context.Context,
	paging database.Paging,
) ([]*database.DocInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iterator, err := txn.LowerBound(tblDocuments, "id", paging.Offset)
	if err != nil {
		return nil, fmt.Errorf("find documents after %q: %w", paging.Offset, err)
	}

	var infos []*database.DocInfo
	for raw := iterator.Next(); raw != nil; raw = iterator.Next() {
		if paging.PageSize > 0 && len(infos) >= paging.PageSize {
			break
		}

		info := raw.(*database.DocInfo)
		if info.ID == paging.Offset {
			continue
		}
		infos = append(infos, info.DeepCopy())
	}

	return infos, nil
}

// CreateOperationInfo stores the committed operation and advances the version
// of its document.
func (d *DB) CreateOperationInfo(
	_ context.Context,
	info *database.OperationInfo,
) (*database.DocInfo, error) {
	txn := d.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", info.DocID)
	if err != nil {
		return nil, fmt.Errorf("create operation of %s: %w", info.DocID, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("create operation of %s: %w", info.DocID, database.ErrDocumentNotFound)
	}

	docInfo := raw.(*database.DocInfo).DeepCopy()
	if info.Version != docInfo.Version+1 {
		return nil, fmt.Errorf(
			"create v%d of %s@v%d: %w",
			info.Version, info.DocID, docInfo.Version, database.ErrVersionConflict,
		)
	}

	existing, err := txn.First(tblOperations, "doc_id_version", info.DocID, info.Version)
	if err != nil {
		return nil, fmt.Errorf("create operation of %s: %w", info.DocID, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("create v%d of %s: %w", info.Version, info.DocID, database.ErrVersionConflict)
	}

	stored := info.DeepCopy()
	stored.ID = newID()
	if err := txn.Insert(tblOperations, stored); err != nil {
		return nil, fmt.Errorf("create operation of %s: %w", info.DocID, err)
	}

	docInfo.Version = info.Version
	docInfo.UpdatedAt = gotime.Now()
	if err := txn.Insert(tblDocuments, docInfo); err != nil {
		return nil, fmt.Errorf("update document of %s: %w", info.DocID, err)
	}
	txn.Commit()

	info.ID = stored.ID
	return docInfo.DeepCopy(), nil
}

// FindOperationInfosBetweenVersions returns the operations of the document
// with versions in [from, to].
func (d *DB) FindOperationInfosBetweenVersions(
	_ context.Context,
	docID string,
	from int64,
	to int64,
) ([]*database.OperationInfo, error) {
	if from > to {
		return nil, nil
	}

	txn := d.db.Txn(false)
	defer txn.Abort()

	iterator, err := txn.LowerBound(tblOperations, "doc_id_version", docID, from)
	if err != nil {
		return nil, fmt.Errorf("find operations of %s: %w", docID, err)
	}

	var infos []*database.OperationInfo
	for raw := iterator.Next(); raw != nil; raw = iterator.Next() {
		info := raw.(*database.OperationInfo)
		if info.DocID != docID || info.Version > to {
			break
		}
		infos = append(infos, info.DeepCopy())
	}

	return infos, nil
}

// CreateSnapshotInfo stores the snapshot of the given document.
func (d *DB) CreateSnapshotInfo(_ context.Context, snapshot document.Snapshot) error {
	txn := d.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tblSnapshots, "doc_id_version", snapshot.DocumentID, snapshot.Version)
	if err != nil {
		return fmt.Errorf("create snapshot of %s: %w", snapshot.DocumentID, err)
	}
	if existing != nil {
		return nil
	}

	if err := txn.Insert(tblSnapshots, &database.SnapshotInfo{
		ID:        newID(),
		DocID:     snapshot.DocumentID,
		Version:   snapshot.Version,
		Content:   snapshot.Content,
		CreatedAt: gotime.Now(),
	}); err != nil {
		return fmt.Errorf("create snapshot of %s: %w", snapshot.DocumentID, err)
	}
	txn.Commit()
	return nil
}

// FindClosestSnapshotInfo finds the last snapshot of the given document at or
// before the given version.
func (d *DB) FindClosestSnapshotInfo(
	_ context.Context,
	docID string,
	version int64,
) (*database.SnapshotInfo, error) {
	txn := d.db.Txn(false)
	defer txn.Abort()

	iterator, err := txn.LowerBound(tblSnapshots, "doc_id_version", docID, document.InitialVersion)
	if err != nil {
		return nil, fmt.Errorf("find snapshot before %d of %s: %w", version, docID, err)
	}

	snapshotInfo := &database.SnapshotInfo{DocID: docID, Version: document.InitialVersion}
	for raw := iterator.Next(); raw != nil; raw = iterator.Next() {
		info := raw.(*database.SnapshotInfo)
		if info.DocID != docID || info.Version > version {
			break
		}
		snapshotInfo = info.DeepCopy()
	}

	return snapshotInfo, nil
}

func newID() string {
	return bson.NewObjectID().Hex()
}
