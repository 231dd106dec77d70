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

// Package testcases contains testcases for database. It is used by database
// implementations to test their own implementations with the same testcases.
package testcases

import (
	"context"
	"fmt"
	"sync"
	"testing"
	gotime "time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/ot"
	"github.com/scribe-team/scribe/server/backend/database"
)

// docIDOf returns a document ID unique to the running test.
func docIDOf(t *testing.T) string {
	return fmt.Sprintf("%s-%d", t.Name(), gotime.Now().UnixNano())
}

func operationInfo(docID string, version int64, op ot.Operation) *database.OperationInfo {
	return database.NewOperationInfo(document.CommittedOperation{
		DocumentID:     docID,
		Version:        version,
		OriginClientID: "client",
		ClientSeq:      uint32(version),
		Operation:      op,
		AppliedAt:      gotime.Now(),
	})
}

// RunFindOrCreateDocInfoTest runs the FindOrCreateDocInfo test for the given db.
func RunFindOrCreateDocInfoTest(t *testing.T, db database.Database) {
	t.Run("find or create docInfo test", func(t *testing.T) {
		ctx := context.Background()
		docID := docIDOf(t)

		_, err := db.FindDocInfo(ctx, docID)
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)

		created, err := db.FindOrCreateDocInfo(ctx, docID)
		assert.NoError(t, err)
		assert.Equal(t, docID, created.ID)
		assert.Equal(t, document.InitialVersion, created.Version)

		found, err := db.FindOrCreateDocInfo(ctx, docID)
		assert.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)

		found, err = db.FindDocInfo(ctx, docID)
		assert.NoError(t, err)
		assert.Equal(t, docID, found.ID)
	})
}

// RunFindDocInfosByPagingTest runs the FindDocInfosByPaging test for the given db.
func RunFindDocInfosByPagingTest(t *testing.T, db database.Database) {
	t.Run("paging test", func(t *testing.T) {
		ctx := context.Background()
		prefix := fmt.Sprintf("paging-%d-", gotime.Now().UnixNano())

		for i := 0; i < 10; i++ {
			_, err := db.FindOrCreateDocInfo(ctx, fmt.Sprintf("%s%02d", prefix, i))
			require.NoError(t, err)
		}

		page, err := db.FindDocInfosByPaging(ctx, database.Paging{Offset: prefix, PageSize: 4})
		require.NoError(t, err)
		require.Len(t, page, 4)
		assert.Equal(t, prefix+"00", page[0].ID)
		assert.Equal(t, prefix+"03", page[3].ID)

		page, err = db.FindDocInfosByPaging(ctx, database.Paging{Offset: page[3].ID, PageSize: 4})
		require.NoError(t, err)
		require.Len(t, page, 4)
		assert.Equal(t, prefix+"04", page[0].ID)
	})
}

// RunCreateOperationInfoTest runs the CreateOperationInfo test for the given db.
func RunCreateOperationInfoTest(t *testing.T, db database.Database) {
	t.Run("contiguous versions test", func(t *testing.T) {
		ctx := context.Background()
		docID := docIDOf(t)
		_, err := db.FindOrCreateDocInfo(ctx, docID)
		require.NoError(t, err)

		docInfo, err := db.CreateOperationInfo(ctx, operationInfo(docID, 1, ot.NewInsert(0, "a")))
		assert.NoError(t, err)
		assert.Equal(t, int64(1), docInfo.Version)

		_, err = db.CreateOperationInfo(ctx, operationInfo(docID, 1, ot.NewInsert(0, "b")))
		assert.ErrorIs(t, err, database.ErrVersionConflict)

		_, err = db.CreateOperationInfo(ctx, operationInfo(docID, 3, ot.NewInsert(0, "b")))
		assert.ErrorIs(t, err, database.ErrVersionConflict)

		docInfo, err = db.FindDocInfo(ctx, docID)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), docInfo.Version)
	})

	t.Run("unknown document test", func(t *testing.T) {
		_, err := db.CreateOperationInfo(context.Background(), operationInfo(docIDOf(t), 1, ot.NewInsert(0, "a")))
		assert.ErrorIs(t, err, database.ErrDocumentNotFound)
	})

	t.Run("concurrent writers test", func(t *testing.T) {
		ctx := context.Background()
		docID := docIDOf(t)
		_, err := db.FindOrCreateDocInfo(ctx, docID)
		require.NoError(t, err)

		const writers = 8
		var wg sync.WaitGroup
		errs := make([]error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = db.CreateOperationInfo(ctx, operationInfo(docID, 1, ot.NewInsert(0, "x")))
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, database.ErrVersionConflict)
		}
		assert.Equal(t, 1, succeeded)
	})
}

// RunFindOperationInfosBetweenVersionsTest runs the FindOperationInfosBetweenVersions
// test for the given db.
func RunFindOperationInfosBetweenVersionsTest(t *testing.T, db database.Database) {
	t.Run("range test", func(t *testing.T) {
		ctx := context.Background()
		docID := docIDOf(t)
		_, err := db.FindOrCreateDocInfo(ctx, docID)
		require.NoError(t, err)

		for v := int64(1); v <= 10; v++ {
			_, err := db.CreateOperationInfo(ctx, operationInfo(docID, v, ot.NewInsert(0, "x")))
			require.NoError(t, err)
		}

		infos, err := db.FindOperationInfosBetweenVersions(ctx, docID, 4, 7)
		assert.NoError(t, err)
		require.Len(t, infos, 4)
		for i, info := range infos {
			assert.Equal(t, int64(4+i), info.Version)
			assert.Equal(t, docID, info.DocID)
			assert.Equal(t, ot.NewInsert(0, "x"), info.ToCommitted().Operation)
		}

		infos, err = db.FindOperationInfosBetweenVersions(ctx, docID, 9, 20)
		assert.NoError(t, err)
		assert.Len(t, infos, 2)

		infos, err = db.FindOperationInfosBetweenVersions(ctx, docID, 8, 7)
		assert.NoError(t, err)
		assert.Empty(t, infos)
	})
}

// RunFindClosestSnapshotInfoTest runs the FindClosestSnapshotInfo test for the given db.
func RunFindClosestSnapshotInfoTest(t *testing.T, db database.Database) {
	t.Run("closest snapshot test", func(t *testing.T) {
		ctx := context.Background()
		docID := docIDOf(t)

		info, err := db.FindClosestSnapshotInfo(ctx, docID, 100)
		assert.NoError(t, err)
		assert.Equal(t, document.InitialVersion, info.Version)
		assert.Equal(t, "", info.Content)

		for _, v := range []int64{10, 20, 30} {
			assert.NoError(t, db.CreateSnapshotInfo(ctx, document.Snapshot{
				DocumentID: docID,
				Version:    v,
				Content:    fmt.Sprintf("content@%d", v),
			}))
		}

		info, err = db.FindClosestSnapshotInfo(ctx, docID, 25)
		assert.NoError(t, err)
		assert.Equal(t, int64(20), info.Version)
		assert.Equal(t, "content@20", info.Content)

		info, err = db.FindClosestSnapshotInfo(ctx, docID, 30)
		assert.NoError(t, err)
		assert.Equal(t, int64(30), info.Version)

		info, err = db.FindClosestSnapshotInfo(ctx, docID, 5)
		assert.NoError(t, err)
		assert.Equal(t, document.InitialVersion, info.Version)
	})
}

// RunLoadDocumentTest runs the LoadDocument test for the given db.
func RunLoadDocumentTest(t *testing.T, db database.Database) {
	t.Run("snapshot and replay test", func(t *testing.T) {
		ctx := context.Background()
		docID := docIDOf(t)
		_, err := db.FindOrCreateDocInfo(ctx, docID)
		require.NoError(t, err)

		doc := document.New(docID)
		ops := []ot.Operation{
			ot.NewInsert(0, "hello"),
			ot.NewInsert(5, " world"),
			ot.NewDelete(0, 1),
			ot.NewInsert(0, "H"),
		}
		for i, op := range ops {
			info := operationInfo(docID, int64(i+1), op)
			_, err := db.CreateOperationInfo(ctx, info)
			require.NoError(t, err)
			require.NoError(t, doc.Apply(info.ToCommitted()))

			if i == 1 {
				require.NoError(t, db.CreateSnapshotInfo(ctx, doc.Snapshot()))
			}
		}

		loaded, infos, err := database.LoadDocument(ctx, db, docID)
		assert.NoError(t, err)
		assert.Equal(t, "Hello world", loaded.Content())
		assert.Equal(t, int64(4), loaded.Version())
		assert.Len(t, infos, 2)
	})

	t.Run("new document test", func(t *testing.T) {
		loaded, infos, err := database.LoadDocument(context.Background(), db, docIDOf(t))
		assert.NoError(t, err)
		assert.Equal(t, "", loaded.Content())
		assert.Equal(t, document.InitialVersion, loaded.Version())
		assert.Empty(t, infos)
	})
}
