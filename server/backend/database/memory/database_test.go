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

package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scribe-team/scribe/server/backend/database/memory"
	"github.com/scribe-team/scribe/server/backend/database/testcases"
)

func TestDB(t *testing.T) {
	db, err := memory.New()
	assert.NoError(t, err)

	t.Run("FindOrCreateDocInfo test", func(t *testing.T) {
		testcases.RunFindOrCreateDocInfoTest(t, db)
	})

	t.Run("FindDocInfosByPaging test", func(t *testing.T) {
		testcases.RunFindDocInfosByPagingTest(t, db)
	})

	t.Run("CreateOperationInfo test", func(t *testing.T) {
		testcases.RunCreateOperationInfoTest(t, db)
	})

	t.Run("FindOperationInfosBetweenVersions test", func(t *testing.T) {
		testcases.RunFindOperationInfosBetweenVersionsTest(t, db)
	})

	t.Run("FindClosestSnapshotInfo test", func(t *testing.T) {
		testcases.RunFindClosestSnapshotInfoTest(t, db)
	})

	t.Run("LoadDocument test", func(t *testing.T) {
		testcases.RunLoadDocumentTest(t, db)
	})
}
