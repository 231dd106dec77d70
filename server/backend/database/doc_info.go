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
)

// DocInfo is a structure representing information of the document.
type DocInfo struct {
	// ID is the unique ID of the document, as given by clients.
	ID string `bson:"_id"`

	// Version is the version of the last operation committed to the document.
	Version int64 `bson:"version"`

	// CreatedAt is the time when the document is created.
	CreatedAt time.Time `bson:"created_at"`

	// UpdatedAt is the time when the last operation is committed.
	UpdatedAt time.Time `bson:"updated_at"`
}

// DeepCopy returns a deep copy of the DocInfo.
func (info *DocInfo) DeepCopy() *DocInfo {
	if info == nil {
		return nil
	}

	clone := *info
	return &clone
}
