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

// Package types provides the types shared by the server and the clients of
// the API.
package types

import (
	"time"
)

// DocumentSummary represents a summary of a stored document.
type DocumentSummary struct {
	// ID is the unique ID of the document.
	ID string `json:"id"`

	// Version is the version of the last operation committed to the document.
	Version int64 `json:"version"`

	// AttachedClients is the count of clients attached to the document on
	// the server that answered.
	AttachedClients int `json:"attachedClients"`

	// CreatedAt is the time when the document is created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the time when the last operation is committed.
	UpdatedAt time.Time `json:"updatedAt"`
}
