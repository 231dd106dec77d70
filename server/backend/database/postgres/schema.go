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

package postgres

// schema creates the tables Scribe stores its data in.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	version    BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS operations (
	id         TEXT PRIMARY KEY,
	doc_id     TEXT NOT NULL REFERENCES documents (id),
	version    BIGINT NOT NULL,
	client_id  TEXT NOT NULL,
	client_seq BIGINT NOT NULL,
	kind       TEXT NOT NULL,
	position   INTEGER NOT NULL,
	text       TEXT NOT NULL DEFAULT '',
	length     INTEGER NOT NULL DEFAULT 0,
	applied_at TIMESTAMPTZ NOT NULL,
	UNIQUE (doc_id, version)
);

CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	doc_id     TEXT NOT NULL,
	version    BIGINT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (doc_id, version)
);
`
