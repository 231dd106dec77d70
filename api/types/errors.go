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

package types

import (
	"github.com/scribe-team/scribe/pkg/errors"
)

// Errors shared by the server and its clients. The server sends their codes
// as the reason of a gRPC status so that clients can map them back.
var (
	// ErrMalformedOperation is returned when a pushed operation cannot be
	// applied to the document after it was rebased.
	ErrMalformedOperation = errors.FailedPrecond("operation cannot be applied after transform").WithCode("ErrMalformedOperation")

	// ErrInvalidBaseVersion is returned when a request refers to a version
	// the document has not reached.
	ErrInvalidBaseVersion = errors.InvalidArgument("base version is ahead of the document").WithCode("ErrInvalidBaseVersion")

	// ErrStaleClientSeq is returned when a client pushes a sequence older
	// than the last one committed for it.
	ErrStaleClientSeq = errors.FailedPrecond("client sequence is older than the last committed one").WithCode("ErrStaleClientSeq")

	// ErrDocumentBusy is returned when a push kept losing version races to
	// other writers of the document.
	ErrDocumentBusy = errors.Unavailable("document is busy, retry later").WithCode("ErrDocumentBusy")

	// ErrDocumentNotFound is returned when the document could not be found.
	ErrDocumentNotFound = errors.NotFound("document not found").WithCode("ErrDocumentNotFound")

	// ErrSessionNotFound is returned when the client is not attached to the
	// document.
	ErrSessionNotFound = errors.NotFound("session not found").WithCode("ErrSessionNotFound")

	// ErrTooManySubscribers is returned when the watchers of a document
	// reached the configured limit.
	ErrTooManySubscribers = errors.ResourceExhausted("subscription limit exceeded").WithCode("ErrTooManySubscribers")

	// ErrSubscriptionEvicted is returned when a watcher could not keep up
	// with the events of its document. The client must resynchronize.
	ErrSubscriptionEvicted = errors.Unavailable("watcher could not keep up with the document").WithCode("ErrSubscriptionEvicted")

	// ErrTransport is returned by clients when the server cannot be reached
	// or the connection was lost.
	ErrTransport = errors.Unavailable("transport failure").WithCode("ErrTransport")
)
