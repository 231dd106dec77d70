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

// Package errors provides structured errors for Scribe. Every error carries a
// status code compatible with gRPC codes and an optional string code that is
// sent to clients so they can map it back to a sentinel error.
package errors

import "fmt"

// StatusCode represents the error codes used throughout Scribe.
type StatusCode int

const (
	// ErrCodeInvalidArgument indicates that the client specified an invalid argument.
	ErrCodeInvalidArgument StatusCode = 3

	// ErrCodeNotFound indicates that some requested entity was not found.
	ErrCodeNotFound StatusCode = 5

	// ErrCodeAlreadyExists indicates that the entity already exists.
	ErrCodeAlreadyExists StatusCode = 6

	// ErrCodeResourceExhausted indicates that a per-document quota, such as
	// the number of subscribers, has been reached.
	ErrCodeResourceExhausted StatusCode = 8

	// ErrCodeFailedPrecondition indicates that the system is not in a state
	// required for the operation. Clients must resynchronize before retrying.
	ErrCodeFailedPrecondition StatusCode = 9

	// ErrCodeAborted indicates a concurrency conflict, typically a version
	// race between writers of the same document.
	ErrCodeAborted StatusCode = 10

	// ErrCodeOutOfRange indicates an operation addressed a position past the
	// end of the document.
	ErrCodeOutOfRange StatusCode = 11

	// ErrCodeInternal indicates that some invariants expected by the
	// underlying system have been broken.
	ErrCodeInternal StatusCode = 13

	// ErrCodeUnavailable indicates that the service or transport is currently
	// unavailable.
	ErrCodeUnavailable StatusCode = 14
)

// String returns the string representation of the error code.
func (c StatusCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeAlreadyExists:
		return "already_exists"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeFailedPrecondition:
		return "failed_precondition"
	case ErrCodeAborted:
		return "aborted"
	case ErrCodeOutOfRange:
		return "out_of_range"
	case ErrCodeInternal:
		return "internal"
	case ErrCodeUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// IsClientError returns true if the error code represents a client-side error.
func (c StatusCode) IsClientError() bool {
	switch c {
	case ErrCodeInvalidArgument, ErrCodeNotFound, ErrCodeAlreadyExists,
		ErrCodeResourceExhausted, ErrCodeFailedPrecondition, ErrCodeOutOfRange:
		return true
	default:
		return false
	}
}

// IsServerError returns true if the error code represents a server-side error.
func (c StatusCode) IsServerError() bool {
	switch c {
	case ErrCodeAborted, ErrCodeInternal, ErrCodeUnavailable:
		return true
	default:
		return false
	}
}
