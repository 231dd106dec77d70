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

package errors

import (
	"errors"
)

// StatusError represents an error that carries an error status.
type StatusError interface {
	error
	Status() StatusCode
	Code() string
	WithCode(code string) StatusError
}

// errorWithStatus is the internal implementation of StatusError. It is a
// comparable value so that sentinels work with errors.Is.
type errorWithStatus struct {
	err    error
	status StatusCode
	code   string
}

// Error returns the error message.
func (e errorWithStatus) Error() string {
	return e.err.Error()
}

// Status returns the error status.
func (e errorWithStatus) Status() StatusCode {
	return e.status
}

// Code returns the string representation of the error code.
func (e errorWithStatus) Code() string {
	return e.code
}

// Unwrap returns the underlying error for error chain compatibility.
func (e errorWithStatus) Unwrap() error {
	return e.err
}

// WithCode returns a new StatusError with the specified custom code.
func (e errorWithStatus) WithCode(code string) StatusError {
	return errorWithStatus{
		err:    e.err,
		status: e.status,
		code:   code,
	}
}

func newErrorWithStatus(err error, status StatusCode) StatusError {
	return errorWithStatus{
		err:    err,
		status: status,
	}
}

// NotFound creates a new "not found" error.
func NotFound(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeNotFound)
}

// InvalidArgument creates a new "invalid argument" error.
func InvalidArgument(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeInvalidArgument)
}

// AlreadyExists creates a new "already exists" error.
func AlreadyExists(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeAlreadyExists)
}

// ResourceExhausted creates a new "resource exhausted" error.
func ResourceExhausted(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeResourceExhausted)
}

// FailedPrecond creates a new "failed precondition" error.
func FailedPrecond(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeFailedPrecondition)
}

// Aborted creates a new "aborted" error.
func Aborted(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeAborted)
}

// OutOfRange creates a new "out of range" error.
func OutOfRange(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeOutOfRange)
}

// Internal creates a new "internal" error.
func Internal(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeInternal)
}

// Unavailable creates a new "unavailable" error.
func Unavailable(message string) StatusError {
	return newErrorWithStatus(errors.New(message), ErrCodeUnavailable)
}

// StatusOf extracts the error status from an error, unwrapping as needed.
// It returns 0 if no status is found.
func StatusOf(err error) StatusCode {
	if err == nil {
		return 0
	}

	var statusErr StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status()
	}

	return 0
}

// CodeOf returns the custom string code of the given error, or an empty string
// if the error carries none.
func CodeOf(err error) string {
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code()
	}

	return ""
}

// IsStatus checks if the given error has the specified error status.
func IsStatus(err error, code StatusCode) bool {
	return StatusOf(err) == code
}

// IsClientError checks if the error represents a client-side error.
func IsClientError(err error) bool {
	return StatusOf(err).IsClientError()
}

// IsServerError checks if the error represents a server-side error.
func IsServerError(err error) bool {
	return StatusOf(err).IsServerError()
}
