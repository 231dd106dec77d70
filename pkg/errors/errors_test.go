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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode_String(t *testing.T) {
	tests := []struct {
		name string
		code StatusCode
		want string
	}{
		{"InvalidArgument", ErrCodeInvalidArgument, "invalid_argument"},
		{"NotFound", ErrCodeNotFound, "not_found"},
		{"AlreadyExists", ErrCodeAlreadyExists, "already_exists"},
		{"ResourceExhausted", ErrCodeResourceExhausted, "resource_exhausted"},
		{"FailedPrecondition", ErrCodeFailedPrecondition, "failed_precondition"},
		{"Aborted", ErrCodeAborted, "aborted"},
		{"OutOfRange", ErrCodeOutOfRange, "out_of_range"},
		{"Internal", ErrCodeInternal, "internal"},
		{"Unavailable", ErrCodeUnavailable, "unavailable"},
		{"Unknown", StatusCode(999), "code_999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.String())
		})
	}
}

func TestStatusCode_Category(t *testing.T) {
	clientCodes := []StatusCode{
		ErrCodeInvalidArgument,
		ErrCodeNotFound,
		ErrCodeAlreadyExists,
		ErrCodeFailedPrecondition,
		ErrCodeOutOfRange,
	}
	serverCodes := []StatusCode{
		ErrCodeAborted,
		ErrCodeInternal,
		ErrCodeUnavailable,
	}

	for _, code := range clientCodes {
		t.Run(fmt.Sprintf("ClientError_%s", code), func(t *testing.T) {
			assert.True(t, code.IsClientError())
			assert.False(t, code.IsServerError())
		})
	}
	for _, code := range serverCodes {
		t.Run(fmt.Sprintf("ServerError_%s", code), func(t *testing.T) {
			assert.False(t, code.IsClientError())
			assert.True(t, code.IsServerError())
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		err    StatusError
		status StatusCode
	}{
		{NotFound("msg"), ErrCodeNotFound},
		{InvalidArgument("msg"), ErrCodeInvalidArgument},
		{AlreadyExists("msg"), ErrCodeAlreadyExists},
		{ResourceExhausted("msg"), ErrCodeResourceExhausted},
		{FailedPrecond("msg"), ErrCodeFailedPrecondition},
		{Aborted("msg"), ErrCodeAborted},
		{OutOfRange("msg"), ErrCodeOutOfRange},
		{Internal("msg"), ErrCodeInternal},
		{Unavailable("msg"), ErrCodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, "msg", tt.err.Error())
			assert.Equal(t, tt.status, tt.err.Status())
			assert.Empty(t, tt.err.Code())
		})
	}
}

func TestStatusOf(t *testing.T) {
	t.Run("wrapped status error", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", NotFound("base")))
		assert.Equal(t, ErrCodeNotFound, StatusOf(err))
		assert.True(t, IsStatus(err, ErrCodeNotFound))
		assert.True(t, IsClientError(err))
	})

	t.Run("standard error", func(t *testing.T) {
		assert.Equal(t, StatusCode(0), StatusOf(errors.New("standard")))
		assert.False(t, IsServerError(errors.New("standard")))
	})

	t.Run("nil error", func(t *testing.T) {
		assert.Equal(t, StatusCode(0), StatusOf(nil))
		assert.False(t, IsStatus(nil, ErrCodeNotFound))
	})
}

func TestWithCode(t *testing.T) {
	errStale := FailedPrecond("stale base version").WithCode("ErrStaleBase")

	t.Run("sentinel matches through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("push doc-1: %w", errStale)
		assert.ErrorIs(t, wrapped, errStale)
		assert.Equal(t, "ErrStaleBase", CodeOf(wrapped))
		assert.Equal(t, ErrCodeFailedPrecondition, StatusOf(wrapped))
	})

	t.Run("different codes do not match", func(t *testing.T) {
		other := FailedPrecond("stale base version").WithCode("ErrOther")
		assert.NotErrorIs(t, other, errStale)
	})

	t.Run("no code", func(t *testing.T) {
		assert.Equal(t, "", CodeOf(errors.New("plain")))
	})
}

func TestWithMetadata(t *testing.T) {
	t.Run("adds metadata to error", func(t *testing.T) {
		base := NotFound("document not found")
		err := WithMetadata(base, map[string]string{"doc_id": "doc-1"})

		assert.Equal(t, ErrCodeNotFound, StatusOf(err))
		assert.Equal(t, "doc-1", Metadata(err)["doc_id"])
		assert.ErrorIs(t, err, base)
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		assert.Nil(t, WithMetadata(nil, map[string]string{"key": "value"}))
	})

	t.Run("empty metadata returns original error", func(t *testing.T) {
		base := Internal("internal error")
		assert.Equal(t, base, WithMetadata(base, nil))
		assert.Equal(t, base, WithMetadata(base, map[string]string{}))
	})

	t.Run("multiple calls merge metadata", func(t *testing.T) {
		base := OutOfRange("position out of range")
		err1 := WithMetadata(base, map[string]string{"position": "12"})
		err2 := WithMetadata(err1, map[string]string{"length": "4"})

		metadata := Metadata(err2)
		assert.Equal(t, "12", metadata["position"])
		assert.Equal(t, "4", metadata["length"])
		assert.Equal(t, ErrCodeOutOfRange, StatusOf(err2))
	})
}
