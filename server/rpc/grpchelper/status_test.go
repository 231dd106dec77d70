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

package grpchelper_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/scribe-team/scribe/api/types"
	"github.com/scribe-team/scribe/internal/validation"
	"github.com/scribe-team/scribe/pkg/errors"
	"github.com/scribe-team/scribe/pkg/ot"
	"github.com/scribe-team/scribe/server/rpc/grpchelper"
)

func TestToStatusError(t *testing.T) {
	t.Run("sentinel reason test", func(t *testing.T) {
		tests := []struct {
			err    error
			code   codes.Code
			reason string
		}{
			{types.ErrMalformedOperation, codes.FailedPrecondition, "ErrMalformedOperation"},
			{types.ErrInvalidBaseVersion, codes.InvalidArgument, "ErrInvalidBaseVersion"},
			{types.ErrSessionNotFound, codes.NotFound, "ErrSessionNotFound"},
			{types.ErrTooManySubscribers, codes.ResourceExhausted, "ErrTooManySubscribers"},
			{ot.ErrOutOfRange, codes.OutOfRange, "ErrOutOfRange"},
		}
		for _, tt := range tests {
			t.Run(tt.reason, func(t *testing.T) {
				err := grpchelper.ToStatusError(fmt.Errorf("push doc-1: %w", tt.err))
				assert.Equal(t, tt.code, status.Code(err))

				info, ok := grpchelper.ErrorInfoOf(err)
				require.True(t, ok)
				assert.Equal(t, tt.reason, info.Reason)
				assert.Equal(t, grpchelper.ErrorDomain, info.Domain)
			})
		}
	})

	t.Run("metadata test", func(t *testing.T) {
		err := errors.WithMetadata(
			fmt.Errorf("push: %w", types.ErrInvalidBaseVersion),
			map[string]string{"version": "3"},
		)

		info, ok := grpchelper.ErrorInfoOf(grpchelper.ToStatusError(err))
		require.True(t, ok)
		assert.Equal(t, "3", info.Metadata["version"])
	})

	t.Run("field violations test", func(t *testing.T) {
		err := validation.ValidateStruct(struct {
			ClientID string `validate:"required"`
		}{})
		require.Error(t, err)

		st := status.Convert(grpchelper.ToStatusError(fmt.Errorf("%w: %w", ot.ErrInvalidOperation, err)))
		assert.Equal(t, codes.InvalidArgument, st.Code())

		var violations []*errdetails.BadRequest_FieldViolation
		for _, detail := range st.Details() {
			if br, ok := detail.(*errdetails.BadRequest); ok {
				violations = br.FieldViolations
			}
		}
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0].Field, "ClientID")
	})

	t.Run("context and unknown errors test", func(t *testing.T) {
		assert.Equal(t, codes.Canceled, status.Code(grpchelper.ToStatusError(context.Canceled)))
		assert.Equal(t, codes.DeadlineExceeded, status.Code(grpchelper.ToStatusError(context.DeadlineExceeded)))
		assert.Equal(t, codes.Internal, status.Code(grpchelper.ToStatusError(fmt.Errorf("boom"))))
		assert.NoError(t, grpchelper.ToStatusError(nil))

		_, ok := grpchelper.ErrorInfoOf(grpchelper.ToStatusError(fmt.Errorf("boom")))
		assert.False(t, ok)
	})
}
