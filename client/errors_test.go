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

package client

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
	"github.com/scribe-team/scribe/pkg/document"
)

func statusWithReason(t *testing.T, code codes.Code, reason string) error {
	st, err := status.New(code, "failed").WithDetails(&errdetails.ErrorInfo{
		Reason: reason,
		Domain: "scribe",
	})
	require.NoError(t, err)
	return st.Err()
}

func TestFromStatusError(t *testing.T) {
	t.Run("reason test", func(t *testing.T) {
		err := fromStatusError(statusWithReason(t, codes.FailedPrecondition, "ErrStaleClientSeq"))
		assert.ErrorIs(t, err, types.ErrStaleClientSeq)

		err = fromStatusError(statusWithReason(t, codes.FailedPrecondition, "ErrVersionGap"))
		assert.ErrorIs(t, err, document.ErrVersionGap)

		err = fromStatusError(statusWithReason(t, codes.Unavailable, "ErrSubscriptionEvicted"))
		assert.ErrorIs(t, err, types.ErrSubscriptionEvicted)
		assert.NotErrorIs(t, err, ErrTransport)
	})

	t.Run("code test", func(t *testing.T) {
		assert.ErrorIs(t, fromStatusError(status.Error(codes.Unavailable, "down")), ErrTransport)
		assert.ErrorIs(t, fromStatusError(status.Error(codes.Canceled, "stop")), context.Canceled)

		err := status.Error(codes.Internal, "boom")
		assert.Equal(t, err, fromStatusError(err))

		err = fromStatusError(statusWithReason(t, codes.Internal, "ErrSomethingNew"))
		assert.Equal(t, codes.Internal, status.Code(err))
	})

	t.Run("plain error test", func(t *testing.T) {
		assert.NoError(t, fromStatusError(nil))

		err := fmt.Errorf("plain")
		assert.Equal(t, err, fromStatusError(err))
		assert.Equal(t, context.Canceled, fromStatusError(context.Canceled))
	})
}
