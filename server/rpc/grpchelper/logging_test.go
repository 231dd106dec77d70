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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/scribe-team/scribe/api"
	"github.com/scribe-team/scribe/server/logging"
	"github.com/scribe-team/scribe/server/rpc/grpchelper"
)

func TestLoggingInterceptor(t *testing.T) {
	t.Run("request logger test", func(t *testing.T) {
		interceptor := grpchelper.NewLoggingInterceptor().Unary()
		info := &grpc.UnaryServerInfo{FullMethod: api.GetSnapshotMethod}

		var names []string
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			logger := logging.From(ctx)
			assert.NotEqual(t, logging.DefaultLogger(), logger)
			names = append(names, logger.Desugar().Name())
			return req, nil
		}

		for range 2 {
			req := &api.GetSnapshotRequest{DocumentID: "doc-1"}
			resp, err := interceptor(context.Background(), req, info, handler)
			require.NoError(t, err)
			assert.Equal(t, req, resp)
		}
		assert.Equal(t, []string{"r1", "r2"}, names)
	})

	t.Run("request without document test", func(t *testing.T) {
		interceptor := grpchelper.NewLoggingInterceptor().Unary()
		info := &grpc.UnaryServerInfo{FullMethod: api.ListDocumentsMethod}

		_, err := interceptor(
			context.Background(),
			&api.ListDocumentsRequest{},
			info,
			func(ctx context.Context, req interface{}) (interface{}, error) {
				assert.Equal(t, "r1", logging.From(ctx).Desugar().Name())
				return nil, nil
			},
		)
		assert.NoError(t, err)
	})
}
