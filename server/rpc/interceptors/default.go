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

// Package interceptors provides the interceptors for RPC.
package interceptors

import (
	"context"
	gotime "time"

	"google.golang.org/grpc"

	"github.com/scribe-team/scribe/server/logging"
	"github.com/scribe-team/scribe/server/rpc/grpchelper"
)

const (
	// SlowThreshold is the threshold for slow RPC.
	SlowThreshold = 100 * gotime.Millisecond
)

// DefaultInterceptor is an interceptor for common RPC. It converts errors
// of the handlers into gRPC statuses and logs the outcome of each call.
type DefaultInterceptor struct{}

// NewDefaultInterceptor creates a new instance of DefaultInterceptor.
func NewDefaultInterceptor() *DefaultInterceptor {
	return &DefaultInterceptor{}
}

// Unary creates a unary server interceptor for default.
func (i *DefaultInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := gotime.Now()
		resp, err := handler(ctx, req)
		reqLogger := logging.From(ctx)
		if err != nil {
			err = grpchelper.ToStatusError(err)
			logging.LogRPCError(reqLogger, info.FullMethod, gotime.Since(start), err)
			return nil, err
		}

		if gotime.Since(start) > SlowThreshold {
			reqLogger.Infof("RPC : %q %s", info.FullMethod, gotime.Since(start))
		} else {
			logging.LogRPCSuccess(reqLogger, info.FullMethod, gotime.Since(start))
		}
		return resp, nil
	}
}

// Stream creates a stream server interceptor for default.
func (i *DefaultInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		reqLogger := logging.From(ss.Context())

		start := gotime.Now()
		if err := handler(srv, ss); err != nil {
			err = grpchelper.ToStatusError(err)
			logging.LogRPCStreamError(reqLogger, info.FullMethod, gotime.Since(start), err)
			return err
		}

		logging.LogRPCStreamSuccess(reqLogger, info.FullMethod, gotime.Since(start))
		return nil
	}
}
