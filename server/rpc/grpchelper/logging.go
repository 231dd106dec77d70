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

// Package grpchelper provides helper functions for gRPC.
package grpchelper

import (
	"context"
	"path"
	"strconv"
	"sync/atomic"

	grpcmiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"google.golang.org/grpc"

	"github.com/scribe-team/scribe/server/logging"
)

// documentRequest is a request addressed to one document.
type documentRequest interface {
	GetDocumentID() string
}

// LoggingInterceptor gives every request its own logger, named with a
// sequential request id and tagged with the method and, for unary calls,
// the document.
type LoggingInterceptor struct {
	reqID atomic.Int32
}

// NewLoggingInterceptor creates a new instance of LoggingInterceptor.
func NewLoggingInterceptor() *LoggingInterceptor {
	return &LoggingInterceptor{}
}

// Unary creates a unary server interceptor for request logging.
func (i *LoggingInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		fields := []logging.Field{methodField(info.FullMethod)}
		if r, ok := req.(documentRequest); ok && r.GetDocumentID() != "" {
			fields = append(fields, logging.DocumentField(r.GetDocumentID()))
		}

		reqLogger := logging.New(i.nextID(), fields...)
		return handler(logging.With(ctx, reqLogger), req)
	}
}

// Stream creates a stream server interceptor for request logging. The
// request of a stream is read by the handler, so only the method is known
// here.
func (i *LoggingInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		reqLogger := logging.New(i.nextID(), methodField(info.FullMethod))
		wrapped := grpcmiddleware.WrapServerStream(ss)
		wrapped.WrappedContext = logging.With(ss.Context(), reqLogger)
		return handler(srv, wrapped)
	}
}

func (i *LoggingInterceptor) nextID() string {
	return "r" + strconv.Itoa(int(i.reqID.Add(1)))
}

func methodField(fullMethod string) logging.Field {
	return logging.NewField("method", path.Base(fullMethod))
}
