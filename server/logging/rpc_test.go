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

package logging

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToRPCLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected RPCLogLevel
	}{
		{"nil error", nil, RPCLogDebug},
		{"context canceled", context.Canceled, RPCLogDebug},
		{"wrapped context canceled", fmt.Errorf("watch: %w", context.Canceled), RPCLogDebug},
		{"grpc canceled", status.Error(codes.Canceled, "canceled"), RPCLogDebug},
		{"invalid argument", status.Error(codes.InvalidArgument, "invalid"), RPCLogInfo},
		{"not found", status.Error(codes.NotFound, "not found"), RPCLogInfo},
		{"out of range", status.Error(codes.OutOfRange, "out of range"), RPCLogInfo},
		{"failed precondition", status.Error(codes.FailedPrecondition, "stale"), RPCLogWarn},
		{"aborted", status.Error(codes.Aborted, "conflict"), RPCLogWarn},
		{"internal error", status.Error(codes.Internal, "internal"), RPCLogError},
		{"unavailable", status.Error(codes.Unavailable, "unavailable"), RPCLogError},
		{"unknown code", status.Error(codes.Unknown, "unknown"), RPCLogError},
		{"non-status error", errors.New("regular error"), RPCLogWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, toRPCLogLevel(tt.err))
		})
	}
}

func TestRPCLogLevel_String(t *testing.T) {
	tests := []struct {
		level    RPCLogLevel
		expected string
	}{
		{RPCLogDebug, "debug"},
		{RPCLogInfo, "info"},
		{RPCLogWarn, "warn"},
		{RPCLogError, "error"},
		{RPCLogLevel(999), "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	assert.NoError(t, SetLogLevel("WARN"))
	assert.False(t, Enabled(-1))
	assert.Error(t, SetLogLevel("verbose"))
	assert.NoError(t, SetLogLevel("info"))
}

func TestSetLogFormat(t *testing.T) {
	assert.NoError(t, SetLogFormat("JSON"))
	assert.Equal(t, FormatJSON, logFormat)
	assert.NotNil(t, New("json", DocumentField("doc-1")))

	assert.Error(t, SetLogFormat("xml"))
	assert.Equal(t, FormatJSON, logFormat)
	assert.NoError(t, SetLogFormat("console"))
}

func TestContextLogger(t *testing.T) {
	logger := New("test", DocumentField("doc-1"), ClientField("c1"))
	ctx := With(context.Background(), logger)
	assert.Equal(t, logger, From(ctx))
	assert.Equal(t, DefaultLogger(), From(context.Background()))
}
