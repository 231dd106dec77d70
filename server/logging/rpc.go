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
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RPCLogLevel represents the severity level for RPC logging
type RPCLogLevel int

const (
	RPCLogDebug RPCLogLevel = iota
	RPCLogInfo
	RPCLogWarn
	RPCLogError
)

// String returns the string representation of RPCLogLevel
func (l RPCLogLevel) String() string {
	switch l {
	case RPCLogDebug:
		return "debug"
	case RPCLogInfo:
		return "info"
	case RPCLogError:
		return "error"
	}
	return "warn"
}

// toRPCLogLevel determines the log level of a failed RPC from its gRPC code.
func toRPCLogLevel(err error) RPCLogLevel {
	if err == nil {
		return RPCLogDebug
	}

	if errors.Is(err, context.Canceled) {
		return RPCLogDebug
	}

	st, ok := status.FromError(err)
	if !ok {
		return RPCLogWarn
	}

	switch st.Code() {
	case codes.Canceled:
		return RPCLogDebug
	case codes.InvalidArgument, codes.NotFound, codes.AlreadyExists, codes.OutOfRange:
		// Rejected client input, expected during normal editing.
		return RPCLogInfo
	case codes.FailedPrecondition, codes.Aborted, codes.Unimplemented, codes.ResourceExhausted:
		return RPCLogWarn
	case codes.Internal, codes.DataLoss, codes.Unknown, codes.Unavailable, codes.DeadlineExceeded:
		return RPCLogError
	default:
		return RPCLogWarn
	}
}

func logRPCErrorWithLevel(
	logger *zap.SugaredLogger,
	template string,
	method string,
	duration time.Duration,
	err error,
) {
	switch toRPCLogLevel(err) {
	case RPCLogDebug:
		logger.Debugf(template, method, duration, err)
	case RPCLogInfo:
		logger.Infof(template, method, duration, err)
	case RPCLogError:
		logger.Errorf(template, method, duration, err)
	default:
		logger.Warnf(template, method, duration, err)
	}
}

// LogRPCError logs RPC errors with the appropriate level based on error type.
func LogRPCError(logger *zap.SugaredLogger, method string, duration time.Duration, err error) {
	logRPCErrorWithLevel(logger, "RPC : %q %s => %q", method, duration, err)
}

// LogRPCStreamError logs RPC stream errors with the appropriate level.
func LogRPCStreamError(logger *zap.SugaredLogger, method string, duration time.Duration, err error) {
	logRPCErrorWithLevel(logger, "RPC : stream %q %s => %q", method, duration, err)
}

// LogRPCSuccess logs successful RPC calls at debug level.
func LogRPCSuccess(logger *zap.SugaredLogger, method string, duration time.Duration) {
	logger.Debugf("RPC : %q %s", method, duration)
}

// LogRPCStreamSuccess logs successful streaming RPC calls at debug level.
func LogRPCStreamSuccess(logger *zap.SugaredLogger, method string, duration time.Duration) {
	logger.Debugf("RPC : stream %q %s", method, duration)
}
