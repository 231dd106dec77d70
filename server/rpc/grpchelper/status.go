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

package grpchelper

import (
	"context"
	goerrors "errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/scribe-team/scribe/internal/validation"
	"github.com/scribe-team/scribe/pkg/errors"
)

// ErrorDomain is the domain of the ErrorInfo attached to statuses.
const ErrorDomain = "scribe"

// ToStatusError returns a status.Error from the given logic error. The code
// follows the status of the error and its string code is attached as the
// reason of an ErrorInfo, so that clients can map it back to the sentinel.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	if goerrors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if goerrors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	code := codes.Internal
	if statusCode := errors.StatusOf(err); statusCode != 0 {
		code = codes.Code(statusCode)
	}
	st := status.New(code, err.Error())

	if reason := errors.CodeOf(err); reason != "" {
		if withInfo, detailErr := st.WithDetails(&errdetails.ErrorInfo{
			Reason:   reason,
			Domain:   ErrorDomain,
			Metadata: errors.Metadata(err),
		}); detailErr == nil {
			st = withInfo
		}
	}

	var structErr *validation.StructError
	if goerrors.As(err, &structErr) {
		br := &errdetails.BadRequest{}
		for _, violation := range structErr.Violations {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       violation.Field,
				Description: violation.Description,
			})
		}
		if withBadRequest, detailErr := st.WithDetails(br); detailErr == nil {
			st = withBadRequest
		}
	}

	return st.Err()
}

// ErrorInfoOf returns the ErrorInfo attached to the given status error.
func ErrorInfoOf(err error) (*errdetails.ErrorInfo, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return nil, false
	}

	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			return info, true
		}
	}
	return nil, false
}
