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
	goerrors "errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/scribe-team/scribe/api/types"
	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/errors"
	"github.com/scribe-team/scribe/pkg/ot"
)

// sentinels maps the reasons sent by the server to the errors they stand for.
var sentinels = map[string]error{}

func init() {
	for _, err := range []error{
		ot.ErrOutOfRange,
		ot.ErrInvalidOperation,
		document.ErrVersionGap,
		types.ErrMalformedOperation,
		types.ErrInvalidBaseVersion,
		types.ErrStaleClientSeq,
		types.ErrDocumentBusy,
		types.ErrDocumentNotFound,
		types.ErrSessionNotFound,
		types.ErrTooManySubscribers,
		types.ErrSubscriptionEvicted,
	} {
		sentinels[errors.CodeOf(err)] = err
	}
}

// fromStatusError converts an error returned by a call into the sentinel
// named by its reason. Calls the server could not answer become
// ErrTransport.
func fromStatusError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	for _, detail := range st.Details() {
		info, ok := detail.(*errdetails.ErrorInfo)
		if !ok {
			continue
		}
		if sentinel, ok := sentinels[info.Reason]; ok {
			return fmt.Errorf("%s: %w", st.Message(), sentinel)
		}
	}

	switch st.Code() {
	case codes.Canceled:
		return fmt.Errorf("%s: %w", st.Message(), context.Canceled)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w", st.Message(), context.DeadlineExceeded)
	case codes.Unavailable:
		return fmt.Errorf("%s: %w", st.Message(), ErrTransport)
	}
	return err
}
