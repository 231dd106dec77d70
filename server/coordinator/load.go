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

package coordinator

import (
	"context"
	"fmt"

	"github.com/scribe-team/scribe/internal/validation"
	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/ot"
	"github.com/scribe-team/scribe/server/backend/database"
	"github.com/scribe-team/scribe/server/backend/history"
)

// load rebuilds the state of the document from the snapshot cache or the
// database. The latest operations are kept in the history tail so that
// duplicated pushes are recognized after a reload.
func (c *Coordinator) load(ctx context.Context, docID string) (*docState, error) {
	doc, err := c.loadDocument(ctx, docID)
	if err != nil {
		return nil, err
	}

	tailSize := c.be.Config.HistoryTailSize
	if tailSize <= 0 {
		tailSize = history.DefaultTailSize
	}

	var recent []document.CommittedOperation
	if version := doc.Version(); version > 0 {
		from := max(version-int64(tailSize)+1, 1)
		infos, err := c.be.DB.FindOperationInfosBetweenVersions(ctx, docID, from, version)
		if err != nil {
			return nil, err
		}
		recent = toCommitted(infos)
	}

	state := &docState{
		doc:      doc,
		log:      history.New(c.be.DB, docID, doc.Version(), recent, tailSize),
		lastSeqs: make(map[string]committedSeq),
	}
	for _, op := range recent {
		state.lastSeqs[op.OriginClientID] = committedSeq{seq: op.ClientSeq, version: op.Version}
	}

	return state, nil
}

func (c *Coordinator) loadDocument(ctx context.Context, docID string) (*document.Document, error) {
	snapshot, ok := c.be.Cache.Snapshot.Get(docID)
	if !ok {
		doc, _, err := database.LoadDocument(ctx, c.be.DB, docID)
		if err != nil {
			return nil, err
		}
		c.be.Cache.Snapshot.Add(doc.Snapshot())
		return doc, nil
	}

	docInfo, err := c.be.DB.FindOrCreateDocInfo(ctx, docID)
	if err != nil {
		return nil, err
	}

	var infos []*database.OperationInfo
	if docInfo.Version > snapshot.Version {
		infos, err = c.be.DB.FindOperationInfosBetweenVersions(ctx, docID, snapshot.Version+1, docInfo.Version)
		if err != nil {
			return nil, err
		}
	}

	return document.Replay(snapshot, toCommitted(infos))
}

func toCommitted(infos []*database.OperationInfo) []document.CommittedOperation {
	ops := make([]document.CommittedOperation, 0, len(infos))
	for _, info := range infos {
		ops = append(ops, info.ToCommitted())
	}
	return ops
}

func validateVersioned(v document.VersionedOperation) error {
	if err := validateStruct(v); err != nil {
		return err
	}
	if err := ot.Validate(v.Operation); err != nil {
		return fmt.Errorf("push %s seq %d of %s: %w", v.DocumentID, v.ClientSeq, v.ClientID, err)
	}
	return nil
}

func validateStruct(s interface{}) error {
	if err := validation.ValidateStruct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	return nil
}

func validateDocumentID(docID string) error {
	if err := validation.ValidateValue(docID, "required,resource_id,max=120"); err != nil {
		return fmt.Errorf("document id %q: %s: %w", docID, err, ErrInvalidOperation)
	}
	return nil
}

func validateIDs(docID, clientID string) error {
	if err := validateDocumentID(docID); err != nil {
		return err
	}
	if err := validation.ValidateValue(clientID, "required,resource_id,max=120"); err != nil {
		return fmt.Errorf("client id %q: %s: %w", clientID, err, ErrInvalidOperation)
	}
	return nil
}
