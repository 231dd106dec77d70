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

package rpc

import (
	"context"

	"github.com/scribe-team/scribe/api"
	"github.com/scribe-team/scribe/api/types"
	"github.com/scribe-team/scribe/api/types/events"
	"github.com/scribe-team/scribe/server/backend"
	"github.com/scribe-team/scribe/server/backend/database"
	"github.com/scribe-team/scribe/server/coordinator"
	"github.com/scribe-team/scribe/server/logging"
)

type scribeServer struct {
	backend     *backend.Backend
	coordinator *coordinator.Coordinator
	serviceCtx  context.Context
}

// newScribeServer creates a new instance of scribeServer.
func newScribeServer(
	serviceCtx context.Context,
	be *backend.Backend,
	coord *coordinator.Coordinator,
) *scribeServer {
	return &scribeServer{
		backend:     be,
		coordinator: coord,
		serviceCtx:  serviceCtx,
	}
}

// AttachDocument attaches the client to the document.
func (s *scribeServer) AttachDocument(
	ctx context.Context,
	req *api.AttachDocumentRequest,
) (*api.AttachDocumentResponse, error) {
	res, err := s.coordinator.Attach(ctx, req.DocumentID, req.ClientID)
	if err != nil {
		return nil, err
	}

	return &api.AttachDocumentResponse{
		Snapshot: res.Snapshot,
		Peers:    res.Peers,
	}, nil
}

// DetachDocument detaches the client from the document.
func (s *scribeServer) DetachDocument(
	ctx context.Context,
	req *api.DetachDocumentRequest,
) (*api.DetachDocumentResponse, error) {
	if err := s.coordinator.Detach(ctx, req.DocumentID, req.ClientID); err != nil {
		return nil, err
	}

	return &api.DetachDocumentResponse{}, nil
}

// PushOperation commits the operation of the client.
func (s *scribeServer) PushOperation(
	ctx context.Context,
	req *api.PushOperationRequest,
) (*api.PushOperationResponse, error) {
	committed, err := s.coordinator.Push(ctx, req.Operation)
	if err != nil {
		return nil, err
	}

	return &api.PushOperationResponse{Operation: committed}, nil
}

// GetSnapshot returns the current snapshot of the document.
func (s *scribeServer) GetSnapshot(
	ctx context.Context,
	req *api.GetSnapshotRequest,
) (*api.GetSnapshotResponse, error) {
	snapshot, err := s.coordinator.Snapshot(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	return &api.GetSnapshotResponse{Snapshot: snapshot}, nil
}

// ListOperations returns the operations committed after the given version.
func (s *scribeServer) ListOperations(
	ctx context.Context,
	req *api.ListOperationsRequest,
) (*api.ListOperationsResponse, error) {
	ops, err := s.coordinator.Operations(ctx, req.DocumentID, req.SinceVersion, req.Limit)
	if err != nil {
		return nil, err
	}

	return &api.ListOperationsResponse{Operations: ops}, nil
}

// UpdatePresence relays the cursor of the client to its peers.
func (s *scribeServer) UpdatePresence(
	ctx context.Context,
	req *api.UpdatePresenceRequest,
) (*api.UpdatePresenceResponse, error) {
	if err := s.coordinator.UpdatePresence(ctx, req.DocumentID, req.Presence); err != nil {
		return nil, err
	}

	return &api.UpdatePresenceResponse{}, nil
}

// ListDocuments returns a page of the stored documents.
func (s *scribeServer) ListDocuments(
	ctx context.Context,
	req *api.ListDocumentsRequest,
) (*api.ListDocumentsResponse, error) {
	infos, err := s.coordinator.Documents(ctx, database.Paging{
		Offset:   req.Offset,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]types.DocumentSummary, 0, len(infos))
	for _, info := range infos {
		summaries = append(summaries, types.DocumentSummary{
			ID:              info.ID,
			Version:         info.Version,
			AttachedClients: len(s.backend.Sessions.Clients(info.ID)),
			CreatedAt:       info.CreatedAt,
			UpdatedAt:       info.UpdatedAt,
		})
	}

	return &api.ListDocumentsResponse{Documents: summaries}, nil
}

// WatchDocument streams the events of the document. The operations
// committed after the requested version are sent first.
func (s *scribeServer) WatchDocument(
	req *api.WatchDocumentRequest,
	stream api.WatchDocumentServer,
) error {
	ctx := stream.Context()

	sub, missed, err := s.coordinator.Watch(ctx, req.DocumentID, req.ClientID, req.SinceVersion)
	if err != nil {
		return err
	}
	defer s.coordinator.Unwatch(ctx, sub)

	for _, op := range missed {
		if err := s.send(stream, events.NewOperationEvent(op)); err != nil {
			return err
		}
	}

	for {
		select {
		case <-s.serviceCtx.Done():
			return context.Canceled
		case <-ctx.Done():
			return context.Canceled
		case event, ok := <-sub.Events():
			if !ok {
				logging.From(ctx).Infof("watcher %s of %s evicted", req.ClientID, req.DocumentID)
				return types.ErrSubscriptionEvicted
			}
			if err := s.send(stream, event); err != nil {
				return err
			}
		}
	}
}

func (s *scribeServer) send(stream api.WatchDocumentServer, event events.DocEvent) error {
	if err := stream.Send(&api.WatchDocumentResponse{Event: event}); err != nil {
		return err
	}

	s.backend.Metrics.AddWatchDocumentEvents(s.backend.Config.Hostname, event.Type)
	return nil
}
