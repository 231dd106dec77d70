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

// Package client provides the Go client of Scribe. A Client attaches
// documents and keeps a replica of each one synchronized with the server.
package client

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/scribe-team/scribe/api"
	"github.com/scribe-team/scribe/api/types"
	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/errors"
)

var (
	// ErrTransport is returned when the server cannot be reached or the
	// connection was lost.
	ErrTransport = types.ErrTransport

	// ErrDocumentNotAttached occurs when the document is not attached to
	// this client.
	ErrDocumentNotAttached = errors.FailedPrecond("document is not attached").WithCode("ErrDocumentNotAttached")

	// ErrDocumentAlreadyAttached occurs when the document is attached twice.
	ErrDocumentAlreadyAttached = errors.AlreadyExists("document is already attached").WithCode("ErrDocumentAlreadyAttached")
)

// DefaultEventBufferSize is the default capacity of the event channel of an
// attachment.
const DefaultEventBufferSize = 128

// Client is a normal client that can communicate with the server.
// It has documents and sends operations of the document in local
// to the server to synchronize with other replicas in remote.
type Client struct {
	conn    *grpc.ClientConn
	client  api.ScribeServiceClient
	id      string
	options Options
	logger  *zap.Logger

	mu          sync.Mutex
	attachments map[string]*Attachment
}

// New creates an instance of Client connected to the given address.
func New(rpcAddr string, opts ...Option) (*Client, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	id := options.Key
	if id == "" {
		id = uuid.New().String()
	}
	if options.EventBufferSize <= 0 {
		options.EventBufferSize = DefaultEventBufferSize
	}

	logger := options.Logger
	if logger == nil {
		l, err := zap.NewProduction()
		if err != nil {
			return nil, err
		}
		logger = l
	}

	creds := insecure.NewCredentials()
	if options.CertFile != "" {
		tlsCreds, err := credentials.NewClientTLSFromFile(options.CertFile, options.ServerNameOverride)
		if err != nil {
			return nil, err
		}
		creds = tlsCreds
	}

	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, options.DialOptions...)
	conn, err := grpc.NewClient(rpcAddr, dialOpts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		conn:        conn,
		client:      api.NewScribeServiceClient(conn),
		id:          id,
		options:     options,
		logger:      logger.With(zap.String("client", id)),
		attachments: make(map[string]*Attachment),
	}, nil
}

// ID returns the ID of this client.
func (c *Client) ID() string {
	return c.id
}

// Close detaches every attached document and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	docIDs := make([]string, 0, len(c.attachments))
	for id := range c.attachments {
		docIDs = append(docIDs, id)
	}
	c.mu.Unlock()

	for _, id := range docIDs {
		if err := c.Detach(context.Background(), id); err != nil {
			c.logger.Warn("detach on close", zap.String("document", id), zap.Error(err))
		}
	}

	return c.conn.Close()
}

// Attach attaches the document of the given ID and starts synchronizing it.
// The document is created if it does not exist.
func (c *Client) Attach(ctx context.Context, docID string) (*Attachment, error) {
	c.mu.Lock()
	if _, ok := c.attachments[docID]; ok {
		c.mu.Unlock()
		return nil, ErrDocumentAlreadyAttached
	}
	c.mu.Unlock()

	res, err := c.client.AttachDocument(ctx, &api.AttachDocumentRequest{
		ClientID:   c.id,
		DocumentID: docID,
	})
	if err != nil {
		return nil, fromStatusError(err)
	}

	a := newAttachment(c, res.Snapshot, res.Peers)
	if err := a.startWatch(); err != nil {
		if _, detachErr := c.client.DetachDocument(context.WithoutCancel(ctx), &api.DetachDocumentRequest{
			ClientID:   c.id,
			DocumentID: docID,
		}); detachErr != nil {
			c.logger.Warn("detach after failed watch", zap.Error(detachErr))
		}
		return nil, err
	}

	c.mu.Lock()
	c.attachments[docID] = a
	c.mu.Unlock()

	return a, nil
}

// Detach stops synchronizing the document and detaches it from the server.
// Local edits not yet acknowledged are lost.
func (c *Client) Detach(ctx context.Context, docID string) error {
	c.mu.Lock()
	a, ok := c.attachments[docID]
	if ok {
		delete(c.attachments, docID)
	}
	c.mu.Unlock()
	if !ok {
		return ErrDocumentNotAttached
	}

	a.close()

	if _, err := c.client.DetachDocument(ctx, &api.DetachDocumentRequest{
		ClientID:   c.id,
		DocumentID: docID,
	}); err != nil {
		return fromStatusError(err)
	}
	return nil
}

// Attachment returns the attachment of the given document.
func (c *Client) Attachment(docID string) (*Attachment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.attachments[docID]
	return a, ok
}

// Snapshot returns the latest snapshot of the given document.
func (c *Client) Snapshot(ctx context.Context, docID string) (document.Snapshot, error) {
	res, err := c.client.GetSnapshot(ctx, &api.GetSnapshotRequest{DocumentID: docID})
	if err != nil {
		return document.Snapshot{}, fromStatusError(err)
	}
	return res.Snapshot, nil
}

// Operations returns the committed operations of the document after the
// given version. A zero limit uses the server's default.
func (c *Client) Operations(
	ctx context.Context,
	docID string,
	since int64,
	limit int,
) ([]document.CommittedOperation, error) {
	res, err := c.client.ListOperations(ctx, &api.ListOperationsRequest{
		DocumentID:   docID,
		SinceVersion: since,
		Limit:        limit,
	})
	if err != nil {
		return nil, fromStatusError(err)
	}
	return res.Operations, nil
}

// Documents returns the summaries of the documents ordered by ID, starting
// after the given offset.
func (c *Client) Documents(ctx context.Context, offset string, pageSize int) ([]types.DocumentSummary, error) {
	res, err := c.client.ListDocuments(ctx, &api.ListDocumentsRequest{
		Offset:   offset,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, fromStatusError(err)
	}
	return res.Documents, nil
}
