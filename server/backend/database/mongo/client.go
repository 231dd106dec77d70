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

// Package mongo implements database interfaces using MongoDB.
package mongo

import (
	"context"
	"fmt"
	gotime "time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/server/backend/database"
	"github.com/scribe-team/scribe/server/logging"
)

// Client is a client that connects to Mongo DB and reads or saves Scribe data.
type Client struct {
	config *Config
	client *mongo.Client
}

// Dial creates an instance of Client and dials the given MongoDB.
func Dial(conf *Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	clientOptions := options.Client().ApplyURI(conf.ConnectionURI)
	if conf.MonitoringEnabled {
		threshold, err := gotime.ParseDuration(conf.MonitoringSlowQueryThreshold)
		if err != nil {
			return nil, fmt.Errorf("parse slow query threshold: %w", err)
		}

		monitor := NewQueryMonitor(&MonitorConfig{
			Enabled:            conf.MonitoringEnabled,
			SlowQueryThreshold: threshold,
		})
		clientOptions.SetMonitor(monitor.CreateCommandMonitor())
	}

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctxPing, cancelPing := context.WithTimeout(ctx, conf.ParsePingTimeout())
	defer cancelPing()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if err := ensureIndexes(ctx, client.Database(conf.ScribeDatabase)); err != nil {
		return nil, err
	}

	logging.DefaultLogger().Infof("MongoDB connected, URI: %s, DB: %s", conf.ConnectionURI, conf.ScribeDatabase)

	return &Client{
		config: conf,
		client: client,
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	if err := c.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("close mongo client: %w", err)
	}

	return nil
}

// FindOrCreateDocInfo finds the document or creates it if it does not exist.
func (c *Client) FindOrCreateDocInfo(ctx context.Context, docID string) (*database.DocInfo, error) {
	now := gotime.Now()
	result := c.collection(ColDocuments).FindOneAndUpdate(
		ctx,
		bson.M{"_id": docID},
		bson.M{"$setOnInsert": bson.M{
			"version":    document.InitialVersion,
			"created_at": now,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	info := &database.DocInfo{}
	if err := result.Decode(info); err != nil {
		// Two concurrent upserts may both try to insert; the loser reads.
		if mongo.IsDuplicateKeyError(err) {
			return c.FindDocInfo(ctx, docID)
		}
		return nil, errors.WithStack(err)
	}

	return info, nil
}

// FindDocInfo finds the document of the given ID.
func (c *Client) FindDocInfo(ctx context.Context, docID string) (*database.DocInfo, error) {
	result := c.collection(ColDocuments).FindOne(ctx, bson.M{"_id": docID})
	if result.Err() == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%s: %w", docID, database.ErrDocumentNotFound)
	}
	if result.Err() != nil {
		return nil, errors.WithStack(result.Err())
	}

	info := &database.DocInfo{}
	if err := result.Decode(info); err != nil {
		return nil, errors.WithStack(err)
	}

	return info, nil
}

// FindDocInfosByPaging returns documents ordered by ID.
func (c *Client) FindDocInfosByPaging(
	ctx context.Context,
	paging database.Paging,
) ([]*database.DocInfo, error) {
	opts := options.Find().SetSort(bson.M{"_id": 1})
	if paging.PageSize > 0 {
		opts.SetLimit(int64(paging.PageSize))
	}

	cursor, err := c.collection(ColDocuments).Find(ctx, bson.M{"_id": bson.M{"$gt": paging.Offset}}, opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var infos []*database.DocInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, errors.WithStack(err)
	}

	return infos, nil
}

// CreateOperationInfo stores the committed operation and advances the version
// of its document. The unique index on (doc_id, version) decides between
// concurrent writers of the same version.
func (c *Client) CreateOperationInfo(
	ctx context.Context,
	info *database.OperationInfo,
) (*database.DocInfo, error) {
	docInfo, err := c.FindDocInfo(ctx, info.DocID)
	if err != nil {
		return nil, fmt.Errorf("create operation of %s: %w", info.DocID, err)
	}
	if info.Version != docInfo.Version+1 {
		return nil, fmt.Errorf(
			"create v%d of %s@v%d: %w",
			info.Version, info.DocID, docInfo.Version, database.ErrVersionConflict,
		)
	}

	id := bson.NewObjectID().Hex()
	if _, err := c.collection(ColOperations).InsertOne(ctx, bson.M{
		"_id":        id,
		"doc_id":     info.DocID,
		"version":    info.Version,
		"client_id":  info.ClientID,
		"client_seq": info.ClientSeq,
		"kind":       info.Kind,
		"position":   info.Position,
		"text":       info.Text,
		"length":     info.Length,
		"applied_at": info.AppliedAt,
	}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("create v%d of %s: %w", info.Version, info.DocID, database.ErrVersionConflict)
		}
		return nil, errors.WithStack(err)
	}
	info.ID = id

	now := gotime.Now()
	res, err := c.collection(ColDocuments).UpdateOne(ctx, bson.M{
		"_id":     info.DocID,
		"version": info.Version - 1,
	}, bson.M{
		"$set": bson.M{
			"version":    info.Version,
			"updated_at": now,
		},
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("update v%d of %s: %w", info.Version, info.DocID, database.ErrVersionConflict)
	}

	docInfo.Version = info.Version
	docInfo.UpdatedAt = now
	return docInfo, nil
}

// FindOperationInfosBetweenVersions returns the operations of the document
// with versions in [from, to].
func (c *Client) FindOperationInfosBetweenVersions(
	ctx context.Context,
	docID string,
	from int64,
	to int64,
) ([]*database.OperationInfo, error) {
	if from > to {
		return nil, nil
	}

	cursor, err := c.collection(ColOperations).Find(ctx, bson.M{
		"doc_id": docID,
		"version": bson.M{
			"$gte": from,
			"$lte": to,
		},
	}, options.Find().SetSort(bson.M{"version": 1}))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var infos []*database.OperationInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, errors.WithStack(err)
	}

	return infos, nil
}

// CreateSnapshotInfo stores the snapshot of the given document.
func (c *Client) CreateSnapshotInfo(ctx context.Context, snapshot document.Snapshot) error {
	if _, err := c.collection(ColSnapshots).InsertOne(ctx, bson.M{
		"_id":        bson.NewObjectID().Hex(),
		"doc_id":     snapshot.DocumentID,
		"version":    snapshot.Version,
		"content":    snapshot.Content,
		"created_at": gotime.Now(),
	}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}

	return nil
}

// FindClosestSnapshotInfo finds the last snapshot of the given document at or
// before the given version.
func (c *Client) FindClosestSnapshotInfo(
	ctx context.Context,
	docID string,
	version int64,
) (*database.SnapshotInfo, error) {
	result := c.collection(ColSnapshots).FindOne(ctx, bson.M{
		"doc_id": docID,
		"version": bson.M{
			"$lte": version,
		},
	}, options.FindOne().SetSort(bson.M{"version": -1}))
	if result.Err() == mongo.ErrNoDocuments {
		return &database.SnapshotInfo{DocID: docID, Version: document.InitialVersion}, nil
	}
	if result.Err() != nil {
		return nil, errors.WithStack(result.Err())
	}

	info := &database.SnapshotInfo{}
	if err := result.Decode(info); err != nil {
		return nil, errors.WithStack(err)
	}

	return info, nil
}

func (c *Client) collection(
	name string,
	opts ...options.Lister[options.CollectionOptions],
) *mongo.Collection {
	return c.client.
		Database(c.config.ScribeDatabase).
		Collection(name, opts...)
}
