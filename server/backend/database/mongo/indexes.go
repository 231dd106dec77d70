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

package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	// ColDocuments represents the documents collection in the database.
	ColDocuments = "documents"
	// ColOperations represents the operations collection in the database.
	ColOperations = "operations"
	// ColSnapshots represents the snapshots collection in the database.
	ColSnapshots = "snapshots"
)

// Collections represents the list of all collections in the database.
var Collections = []string{
	ColDocuments,
	ColOperations,
	ColSnapshots,
}

type collectionInfo struct {
	name    string
	indexes []mongo.IndexModel
}

// Below are names and indexes information of Collections that stores Scribe data.
var collectionInfos = []collectionInfo{
	{
		name: ColOperations,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "doc_id", Value: int32(1)},
				{Key: "version", Value: int32(1)},
			},
			Options: options.Index().SetUnique(true),
		}},
	},
	{
		name: ColSnapshots,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{
				{Key: "doc_id", Value: int32(1)},
				{Key: "version", Value: int32(1)},
			},
			Options: options.Index().SetUnique(true),
		}},
	},
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, info := range collectionInfos {
		_, err := db.Collection(info.name).Indexes().CreateMany(ctx, info.indexes)
		if err != nil {
			return fmt.Errorf("create indexes: %w", err)
		}
	}
	return nil
}
