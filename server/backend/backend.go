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

// Package backend provides the backend implementation of Scribe.
// This package is responsible for managing the database and other
// resources required to run Scribe.
package backend

import (
	"errors"
	"fmt"
	"os"

	"github.com/scribe-team/scribe/server/backend/background"
	"github.com/scribe-team/scribe/server/backend/cache"
	"github.com/scribe-team/scribe/server/backend/database"
	memdb "github.com/scribe-team/scribe/server/backend/database/memory"
	"github.com/scribe-team/scribe/server/backend/database/mongo"
	"github.com/scribe-team/scribe/server/backend/database/postgres"
	"github.com/scribe-team/scribe/server/backend/housekeeping"
	"github.com/scribe-team/scribe/server/backend/messagebroker"
	"github.com/scribe-team/scribe/server/backend/pubsub"
	"github.com/scribe-team/scribe/server/backend/sync"
	"github.com/scribe-team/scribe/server/logging"
	"github.com/scribe-team/scribe/server/profiling/prometheus"
	"github.com/scribe-team/scribe/server/sessions"
)

// Backend manages Scribe's backend such as Database and PubSub. It also
// provides in-memory cache, session registry and locker.
type Backend struct {
	Config *Config

	// Cache is the central cache manager for all caches.
	Cache *cache.Manager
	// PubSub is used to publish/subscribe events to/from clients.
	PubSub *pubsub.PubSub
	// Lockers is used to serialize the processing of each document.
	Lockers *sync.LockerManager
	// Sessions keeps the clients attached to each document.
	Sessions *sessions.Registry

	// Background is used to manage background tasks.
	Background *background.Background
	// Housekeeping is used to manage background batch tasks.
	Housekeeping *housekeeping.Housekeeping

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics
	// DB is the database instance.
	DB database.Database
	// MsgBroker is the message producer instance.
	MsgBroker messagebroker.Broker
}

// New creates a new instance of Backend. The database is Postgres if its
// configuration is given, else MongoDB if its configuration is given, else
// the memory database.
func New(
	conf *Config,
	mongoConf *mongo.Config,
	postgresConf *postgres.Config,
	housekeepingConf *housekeeping.Config,
	metrics *prometheus.Metrics,
	brokerConf *messagebroker.Config,
) (*Backend, error) {
	// 01. Fill the hostname with the one of the current machine.
	if conf.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("os.Hostname: %w", err)
		}
		conf.Hostname = hostname
	}

	// 02. Create the cache manager, pubsub, lockers and sessions.
	cacheManager, err := cache.New(cache.Options{
		SnapshotCacheSize: conf.SnapshotCacheSize,
	})
	if err != nil {
		return nil, err
	}
	lockers := sync.New()
	pubSub := pubsub.New(pubsub.Config{
		BufferSize:                conf.SubscriptionBufferSize,
		PublishTimeout:            conf.ParsePublishTimeout(),
		MaxSubscribersPerDocument: conf.MaxSubscribersPerDocument,
	})
	registry := sessions.New()

	// 03. Create the background task manager and the housekeeping instance.
	bg := background.New(metrics)
	housekeeper, err := housekeeping.New(housekeepingConf, bg)
	if err != nil {
		return nil, err
	}

	// 04. Create the database instance.
	var db database.Database
	dbInfo := "memory"
	switch {
	case postgresConf != nil:
		if db, err = postgres.Dial(postgresConf); err != nil {
			return nil, err
		}
		dbInfo = "postgres"
	case mongoConf != nil:
		if db, err = mongo.Dial(mongoConf); err != nil {
			return nil, err
		}
		dbInfo = mongoConf.ConnectionURI
	default:
		if db, err = memdb.New(); err != nil {
			return nil, err
		}
		logging.DefaultLogger().Warn("no database configured: document history is lost on restart")
	}

	// 05. Create the message broker instance.
	broker := messagebroker.Ensure(brokerConf)

	logging.DefaultLogger().Infof("backend created: db: %s", dbInfo)

	return &Backend{
		Config: conf,

		Cache:    cacheManager,
		Lockers:  lockers,
		PubSub:   pubSub,
		Sessions: registry,

		Background:   bg,
		Housekeeping: housekeeper,

		Metrics:   metrics,
		DB:        db,
		MsgBroker: broker,
	}, nil
}

// Start starts the backend.
func (b *Backend) Start() error {
	if err := b.Housekeeping.Start(); err != nil {
		return err
	}

	logging.DefaultLogger().Infof("backend started")
	return nil
}

// Shutdown closes all resources of this instance.
func (b *Backend) Shutdown() error {
	var errs []error

	b.Background.Close()
	b.PubSub.Close()

	if err := b.MsgBroker.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := b.DB.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}
