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

package server_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribe-team/scribe/server"
	"github.com/scribe-team/scribe/server/backend/database/postgres"
)

func TestNewConfigFromFile(t *testing.T) {
	t.Run("fail read config file test", func(t *testing.T) {
		conf := server.NewConfig()
		assert.Equal(t, conf.RPCAddr(), "localhost:"+strconv.Itoa(server.DefaultRPCPort))
		assert.Equal(t, conf.GatewayAddr(), "localhost:"+strconv.Itoa(server.DefaultGatewayPort))
		_, err := server.NewConfigFromFile("nowhere.yml")
		assert.Error(t, err)
		assert.Equal(t, conf.RPC.Port, server.DefaultRPCPort)
		assert.Equal(t, conf.RPC.CertFile, "")
		assert.Equal(t, conf.RPC.KeyFile, "")
		assert.Equal(t, server.DefaultRPCMaxConnectionAge.String(), conf.RPC.MaxConnectionAge)
		assert.Equal(t, server.DefaultRPCMaxConnectionAgeGrace.String(), conf.RPC.MaxConnectionAgeGrace)

		assert.Equal(t, conf.Backend.SnapshotInterval, int64(server.DefaultSnapshotInterval))
		assert.NoError(t, conf.Validate())
	})

	t.Run("read config file test", func(t *testing.T) {
		conf, err := server.NewConfigFromFile("config.sample.yml")
		require.NoError(t, err)

		assert.Equal(t, conf.RPC.Port, server.DefaultRPCPort)
		assert.Equal(t, conf.Gateway.Port, server.DefaultGatewayPort)
		assert.Equal(t, conf.RPC.CertFile, "")
		assert.Equal(t, conf.RPC.KeyFile, "")

		connTimeout, err := time.ParseDuration(conf.Mongo.ConnectionTimeout)
		assert.NoError(t, err)
		assert.Equal(t, connTimeout, server.DefaultMongoConnectionTimeout)
		assert.Equal(t, conf.Mongo.ConnectionURI, server.DefaultMongoConnectionURI)
		assert.Equal(t, conf.Mongo.ScribeDatabase, server.DefaultMongoScribeDatabase)

		pingTimeout, err := time.ParseDuration(conf.Mongo.PingTimeout)
		assert.NoError(t, err)
		assert.Equal(t, pingTimeout, server.DefaultMongoPingTimeout)
		assert.Equal(t, conf.Backend.SnapshotInterval, int64(server.DefaultSnapshotInterval))
		assert.Equal(t, conf.Backend.MaxPushRetries, server.DefaultMaxPushRetries)

		threshold, err := time.ParseDuration(conf.Backend.SessionDeactivateThreshold)
		assert.NoError(t, err)
		assert.Equal(t, threshold, server.DefaultSessionDeactivateThreshold)
		assert.Nil(t, conf.Broker)
		assert.NoError(t, conf.Validate())
	})

	t.Run("fill defaults of partial config test", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "partial.yml")
		require.NoError(t, os.WriteFile(path, []byte("RPC:\n  Port: 11101\nBackend:\n  MaxPushRetries: 2\n"), 0o600))

		conf, err := server.NewConfigFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 11101, conf.RPC.Port)
		assert.Equal(t, 2, conf.Backend.MaxPushRetries)
		assert.Equal(t, int64(server.DefaultSnapshotInterval), conf.Backend.SnapshotInterval)
		assert.Equal(t, server.DefaultPublishTimeout.String(), conf.Backend.PublishTimeout)
		assert.Equal(t, server.DefaultGatewayPingInterval.String(), conf.Gateway.PingInterval)
		assert.Equal(t, server.DefaultRPCMaxConnectionAge.String(), conf.RPC.MaxConnectionAge)
		assert.Equal(t, server.DefaultRPCMaxConnectionAgeGrace.String(), conf.RPC.MaxConnectionAgeGrace)
		assert.NoError(t, conf.Validate())
	})

	t.Run("mongo and postgres together test", func(t *testing.T) {
		conf, err := server.NewConfigFromFile("config.sample.yml")
		require.NoError(t, err)
		conf.Postgres = &postgres.Config{
			ConnectionURI:     "postgres://localhost:5432/scribe",
			ConnectionTimeout: "5s",
		}
		assert.Error(t, conf.Validate())
	})
}
