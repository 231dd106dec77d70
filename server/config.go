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

package server

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scribe-team/scribe/server/backend"
	"github.com/scribe-team/scribe/server/backend/database/mongo"
	"github.com/scribe-team/scribe/server/backend/database/postgres"
	"github.com/scribe-team/scribe/server/backend/history"
	"github.com/scribe-team/scribe/server/backend/housekeeping"
	"github.com/scribe-team/scribe/server/backend/messagebroker"
	"github.com/scribe-team/scribe/server/backend/pubsub"
	"github.com/scribe-team/scribe/server/gateway"
	"github.com/scribe-team/scribe/server/profiling"
	"github.com/scribe-team/scribe/server/rpc"
)

// Below are the values of the default values of Scribe config.
const (
	DefaultRPCPort       = 8080
	DefaultProfilingPort = 8081
	DefaultGatewayPort   = 8082

	DefaultRPCMaxConnectionAge      = 8 * time.Hour
	DefaultRPCMaxConnectionAgeGrace = 10 * time.Second

	DefaultGatewayPingInterval = 30 * time.Second
	DefaultGatewayWriteTimeout = 10 * time.Second

	DefaultHousekeepingInterval        = 30 * time.Second
	DefaultHousekeepingCandidatesLimit = 500

	DefaultSnapshotInterval           = 100
	DefaultSnapshotCacheSize          = 1000
	DefaultHistoryTailSize            = history.DefaultTailSize
	DefaultMaxPushRetries             = 5
	DefaultSessionDeactivateThreshold = 10 * time.Minute
	DefaultSubscriptionBufferSize     = pubsub.DefaultBufferSize
	DefaultPublishTimeout             = pubsub.DefaultPublishTimeout

	DefaultMongoConnectionURI                = "mongodb://localhost:27017"
	DefaultMongoConnectionTimeout            = 5 * time.Second
	DefaultMongoPingTimeout                  = 5 * time.Second
	DefaultMongoScribeDatabase               = "scribe-meta"
	DefaultMongoMonitoringSlowQueryThreshold = 100 * time.Millisecond

	DefaultPostgresConnectionTimeout = 5 * time.Second

	DefaultBrokerTopic        = "scribe-events"
	DefaultBrokerWriteTimeout = 5 * time.Second

	DefaultHostname = ""
)

// Config is the configuration for creating a Scribe instance.
type Config struct {
	RPC          *rpc.Config           `yaml:"RPC"`
	Gateway      *gateway.Config       `yaml:"Gateway"`
	Profiling    *profiling.Config     `yaml:"Profiling"`
	Housekeeping *housekeeping.Config  `yaml:"Housekeeping"`
	Backend      *backend.Config       `yaml:"Backend"`
	Mongo        *mongo.Config         `yaml:"Mongo"`
	Postgres     *postgres.Config      `yaml:"Postgres"`
	Broker       *messagebroker.Config `yaml:"Broker"`
}

// NewConfig returns a Config struct that contains reasonable defaults
// for most of the configurations.
func NewConfig() *Config {
	return newConfig(DefaultRPCPort, DefaultProfilingPort, DefaultGatewayPort)
}

// NewConfigFromFile returns a Config struct for the given conf file.
func NewConfigFromFile(path string) (*Config, error) {
	conf := NewConfig()
	bytes, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err = yaml.Unmarshal(bytes, conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	conf.ensureDefaultValue()
	return conf, nil
}

// RPCAddr returns the RPC address.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("localhost:%d", c.RPC.Port)
}

// GatewayAddr returns the WebSocket gateway address.
func (c *Config) GatewayAddr() string {
	return fmt.Sprintf("localhost:%d", c.Gateway.Port)
}

// Validate returns an error if the provided Config is invalidated.
func (c *Config) Validate() error {
	if err := c.RPC.Validate(); err != nil {
		return err
	}

	if c.Gateway != nil {
		if err := c.Gateway.Validate(); err != nil {
			return err
		}
	}

	if c.Profiling != nil {
		if err := c.Profiling.Validate(); err != nil {
			return err
		}
	}

	if err := c.Housekeeping.Validate(); err != nil {
		return err
	}

	if err := c.Backend.Validate(); err != nil {
		return err
	}

	if c.Mongo != nil && c.Postgres != nil {
		return fmt.Errorf("mongo and postgres cannot be configured together")
	}

	if c.Mongo != nil {
		if err := c.Mongo.Validate(); err != nil {
			return err
		}
	}

	if c.Postgres != nil {
		if err := c.Postgres.Validate(); err != nil {
			return err
		}
	}

	if c.Broker != nil {
		if err := c.Broker.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// ensureDefaultValue sets the value of the option to which the default value
// should be applied when the user does not input it.
func (c *Config) ensureDefaultValue() {
	if c.RPC.Port == 0 {
		c.RPC.Port = DefaultRPCPort
	}
	if c.RPC.MaxConnectionAge == "" {
		c.RPC.MaxConnectionAge = DefaultRPCMaxConnectionAge.String()
	}
	if c.RPC.MaxConnectionAgeGrace == "" {
		c.RPC.MaxConnectionAgeGrace = DefaultRPCMaxConnectionAgeGrace.String()
	}

	if c.Gateway != nil {
		if c.Gateway.Port == 0 {
			c.Gateway.Port = DefaultGatewayPort
		}
		if c.Gateway.PingInterval == "" {
			c.Gateway.PingInterval = DefaultGatewayPingInterval.String()
		}
		if c.Gateway.WriteTimeout == "" {
			c.Gateway.WriteTimeout = DefaultGatewayWriteTimeout.String()
		}
	}

	if c.Profiling != nil && c.Profiling.Port == 0 {
		c.Profiling.Port = DefaultProfilingPort
	}

	if c.Housekeeping.Interval == "" {
		c.Housekeeping.Interval = DefaultHousekeepingInterval.String()
	}
	if c.Housekeeping.CandidatesLimit == 0 {
		c.Housekeeping.CandidatesLimit = DefaultHousekeepingCandidatesLimit
	}

	if c.Backend.SnapshotInterval == 0 {
		c.Backend.SnapshotInterval = DefaultSnapshotInterval
	}
	if c.Backend.SnapshotCacheSize == 0 {
		c.Backend.SnapshotCacheSize = DefaultSnapshotCacheSize
	}
	if c.Backend.HistoryTailSize == 0 {
		c.Backend.HistoryTailSize = DefaultHistoryTailSize
	}
	if c.Backend.MaxPushRetries == 0 {
		c.Backend.MaxPushRetries = DefaultMaxPushRetries
	}
	if c.Backend.SessionDeactivateThreshold == "" {
		c.Backend.SessionDeactivateThreshold = DefaultSessionDeactivateThreshold.String()
	}
	if c.Backend.SubscriptionBufferSize == 0 {
		c.Backend.SubscriptionBufferSize = DefaultSubscriptionBufferSize
	}
	if c.Backend.PublishTimeout == "" {
		c.Backend.PublishTimeout = DefaultPublishTimeout.String()
	}

	if c.Mongo != nil {
		if c.Mongo.ConnectionURI == "" {
			c.Mongo.ConnectionURI = DefaultMongoConnectionURI
		}
		if c.Mongo.ConnectionTimeout == "" {
			c.Mongo.ConnectionTimeout = DefaultMongoConnectionTimeout.String()
		}
		if c.Mongo.ScribeDatabase == "" {
			c.Mongo.ScribeDatabase = DefaultMongoScribeDatabase
		}
		if c.Mongo.PingTimeout == "" {
			c.Mongo.PingTimeout = DefaultMongoPingTimeout.String()
		}
		if c.Mongo.MonitoringEnabled && c.Mongo.MonitoringSlowQueryThreshold == "" {
			c.Mongo.MonitoringSlowQueryThreshold = DefaultMongoMonitoringSlowQueryThreshold.String()
		}
	}

	if c.Postgres != nil && c.Postgres.ConnectionTimeout == "" {
		c.Postgres.ConnectionTimeout = DefaultPostgresConnectionTimeout.String()
	}

	if c.Broker != nil && c.Broker.Addresses != "" {
		if c.Broker.Topic == "" {
			c.Broker.Topic = DefaultBrokerTopic
		}
		if c.Broker.WriteTimeout == "" {
			c.Broker.WriteTimeout = DefaultBrokerWriteTimeout.String()
		}
	}
}

func newConfig(port, profilingPort, gatewayPort int) *Config {
	return &Config{
		RPC: &rpc.Config{
			Port:                  port,
			MaxConnectionAge:      DefaultRPCMaxConnectionAge.String(),
			MaxConnectionAgeGrace: DefaultRPCMaxConnectionAgeGrace.String(),
		},
		Gateway: &gateway.Config{
			Port:         gatewayPort,
			PingInterval: DefaultGatewayPingInterval.String(),
			WriteTimeout: DefaultGatewayWriteTimeout.String(),
		},
		Profiling: &profiling.Config{
			Port: profilingPort,
		},
		Housekeeping: &housekeeping.Config{
			Interval:        DefaultHousekeepingInterval.String(),
			CandidatesLimit: DefaultHousekeepingCandidatesLimit,
		},
		Backend: &backend.Config{
			Hostname:                   DefaultHostname,
			SnapshotInterval:           DefaultSnapshotInterval,
			SnapshotCacheSize:          DefaultSnapshotCacheSize,
			HistoryTailSize:            DefaultHistoryTailSize,
			MaxPushRetries:             DefaultMaxPushRetries,
			SessionDeactivateThreshold: DefaultSessionDeactivateThreshold.String(),
			SubscriptionBufferSize:     DefaultSubscriptionBufferSize,
			PublishTimeout:             DefaultPublishTimeout.String(),
		},
	}
}
