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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scribe-team/scribe/server"
	"github.com/scribe-team/scribe/server/backend/database/mongo"
	"github.com/scribe-team/scribe/server/backend/database/postgres"
	"github.com/scribe-team/scribe/server/backend/messagebroker"
	"github.com/scribe-team/scribe/server/logging"
)

var (
	gracefulTimeout = 10 * time.Second
)

var (
	flagConfPath  string
	flagLogLevel  string
	flagLogFormat string

	housekeepingInterval       time.Duration
	sessionDeactivateThreshold time.Duration
	publishTimeout             time.Duration
	gatewayPingInterval        time.Duration
	disableGateway             bool

	mongoConnectionURI     string
	mongoConnectionTimeout time.Duration
	mongoScribeDatabase    string
	mongoPingTimeout       time.Duration

	postgresConnectionURI     string
	postgresConnectionTimeout time.Duration

	brokerType         string
	brokerAddresses    string
	brokerTopic        string
	brokerWriteTimeout time.Duration

	conf = server.NewConfig()
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [options]",
		Short: "Start Scribe server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf.Housekeeping.Interval = housekeepingInterval.String()
			conf.Backend.SessionDeactivateThreshold = sessionDeactivateThreshold.String()
			conf.Backend.PublishTimeout = publishTimeout.String()
			conf.Gateway.PingInterval = gatewayPingInterval.String()
			if disableGateway {
				conf.Gateway = nil
			}

			if mongoConnectionURI != "" {
				conf.Mongo = &mongo.Config{
					ConnectionURI:     mongoConnectionURI,
					ConnectionTimeout: mongoConnectionTimeout.String(),
					ScribeDatabase:    mongoScribeDatabase,
					PingTimeout:       mongoPingTimeout.String(),
				}
			}

			if postgresConnectionURI != "" {
				conf.Postgres = &postgres.Config{
					ConnectionURI:     postgresConnectionURI,
					ConnectionTimeout: postgresConnectionTimeout.String(),
				}
			}

			if brokerAddresses != "" {
				conf.Broker = &messagebroker.Config{
					Type:         messagebroker.Type(brokerType),
					Addresses:    brokerAddresses,
					Topic:        brokerTopic,
					WriteTimeout: brokerWriteTimeout.String(),
				}
			}

			// If config file is given, command-line arguments will be overwritten.
			if flagConfPath != "" {
				parsed, err := server.NewConfigFromFile(flagConfPath)
				if err != nil {
					return err
				}
				conf = parsed
			}

			if err := logging.SetLogLevel(flagLogLevel); err != nil {
				return err
			}
			if err := logging.SetLogFormat(flagLogFormat); err != nil {
				return err
			}

			s, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := s.Start(); err != nil {
				return err
			}

			if code := handleSignal(s); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

func handleSignal(r *server.Scribe) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
	select {
	case s := <-sigCh:
		sig = s
	case <-r.ShutdownCh():
		// scribe is already shutdown
		return 0
	}

	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	gracefulCh := make(chan struct{})
	go func() {
		if err := r.Shutdown(graceful); err != nil {
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newServerCmd()
	cmd.Flags().StringVarP(
		&flagConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	cmd.Flags().StringVarP(
		&flagLogLevel,
		"log-level",
		"l",
		"info",
		"Log level: debug, info, warn, error, panic, fatal",
	)
	cmd.Flags().StringVar(
		&flagLogFormat,
		"log-format",
		string(logging.FormatConsole),
		"Log format: console, json",
	)
	cmd.Flags().IntVar(
		&conf.RPC.Port,
		"rpc-port",
		server.DefaultRPCPort,
		"RPC port",
	)
	cmd.Flags().StringVar(
		&conf.RPC.CertFile,
		"rpc-cert-file",
		"",
		"RPC certification file's path",
	)
	cmd.Flags().StringVar(
		&conf.RPC.KeyFile,
		"rpc-key-file",
		"",
		"RPC key file's path",
	)
	cmd.Flags().Uint64Var(
		&conf.RPC.MaxRequestBytes,
		"rpc-max-requests-bytes",
		0,
		"Maximum client request size in bytes the server will accept.",
	)
	cmd.Flags().StringVar(
		&conf.RPC.MaxConnectionAge,
		"rpc-max-connection-age",
		server.DefaultRPCMaxConnectionAge.String(),
		"Maximum duration of connection may exist before it will be closed by sending a GoAway.",
	)
	cmd.Flags().StringVar(
		&conf.RPC.MaxConnectionAgeGrace,
		"rpc-max-connection-age-grace",
		server.DefaultRPCMaxConnectionAgeGrace.String(),
		"Additional grace period after MaxConnectionAge after which connections will be forcibly closed.",
	)
	cmd.Flags().IntVar(
		&conf.Gateway.Port,
		"gateway-port",
		server.DefaultGatewayPort,
		"WebSocket gateway port",
	)
	cmd.Flags().DurationVar(
		&gatewayPingInterval,
		"gateway-ping-interval",
		server.DefaultGatewayPingInterval,
		"Interval between pings of idle WebSocket connections.",
	)
	cmd.Flags().StringSliceVar(
		&conf.Gateway.AllowedOrigins,
		"gateway-allowed-origins",
		nil,
		"Origins allowed to open WebSocket connections. Any origin when empty.",
	)
	cmd.Flags().Float64Var(
		&conf.Gateway.MaxMessagesPerSecond,
		"gateway-max-messages-per-second",
		0,
		"Frames read per second from one WebSocket connection. No limit when 0.",
	)
	cmd.Flags().IntVar(
		&conf.Gateway.MessageBurst,
		"gateway-message-burst",
		0,
		"Frames a WebSocket connection may send at once before the limit applies.",
	)
	cmd.Flags().BoolVar(
		&disableGateway,
		"disable-gateway",
		false,
		"Do not serve the WebSocket gateway.",
	)
	cmd.Flags().IntVar(
		&conf.Profiling.Port,
		"profiling-port",
		server.DefaultProfilingPort,
		"Profiling port",
	)
	cmd.Flags().BoolVar(
		&conf.Profiling.EnablePprof,
		"enable-pprof",
		false,
		"Enable runtime profiling data via HTTP server.",
	)
	cmd.Flags().DurationVar(
		&housekeepingInterval,
		"housekeeping-interval",
		server.DefaultHousekeepingInterval,
		"housekeeping interval between housekeeping runs",
	)
	cmd.Flags().IntVar(
		&conf.Housekeeping.CandidatesLimit,
		"housekeeping-candidates-limit",
		server.DefaultHousekeepingCandidatesLimit,
		"candidates limit for a single housekeeping run",
	)
	cmd.Flags().StringVar(
		&mongoConnectionURI,
		"mongo-connection-uri",
		"",
		"MongoDB's connection URI",
	)
	cmd.Flags().DurationVar(
		&mongoConnectionTimeout,
		"mongo-connection-timeout",
		server.DefaultMongoConnectionTimeout,
		"Mongo DB's connection timeout",
	)
	cmd.Flags().StringVar(
		&mongoScribeDatabase,
		"mongo-scribe-database",
		server.DefaultMongoScribeDatabase,
		"Scribe's database name in MongoDB",
	)
	cmd.Flags().DurationVar(
		&mongoPingTimeout,
		"mongo-ping-timeout",
		server.DefaultMongoPingTimeout,
		"Mongo DB's ping timeout",
	)
	cmd.Flags().StringVar(
		&postgresConnectionURI,
		"postgres-uri",
		"",
		"PostgreSQL's connection URI",
	)
	cmd.Flags().DurationVar(
		&postgresConnectionTimeout,
		"postgres-connection-timeout",
		server.DefaultPostgresConnectionTimeout,
		"PostgreSQL's connection timeout",
	)
	cmd.Flags().StringVar(
		&brokerType,
		"broker-type",
		string(messagebroker.TypeKafka),
		"Message broker type: kafka or redis",
	)
	cmd.Flags().StringVar(
		&brokerAddresses,
		"broker-addresses",
		"",
		"Comma separated addresses of the message broker",
	)
	cmd.Flags().StringVar(
		&brokerTopic,
		"broker-topic",
		server.DefaultBrokerTopic,
		"Topic, or channel prefix on Redis, of the mirrored events",
	)
	cmd.Flags().DurationVar(
		&brokerWriteTimeout,
		"broker-write-timeout",
		server.DefaultBrokerWriteTimeout,
		"Timeout for writing a message to the broker",
	)
	cmd.Flags().Int64Var(
		&conf.Backend.SnapshotInterval,
		"backend-snapshot-interval",
		server.DefaultSnapshotInterval,
		"Interval of versions to store a snapshot.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.SnapshotCacheSize,
		"backend-snapshot-cache-size",
		server.DefaultSnapshotCacheSize,
		"The number of documents whose latest snapshot is cached.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.HistoryTailSize,
		"backend-history-tail-size",
		server.DefaultHistoryTailSize,
		"The number of recent operations kept in memory per document.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.MaxPushRetries,
		"backend-max-push-retries",
		server.DefaultMaxPushRetries,
		"Maximum recomputations of a push losing a version race.",
	)
	cmd.Flags().DurationVar(
		&sessionDeactivateThreshold,
		"session-deactivate-threshold",
		server.DefaultSessionDeactivateThreshold,
		"Time a session may stay unseen before housekeeping detaches it.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.SubscriptionBufferSize,
		"subscription-buffer-size",
		server.DefaultSubscriptionBufferSize,
		"Capacity of the event buffer of each watcher.",
	)
	cmd.Flags().DurationVar(
		&publishTimeout,
		"publish-timeout",
		server.DefaultPublishTimeout,
		"Time a publisher waits for a watcher with a full buffer before closing it.",
	)
	cmd.Flags().IntVar(
		&conf.Backend.MaxSubscribersPerDocument,
		"max-subscribers-per-document",
		0,
		"Maximum watchers of a document. Unlimited when zero.",
	)
	cmd.Flags().StringVar(
		&conf.Backend.Hostname,
		"hostname",
		server.DefaultHostname,
		"Scribe Server Hostname",
	)

	rootCmd.AddCommand(cmd)
}
