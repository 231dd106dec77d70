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

// Package rpc provides the gRPC server of Scribe.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"

	grpcmiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"github.com/scribe-team/scribe/api"
	"github.com/scribe-team/scribe/server/backend"
	"github.com/scribe-team/scribe/server/coordinator"
	"github.com/scribe-team/scribe/server/logging"
	"github.com/scribe-team/scribe/server/rpc/grpchelper"
	"github.com/scribe-team/scribe/server/rpc/interceptors"
)

// Server is a normal server that processes the logic requested by the client.
type Server struct {
	conf                *Config
	grpcServer          *grpc.Server
	healthServer        *health.Server
	scribeServiceCancel context.CancelFunc
}

// NewServer creates a new instance of Server.
func NewServer(conf *Config, be *backend.Backend, coord *coordinator.Coordinator) (*Server, error) {
	loggingInterceptor := grpchelper.NewLoggingInterceptor()
	defaultInterceptor := interceptors.NewDefaultInterceptor()

	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(grpcmiddleware.ChainUnaryServer(
			loggingInterceptor.Unary(),
			be.Metrics.ServerMetrics().UnaryServerInterceptor(),
			defaultInterceptor.Unary(),
		)),
		grpc.StreamInterceptor(grpcmiddleware.ChainStreamServer(
			loggingInterceptor.Stream(),
			be.Metrics.ServerMetrics().StreamServerInterceptor(),
			defaultInterceptor.Stream(),
		)),
	}

	if conf.CertFile != "" && conf.KeyFile != "" {
		creds, err := credentials.NewServerTLSFromFile(conf.CertFile, conf.KeyFile)
		if err != nil {
			logging.DefaultLogger().Error(err)
			return nil, err
		}
		opts = append(opts, grpc.Creds(creds))
	}

	if conf.MaxRequestBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(int(conf.MaxRequestBytes)))
	}
	opts = append(opts, grpc.MaxSendMsgSize(math.MaxInt32))
	opts = append(opts, grpc.MaxConcurrentStreams(math.MaxUint32))
	if conf.MaxConnectionAge != "" && conf.MaxConnectionAgeGrace != "" {
		opts = append(opts, grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionAge:      conf.ParseMaxConnectionAge(),
			MaxConnectionAgeGrace: conf.ParseMaxConnectionAgeGrace(),
		}))
	}

	scribeServiceCtx, scribeServiceCancel := context.WithCancel(context.Background())

	grpcServer := grpc.NewServer(opts...)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	api.RegisterScribeServiceServer(grpcServer, newScribeServer(scribeServiceCtx, be, coord))
	be.Metrics.RegisterGRPCServer(grpcServer)

	return &Server{
		conf:                conf,
		grpcServer:          grpcServer,
		healthServer:        healthServer,
		scribeServiceCancel: scribeServiceCancel,
	}, nil
}

// Start starts this server by opening the rpc port.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.conf.Port))
	if err != nil {
		logging.DefaultLogger().Error(err)
		return err
	}

	s.Serve(lis)
	return nil
}

// Serve serves RPC on the given listener in the background.
func (s *Server) Serve(lis net.Listener) {
	go func() {
		logging.DefaultLogger().Infof("serving RPC on %s", lis.Addr())

		if err := s.grpcServer.Serve(lis); err != nil {
			if !errors.Is(err, grpc.ErrServerStopped) {
				logging.DefaultLogger().Error(err)
			}
		}
	}()
}

// Shutdown shuts down this server.
func (s *Server) Shutdown(graceful bool) {
	s.healthServer.Shutdown()
	s.scribeServiceCancel()

	if graceful {
		s.grpcServer.GracefulStop()
	} else {
		s.grpcServer.Stop()
	}
}
