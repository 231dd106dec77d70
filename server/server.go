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

// Package server provides the Scribe server which is the main entry point of
// the Scribe system. It assembles the backend and the coordinator, and serves
// them over gRPC, the WebSocket gateway and the profiling server.
package server

import (
	gosync "sync"

	"github.com/scribe-team/scribe/server/backend"
	"github.com/scribe-team/scribe/server/coordinator"
	"github.com/scribe-team/scribe/server/gateway"
	"github.com/scribe-team/scribe/server/profiling"
	"github.com/scribe-team/scribe/server/profiling/prometheus"
	"github.com/scribe-team/scribe/server/rpc"
)

// Scribe is a server of Scribe.
// The server receives operations from clients, rebases and stores them, and
// propagates them to the clients watching the document.
type Scribe struct {
	lock gosync.Mutex

	conf            *Config
	backend         *backend.Backend
	coordinator     *coordinator.Coordinator
	rpcServer       *rpc.Server
	gateway         *gateway.Gateway
	profilingServer *profiling.Server

	shutdown   bool
	shutdownCh chan struct{}
}

// New creates a new instance of Scribe.
func New(conf *Config) (*Scribe, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	be, err := backend.New(
		conf.Backend,
		conf.Mongo,
		conf.Postgres,
		conf.Housekeeping,
		metrics,
		conf.Broker,
	)
	if err != nil {
		return nil, err
	}

	coord, err := coordinator.New(be)
	if err != nil {
		return nil, err
	}

	rpcServer, err := rpc.NewServer(conf.RPC, be, coord)
	if err != nil {
		return nil, err
	}

	var gw *gateway.Gateway
	if conf.Gateway != nil {
		gw = gateway.New(conf.Gateway, be, coord)
	}

	var profilingServer *profiling.Server
	if conf.Profiling != nil {
		profilingServer = profiling.NewServer(conf.Profiling, metrics)
	}

	return &Scribe{
		conf:            conf,
		backend:         be,
		coordinator:     coord,
		rpcServer:       rpcServer,
		gateway:         gw,
		profilingServer: profilingServer,
		shutdownCh:      make(chan struct{}),
	}, nil
}

// Start starts the server by opening the rpc port.
func (r *Scribe) Start() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.backend.Start(); err != nil {
		return err
	}

	if r.profilingServer != nil {
		if err := r.profilingServer.Start(); err != nil {
			return err
		}
	}

	if r.gateway != nil {
		if err := r.gateway.Start(); err != nil {
			return err
		}
	}

	return r.rpcServer.Start()
}

// Shutdown shuts down this Scribe server.
func (r *Scribe) Shutdown(graceful bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.shutdown {
		return nil
	}

	r.rpcServer.Shutdown(graceful)
	if r.gateway != nil {
		r.gateway.Shutdown(graceful)
	}
	if r.profilingServer != nil {
		r.profilingServer.Shutdown(graceful)
	}

	if err := r.backend.Shutdown(); err != nil {
		return err
	}

	close(r.shutdownCh)
	r.shutdown = true
	return nil
}

// ShutdownCh returns the shutdown channel.
func (r *Scribe) ShutdownCh() <-chan struct{} {
	return r.shutdownCh
}

// RPCAddr returns the address of the RPC.
func (r *Scribe) RPCAddr() string {
	return r.conf.RPCAddr()
}

// Loaded returns the number of documents loaded in memory. It is used for
// testing.
func (r *Scribe) Loaded() int {
	return r.coordinator.Loaded()
}
