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

package profiling

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scribe-team/scribe/server/logging"
	"github.com/scribe-team/scribe/server/profiling/prometheus"
)

const (
	httpPrefixMetrics = "/metrics"
	httpPrefixPProf   = "/debug/pprof"
)

// Server serves information for profiling, such as metrics and pprof information.
type Server struct {
	conf       *Config
	serveMux   *http.ServeMux
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates an instance of Server.
func NewServer(conf *Config, metrics *prometheus.Metrics) *Server {
	serveMux := http.NewServeMux()
	if conf.EnablePprof {
		serveMux.HandleFunc(httpPrefixPProf+"/", pprof.Index)
		serveMux.HandleFunc(httpPrefixPProf+"/cmdline", pprof.Cmdline)
		serveMux.HandleFunc(httpPrefixPProf+"/profile", pprof.Profile)
		serveMux.HandleFunc(httpPrefixPProf+"/symbol", pprof.Symbol)
		serveMux.HandleFunc(httpPrefixPProf+"/trace", pprof.Trace)
	}

	if metrics != nil {
		serveMux.Handle(httpPrefixMetrics, promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	}

	return &Server{
		conf:     conf,
		serveMux: serveMux,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", conf.Port),
			Handler: serveMux,
		},
	}
}

// Start starts the server. It returns once the port is bound.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen profiling on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = lis

	go func() {
		logging.DefaultLogger().Infof("serving profiling on %s", lis.Addr())
		if err := s.httpServer.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			logging.DefaultLogger().Errorf("HTTP server Serve: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown shut down the server.
func (s *Server) Shutdown(graceful bool) {
	if graceful {
		if err := s.httpServer.Shutdown(context.Background()); err != nil {
			logging.DefaultLogger().Errorf("HTTP server Shutdown: %v", err)
		}
		return
	}

	if err := s.httpServer.Close(); err != nil {
		logging.DefaultLogger().Errorf("HTTP server close: %v", err)
	}
}
