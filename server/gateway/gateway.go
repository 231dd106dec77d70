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

// Package gateway serves documents to browser clients over WebSocket. Each
// connection attaches one client to one document and relays its operations
// and cursors to the coordinator and the events of the document back.
package gateway

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/scribe-team/scribe/pkg/errors"
	"github.com/scribe-team/scribe/server/backend"
	"github.com/scribe-team/scribe/server/coordinator"
	"github.com/scribe-team/scribe/server/logging"
)

const (
	// DocumentPath is the route of the WebSocket endpoint of a document.
	DocumentPath = "/documents/{documentID}/ws"

	// HealthPath is the route of the health check.
	HealthPath = "/healthz"

	maxMessageBytes = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Gateway is the WebSocket server of Scribe.
type Gateway struct {
	conf        *Config
	backend     *backend.Backend
	coordinator *coordinator.Coordinator

	upgrader   websocket.Upgrader
	router     *mux.Router
	httpServer *http.Server
	listener   net.Listener
	connID     atomic.Int32

	serviceCtx    context.Context
	serviceCancel context.CancelFunc
}

// New creates a new instance of Gateway.
func New(conf *Config, be *backend.Backend, coord *coordinator.Coordinator) *Gateway {
	serviceCtx, serviceCancel := context.WithCancel(context.Background())

	g := &Gateway{
		conf:          conf,
		backend:       be,
		coordinator:   coord,
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}

	g.router = mux.NewRouter()
	g.router.HandleFunc(DocumentPath, g.handleWebSocket)
	g.router.HandleFunc(HealthPath, g.handleHealth).Methods(http.MethodGet)
	g.httpServer = &http.Server{
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g
}

// Handler returns the HTTP handler of the gateway.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Start starts the gateway by opening its port.
func (g *Gateway) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", g.conf.Port))
	if err != nil {
		logging.DefaultLogger().Error(err)
		return err
	}
	g.listener = lis

	go func() {
		logging.DefaultLogger().Infof("serving WebSocket gateway on %s", lis.Addr())

		if err := g.httpServer.Serve(lis); err != nil && !goerrors.Is(err, http.ErrServerClosed) {
			logging.DefaultLogger().Error(err)
		}
	}()
	return nil
}

// Addr returns the address the gateway listens on.
func (g *Gateway) Addr() string {
	if g.listener == nil {
		return ""
	}
	return g.listener.Addr().String()
}

// Shutdown closes every connection and stops the gateway.
func (g *Gateway) Shutdown(graceful bool) {
	g.serviceCancel()

	if !graceful {
		if err := g.httpServer.Close(); err != nil {
			logging.DefaultLogger().Error(err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := g.httpServer.Shutdown(ctx); err != nil {
		logging.DefaultLogger().Error(err)
	}
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	if len(g.conf.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(g.conf.AllowedOrigins, r.Header.Get("Origin"))
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "SERVING"
	if g.serviceCtx.Err() != nil {
		status = "NOT_SERVING"
	}

	resp, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp); err != nil {
		logging.DefaultLogger().Warnf("write health: %v", err)
	}
}

// handleWebSocket attaches the client before upgrading, so that a rejected
// client gets a plain HTTP error.
func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["documentID"]
	clientID := r.URL.Query().Get("clientId")

	logger := logging.New(
		fmt.Sprintf("ws%d", g.connID.Add(1)),
		logging.DocumentField(docID),
		logging.ClientField(clientID),
	)
	ctx, cancel := context.WithCancel(logging.With(r.Context(), logger))
	defer cancel()
	stop := context.AfterFunc(g.serviceCtx, cancel)
	defer stop()

	res, err := g.coordinator.Attach(ctx, docID, clientID)
	if err != nil {
		logger.Infof("WS : attach: %v", err)
		http.Error(w, err.Error(), httpStatusOf(err))
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Infof("WS : upgrade: %v", err)
		g.detach(ctx, docID, clientID)
		return
	}

	c := &connection{
		gateway:    g,
		conn:       conn,
		documentID: docID,
		clientID:   clientID,
		send:       make(chan Message, 16),
		limiter:    g.conf.NewLimiter(),
	}
	c.run(ctx, res)
	g.detach(ctx, docID, clientID)
}

func (g *Gateway) detach(ctx context.Context, docID, clientID string) {
	if err := g.coordinator.Detach(context.WithoutCancel(ctx), docID, clientID); err != nil &&
		!goerrors.Is(err, coordinator.ErrSessionNotFound) {
		logging.From(ctx).Warnf("WS : detach: %v", err)
	}
}

// httpStatusOf returns the HTTP status answering a failed handshake.
func httpStatusOf(err error) int {
	switch errors.StatusOf(err) {
	case errors.ErrCodeInvalidArgument, errors.ErrCodeOutOfRange:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeResourceExhausted:
		return http.StatusTooManyRequests
	case errors.ErrCodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case errors.ErrCodeAborted, errors.ErrCodeAlreadyExists:
		return http.StatusConflict
	case errors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
