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

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc"

	"github.com/scribe-team/scribe/api/types/events"
	"github.com/scribe-team/scribe/internal/version"
)

const (
	namespace         = "scribe"
	hostnameLabel     = "hostname"
	resultLabel       = "result"
	taskTypeLabel     = "task_type"
	docEventTypeLabel = "doc_event_type"
)

// PushResult is the outcome of a pushed operation.
type PushResult string

const (
	// PushCommitted means the operation was assigned a new version.
	PushCommitted PushResult = "committed"

	// PushDuplicated means the operation had already been committed.
	PushDuplicated PushResult = "duplicated"

	// PushRejected means the operation was invalid or unrepresentable.
	PushRejected PushResult = "rejected"
)

// Metrics manages the metric information that Scribe is trying to measure.
type Metrics struct {
	registry      *prometheus.Registry
	serverMetrics *grpcprometheus.ServerMetrics

	serverVersion        *prometheus.GaugeVec
	serverHandledCounter *prometheus.CounterVec

	pushResponseSeconds      prometheus.Histogram
	pushOperationsTotal      *prometheus.CounterVec
	pushRebasedOperations    prometheus.Histogram
	pushVersionConflictTotal *prometheus.CounterVec
	snapshotsTotal           *prometheus.CounterVec

	backgroundGoroutinesTotal *prometheus.GaugeVec

	watchDocumentConnectionsTotal *prometheus.GaugeVec
	watchDocumentEventsTotal      *prometheus.CounterVec
	evictedSubscribersTotal       *prometheus.CounterVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	serverMetrics := grpcprometheus.NewServerMetrics()

	if err := reg.Register(serverMetrics); err != nil {
		return nil, fmt.Errorf("register grpc server metrics: %w", err)
	}

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry:      reg,
		serverMetrics: serverMetrics,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		serverHandledCounter: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "server_handled_total",
			Help:      "Total number of RPCs completed on the server, regardless of success or failure.",
		}, []string{"rpc_type", "rpc_service", "rpc_method", "rpc_code"}),
		pushResponseSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "response_seconds",
			Help:      "The response time of PushOperation.",
		}),
		pushOperationsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "operations_total",
			Help:      "The total count of pushed operations by result.",
		}, []string{
			hostnameLabel,
			resultLabel,
		}),
		pushRebasedOperations: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "rebased_operations",
			Help:      "The number of committed operations a pushed operation was transformed against.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 500},
		}),
		pushVersionConflictTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "version_conflicts_total",
			Help:      "The total count of appends retried because another writer took the version.",
		}, []string{
			hostnameLabel,
		}),
		snapshotsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "document",
			Name:      "snapshots_total",
			Help:      "The total count of stored document snapshots.",
		}, []string{
			hostnameLabel,
		}),
		backgroundGoroutinesTotal: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "background",
			Name:      "goroutines_total",
			Help:      "The total number of goroutines attached by a particular background task.",
		}, []string{taskTypeLabel}),
		watchDocumentConnectionsTotal: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watchdocument",
			Name:      "connections_total",
			Help:      "The total count of open document watch streams.",
		}, []string{
			hostnameLabel,
		}),
		watchDocumentEventsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watchdocument",
			Name:      "events_total",
			Help:      "The total count of events sent through document watch streams.",
		}, []string{
			hostnameLabel,
			docEventTypeLabel,
		}),
		evictedSubscribersTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watchdocument",
			Name:      "evicted_subscribers_total",
			Help:      "The total count of subscribers closed because they could not keep up.",
		}, []string{
			hostnameLabel,
		}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// ObservePushResponseSeconds adds an observation for response time of
// PushOperation.
func (m *Metrics) ObservePushResponseSeconds(seconds float64) {
	m.pushResponseSeconds.Observe(seconds)
}

// AddPushOperation counts a pushed operation with its result.
func (m *Metrics) AddPushOperation(hostname string, result PushResult) {
	m.pushOperationsTotal.With(prometheus.Labels{
		hostnameLabel: hostname,
		resultLabel:   string(result),
	}).Inc()
}

// ObservePushRebasedOperations records how many committed operations a
// pushed operation was transformed against.
func (m *Metrics) ObservePushRebasedOperations(count int) {
	m.pushRebasedOperations.Observe(float64(count))
}

// AddPushVersionConflict counts an append that lost a version race.
func (m *Metrics) AddPushVersionConflict(hostname string) {
	m.pushVersionConflictTotal.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Inc()
}

// AddSnapshot counts a stored snapshot.
func (m *Metrics) AddSnapshot(hostname string) {
	m.snapshotsTotal.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Inc()
}

// AddServerHandledCounter adds the number of RPCs completed on the server.
func (m *Metrics) AddServerHandledCounter(
	rpcType,
	rpcService,
	rpcMethod,
	rpcCode string,
) {
	m.serverHandledCounter.With(prometheus.Labels{
		"rpc_type":    rpcType,
		"rpc_service": rpcService,
		"rpc_method":  rpcMethod,
		"rpc_code":    rpcCode,
	}).Inc()
}

// AddBackgroundGoroutines adds the number of goroutines attached by a particular background task.
func (m *Metrics) AddBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Inc()
}

// RemoveBackgroundGoroutines removes the number of goroutines attached by a particular background task.
func (m *Metrics) RemoveBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Dec()
}

// AddWatchDocumentConnections adds the number of document watch stream connection.
func (m *Metrics) AddWatchDocumentConnections(hostname string) {
	m.watchDocumentConnectionsTotal.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Inc()
}

// RemoveWatchDocumentConnections removes the number of document watch stream connection.
func (m *Metrics) RemoveWatchDocumentConnections(hostname string) {
	m.watchDocumentConnectionsTotal.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Dec()
}

// AddWatchDocumentEvents adds the number of events in document watch stream connections.
func (m *Metrics) AddWatchDocumentEvents(hostname string, docEventType events.DocEventType) {
	m.watchDocumentEventsTotal.With(prometheus.Labels{
		hostnameLabel:     hostname,
		docEventTypeLabel: string(docEventType),
	}).Inc()
}

// AddEvictedSubscribers adds the number of subscribers closed for being slow.
func (m *Metrics) AddEvictedSubscribers(hostname string, count int) {
	if count == 0 {
		return
	}
	m.evictedSubscribersTotal.With(prometheus.Labels{
		hostnameLabel: hostname,
	}).Add(float64(count))
}

// ServerMetrics returns the server metrics of gRPC.
func (m *Metrics) ServerMetrics() *grpcprometheus.ServerMetrics {
	return m.serverMetrics
}

// RegisterGRPCServer initializes the metrics of every method of the given
// gRPC server.
func (m *Metrics) RegisterGRPCServer(server *grpc.Server) {
	m.serverMetrics.InitializeMetrics(server)
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
