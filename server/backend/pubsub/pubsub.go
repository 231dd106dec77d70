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

// Package pubsub delivers the events of a document to the clients watching
// it. Every subscription owns a buffered channel. A subscriber that cannot
// keep up is closed so that it resynchronizes instead of missing events.
package pubsub

import (
	"context"
	"fmt"
	"sync"
	gotime "time"

	"go.uber.org/zap"

	"github.com/scribe-team/scribe/api/types"
	"github.com/scribe-team/scribe/api/types/events"
	"github.com/scribe-team/scribe/server/logging"
)

var (
	// ErrTooManySubscribers is returned when the subscription limit is exceeded.
	ErrTooManySubscribers = types.ErrTooManySubscribers
)

// Config is the configuration of PubSub.
type Config struct {
	// BufferSize is the capacity of the event channel of each subscription.
	BufferSize int

	// PublishTimeout is how long a publisher waits for a subscriber whose
	// buffer is full before closing it.
	PublishTimeout gotime.Duration

	// MaxSubscribersPerDocument limits the subscriptions of a document.
	// Zero means no limit.
	MaxSubscribersPerDocument int
}

// Subscriptions is the set of subscriptions to a document.
type Subscriptions struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

func newSubscriptions() *Subscriptions {
	return &Subscriptions{subs: make(map[string]*Subscription)}
}

// Len returns the number of subscriptions.
func (s *Subscriptions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.subs)
}

// Values returns the subscriptions.
func (s *Subscriptions) Values() []*Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		values = append(values, sub)
	}
	return values
}

// PubSub is the memory implementation of PubSub, used for single server.
type PubSub struct {
	config Config

	mu      sync.Mutex
	docSubs map[string]*Subscriptions
}

// New creates an instance of PubSub.
func New(conf Config) *PubSub {
	if conf.BufferSize <= 0 {
		conf.BufferSize = DefaultBufferSize
	}
	if conf.PublishTimeout <= 0 {
		conf.PublishTimeout = DefaultPublishTimeout
	}

	return &PubSub{
		config:  conf,
		docSubs: make(map[string]*Subscriptions),
	}
}

// Subscribe subscribes the given client to the events of the document. It
// returns the new subscription and the ids of the clients already
// subscribed.
func (m *PubSub) Subscribe(
	ctx context.Context,
	subscriber string,
	documentID string,
) (*Subscription, []string, error) {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Subscribe(%s,%s) Start`, documentID, subscriber)
	}

	m.mu.Lock()
	subs, ok := m.docSubs[documentID]
	if !ok {
		subs = newSubscriptions()
		m.docSubs[documentID] = subs
	}

	subs.mu.Lock()
	limit := m.config.MaxSubscribersPerDocument
	if limit > 0 && len(subs.subs) >= limit {
		subs.mu.Unlock()
		m.mu.Unlock()
		return nil, nil, fmt.Errorf(
			"%d subscribers allowed per document: %w",
			limit,
			ErrTooManySubscribers,
		)
	}

	peers := make([]string, 0, len(subs.subs))
	for _, sub := range subs.subs {
		peers = append(peers, sub.Subscriber())
	}
	newSub := NewSubscription(documentID, subscriber, m.config.BufferSize)
	subs.subs[newSub.ID()] = newSub
	subs.mu.Unlock()
	m.mu.Unlock()

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Subscribe(%s,%s) End`, documentID, subscriber)
	}

	return newSub, peers, nil
}

// Unsubscribe closes the given subscription and removes it from its
// document.
func (m *PubSub) Unsubscribe(ctx context.Context, sub *Subscription) {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Unsubscribe(%s,%s) Start`, sub.DocumentID(), sub.Subscriber())
	}

	sub.Close()
	m.remove(sub)

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Unsubscribe(%s,%s) End`, sub.DocumentID(), sub.Subscriber())
	}
}

// Publish publishes the given event to the subscribers of its document.
// Events whose type hides them from the publisher are not delivered to the
// publisher's own subscriptions. It returns the number of subscriptions
// closed because they could not keep up.
func (m *PubSub) Publish(ctx context.Context, event events.DocEvent) int {
	return m.publish(ctx, event, func(sub *Subscription) bool {
		return !(event.Type.SkipsPublisher() && sub.Subscriber() == event.Publisher)
	})
}

// PublishTo publishes the given event only to the subscriptions of the
// given client.
func (m *PubSub) PublishTo(ctx context.Context, clientID string, event events.DocEvent) int {
	return m.publish(ctx, event, func(sub *Subscription) bool {
		return sub.Subscriber() == clientID
	})
}

func (m *PubSub) publish(
	ctx context.Context,
	event events.DocEvent,
	filter func(sub *Subscription) bool,
) int {
	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Publish(%s,%s,%s) Start`, event.DocumentID, event.Publisher, event.Type)
	}

	subs, ok := m.subscriptions(event.DocumentID)
	if !ok {
		return 0
	}

	evicted := 0
	for _, sub := range subs.Values() {
		if !filter(sub) {
			continue
		}

		if ok := sub.Publish(event, m.config.PublishTimeout); !ok && !sub.Closed() {
			logging.From(ctx).Warnf(
				"evict slow subscriber %s of %s: buffer full for %s",
				sub.Subscriber(),
				event.DocumentID,
				m.config.PublishTimeout,
			)
			sub.Close()
			m.remove(sub)
			evicted++
		}
	}

	if logging.Enabled(zap.DebugLevel) {
		logging.From(ctx).Debugf(`Publish(%s,%s,%s) End`, event.DocumentID, event.Publisher, event.Type)
	}

	return evicted
}

// ClientIDs returns the clients subscribed to the given document.
func (m *PubSub) ClientIDs(documentID string) []string {
	subs, ok := m.subscriptions(documentID)
	if !ok {
		return nil
	}

	var ids []string
	for _, sub := range subs.Values() {
		ids = append(ids, sub.Subscriber())
	}
	return ids
}

// Len returns the number of subscriptions to the given document.
func (m *PubSub) Len(documentID string) int {
	subs, ok := m.subscriptions(documentID)
	if !ok {
		return 0
	}
	return subs.Len()
}

// Close closes every subscription.
func (m *PubSub) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, subs := range m.docSubs {
		for _, sub := range subs.Values() {
			sub.Close()
		}
		delete(m.docSubs, id)
	}
}

func (m *PubSub) subscriptions(documentID string) (*Subscriptions, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs, ok := m.docSubs[documentID]
	return subs, ok
}

func (m *PubSub) remove(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs, ok := m.docSubs[sub.DocumentID()]
	if !ok {
		return
	}

	subs.mu.Lock()
	delete(subs.subs, sub.ID())
	empty := len(subs.subs) == 0
	subs.mu.Unlock()

	if empty {
		delete(m.docSubs, sub.DocumentID())
	}
}
