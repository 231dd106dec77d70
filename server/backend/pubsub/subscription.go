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

package pubsub

import (
	"sync"
	gotime "time"

	"github.com/rs/xid"

	"github.com/scribe-team/scribe/api/types/events"
)

const (
	// DefaultBufferSize is the default capacity of the event channel of a
	// subscription.
	DefaultBufferSize = 64

	// DefaultPublishTimeout is the default time a publisher waits for a
	// subscriber with a full buffer.
	DefaultPublishTimeout = 100 * gotime.Millisecond
)

// Subscription represents a subscription of a client to the events of a
// document.
type Subscription struct {
	id         string
	documentID string
	subscriber string
	mu         sync.Mutex
	closed     bool
	events     chan events.DocEvent
}

// NewSubscription creates a new instance of Subscription with the given
// buffer size.
func NewSubscription(documentID, subscriber string, bufSize int) *Subscription {
	return &Subscription{
		id:         xid.New().String(),
		documentID: documentID,
		subscriber: subscriber,
		events:     make(chan events.DocEvent, bufSize),
	}
}

// ID returns the id of this subscription.
func (s *Subscription) ID() string {
	return s.id
}

// DocumentID returns the id of the document this subscription watches.
func (s *Subscription) DocumentID() string {
	return s.documentID
}

// Subscriber returns the client id of the subscriber.
func (s *Subscription) Subscriber() string {
	return s.subscriber
}

// Events returns the event channel of this subscription. The channel is
// closed when the subscription is closed.
func (s *Subscription) Events() <-chan events.DocEvent {
	return s.events
}

// Closed returns whether this subscription has been closed.
func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Close closes all resources of this Subscription.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// Publish publishes the given event to the subscriber. It returns false if
// the subscription is closed or the subscriber did not make room in the
// buffer within the timeout.
func (s *Subscription) Publish(event events.DocEvent, timeout gotime.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.events <- event:
		return true
	default:
	}

	timer := gotime.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s.events <- event:
		return true
	case <-timer.C:
		return false
	}
}
