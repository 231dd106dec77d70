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

// Package sessions keeps track of the clients attached to each document.
package sessions

import (
	"slices"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/scribe-team/scribe/api/types"
	"github.com/scribe-team/scribe/pkg/document"
)

var (
	// ErrSessionNotFound is returned when the client is not attached to the
	// document.
	ErrSessionNotFound = types.ErrSessionNotFound
)

// Session is the server side state of a client attached to a document.
type Session struct {
	ClientID     string
	DocumentID   string
	KnownVersion int64
	Presence     *document.Presence
	JoinedAt     time.Time
	LastSeen     time.Time
}

type sessionKey struct {
	docID    string
	clientID string
}

// Registry is the set of sessions of the server.
type Registry struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*Session
	docs     map[string]mapset.Set[string]

	now func() time.Time
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		sessions: make(map[sessionKey]*Session),
		docs:     make(map[string]mapset.Set[string]),
		now:      time.Now,
	}
}

// Attach registers the client on the document. Attaching an attached
// client refreshes its session and returns false.
func (r *Registry) Attach(docID, clientID string, knownVersion int64) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	key := sessionKey{docID: docID, clientID: clientID}
	if s, ok := r.sessions[key]; ok {
		s.KnownVersion = knownVersion
		s.LastSeen = now
		return *s, false
	}

	s := &Session{
		ClientID:     clientID,
		DocumentID:   docID,
		KnownVersion: knownVersion,
		JoinedAt:     now,
		LastSeen:     now,
	}
	r.sessions[key] = s

	clients, ok := r.docs[docID]
	if !ok {
		clients = mapset.NewThreadUnsafeSet[string]()
		r.docs[docID] = clients
	}
	clients.Add(clientID)

	return *s, true
}

// Detach removes the session of the client. It returns false if the client
// was not attached.
func (r *Registry) Detach(docID, clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := sessionKey{docID: docID, clientID: clientID}
	if _, ok := r.sessions[key]; !ok {
		return false
	}
	delete(r.sessions, key)

	if clients, ok := r.docs[docID]; ok {
		clients.Remove(clientID)
		if clients.Cardinality() == 0 {
			delete(r.docs, docID)
		}
	}
	return true
}

// Touch marks the session as seen and records the version the client
// knows.
func (r *Registry) Touch(docID, clientID string, knownVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionKey{docID: docID, clientID: clientID}]
	if !ok {
		return ErrSessionNotFound
	}

	s.LastSeen = r.now()
	if knownVersion > s.KnownVersion {
		s.KnownVersion = knownVersion
	}
	return nil
}

// UpdatePresence stores the cursor of the client.
func (r *Registry) UpdatePresence(docID string, presence document.Presence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionKey{docID: docID, clientID: presence.ClientID}]
	if !ok {
		return ErrSessionNotFound
	}

	s.Presence = &presence
	s.LastSeen = r.now()
	return nil
}

// Get returns the session of the client.
func (r *Registry) Get(docID, clientID string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionKey{docID: docID, clientID: clientID}]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return *s, nil
}

// IsAttached returns whether the client is attached to the document.
func (r *Registry) IsAttached(docID, clientID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients, ok := r.docs[docID]
	return ok && clients.Contains(clientID)
}

// Clients returns the sorted ids of the clients attached to the document.
func (r *Registry) Clients(docID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients, ok := r.docs[docID]
	if !ok {
		return nil
	}

	ids := clients.ToSlice()
	slices.Sort(ids)
	return ids
}

// Documents returns the sorted ids of the documents with attached clients.
func (r *Registry) Documents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.docs))
	for id := range r.docs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Idle returns the sessions not seen for longer than the threshold, oldest
// first.
func (r *Registry) Idle(threshold time.Duration) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	deadline := r.now().Add(-threshold)
	var idle []Session
	for _, s := range r.sessions {
		if s.LastSeen.Before(deadline) {
			idle = append(idle, *s)
		}
	}

	slices.SortFunc(idle, func(a, b Session) int {
		return a.LastSeen.Compare(b.LastSeen)
	})
	return idle
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
