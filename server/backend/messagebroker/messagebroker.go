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

// Package messagebroker mirrors the events of Scribe documents to an
// external message broker so that other systems can follow them.
package messagebroker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/ot"
	"github.com/scribe-team/scribe/server/logging"
)

// Message represents a message that can be sent to the message broker.
type Message interface {
	// Key returns the partitioning key of the message.
	Key() string

	Marshal() ([]byte, error)
}

// OperationMessage represents a message for a committed operation.
type OperationMessage struct {
	DocumentID     string    `json:"document_id"`
	Version        int64     `json:"version"`
	OriginClientID string    `json:"origin_client_id"`
	ClientSeq      uint32    `json:"client_seq"`
	Kind           ot.Kind   `json:"kind"`
	Position       int       `json:"position"`
	Text           string    `json:"text,omitempty"`
	Length         int       `json:"length,omitempty"`
	AppliedAt      time.Time `json:"applied_at"`
}

// NewOperationMessage creates a message of the given committed operation.
func NewOperationMessage(op document.CommittedOperation) OperationMessage {
	return OperationMessage{
		DocumentID:     op.DocumentID,
		Version:        op.Version,
		OriginClientID: op.OriginClientID,
		ClientSeq:      op.ClientSeq,
		Kind:           op.Operation.Kind,
		Position:       op.Operation.Position,
		Text:           op.Operation.Text,
		Length:         op.Operation.Length,
		AppliedAt:      op.AppliedAt,
	}
}

// Key returns the id of the document.
func (m OperationMessage) Key() string {
	return m.DocumentID
}

// Marshal marshals the operation message to JSON.
func (m OperationMessage) Marshal() ([]byte, error) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	return encoded, nil
}

// SessionEventType is the type of a session event.
type SessionEventType string

const (
	// SessionAttached occurs when a client attaches a document.
	SessionAttached SessionEventType = "session-attached"

	// SessionDetached occurs when a client detaches a document.
	SessionDetached SessionEventType = "session-detached"
)

// SessionEventMessage represents a message for session events.
type SessionEventMessage struct {
	DocumentID string           `json:"document_id"`
	ClientID   string           `json:"client_id"`
	EventType  SessionEventType `json:"event_type"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Key returns the id of the document.
func (m SessionEventMessage) Key() string {
	return m.DocumentID
}

// Marshal marshals the session event message to JSON.
func (m SessionEventMessage) Marshal() ([]byte, error) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	return encoded, nil
}

// Broker is an interface for the message broker.
type Broker interface {
	Produce(ctx context.Context, msg Message) error
	Close() error
}

// Ensure creates a message broker based on the given configuration.
// If the configuration is nil or invalid, it returns a DummyBroker, allowing
// callers to use the broker without nil checks.
func Ensure(conf *Config) Broker {
	if conf == nil {
		return &DummyBroker{}
	}

	if err := conf.Validate(); err != nil {
		logging.DefaultLogger().Warnf("invalid message broker configuration: %v", err)
		return &DummyBroker{}
	}

	logging.DefaultLogger().Infof(
		"connecting to %s: %s, topic: %s",
		conf.Type,
		conf.Addresses,
		conf.Topic,
	)

	switch conf.Type {
	case TypeKafka:
		return newKafkaBroker(conf.SplitAddresses(), conf.Topic, conf.MustParseWriteTimeout())
	case TypeRedis:
		return newRedisBroker(conf.SplitAddresses()[0], conf.Topic, conf.MustParseWriteTimeout())
	default:
		return &DummyBroker{}
	}
}
