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

package client

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Option configures Options.
type Option func(*Options)

// Options configures how we set up the client.
type Options struct {
	// Key is the ID of the client. A random UUID is used when empty.
	Key string

	// CertFile is the path to the certificate file.
	CertFile string

	// ServerNameOverride is the server name override.
	ServerNameOverride string

	// Logger is the Logger of the client.
	Logger *zap.Logger

	// DialOptions are appended to the options used to connect to the server.
	DialOptions []grpc.DialOption

	// EventBufferSize is the capacity of the event channel of an attachment.
	EventBufferSize int
}

// WithKey configures the key of the client.
func WithKey(key string) Option {
	return func(o *Options) { o.Key = key }
}

// WithCertFile configures the certificate file of the client.
func WithCertFile(certFile string) Option {
	return func(o *Options) { o.CertFile = certFile }
}

// WithServerNameOverride configures the server name override of the client.
func WithServerNameOverride(serverNameOverride string) Option {
	return func(o *Options) { o.ServerNameOverride = serverNameOverride }
}

// WithLogger configures the Logger of the client.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithDialOptions configures additional gRPC dial options, such as a custom
// dialer.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *Options) { o.DialOptions = append(o.DialOptions, opts...) }
}

// WithEventBufferSize configures the capacity of the event channel of each
// attachment.
func WithEventBufferSize(size int) Option {
	return func(o *Options) { o.EventBufferSize = size }
}
