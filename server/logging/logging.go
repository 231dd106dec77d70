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

// Package logging provides logging facilities for the Scribe server.
//
// Loggers are named after the unit of work they follow: a request, a
// WebSocket connection or a background routine. Document and client ids are
// attached as fields so the lines of one editing session can be grepped.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper of zap.Logger.
type Logger = *zap.SugaredLogger

// Field is a wrapper of zap.Field.
type Field = zap.Field

// Format is the encoding of log lines.
type Format string

const (
	// FormatConsole writes colored lines for humans.
	FormatConsole Format = "console"

	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

var (
	defaultLogger Logger
	logLevel      = zapcore.InfoLevel
	logFormat     = FormatConsole
	loggerOnce    sync.Once
)

// SetLogLevel sets the level of the loggers created afterwards. It must be
// called before DefaultLogger() or New().
func SetLogLevel(level string) error {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %s", level)
	}
	logLevel = parsed
	return nil
}

// SetLogFormat sets the encoding of the loggers created afterwards: "console"
// or "json".
func SetLogFormat(format string) error {
	switch f := Format(strings.ToLower(format)); f {
	case FormatConsole, FormatJSON:
		logFormat = f
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}
	return nil
}

// New creates a new logger with the given name and fields.
func New(name string, fields ...Field) Logger {
	logger := newLogger(name)
	if len(fields) == 0 {
		return logger
	}

	args := make([]interface{}, len(fields))
	for i, field := range fields {
		args[i] = field
	}
	return logger.With(args...)
}

// NewField creates a new field with the given key and value.
func NewField(key string, value string) Field {
	return zap.String(key, value)
}

// DocumentField tags a log line with a document id.
func DocumentField(documentID string) Field {
	return zap.String("document", documentID)
}

// ClientField tags a log line with a client id.
func ClientField(clientID string) Field {
	return zap.String("client", clientID)
}

// DefaultLogger returns the default logger used by Scribe.
func DefaultLogger() Logger {
	loggerOnce.Do(func() {
		defaultLogger = newLogger("default")
	})
	return defaultLogger
}

// Enabled returns true if the given level is enabled.
func Enabled(level zapcore.Level) bool {
	return level >= logLevel
}

func newLogger(name string) Logger {
	encoder := zapcore.NewConsoleEncoder(humanEncoderConfig())
	if logFormat == FormatJSON {
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), logLevel)
	return zap.New(core, zap.AddStacktrace(zap.ErrorLevel)).Named(name).Sugar()
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func humanEncoderConfig() zapcore.EncoderConfig {
	cfg := encoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return cfg
}
