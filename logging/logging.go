// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging wraps log/slog with the service-metadata, handler-type,
// and redaction conventions used throughout the framework: every Logger
// carries its service name/version/environment as default attributes, and
// password/token/secret-shaped keys are redacted before they reach the
// handler.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// HandlerType selects the slog.Handler a Logger is backed by.
type HandlerType string

const (
	// JSONHandler emits one JSON object per line (production default).
	JSONHandler HandlerType = "json"
	// TextHandler emits logfmt-style key=value lines.
	TextHandler HandlerType = "text"
	// ConsoleHandler emits human-readable, color-coded lines for local
	// development.
	ConsoleHandler HandlerType = "console"
)

// Level is re-exported from slog so callers need not import it separately.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	ErrNilLogger      = errors.New("logging: custom logger is nil")
	ErrInvalidHandler = errors.New("logging: unknown handler type")
)

var sensitiveKeys = map[string]bool{
	"password": true, "token": true, "secret": true,
	"api_key": true, "authorization": true,
}

// Logger is the framework's structured logger. The zero value is not
// usable; construct one with New.
type Logger struct {
	handlerType HandlerType
	output      io.Writer
	level       Level
	addSource   bool

	serviceName    string
	serviceVersion string
	environment    string

	mu      sync.Mutex
	slogger atomic.Pointer[slog.Logger]
}

// Option configures a Logger at construction time.
type Option func(*Logger)

func WithHandlerType(t HandlerType) Option { return func(l *Logger) { l.handlerType = t } }
func WithOutput(w io.Writer) Option        { return func(l *Logger) { l.output = w } }
func WithLevel(level Level) Option         { return func(l *Logger) { l.level = level } }
func WithAddSource(v bool) Option          { return func(l *Logger) { l.addSource = v } }
func WithService(name, version, env string) Option {
	return func(l *Logger) {
		l.serviceName, l.serviceVersion, l.environment = name, version, env
	}
}

// New builds a Logger from opts, defaulting to JSON output on stdout at
// info level.
func New(opts ...Option) (*Logger, error) {
	l := &Logger{handlerType: JSONHandler, output: os.Stdout, level: LevelInfo}
	for _, opt := range opts {
		opt(l)
	}
	if l.output == nil {
		return nil, errors.New("logging: output writer cannot be nil")
	}
	if err := l.initialize(); err != nil {
		return nil, err
	}
	return l, nil
}

// MustNew is New, panicking on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("logging: initialization failed: " + err.Error())
	}
	return l
}

var defaultOnce sync.Once
var defaultLogger *Logger

// Default returns a process-wide JSON/stdout logger, built once.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = MustNew()
	})
	return defaultLogger
}

func (l *Logger) initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	handlerOpts := &slog.HandlerOptions{
		Level:       l.level,
		AddSource:   l.addSource,
		ReplaceAttr: redactAttr,
	}

	var handler slog.Handler
	switch l.handlerType {
	case JSONHandler:
		handler = slog.NewJSONHandler(l.output, handlerOpts)
	case TextHandler:
		handler = slog.NewTextHandler(l.output, handlerOpts)
	case ConsoleHandler:
		handler = newConsoleHandler(l.output, handlerOpts)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidHandler, l.handlerType)
	}

	sl := slog.New(handler)
	var attrs []any
	if l.serviceName != "" {
		attrs = append(attrs, "service", l.serviceName)
	}
	if l.serviceVersion != "" {
		attrs = append(attrs, "version", l.serviceVersion)
	}
	if l.environment != "" {
		attrs = append(attrs, "env", l.environment)
	}
	if len(attrs) > 0 {
		sl = sl.With(attrs...)
	}
	l.slogger.Store(sl)
	return nil
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[a.Key] {
		return slog.String(a.Key, "***REDACTED***")
	}
	return a
}

// Logger exposes the underlying *slog.Logger for callers that want the
// native slog API directly.
func (l *Logger) Logger() *slog.Logger { return l.slogger.Load() }

// With returns a *slog.Logger with additional attributes bound.
func (l *Logger) With(args ...any) *slog.Logger { return l.Logger().With(args...) }

func (l *Logger) Debug(msg string, args ...any) { l.Logger().Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.Logger().Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.Logger().Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.Logger().Error(msg, args...) }
