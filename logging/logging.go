// Copyright 2023 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging is an opinionated structured logging layer over [log/slog].
// Loggers travel on the context; the tree builder and dispatcher emit debug
// records through [FromContext] so host programs control verbosity and
// destination without the library taking any global dependency.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
)

// contextKey is a private string type to prevent collisions in the context map.
type contextKey string

// loggerKey points to the value in the context where the logger is stored.
const loggerKey = contextKey("logger")

// Format controls the output encoding of a logger.
type Format string

const (
	FormatJSON = Format("json")
	FormatText = Format("text")
)

// levelNames maps the accepted string spellings to slog levels.
var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// defaultLoggerOnce initializes the process-wide fallback logger on first
// use: text output on stderr at the "Info" level.
var defaultLoggerOnce = sync.OnceValue[*slog.Logger](func() *slog.Logger {
	return New(os.Stderr, slog.LevelInfo, FormatText, false)
})

// LookupLevel converts a string name into a level.
func LookupLevel(name string) (slog.Level, error) {
	if v, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("no such level %q, valid levels are %q", name, LevelNames())
}

// LevelNames returns the accepted level names, sorted.
func LevelNames() []string {
	names := make([]string, 0, len(levelNames))
	for name := range levelNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LevelString returns the canonical name for the level.
func LevelString(level slog.Level) string {
	return strings.ToLower(level.String())
}

// LookupFormat converts a string name into a format.
func LookupFormat(name string) (Format, error) {
	switch v := Format(strings.ToLower(strings.TrimSpace(name))); v {
	case FormatJSON, FormatText:
		return v, nil
	default:
		return "", fmt.Errorf("no such format %q", name)
	}
}

// New creates a logger in the given format, writing to w at the given level.
//
// If debug is true, the level is lowered to the minimum and records include
// source information. That is expensive; enable it only when actively
// debugging.
func New(w io.Writer, level slog.Level, format Format, debug bool) *slog.Logger {
	var opts slog.HandlerOptions
	if debug {
		opts.AddSource = true
		level = math.MinInt
	}

	switch format {
	case FormatJSON:
		return slog.New(NewLevelHandler(level, slog.NewJSONHandler(w, &opts)))
	case FormatText:
		return slog.New(NewLevelHandler(level, slog.NewTextHandler(w, &opts)))
	default:
		panic(fmt.Sprintf("unknown log format %q", format))
	}
}

// NewFromEnv creates a logger configured from the environment. It sources
// LOG_LEVEL, LOG_FORMAT, and LOG_DEBUG, each first checked with the given
// prefix and then unprefixed. It panics on values that do not parse, since
// misconfigured logging is a startup-time programmer error.
func NewFromEnv(envPrefix string) *slog.Logger {
	level := slog.LevelInfo
	if v := getenvAny(envPrefix+"LOG_LEVEL", "LOG_LEVEL"); v != "" {
		l, err := LookupLevel(v)
		if err != nil {
			panic(fmt.Sprintf("log level: %s", err))
		}
		level = l
	}

	format := FormatText
	if v := getenvAny(envPrefix+"LOG_FORMAT", "LOG_FORMAT"); v != "" {
		f, err := LookupFormat(v)
		if err != nil {
			panic(fmt.Sprintf("log format: %s", err))
		}
		format = f
	}

	debug := false
	if v := getenvAny(envPrefix+"LOG_DEBUG", "LOG_DEBUG"); v != "" {
		debug = v == "1" || strings.EqualFold(v, "true")
	}

	return New(os.Stderr, level, format, debug)
}

func getenvAny(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// SetLevel adjusts the level on the provided logger. The logger's handler
// must be a [LevelableHandler] or this function panics; loggers created by
// this package always are.
//
// This function is safe for concurrent use. It returns the provided logger
// for chaining.
func SetLevel(logger *slog.Logger, level slog.Level) *slog.Logger {
	if typ, ok := logger.Handler().(LevelableHandler); ok {
		typ.SetLevel(level)
		return logger
	}
	panic("handler is not capable of setting levels")
}

// DefaultLogger returns the process-wide fallback logger.
func DefaultLogger() *slog.Logger {
	return defaultLoggerOnce()
}

// WithLogger creates a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in the context, or a default logger
// if none is attached.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return DefaultLogger()
}
