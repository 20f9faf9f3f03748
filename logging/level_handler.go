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

package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// LevelableHandler is a [slog.Handler] whose minimum level can be changed
// after creation without rebuilding the logger.
type LevelableHandler interface {
	slog.Handler

	// SetLevel dynamically changes the handler's minimum level. It is safe
	// for concurrent use.
	SetLevel(level slog.Level)
}

var _ LevelableHandler = (*LevelHandler)(nil)

// LevelHandler wraps another handler with an atomically adjustable minimum
// level.
type LevelHandler struct {
	level   atomic.Int64
	handler slog.Handler
}

// NewLevelHandler creates a handler that delegates to h for records at or
// above level.
func NewLevelHandler(level slog.Level, h slog.Handler) *LevelHandler {
	lh := &LevelHandler{handler: h}
	lh.level.Store(int64(level))
	return lh
}

// SetLevel implements [LevelableHandler].
func (h *LevelHandler) SetLevel(level slog.Level) {
	h.level.Store(int64(level))
}

// Enabled implements [slog.Handler].
func (h *LevelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.Level(h.level.Load())
}

// Handle implements [slog.Handler].
func (h *LevelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r) //nolint:wrapcheck // passthrough
}

// WithAttrs implements [slog.Handler].
func (h *LevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &LevelHandler{handler: h.handler.WithAttrs(attrs)}
	next.level.Store(h.level.Load())
	return next
}

// WithGroup implements [slog.Handler].
func (h *LevelHandler) WithGroup(name string) slog.Handler {
	next := &LevelHandler{handler: h.handler.WithGroup(name)}
	next.level.Store(h.level.Load())
	return next
}
