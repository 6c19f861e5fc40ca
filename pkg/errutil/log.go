// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package errutil carries the error conventions shared across the service:
// structured logging of coded errors and the matching test assertions.
package errutil

import (
	"log/slog"

	"github.com/samber/oops"
)

// Attrs extracts slog attributes from an error. Coded errors contribute
// their code and attached context; plain errors just the message.
func Attrs(err error) []any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return []any{"error", err}
	}
	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != "" {
		attrs = append(attrs, "code", code)
	}
	if ctx := oopsErr.Context(); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}
	return attrs
}

// LogError logs err at error level with its extracted attributes, plus any
// caller-supplied key/value pairs.
func LogError(logger *slog.Logger, msg string, err error, attrs ...any) {
	logger.Error(msg, append(attrs, Attrs(err)...)...)
}
