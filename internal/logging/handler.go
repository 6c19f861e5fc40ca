// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

// Package logging builds the service's structured loggers. Every record
// carries the service identity, and records logged with a traced context
// carry the OpenTelemetry trace and span IDs.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// Options configures a logger.
type Options struct {
	Service string
	Version string

	// Format selects "json" or "text" output; empty means json.
	Format string

	// Writer defaults to os.Stderr.
	Writer io.Writer

	// Level defaults to debug.
	Level slog.Leveler
}

// New builds a logger per opts.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelDebug
	}

	hopts := &slog.HandlerOptions{Level: level}
	var base slog.Handler
	if opts.Format == "text" {
		base = slog.NewTextHandler(w, hopts)
	} else {
		base = slog.NewJSONHandler(w, hopts)
	}

	// The service identity is fixed for the process, so it is attached once
	// to the base handler rather than per record.
	base = base.WithAttrs([]slog.Attr{
		slog.String("service", opts.Service),
		slog.String("version", opts.Version),
	})

	return slog.New(&spanHandler{next: base})
}

// SetDefault installs the process-wide default logger.
func SetDefault(service, version, format string) {
	slog.SetDefault(New(Options{Service: service, Version: version, Format: format}))
}

// spanHandler decorates records with the IDs of the active span, if any.
type spanHandler struct {
	next slog.Handler
}

func (h *spanHandler) Handle(ctx context.Context, r slog.Record) error {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		r.AddAttrs(slog.String("span_id", sc.SpanID().String()))
	}
	//nolint:wrapcheck // Handler interface passes the error through unwrapped.
	return h.next.Handle(ctx, r)
}

func (h *spanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *spanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &spanHandler{next: h.next.WithAttrs(attrs)}
}

func (h *spanHandler) WithGroup(name string) slog.Handler {
	return &spanHandler{next: h.next.WithGroup(name)}
}
