// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gateward Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateward/gateward/pkg/errutil"
)

func TestAttrs_CodedError(t *testing.T) {
	err := oops.Code("LINK_CODE_SPACE_EXHAUSTED").
		With("link_type", "telegram").
		Errorf("code space exhausted")

	attrs := errutil.Attrs(err)

	assert.Contains(t, attrs, "code")
	assert.Contains(t, attrs, "LINK_CODE_SPACE_EXHAUSTED")
	assert.Contains(t, attrs, "context")
}

func TestAttrs_PlainError(t *testing.T) {
	err := errors.New("connection reset")

	attrs := errutil.Attrs(err)

	require.Len(t, attrs, 2)
	assert.Equal(t, "error", attrs[0])
	assert.Equal(t, err, attrs[1])
}

func TestLogError_CodedError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("ACCOUNT_INVALID_NAME").
		With("name", "x").
		Errorf("name too short")

	errutil.LogError(logger, "join rejected", err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "join rejected", entry["msg"])
	assert.Equal(t, "ACCOUNT_INVALID_NAME", entry["code"])
}

func TestLogError_PlainError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "save failed", errors.New("connection reset"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["error"], "connection reset")
	assert.NotContains(t, entry, "code")
}
