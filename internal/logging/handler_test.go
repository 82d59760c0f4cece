// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONIncludesServiceAndVersion(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("vetclinic", "1.2.3", "info", "json", &buf)

	logger.Info("hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "vetclinic", record["service"])
	assert.Equal(t, "1.2.3", record["version"])
	assert.Equal(t, "hello", record["msg"])
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("vetclinic", "dev", "info", "text", &buf)

	logger.Info("hello")
	assert.Contains(t, buf.String(), "service=vetclinic")
}

func TestSetup_LevelFiltersRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("vetclinic", "dev", "warn", "json", &buf)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestHandler_WithAttrsPreservesTraceWrapping(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("vetclinic", "dev", "info", "json", &buf)

	logger.With("request_id", "abc").Info("hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "abc", record["request_id"])
	assert.Equal(t, "vetclinic", record["service"])
}
