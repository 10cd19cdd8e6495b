// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newCapturedSlogLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(zerolog.New(&buf))
	return slog.New(handler), &buf
}

func TestSlogHandlerLevels(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(l *slog.Logger)
		level   string
	}{
		{"Debug", func(l *slog.Logger) { l.Debug("debug msg") }, `"level":"debug"`},
		{"Info", func(l *slog.Logger) { l.Info("info msg") }, `"level":"info"`},
		{"Warn", func(l *slog.Logger) { l.Warn("warn msg") }, `"level":"warn"`},
		{"Error", func(l *slog.Logger) { l.Error("error msg") }, `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newCapturedSlogLogger()
			zerolog.SetGlobalLevel(zerolog.TraceLevel)

			tt.logFunc(logger)

			if !strings.Contains(buf.String(), tt.level) {
				t.Errorf("expected %s in output: %s", tt.level, buf.String())
			}
		})
	}
}

func TestSlogHandlerAttributes(t *testing.T) {
	logger, buf := newCapturedSlogLogger()

	logger.Info("attr msg",
		slog.String("str", "value"),
		slog.Int("num", 42),
		slog.Bool("flag", true),
		slog.Float64("score", 0.75),
		slog.Duration("elapsed", 2*time.Second),
	)

	output := buf.String()
	for _, want := range []string{
		`"str":"value"`,
		`"num":42`,
		`"flag":true`,
		`"score":0.75`,
		"elapsed",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(zerolog.New(&buf))

	child := handler.WithAttrs([]slog.Attr{slog.String("service", "trainer")})
	slog.New(child).Info("from child")

	output := buf.String()
	if !strings.Contains(output, `"service":"trainer"`) {
		t.Errorf("expected pre-configured attr in output: %s", output)
	}
}

func TestSlogHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(zerolog.New(&buf))

	grouped := handler.WithGroup("train")
	slog.New(grouped).Info("grouped", slog.Int("count", 3))

	output := buf.String()
	if !strings.Contains(output, `"train.count":3`) {
		t.Errorf("expected group-prefixed key in output: %s", output)
	}
}

func TestSlogHandlerWithEmptyGroup(t *testing.T) {
	t.Parallel()

	handler := NewSlogHandler()
	if handler.WithGroup("") != handler {
		t.Error("expected empty group name to return the same handler")
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug to be disabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error to be enabled at warn level")
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    slog.Level
		expected zerolog.Level
	}{
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
		{slog.LevelDebug - 4, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		if got := slogToZerologLevel(tt.input); got != tt.expected {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestNewSlogLogger(t *testing.T) {
	logger := NewSlogLogger()
	if logger == nil {
		t.Fatal("expected non-nil slog logger")
	}
}
