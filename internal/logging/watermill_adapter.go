// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package logging

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// WatermillAdapter implements watermill.LoggerAdapter using zerolog as the
// backend, so event bus internals log through the same pipeline as the rest
// of the service.
type WatermillAdapter struct {
	logger zerolog.Logger
	fields watermill.LogFields
}

// NewWatermillAdapter creates a watermill.LoggerAdapter that wraps the
// global zerolog logger.
func NewWatermillAdapter() *WatermillAdapter {
	return &WatermillAdapter{logger: Logger()}
}

// NewWatermillAdapterWithLogger creates an adapter with a specific zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewWatermillAdapterWithLogger(logger zerolog.Logger) *WatermillAdapter {
	return &WatermillAdapter{logger: logger}
}

// Error logs an error message.
func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.emit(a.logger.Error().Err(err), fields, msg)
}

// Info logs an info message.
func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.emit(a.logger.Info(), fields, msg)
}

// Debug logs a debug message.
func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.emit(a.logger.Debug(), fields, msg)
}

// Trace logs a trace message.
func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.emit(a.logger.Trace(), fields, msg)
}

// With returns a new adapter carrying the given fields on every message.
func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{
		logger: a.logger,
		fields: a.fields.Add(fields),
	}
}

func (a *WatermillAdapter) emit(event *zerolog.Event, fields watermill.LogFields, msg string) {
	for k, v := range a.fields {
		event = event.Interface(k, v)
	}
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// Ensure interface compliance.
var _ watermill.LoggerAdapter = (*WatermillAdapter)(nil)
