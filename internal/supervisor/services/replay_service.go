// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package services

import (
	"context"
	"fmt"
)

// ReplayRunner matches the journal replay loop lifecycle.
//
// Satisfied by *journal.ReplayLoop. The indirection avoids importing the
// journal package and keeps the wrapper testable with mocks.
type ReplayRunner interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

// ReplayService wraps the journal replay loop as a supervised service.
//
// It adapts the Start/Stop lifecycle pattern to suture's Serve pattern:
//  1. Calls Start(ctx) to begin the replay loop
//  2. Waits for context cancellation
//  3. Calls Stop() for graceful shutdown (blocks until the loop goroutine exits)
//
// Example usage:
//
//	loop := journal.NewReplayLoop(jrnl, sink)
//	svc := services.NewReplayService(loop)
//	tree.AddDataService(svc)
type ReplayService struct {
	loop ReplayRunner
	name string
}

// NewReplayService creates a new replay service wrapper.
func NewReplayService(loop ReplayRunner) *ReplayService {
	return &ReplayService{
		loop: loop,
		name: "journal-replay",
	}
}

// Serve implements suture.Service.
//
// If Start() fails, the error is returned immediately, causing suture to
// restart the service according to its backoff policy.
func (s *ReplayService) Serve(ctx context.Context) error {
	if err := s.loop.Start(ctx); err != nil {
		return fmt.Errorf("journal replay start failed: %w", err)
	}

	<-ctx.Done()

	// Stop blocks until the background goroutine exits
	s.loop.Stop()

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *ReplayService) String() string {
	return s.name
}
