// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestSupervisorTreeIntegration tests the complete supervisor tree behavior
// with multiple services across all layers, simulating a real application.
func TestSupervisorTreeIntegration(t *testing.T) {
	t.Run("full tree with services in all layers", func(t *testing.T) {
		tree, err := NewSupervisorTree(testLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   50 * time.Millisecond,
			ShutdownTimeout:  500 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}

		replaySvc := NewMockService("journal-replay")
		trainerSvc := NewMockService("trainer")
		httpSvc := NewMockService("http-server")

		tree.AddDataService(replaySvc)
		tree.AddTrainingService(trainerSvc)
		tree.AddAPIService(httpSvc)

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		errCh := tree.ServeBackground(ctx)

		// Wait for services to start with polling (more reliable in CI under load)
		var allStarted bool
		for i := 0; i < 10; i++ {
			time.Sleep(20 * time.Millisecond)
			if replaySvc.StartCount() >= 1 && trainerSvc.StartCount() >= 1 && httpSvc.StartCount() >= 1 {
				allStarted = true
				break
			}
		}

		if !allStarted {
			if replaySvc.StartCount() < 1 {
				t.Error("replay service was not started")
			}
			if trainerSvc.StartCount() < 1 {
				t.Error("trainer service was not started")
			}
			if httpSvc.StartCount() < 1 {
				t.Error("http service was not started")
			}
		}

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("tree did not shut down")
		}
	})

	t.Run("cascade failure isolation", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
			FailureThreshold: 10,
			FailureBackoff:   10 * time.Millisecond,
			ShutdownTimeout:  500 * time.Millisecond,
		})

		// A crashing trainer must not take down journal replay or the API
		failingSvc := NewMockService("failing-trainer")
		failingSvc.SetFailCount(3)

		stableData := NewMockService("stable-replay")
		stableAPI := NewMockService("stable-api")

		tree.AddDataService(stableData)
		tree.AddTrainingService(failingSvc)
		tree.AddAPIService(stableAPI)

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()

		errCh := tree.ServeBackground(ctx)

		// Wait for restarts to happen
		time.Sleep(150 * time.Millisecond)

		if failingSvc.StartCount() < 3 {
			t.Errorf("failing service should have been restarted at least 3 times, got %d", failingSvc.StartCount())
		}

		if stableData.StartCount() < 1 {
			t.Error("stable replay service should have started")
		}
		if stableAPI.StartCount() < 1 {
			t.Error("stable API service should have started")
		}

		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Error("tree did not shut down")
		}
	})
}

// TestSupervisorTreeConcurrency tests concurrent operations on the supervisor tree.
func TestSupervisorTreeConcurrency(t *testing.T) {
	t.Run("concurrent service additions are safe", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
			ShutdownTimeout: 500 * time.Millisecond,
		})

		for i := 0; i < 10; i++ {
			go func(idx int) {
				svc := NewMockService("concurrent-svc")
				switch idx % 3 {
				case 0:
					tree.AddDataService(svc)
				case 1:
					tree.AddTrainingService(svc)
				case 2:
					tree.AddAPIService(svc)
				}
			}(i)
		}

		// Short delay to let goroutines complete (100ms for CI reliability under load)
		time.Sleep(100 * time.Millisecond)

		// Start and stop the tree to verify no data races
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		errCh := tree.ServeBackground(ctx)

		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Error("tree did not shut down")
		}
	})
}

// TestSupervisorTreeEdgeCases tests edge cases and error conditions.
func TestSupervisorTreeEdgeCases(t *testing.T) {
	t.Run("empty tree starts and stops gracefully", func(t *testing.T) {
		tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
			ShutdownTimeout: 500 * time.Millisecond,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		errCh := tree.ServeBackground(ctx)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(500 * time.Millisecond):
			t.Error("tree did not shut down")
		}
	})
}
