// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package services

import (
	"context"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/time/rate"

	"github.com/areyes-dev/lodestar/internal/events"
	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/metrics"
	"github.com/areyes-dev/lodestar/internal/recommend"
)

// trainRunTimeout bounds a single training run. Matches the budget the API's
// manual retrain path uses.
const trainRunTimeout = 30 * time.Minute

// TrainingEngine is the slice of the recommendation engine the trainer needs.
type TrainingEngine interface {
	Retrain(ctx context.Context) (*recommend.TrainingResult, error)
}

// TrainerBus is the slice of the event bus the trainer needs: it consumes
// feedback events and announces completed training runs.
type TrainerBus interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	PublishModelTrained(ctx context.Context, event *events.ModelTrained) error
}

// TrainerConfig holds configuration for the trainer service.
type TrainerConfig struct {
	// TrainOnStartup triggers a training run when the service starts.
	TrainOnStartup bool

	// TrainInterval is how often to retrain on a schedule.
	// Default: 6h
	TrainInterval time.Duration

	// Debounce is the minimum gap between feedback-driven retrains. A burst
	// of feedback events coalesces into one run at the end of the window.
	// Default: 30s
	Debounce time.Duration
}

// TrainerService owns the model training lifecycle. It retrains on startup
// (optional), on a fixed schedule, and in response to feedback events, with
// the three triggers feeding the same single-flight engine path.
//
// Feedback-driven runs are throttled by a rate limiter so that a burst of
// submissions produces one training run per debounce window instead of one
// per event. Scheduled runs ignore the limiter.
type TrainerService struct {
	engine  TrainingEngine
	bus     TrainerBus
	config  TrainerConfig
	limiter *rate.Limiter
	name    string
}

// NewTrainerService creates a new trainer service. The bus may be nil, in
// which case only startup and scheduled training run.
func NewTrainerService(engine TrainingEngine, bus TrainerBus, cfg TrainerConfig) *TrainerService {
	if cfg.TrainInterval <= 0 {
		cfg.TrainInterval = 6 * time.Hour
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 30 * time.Second
	}
	return &TrainerService{
		engine:  engine,
		bus:     bus,
		config:  cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.Debounce), 1),
		name:    "trainer",
	}
}

// Serve implements the suture.Service interface.
func (s *TrainerService) Serve(ctx context.Context) error {
	logging.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("train_interval", s.config.TrainInterval).
		Dur("debounce", s.config.Debounce).
		Msg("Trainer service starting")

	if s.config.TrainOnStartup {
		s.train(ctx, "startup")
	}

	var feedbackCh <-chan *message.Message
	if s.bus != nil {
		ch, err := s.bus.Subscribe(ctx, events.TopicFeedbackRecorded)
		if err != nil {
			return err
		}
		feedbackCh = ch
	}

	ticker := time.NewTicker(s.config.TrainInterval)
	defer ticker.Stop()

	// The retrain timer is armed only while a feedback-driven run is
	// pending, so every Reset below happens on a stopped, drained timer.
	retrain := time.NewTimer(time.Hour)
	if !retrain.Stop() {
		<-retrain.C
	}
	defer retrain.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Trainer service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.train(ctx, "interval")

		case msg, ok := <-feedbackCh:
			if !ok {
				// Bus closed underneath us; keep scheduled training alive.
				feedbackCh = nil
				continue
			}
			msg.Ack()
			metrics.RecordEventConsumed(events.TopicFeedbackRecorded)

			if !pending {
				pending = true
				retrain.Reset(s.limiter.Reserve().Delay())
			}

		case <-retrain.C:
			pending = false
			s.train(ctx, "feedback")
		}
	}
}

// train performs one training run and records its outcome. Losing the race
// against a concurrent manual retrain is not an error; the in-flight run
// covers the same data.
func (s *TrainerService) train(ctx context.Context, trigger string) {
	runCtx, cancel := context.WithTimeout(ctx, trainRunTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.engine.Retrain(runCtx)
	if err != nil {
		if errors.Is(err, recommend.ErrTrainingInProgress) {
			logging.Debug().Str("trigger", trigger).Msg("Training trigger lost the race, run already in flight")
			return
		}
		metrics.RecordTrainingRun(trigger, time.Since(start), false, err)
		logging.Error().Err(err).Str("trigger", trigger).Msg("Training run failed")
		return
	}

	metrics.RecordTrainingRun(trigger, result.Duration, !result.CollaborativeTrained, nil)

	if s.bus != nil {
		event := &events.ModelTrained{
			Version:              result.ModelVersion,
			Trigger:              trigger,
			CollaborativeTrained: result.CollaborativeTrained,
			Students:             result.UserCount,
			Programs:             result.ItemCount,
			TrainedAt:            result.TrainedAt,
		}
		if err := s.bus.PublishModelTrained(ctx, event); err != nil {
			logging.Warn().Err(err).Msg("Publishing model trained event failed")
		}
	}
}

// String returns the service name for logging.
func (s *TrainerService) String() string {
	return s.name
}
