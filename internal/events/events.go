// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

// Package events provides the in-process event bus connecting the feedback
// path to the background trainer.
//
// Topics are fan-out: every subscriber receives every message. Payloads are
// JSON so a future external transport can carry them unchanged.
package events

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// Topic names.
const (
	// TopicFeedbackRecorded carries one message per durably stored
	// feedback signal. The trainer listens here to debounce retraining.
	TopicFeedbackRecorded = "feedback.recorded"

	// TopicModelTrained announces a completed training run.
	TopicModelTrained = "model.trained"
)

// FeedbackRecorded is published after a feedback signal has been journaled
// and inserted.
type FeedbackRecorded struct {
	// InteractionID is the ID of the stored interaction row.
	InteractionID string `json:"interaction_id"`

	// StudentID identifies the student who gave the feedback.
	StudentID string `json:"student_id"`

	// ProgramID identifies the program the feedback is about.
	ProgramID string `json:"program_id"`

	// Clicked is true when the student opened the recommendation.
	Clicked bool `json:"clicked"`

	// Accepted is true when the student enrolled or shortlisted.
	Accepted bool `json:"accepted"`

	// Rating is the optional 1-5 star rating.
	Rating *int `json:"rating,omitempty"`

	// OccurredAt is when the feedback was recorded.
	OccurredAt time.Time `json:"occurred_at"`
}

// Kind returns the strongest signal carried by the event, used for metrics
// labels and log fields.
func (e *FeedbackRecorded) Kind() string {
	switch {
	case e.Accepted:
		return "accept"
	case e.Clicked:
		return "click"
	case e.Rating != nil:
		return "rating"
	default:
		return "bare"
	}
}

// Validate checks that the event identifies a stored interaction.
func (e *FeedbackRecorded) Validate() error {
	if e.InteractionID == "" {
		return fmt.Errorf("interaction_id is required")
	}
	if e.StudentID == "" {
		return fmt.Errorf("student_id is required")
	}
	if e.ProgramID == "" {
		return fmt.Errorf("program_id is required")
	}
	if e.Rating != nil && (*e.Rating < 1 || *e.Rating > 5) {
		return fmt.Errorf("rating must be between 1 and 5, got %d", *e.Rating)
	}
	return nil
}

// ModelTrained is published after a successful training run.
type ModelTrained struct {
	// Version is the model version installed by the run.
	Version int `json:"version"`

	// Trigger names what started the run: startup, periodic, feedback,
	// or manual.
	Trigger string `json:"trigger"`

	// CollaborativeTrained is false when the run fell back to
	// content-only because the interaction matrix was too sparse.
	CollaborativeTrained bool `json:"collaborative_trained"`

	// Students and Programs are the factorization dimensions.
	Students int `json:"students"`
	Programs int `json:"programs"`

	// TrainedAt is when the run finished.
	TrainedAt time.Time `json:"trained_at"`
}

// DecodeFeedbackRecorded unmarshals a bus message into a feedback event.
func DecodeFeedbackRecorded(msg *message.Message) (*FeedbackRecorded, error) {
	var event FeedbackRecorded
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("unmarshal feedback event: %w", err)
	}
	return &event, nil
}

// DecodeModelTrained unmarshals a bus message into a training event.
func DecodeModelTrained(msg *message.Message) (*ModelTrained, error) {
	var event ModelTrained
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("unmarshal training event: %w", err)
	}
	return &event, nil
}
