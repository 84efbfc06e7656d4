// Package events defines the notifications published on the event bus
// while a calibration batch runs.
package events

import (
	"time"

	"github.com/gridcal/pricefit/core/model"
)

// FitEvent is published after each group's independent fit.
type FitEvent struct {
	Key      model.GroupKey
	Status   model.FitStatus
	Flags    []model.Flag
	Duration time.Duration
}

// OrderingEvent is published after the ordering check of one coupled pair,
// whether or not the invariant was violated.
type OrderingEvent struct {
	AssetID     string
	Producer    model.GroupKey
	Consumer    model.GroupKey
	Violated    bool
	Reoptimized bool
}

// BatchEvent is published once when the whole run finishes.
type BatchEvent struct {
	RunID     string
	Successes int
	Partials  int
	Failures  int
	Duration  time.Duration
}
