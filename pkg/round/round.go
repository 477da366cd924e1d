package round

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type Status uint8

const (
	Pending Status = iota
	Training
	Aggregating
	Completed
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Training:
		return "training"
	case Aggregating:
		return "aggregating"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "pending":
		*s = Pending
	case "training":
		*s = Training
	case "aggregating":
		*s = Aggregating
	case "completed":
		*s = Completed
	case "failed":
		*s = Failed
	default:
		return fmt.Errorf("unknown round status %q", string(text))
	}

	return nil
}

// Active reports whether a round in this status holds the model.
func (s Status) Active() bool {
	return s == Training || s == Aggregating
}

func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

var validTransitions = map[Status][]Status{
	Pending:     {Training, Failed},
	Training:    {Aggregating, Failed},
	Aggregating: {Completed, Failed},
	Completed:   {},
	Failed:      {},
}

func ValidTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	return slices.Contains(allowed, to)
}

// Round is one federated training round. Number doubles as its identifier
// and increases by exactly one per round.
type Round struct {
	Number       uint64    `json:"round_number"`
	Status       Status    `json:"status"`
	Participants []string  `json:"participants"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time,omitzero"`
	Accuracy     *float64  `json:"accuracy,omitempty"`
	Loss         *float64  `json:"loss,omitempty"`
	MAE          *float64  `json:"mae,omitempty"`
	Error        string    `json:"error,omitempty"`
	Snapshot     []byte    `json:"snapshot,omitempty"`
	Checkpoint   string    `json:"checkpoint,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Transition moves the round to the given status, stamping times.
func (r *Round) Transition(to Status, now time.Time) error {
	if !ValidTransition(r.Status, to) {
		return fmt.Errorf("invalid round transition from %s to %s", r.Status, to)
	}
	r.Status = to
	r.UpdatedAt = now
	switch to {
	case Training:
		if r.StartTime.IsZero() {
			r.StartTime = now
		}
	case Completed, Failed:
		r.EndTime = now
	}

	return nil
}

// Clone returns a copy sharing no memory with r.
func (r Round) Clone() Round {
	r.Participants = slices.Clone(r.Participants)
	r.Snapshot = slices.Clone(r.Snapshot)
	r.Accuracy = cloneFloat(r.Accuracy)
	r.Loss = cloneFloat(r.Loss)
	r.MAE = cloneFloat(r.MAE)

	return r
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f

	return &v
}

type Page struct {
	Offset uint64  `json:"offset"`
	Limit  uint64  `json:"limit"`
	Total  uint64  `json:"total"`
	Rounds []Round `json:"rounds"`
}
