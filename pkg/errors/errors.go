package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyKey     = errors.New("empty key")
	ErrInvalidData  = errors.New("invalid data type")
	ErrEntityExists = errors.New("entity already exists")

	ErrAlreadyTraining       = errors.New("a training round is already active")
	ErrModelNotInitialized   = errors.New("model is not initialized")
	ErrNoTrainingData        = errors.New("no training data uploaded")
	ErrNoParticipants        = errors.New("participant set is empty")
	ErrAggregationEmptyInput = errors.New("no snapshots to aggregate")
	ErrShapeMismatch         = errors.New("weight shape mismatch")
	ErrInvalidConfig         = errors.New("invalid model config")
	ErrTerminalRound         = errors.New("round is in a terminal state")
)
