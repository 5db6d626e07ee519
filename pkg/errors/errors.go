package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyKey     = errors.New("empty key")
	ErrInvalidData  = errors.New("invalid data type")
	ErrEntityExists = errors.New("entity already exists")

	// ErrUnknownNode indicates an operation referencing a node that was never registered.
	ErrUnknownNode = errors.New("unknown node")
	// ErrDimensionMismatch indicates a weight vector whose length differs from the model dimension.
	ErrDimensionMismatch = errors.New("weight vector dimension mismatch")
	// ErrDimensionConflict indicates a re-registration with a different dimension.
	ErrDimensionConflict = errors.New("node already registered with a different dimension")
	// ErrInvalidMetric indicates a data size or accuracy outside its domain.
	ErrInvalidMetric = errors.New("invalid metric")
	// ErrInvalidWeights indicates an empty weight vector or one holding NaN or Inf values.
	ErrInvalidWeights = errors.New("invalid weights")
	// ErrNoSubmissions indicates an aggregation attempt with nothing pending.
	ErrNoSubmissions = errors.New("no submissions pending for aggregation")
)
