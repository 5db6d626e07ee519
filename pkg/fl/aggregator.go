package fl

import (
	"fmt"
	"math"

	"github.com/absmach/fedcoord/pkg/errors"
)

const (
	AlgorithmFedAvg      = "FedAvg"
	AlgorithmMedian      = "Median"
	AlgorithmTrimmedMean = "TrimmedMean"
)

type FedAvgAggregator struct{}

func NewFedAvgAggregator() Aggregator {
	return &FedAvgAggregator{}
}

// Aggregate computes new[j] = sum_i (n_i / N) * w_i[j] where n_i is the data
// size of submission i and N the summed data size. Accuracy is weighted the
// same way.
func (f *FedAvgAggregator) Aggregate(submissions []Submission) (Result, error) {
	dim, totalDataSize, err := prepare(submissions)
	if err != nil {
		return Result{}, err
	}

	aggregated := Zeros(dim)
	norm := float64(totalDataSize)
	for _, s := range submissions {
		if err := aggregated.AddScaled(s.Weights, float64(s.DataSize)/norm); err != nil {
			return Result{}, err
		}
	}

	return Result{
		Weights:       aggregated,
		Accuracy:      weightedAccuracy(submissions, totalDataSize),
		TotalDataSize: totalDataSize,
		Algorithm:     AlgorithmFedAvg,
	}, nil
}

// NewAggregator returns the aggregator registered under name. An empty name
// selects FedAvg.
func NewAggregator(name string, trimRatio float64) (Aggregator, error) {
	switch name {
	case "", "fedavg":
		return NewFedAvgAggregator(), nil
	case "median":
		return NewMedianAggregator(), nil
	case "trimmed_mean":
		return NewTrimmedMeanAggregator(trimRatio), nil
	default:
		return nil, fmt.Errorf("unsupported aggregation strategy: %s", name)
	}
}

// prepare validates a batch of submissions and returns their shared
// dimension and summed data size.
func prepare(submissions []Submission) (int, int64, error) {
	if len(submissions) == 0 {
		return 0, 0, errors.ErrNoSubmissions
	}

	dim := submissions[0].Weights.Dim()
	var total int64
	for _, s := range submissions {
		if err := s.Weights.CheckDim(dim); err != nil {
			return 0, 0, fmt.Errorf("node %s: %w", s.NodeID, err)
		}
		if s.DataSize <= 0 {
			return 0, 0, fmt.Errorf("%w: node %s has data size %d", errors.ErrInvalidMetric, s.NodeID, s.DataSize)
		}
		if total > math.MaxInt64-s.DataSize {
			return 0, 0, ErrOverflow
		}
		total += s.DataSize
	}

	return dim, total, nil
}

func weightedAccuracy(submissions []Submission, totalDataSize int64) float64 {
	var acc float64
	norm := float64(totalDataSize)
	for _, s := range submissions {
		acc += s.Accuracy * float64(s.DataSize) / norm
	}

	return acc
}
