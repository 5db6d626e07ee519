package fl

import "sort"

const defTrimRatio = 0.1

// MedianAggregator takes the coordinate-wise median of the submitted
// weights, which tolerates a minority of outlying nodes.
type MedianAggregator struct{}

func NewMedianAggregator() Aggregator {
	return &MedianAggregator{}
}

func (m *MedianAggregator) Aggregate(submissions []Submission) (Result, error) {
	dim, totalDataSize, err := prepare(submissions)
	if err != nil {
		return Result{}, err
	}

	aggregated := Zeros(dim)
	values := make([]float64, len(submissions))
	for j := range aggregated {
		for i, s := range submissions {
			values[i] = s.Weights[j]
		}
		sort.Float64s(values)
		aggregated[j] = median(values)
	}

	return Result{
		Weights:       aggregated,
		Accuracy:      weightedAccuracy(submissions, totalDataSize),
		TotalDataSize: totalDataSize,
		Algorithm:     AlgorithmMedian,
	}, nil
}

// TrimmedMeanAggregator drops the lowest and highest TrimRatio share of
// values per coordinate and averages the rest. Rounds with fewer than three
// submissions fall back to FedAvg.
type TrimmedMeanAggregator struct {
	TrimRatio float64
}

func NewTrimmedMeanAggregator(trimRatio float64) Aggregator {
	if trimRatio <= 0 || trimRatio >= 0.5 {
		trimRatio = defTrimRatio
	}

	return &TrimmedMeanAggregator{TrimRatio: trimRatio}
}

func (t *TrimmedMeanAggregator) Aggregate(submissions []Submission) (Result, error) {
	if len(submissions) < 3 {
		return NewFedAvgAggregator().Aggregate(submissions)
	}

	dim, totalDataSize, err := prepare(submissions)
	if err != nil {
		return Result{}, err
	}

	trim := max(int(float64(len(submissions))*t.TrimRatio), 1)

	aggregated := Zeros(dim)
	values := make([]float64, len(submissions))
	for j := range aggregated {
		for i, s := range submissions {
			values[i] = s.Weights[j]
		}
		sort.Float64s(values)
		kept := values
		if len(values) > 2*trim {
			kept = values[trim : len(values)-trim]
		}
		var sum float64
		for _, v := range kept {
			sum += v
		}
		aggregated[j] = sum / float64(len(kept))
	}

	return Result{
		Weights:       aggregated,
		Accuracy:      weightedAccuracy(submissions, totalDataSize),
		TotalDataSize: totalDataSize,
		Algorithm:     AlgorithmTrimmedMean,
	}, nil
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}

	return (sorted[n/2-1] + sorted[n/2]) / 2
}
