package fl

import "math"

// DefaultHalfPoint is the data size at which the data factor of the
// saturating scorer reaches 0.5.
const DefaultHalfPoint = 1000

type Scorer interface {
	Score(dataSize int64, accuracy float64) float64
}

// SaturatingScorer scores a submission as
//
//	accuracy * dataSize / (dataSize + HalfPoint)
//
// so additional data yields diminishing returns and the score stays in [0, 1).
type SaturatingScorer struct {
	HalfPoint float64
}

func NewSaturatingScorer(halfPoint float64) Scorer {
	if !(halfPoint > 0) || math.IsInf(halfPoint, 1) {
		halfPoint = DefaultHalfPoint
	}

	return SaturatingScorer{HalfPoint: halfPoint}
}

func (s SaturatingScorer) Score(dataSize int64, accuracy float64) float64 {
	if dataSize <= 0 || accuracy <= 0 {
		return 0
	}
	if accuracy > 1 {
		accuracy = 1
	}

	return accuracy * s.normalize(dataSize)
}

func (s SaturatingScorer) normalize(dataSize int64) float64 {
	n := float64(dataSize)

	return n / (n + s.HalfPoint)
}
