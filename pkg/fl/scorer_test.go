package fl_test

import (
	"math"
	"testing"

	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/stretchr/testify/assert"
)

func TestSaturatingScorer(t *testing.T) {
	scorer := fl.NewSaturatingScorer(100)

	cases := []struct {
		desc     string
		dataSize int64
		accuracy float64
		score    float64
	}{
		{
			desc:     "half point yields half of accuracy",
			dataSize: 100,
			accuracy: 0.8,
			score:    0.4,
		},
		{
			desc:     "zero accuracy yields zero",
			dataSize: 5000,
			accuracy: 0,
			score:    0,
		},
		{
			desc:     "zero data size yields zero",
			dataSize: 0,
			accuracy: 1,
			score:    0,
		},
		{
			desc:     "negative data size yields zero",
			dataSize: -10,
			accuracy: 1,
			score:    0,
		},
		{
			desc:     "three times half point",
			dataSize: 300,
			accuracy: 1,
			score:    0.75,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.InDelta(t, tc.score, scorer.Score(tc.dataSize, tc.accuracy), 1e-12)
		})
	}
}

func TestSaturatingScorerMonotonic(t *testing.T) {
	scorer := fl.NewSaturatingScorer(fl.DefaultHalfPoint)

	sizes := []int64{1, 2, 10, 100, 1000, 10_000, 1_000_000}
	accuracies := []float64{0, 0.01, 0.1, 0.5, 0.9, 1}

	for _, size := range sizes {
		prev := -1.0
		for _, acc := range accuracies {
			s := scorer.Score(size, acc)
			assert.GreaterOrEqual(t, s, prev, "score must not decrease in accuracy (size %d)", size)
			assert.Less(t, s, 1.0)
			prev = s
		}
		assert.Zero(t, scorer.Score(size, 0))
	}

	for _, acc := range accuracies {
		prev := -1.0
		for _, size := range sizes {
			s := scorer.Score(size, acc)
			assert.GreaterOrEqual(t, s, prev, "score must not decrease in data size (accuracy %f)", acc)
			prev = s
		}
	}
}

func TestSaturatingScorerHalfPointFallback(t *testing.T) {
	cases := []struct {
		desc      string
		halfPoint float64
		want      float64
	}{
		{desc: "configured half point", halfPoint: 50, want: 50},
		{desc: "zero half point", halfPoint: 0, want: fl.DefaultHalfPoint},
		{desc: "negative half point", halfPoint: -3, want: fl.DefaultHalfPoint},
		{desc: "NaN half point", halfPoint: math.NaN(), want: fl.DefaultHalfPoint},
		{desc: "infinite half point", halfPoint: math.Inf(1), want: fl.DefaultHalfPoint},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			scorer := fl.NewSaturatingScorer(tc.halfPoint)
			assert.Equal(t, tc.want, scorer.(fl.SaturatingScorer).HalfPoint)

			score := scorer.Score(int64(tc.want), 1)
			assert.False(t, math.IsNaN(score))
			assert.InDelta(t, 0.5, score, 1e-12)
		})
	}
}
