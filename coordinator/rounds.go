package coordinator

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/absmach/fedcoord/pkg/fl"
)

// rounds owns round progression. The current and best models are published
// through atomic pointers so readers never take the service lock; writers
// must hold it.
type rounds struct {
	aggregator fl.Aggregator
	current    atomic.Pointer[fl.GlobalModel]
	best       atomic.Pointer[fl.GlobalModel]
}

func newRounds(aggregator fl.Aggregator, dim int) *rounds {
	r := &rounds{aggregator: aggregator}
	r.current.Store(&fl.GlobalModel{
		Weights: fl.Zeros(dim),
		Round:   0,
	})

	return r
}

func (r *rounds) model() *fl.GlobalModel {
	return r.current.Load()
}

func (r *rounds) round() uint64 {
	return r.current.Load().Round
}

// bestModel returns the committed model with the highest accuracy, or nil
// when no round has been committed.
func (r *rounds) bestModel() *fl.GlobalModel {
	return r.best.Load()
}

// fixDimension resizes the round zero model once the model dimension is
// known.
func (r *rounds) fixDimension(dim int) {
	m := r.current.Load()
	if m.Round != 0 || m.Weights.Dim() == dim {
		return
	}
	next := *m
	next.Weights = fl.Zeros(dim)
	r.current.Store(&next)
}

// aggregate combines subs into the next global model. Nothing is published
// unless the whole computation succeeds.
func (r *rounds) aggregate(subs []fl.Submission, dim int, now time.Time) (fl.GlobalModel, []fl.ContributionRecord, error) {
	for _, s := range subs {
		if err := s.Weights.CheckDim(dim); err != nil {
			return fl.GlobalModel{}, nil, fmt.Errorf("node %s: %w", s.NodeID, err)
		}
	}

	res, err := r.aggregator.Aggregate(subs)
	if err != nil {
		return fl.GlobalModel{}, nil, err
	}

	prev := r.current.Load()
	next := &fl.GlobalModel{
		Weights:       res.Weights,
		Round:         prev.Round + 1,
		Accuracy:      res.Accuracy,
		Participants:  len(subs),
		TotalDataSize: res.TotalDataSize,
		Algorithm:     res.Algorithm,
		CreatedAt:     now,
	}

	records := make([]fl.ContributionRecord, len(subs))
	for i, s := range subs {
		records[i] = fl.ContributionRecord{NodeID: s.NodeID, Round: prev.Round, Score: s.Score}
	}

	r.current.Store(next)
	if b := r.best.Load(); b == nil || next.Accuracy > b.Accuracy {
		r.best.Store(next)
	}

	return next.Clone(), records, nil
}

// restore publishes a model loaded from storage as the current one.
func (r *rounds) restore(latest, best *fl.GlobalModel) {
	if latest != nil {
		r.current.Store(latest)
	}
	if best != nil {
		r.best.Store(best)
	}
}
