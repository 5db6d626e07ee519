package coordinator

import (
	"fmt"
	"slices"
	"time"

	pkgerrors "github.com/absmach/fedcoord/pkg/errors"
	"github.com/absmach/fedcoord/pkg/fl"
)

// registry owns node state and the pending submissions of the current
// round. It is not safe for concurrent use; the service serializes access.
type registry struct {
	nodes   map[string]*fl.Node
	pending map[string]fl.Submission
	dim     int
	scorer  fl.Scorer
}

func newRegistry(dim int, scorer fl.Scorer) *registry {
	return &registry{
		nodes:   make(map[string]*fl.Node),
		pending: make(map[string]fl.Submission),
		dim:     dim,
		scorer:  scorer,
	}
}

// register returns the node and whether it was created by this call.
func (r *registry) register(id string, weights fl.Vector, round uint64, now time.Time) (fl.Node, bool, error) {
	if id == "" {
		return fl.Node{}, false, fmt.Errorf("%w: node id", pkgerrors.ErrEmptyKey)
	}
	if err := weights.Validate(); err != nil {
		return fl.Node{}, false, err
	}

	if n, ok := r.nodes[id]; ok {
		if n.Dimension() != weights.Dim() {
			return fl.Node{}, false, fmt.Errorf("%w: node %s has dimension %d, got %d", pkgerrors.ErrDimensionConflict, id, n.Dimension(), weights.Dim())
		}

		return r.snapshot(n), false, nil
	}

	if r.dim != 0 {
		if err := weights.CheckDim(r.dim); err != nil {
			return fl.Node{}, false, err
		}
	}

	n := &fl.Node{
		ID:                 id,
		Weights:            weights.Clone(),
		LastSubmittedRound: round,
		RegisteredAt:       now,
		UpdatedAt:          now,
	}
	r.nodes[id] = n
	r.dim = weights.Dim()
	r.pending[id] = fl.Submission{
		NodeID:      id,
		Weights:     weights.Clone(),
		DataSize:    1,
		Accuracy:    0,
		Score:       0,
		SubmittedAt: now,
	}

	return r.snapshot(n), true, nil
}

// update validates a submission and, only when it is valid, replaces the
// node's pending entry for the round.
func (r *registry) update(id string, weights fl.Vector, dataSize int64, accuracy float64, round uint64, now time.Time) (fl.ContributionRecord, error) {
	n, ok := r.nodes[id]
	if !ok {
		return fl.ContributionRecord{}, fmt.Errorf("%w: %s", pkgerrors.ErrUnknownNode, id)
	}
	if err := weights.Validate(); err != nil {
		return fl.ContributionRecord{}, err
	}
	if err := weights.CheckDim(r.dim); err != nil {
		return fl.ContributionRecord{}, err
	}
	if dataSize <= 0 {
		return fl.ContributionRecord{}, fmt.Errorf("%w: data size must be positive, got %d", pkgerrors.ErrInvalidMetric, dataSize)
	}
	if !(accuracy >= 0 && accuracy <= 1) {
		return fl.ContributionRecord{}, fmt.Errorf("%w: accuracy must be in [0, 1], got %v", pkgerrors.ErrInvalidMetric, accuracy)
	}

	score := r.scorer.Score(dataSize, accuracy)
	r.pending[id] = fl.Submission{
		NodeID:      id,
		Weights:     weights.Clone(),
		DataSize:    dataSize,
		Accuracy:    accuracy,
		Score:       score,
		SubmittedAt: now,
	}

	n.Weights = weights.Clone()
	n.DataSize = dataSize
	n.Accuracy = accuracy
	n.LastSubmittedRound = round
	n.UpdatedAt = now

	return fl.ContributionRecord{NodeID: id, Round: round, Score: score}, nil
}

// submissions returns the pending set ordered by node id so aggregation is
// deterministic.
func (r *registry) submissions() []fl.Submission {
	subs := make([]fl.Submission, 0, len(r.pending))
	for _, s := range r.pending {
		subs = append(subs, s)
	}
	slices.SortFunc(subs, func(a, b fl.Submission) int {
		switch {
		case a.NodeID < b.NodeID:
			return -1
		case a.NodeID > b.NodeID:
			return 1
		default:
			return 0
		}
	})

	return subs
}

func (r *registry) clearPending() {
	clear(r.pending)
}

// credit adds each record's score to the owning node's cumulative
// contribution.
func (r *registry) credit(records []fl.ContributionRecord) {
	for _, rec := range records {
		if n, ok := r.nodes[rec.NodeID]; ok {
			n.CumulativeContribution += rec.Score
		}
	}
}

func (r *registry) get(id string, round, window uint64) (fl.Node, error) {
	n, ok := r.nodes[id]
	if !ok {
		return fl.Node{}, fmt.Errorf("%w: %s", pkgerrors.ErrUnknownNode, id)
	}

	return r.view(n, round, window), nil
}

func (r *registry) active(round, window uint64) []fl.Node {
	nodes := []fl.Node{}
	for _, id := range r.ids() {
		n := r.nodes[id]
		if fl.IsActive(n.LastSubmittedRound, round, window) {
			nodes = append(nodes, r.view(n, round, window))
		}
	}

	return nodes
}

func (r *registry) list(offset, limit, round, window uint64) ([]fl.Node, uint64) {
	ids := r.ids()
	total := uint64(len(ids))
	if offset >= total {
		return []fl.Node{}, total
	}
	end := min(offset+limit, total)
	if end < offset {
		end = total
	}

	nodes := make([]fl.Node, 0, end-offset)
	for _, id := range ids[offset:end] {
		nodes = append(nodes, r.view(r.nodes[id], round, window))
	}

	return nodes, total
}

// snapshots returns copies of the named nodes, skipping unknown ids.
func (r *registry) snapshots(ids ...string) []fl.Node {
	nodes := make([]fl.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := r.nodes[id]; ok {
			nodes = append(nodes, r.snapshot(n))
		}
	}

	return nodes
}

func (r *registry) all() []fl.Node {
	return r.snapshots(r.ids()...)
}

// load replaces the registry content with restored nodes.
func (r *registry) load(nodes []fl.Node, dim int) {
	clear(r.nodes)
	clear(r.pending)
	for _, n := range nodes {
		n.Weights = n.Weights.Clone()
		r.nodes[n.ID] = &n
	}
	r.dim = dim
}

func (r *registry) empty() bool {
	return len(r.nodes) == 0
}

func (r *registry) ids() []string {
	ids := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

func (r *registry) snapshot(n *fl.Node) fl.Node {
	c := *n
	c.Weights = n.Weights.Clone()

	return c
}

func (r *registry) view(n *fl.Node, round, window uint64) fl.Node {
	c := r.snapshot(n)
	c.Active = fl.IsActive(n.LastSubmittedRound, round, window)

	return c
}
