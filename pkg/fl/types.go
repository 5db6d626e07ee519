package fl

import "time"

// Node is a participating training node as tracked by the coordinator.
type Node struct {
	ID                     string    `json:"id"`
	Weights                Vector    `json:"weights"`
	DataSize               int64     `json:"data_size"`
	Accuracy               float64   `json:"accuracy"`
	LastSubmittedRound     uint64    `json:"last_submitted_round"`
	CumulativeContribution float64   `json:"cumulative_contribution"`
	Active                 bool      `json:"active"`
	RegisteredAt           time.Time `json:"registered_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Dimension returns the length of the node's weight vector.
func (n Node) Dimension() int {
	return len(n.Weights)
}

// IsActive reports whether a node that last submitted in lastRound is
// active at currentRound for the given activity window.
func IsActive(lastRound, currentRound, window uint64) bool {
	return lastRound+window >= currentRound
}

// GlobalModel is the consensus state produced by an aggregation.
type GlobalModel struct {
	Weights       Vector    `json:"weights"`
	Round         uint64    `json:"round"`
	Accuracy      float64   `json:"accuracy"`
	Participants  int       `json:"participants"`
	TotalDataSize int64     `json:"total_data_size"`
	Algorithm     string    `json:"algorithm,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Clone returns a deep copy so callers can never alias the published weights.
func (m GlobalModel) Clone() GlobalModel {
	m.Weights = m.Weights.Clone()

	return m
}

// ContributionRecord is the score computed for a node's submission in a round.
type ContributionRecord struct {
	NodeID string  `json:"node_id"`
	Round  uint64  `json:"round"`
	Score  float64 `json:"score"`
}

// Submission is a pending, not yet aggregated, update of a single node.
type Submission struct {
	NodeID      string    `json:"node_id"`
	Weights     Vector    `json:"weights"`
	DataSize    int64     `json:"data_size"`
	Accuracy    float64   `json:"accuracy"`
	Score       float64   `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Result is the outcome of combining a set of submissions.
type Result struct {
	Weights       Vector
	Accuracy      float64
	TotalDataSize int64
	Algorithm     string
}

type Aggregator interface {
	Aggregate(submissions []Submission) (Result, error)
}
