// Package ledger forwards contribution scores to an external reward ledger.
//
// The coordinator never waits on the ledger: records are handed to a
// Dispatcher which retries failed submissions on its own schedule.
package ledger

import (
	"context"
	"errors"
)

var (
	ErrEmptyNodeID  = errors.New("empty node id")
	ErrInvalidScore = errors.New("invalid contribution score")
	ErrRejected     = errors.New("ledger rejected contribution")
	ErrUnavailable  = errors.New("ledger unavailable")
)

// Ledger records a node's contribution and returns the transaction id
// assigned by the ledger.
type Ledger interface {
	SubmitContribution(ctx context.Context, nodeID string, score float64) (string, error)
}

// Contribution is the payload submitted to a ledger.
type Contribution struct {
	TransactionID string  `json:"transaction_id"`
	NodeID        string  `json:"node_id"`
	Score         float64 `json:"score"`
}
