package storage

import (
	"context"

	"github.com/absmach/fedcoord/pkg/fl"
)

// NodeRepository persists node snapshots. Save inserts or replaces.
type NodeRepository interface {
	Save(ctx context.Context, n fl.Node) error
	Get(ctx context.Context, id string) (fl.Node, error)
	List(ctx context.Context, offset, limit uint64) ([]fl.Node, uint64, error)
}

// ModelRepository keeps the history of committed global models, one per round.
type ModelRepository interface {
	Save(ctx context.Context, m fl.GlobalModel) error
	Get(ctx context.Context, round uint64) (fl.GlobalModel, error)
	Latest(ctx context.Context) (fl.GlobalModel, error)
	List(ctx context.Context, offset, limit uint64) ([]fl.GlobalModel, uint64, error)
}

// ContributionRepository keeps the per-round contribution records.
type ContributionRepository interface {
	Save(ctx context.Context, records []fl.ContributionRecord) error
	ListByNode(ctx context.Context, nodeID string, offset, limit uint64) ([]fl.ContributionRecord, uint64, error)
	ListByRound(ctx context.Context, round uint64) ([]fl.ContributionRecord, error)
}
