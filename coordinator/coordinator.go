package coordinator

import (
	"context"

	"github.com/absmach/fedcoord/pkg/fl"
)

const DefActivityWindow = 1

type Config struct {
	// Dimension fixes the model dimension up front. Zero lets the first
	// registration fix it.
	Dimension      int     `env:"DIMENSION"       envDefault:"0"`
	ActivityWindow uint64  `env:"ACTIVITY_WINDOW" envDefault:"1"`
	HalfPoint      float64 `env:"SCORE_HALF_POINT" envDefault:"1000"`
	Aggregation    string  `env:"AGGREGATION"     envDefault:"fedavg"`
	TrimRatio      float64 `env:"TRIM_RATIO"      envDefault:"0.1"`
}

type Service interface {
	// RegisterNode adds a node and seeds a neutral submission for the
	// current round from its initial weights. Registering an existing node
	// with the same dimension returns it unchanged.
	RegisterNode(ctx context.Context, nodeID string, weights fl.Vector) (fl.Node, error)
	// UpdateNode records the node's latest submission for the current round
	// and returns its contribution score.
	UpdateNode(ctx context.Context, nodeID string, weights fl.Vector, dataSize int64, accuracy float64) (fl.ContributionRecord, error)
	// TriggerAggregation combines the pending submissions into the next
	// global model and advances the round by one.
	TriggerAggregation(ctx context.Context) (AggregationResult, error)

	GetCurrentRound(ctx context.Context) uint64
	GetGlobalAccuracy(ctx context.Context) float64
	GetActiveNodes(ctx context.Context) []fl.Node
	GetBestOrGlobalModel(ctx context.Context) fl.GlobalModel
	GetGlobalModel(ctx context.Context) fl.GlobalModel
	GetStatus(ctx context.Context) Status

	GetNode(ctx context.Context, nodeID string) (fl.Node, error)
	ListNodes(ctx context.Context, offset, limit uint64) (NodePage, error)
	GetRoundModel(ctx context.Context, round uint64) (fl.GlobalModel, error)
	ListContributions(ctx context.Context, nodeID string, offset, limit uint64) (ContributionPage, error)

	// Restore reloads nodes and committed models from storage. It must be
	// called before any node registers.
	Restore(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

type AggregationResult struct {
	Model         fl.GlobalModel          `json:"model"`
	Contributions []fl.ContributionRecord `json:"contributions"`
}

type Status struct {
	Round              uint64    `json:"round"`
	GlobalAccuracy     float64   `json:"global_accuracy"`
	Dimension          int       `json:"dimension"`
	RegisteredNodes    int       `json:"registered_nodes"`
	ActiveNodes        []fl.Node `json:"active_nodes"`
	PendingSubmissions int       `json:"pending_submissions"`
	Algorithm          string    `json:"algorithm"`
	BestRound          uint64    `json:"best_round"`
	BestAccuracy       float64   `json:"best_accuracy"`
}

type NodePage struct {
	Offset uint64    `json:"offset"`
	Limit  uint64    `json:"limit"`
	Total  uint64    `json:"total"`
	Nodes  []fl.Node `json:"nodes"`
}

type ContributionPage struct {
	Offset        uint64                  `json:"offset"`
	Limit         uint64                  `json:"limit"`
	Total         uint64                  `json:"total"`
	NodeID        string                  `json:"node_id"`
	Contributions []fl.ContributionRecord `json:"contributions"`
}

// Notifier announces committed rounds to training nodes.
type Notifier interface {
	NotifyRound(ctx context.Context, model fl.GlobalModel) error
}

// RewardDispatcher hands contribution records to the reward ledger without
// blocking the caller.
type RewardDispatcher interface {
	Dispatch(ctx context.Context, records []fl.ContributionRecord)
}
